package scrapers

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/bytedance/sonic"

	"github.com/dispodojo/agentfinder/internal/config"
	"github.com/dispodojo/agentfinder/internal/gateway"
	"github.com/dispodojo/agentfinder/internal/normalize"
	"github.com/dispodojo/agentfinder/internal/property"
)

// Zillow searches Zillow's public search path and parses the embedded
// __NEXT_DATA__ payload on the resulting detail page for agent
// attribution, falling back to a deep scan of every JSON script tag.
// Grounded on scrapers/zillow.py.
type Zillow struct {
	gw *gateway.Gateway
}

func NewZillow(gw *gateway.Gateway) *Zillow { return &Zillow{gw: gw} }

func (z *Zillow) Name() string { return config.SourceZillow }

func (z *Zillow) Search(p property.Property) (*property.AgentInfo, error) {
	ctx := context.Background()
	detailURL, err := z.searchProperty(ctx, p)
	if err != nil {
		return nil, err
	}
	if detailURL == "" {
		return nil, nil
	}
	return z.fetchDetailPage(ctx, detailURL)
}

func (z *Zillow) searchProperty(ctx context.Context, p property.Property) (string, error) {
	searchURL := "https://www.zillow.com/homes/" + url.QueryEscape(p.SearchQuery()) + "_rb/"
	headers := gateway.BrowserHeaders()
	headers.Set("Referer", "https://www.zillow.com/")

	resp, body, err := z.gw.Get(ctx, searchURL, headers, nil)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != 200 {
		return "", nil
	}
	if resp.Request != nil && strings.Contains(resp.Request.URL.String(), "/homedetails/") {
		return resp.Request.URL.String(), nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return "", nil
	}

	if script := doc.Find("script#__NEXT_DATA__").First(); script.Length() > 0 {
		var data map[string]any
		if err := sonic.UnmarshalString(script.Text(), &data); err == nil {
			results := digPath(data, "props", "pageProps", "searchPageState", "cat1", "searchResults", "listResults")
			if list, ok := results.([]any); ok && len(list) > 0 {
				if first, ok := list[0].(map[string]any); ok {
					if detailURL := stringify(first["detailUrl"]); detailURL != "" {
						return resolveZillowURL(detailURL), nil
					}
				}
			}
		}
	}

	href, ok := doc.Find(`a[href*="/homedetails/"]`).First().Attr("href")
	if ok && href != "" {
		return resolveZillowURL(href), nil
	}
	return "", nil
}

func resolveZillowURL(href string) string {
	if strings.HasPrefix(href, "/") {
		return "https://www.zillow.com" + href
	}
	return href
}

func (z *Zillow) fetchDetailPage(ctx context.Context, detailURL string) (*property.AgentInfo, error) {
	headers := gateway.BrowserHeaders()
	headers.Set("Referer", "https://www.zillow.com/")

	resp, body, err := z.gw.Get(ctx, detailURL, headers, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != 200 {
		return nil, nil
	}
	return parseZillowPage(string(body), detailURL), nil
}

func parseZillowPage(html, listingURL string) *property.AgentInfo {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var agentName, brokerage, phone, email string
	var zprop map[string]any

	script := doc.Find("script#__NEXT_DATA__").First()
	if script.Length() > 0 {
		var data map[string]any
		if err := sonic.UnmarshalString(script.Text(), &data); err == nil {
			propsField, _ := digPath(data, "props", "pageProps").(map[string]any)
			propertyData, _ := propsField["property"].(map[string]any)
			if propertyData == nil {
				propertyData = map[string]any{}
			}
			zprop = propertyData

			if !hasAttribution(propertyData) {
				gdpCache := digPath(propsField, "componentProps", "gdpClientCache")
				if cacheStr, ok := gdpCache.(string); ok {
					var parsed map[string]any
					if sonic.UnmarshalString(cacheStr, &parsed) == nil {
						gdpCache = parsed
					}
				}
				if cacheMap, ok := gdpCache.(map[string]any); ok {
					for _, nested := range cacheMap {
						if nestedMap, ok := nested.(map[string]any); ok {
							if prop, ok := nestedMap["property"].(map[string]any); ok {
								propertyData = prop
								zprop = prop
								break
							}
						}
					}
				}
			}

			if attr, ok := propertyData["attributionInfo"].(map[string]any); ok && attr != nil {
				agentName = stringify(attr["agentName"])
				phone = stringify(attr["agentPhoneNumber"])
				brokerage = stringify(attr["brokerName"])
				if phone == "" {
					phone = stringify(attr["brokerPhoneNumber"])
				}
			}
			if agentName == "" {
				if listingAgent, ok := propertyData["listingAgent"].(map[string]any); ok && listingAgent != nil {
					agentName = stringify(listingAgent["name"])
					if p := stringify(listingAgent["phone"]); p != "" {
						phone = p
					}
				}
			}
		}
	}

	if agentName == "" {
		doc.Find(`script[type="application/json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			var sdata any
			if sonic.UnmarshalString(s.Text(), &sdata) != nil {
				return true
			}
			if found := deepFind(sdata, "agentName", 10); found != "" {
				agentName = found
				phone = firstNonEmpty(deepFind(sdata, "agentPhoneNumber", 10), phone)
				brokerage = firstNonEmpty(deepFind(sdata, "brokerName", 10), brokerage)
				return false
			}
			return true
		})
	}

	if agentName == "" {
		return nil
	}

	listDate := firstNonEmpty(stringify(zprop["datePosted"]), stringify(zprop["dateSold"]))
	daysOnMarket := firstNonEmpty(stringify(zprop["daysOnZillow"]), stringify(zprop["timeOnZillow"]))
	if daysOnMarket == "" && listDate != "" {
		daysOnMarket = ComputeDaysOnMarket(listDate)
	}

	listingPrice := ""
	if priceVal := firstNonEmpty(stringify(zprop["price"]), stringify(zprop["listingPrice"]), stringify(zprop["list_price"])); priceVal != "" {
		listingPrice = formatRedfinPrice(priceVal)
	}

	return &property.AgentInfo{
		AgentName:    normalize.CleanName(agentName),
		Brokerage:    strings.TrimSpace(brokerage),
		Phone:        CleanPhone(phone),
		Email:        CleanEmail(email),
		Source:       config.SourceZillow,
		ListingURL:   listingURL,
		ListDate:     listDate,
		DaysOnMarket: daysOnMarket,
		ListingPrice: listingPrice,
	}
}

func hasAttribution(propertyData map[string]any) bool {
	attr, ok := propertyData["attributionInfo"].(map[string]any)
	return ok && attr != nil
}

// digPath walks a chain of map keys, returning nil at the first missing
// or non-map step.
func digPath(data any, path ...string) any {
	cur := data
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}

// deepFind recursively searches a decoded JSON value for key, matching
// ZillowScraper._deep_find's max_depth-bounded traversal.
func deepFind(obj any, key string, maxDepth int) string {
	if maxDepth <= 0 {
		return ""
	}
	switch v := obj.(type) {
	case map[string]any:
		if val, ok := v[key]; ok {
			if s := stringify(val); s != "" {
				return s
			}
		}
		for _, nested := range v {
			if found := deepFind(nested, key, maxDepth-1); found != "" {
				return found
			}
		}
	case []any:
		for _, item := range v {
			if found := deepFind(item, key, maxDepth-1); found != "" {
				return found
			}
		}
	}
	return ""
}
