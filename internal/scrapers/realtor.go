package scrapers

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/bytedance/sonic"

	"github.com/dispodojo/agentfinder/internal/config"
	"github.com/dispodojo/agentfinder/internal/gateway"
	"github.com/dispodojo/agentfinder/internal/normalize"
	"github.com/dispodojo/agentfinder/internal/property"
)

// Realtor scrapes Realtor.com property pages, trying a deterministically
// slugged direct URL first and always falling back to a search-results
// page. Grounded on scrapers/realtor.py.
type Realtor struct {
	gw *gateway.Gateway
}

func NewRealtor(gw *gateway.Gateway) *Realtor { return &Realtor{gw: gw} }

func (r *Realtor) Name() string { return config.SourceRealtor }

func (r *Realtor) Search(p property.Property) (*property.AgentInfo, error) {
	ctx := context.Background()

	if directURL := buildRealtorURL(p); directURL != "" {
		info, err := r.fetchAndParse(ctx, directURL)
		if err != nil {
			return nil, err
		}
		if info != nil {
			return info, nil
		}
	}
	return r.searchAndParse(ctx, p)
}

var slugRe = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// buildRealtorURL returns "" when the address itself is empty, or when
// there is neither a city+state pair nor a zip; otherwise it produces a
// best-effort slug, even with just a zip.
func buildRealtorURL(p property.Property) string {
	address := p.AddressLine
	if address == "" {
		address = p.RawAddress
	}
	if address == "" {
		return ""
	}
	state := normalize.NormalizeState(p.State)
	addrSlug := strings.Trim(slugRe.ReplaceAllString(strings.TrimSpace(address), "-"), "-")

	if p.City != "" && state != "" {
		citySlug := strings.Trim(slugRe.ReplaceAllString(strings.TrimSpace(p.City), "-"), "-")
		url := config.RealtorBaseURL + "/realestateandhomes-detail/" + addrSlug + "_" + citySlug + "_" + state
		if p.ZipCode != "" {
			url += "_" + p.ZipCode
		}
		return url
	}
	if p.ZipCode != "" {
		return config.RealtorBaseURL + "/realestateandhomes-detail/" + addrSlug + "_" + p.ZipCode
	}
	return ""
}

func (r *Realtor) fetchAndParse(ctx context.Context, url string) (*property.AgentInfo, error) {
	headers := gateway.BrowserHeaders()
	headers.Set("Referer", config.RealtorBaseURL)

	resp, body, err := r.gw.Get(ctx, url, headers, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != 200 {
		return nil, nil
	}
	return parseRealtorNextData(string(body)), nil
}

var nonSearchCharsRe = regexp.MustCompile(`[^a-zA-Z0-9\s,-]`)

func (r *Realtor) searchAndParse(ctx context.Context, p property.Property) (*property.AgentInfo, error) {
	query := p.SearchQuery()
	clean := nonSearchCharsRe.ReplaceAllString(query, "")
	clean = strings.ReplaceAll(clean, " ", "-")
	clean = strings.ReplaceAll(clean, ",", "")
	clean = strings.ReplaceAll(clean, "--", "-")
	searchURL := config.RealtorBaseURL + "/realestateandhomes-search/" + clean

	headers := gateway.BrowserHeaders()
	headers.Set("Referer", config.RealtorBaseURL)

	resp, body, err := r.gw.Get(ctx, searchURL, headers, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != 200 {
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, nil
	}
	href, ok := doc.Find(`a[href*="/realestateandhomes-detail/"]`).First().Attr("href")
	if !ok || href == "" {
		return nil, nil
	}
	if strings.HasPrefix(href, "/") {
		href = config.RealtorBaseURL + href
	}
	return r.fetchAndParse(ctx, href)
}

func parseRealtorNextData(html string) *property.AgentInfo {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	script := doc.Find("script#__NEXT_DATA__").First()
	if script.Length() == 0 {
		return nil
	}
	var data map[string]any
	if err := sonic.UnmarshalString(script.Text(), &data); err != nil {
		return nil
	}

	props, _ := digPath(data, "props", "pageProps").(map[string]any)
	propertyData, _ := props["property"].(map[string]any)
	if propertyData == nil {
		propertyData, _ = digPath(props, "initialState", "propertyDetails", "propertyDetails").(map[string]any)
	}
	if propertyData == nil {
		propertyData = map[string]any{}
	}

	listing, _ := propertyData["listing"].(map[string]any)
	listAgent, _ := listing["list_agent"].(map[string]any)
	listOffice, _ := listing["list_office"].(map[string]any)

	agentName := firstNonEmpty(stringify(listAgent["name"]), stringify(listAgent["agent_name"]))
	phone := stringify(listAgent["phone"])
	if phone == "" {
		if phones, ok := listAgent["phones"].([]any); ok && len(phones) > 0 {
			if first, ok := phones[0].(map[string]any); ok {
				phone = stringify(first["number"])
			}
		}
	}
	email := stringify(listAgent["email"])
	brokerage := firstNonEmpty(stringify(listOffice["name"]), stringify(listOffice["office_name"]))

	if agentName == "" {
		if branding, ok := propertyData["branding"].([]any); ok {
			for _, b := range branding {
				brand, _ := b.(map[string]any)
				switch stringify(brand["type"]) {
				case "Agent":
					agentName = stringify(brand["name"])
				case "Office":
					brokerage = stringify(brand["name"])
				}
				if p := stringify(brand["phone"]); p != "" {
					phone = p
				}
			}
		}
	}

	if agentName == "" {
		return nil
	}

	description, _ := propertyData["description"].(map[string]any)
	listDate := firstNonEmpty(
		stringify(listing["list_date"]), stringify(description["list_date"]), stringify(propertyData["list_date"]),
	)
	daysOnMarket := firstNonEmpty(stringify(description["days_on_market"]), stringify(propertyData["days_on_market"]))
	if daysOnMarket == "" && listDate != "" {
		daysOnMarket = ComputeDaysOnMarket(listDate)
	}

	priceVal := firstNonEmpty(
		stringify(listing["list_price"]), stringify(description["list_price"]),
		stringify(propertyData["list_price"]), stringify(propertyData["price"]),
	)
	listingPrice := ""
	if priceVal != "" {
		listingPrice = formatRedfinPrice(priceVal)
	}

	return &property.AgentInfo{
		AgentName:    normalize.CleanName(agentName),
		Brokerage:    strings.TrimSpace(brokerage),
		Phone:        CleanPhone(phone),
		Email:        CleanEmail(email),
		Source:       config.SourceRealtor,
		ListDate:     listDate,
		DaysOnMarket: daysOnMarket,
		ListingPrice: listingPrice,
	}
}
