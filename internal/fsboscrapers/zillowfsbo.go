package fsboscrapers

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/bytedance/sonic"

	"github.com/dispodojo/agentfinder/internal/config"
	"github.com/dispodojo/agentfinder/internal/fsbomodel"
	"github.com/dispodojo/agentfinder/internal/gateway"
)

// ZillowFSBO searches Zillow's dedicated FSBO results page and parses the
// embedded __NEXT_DATA__ listing array. Zillow restructures this payload
// frequently, so the result-list lookup is a recursive structural search
// rather than a fixed path. Grounded on scrapers/zillow_fsbo.py.
type ZillowFSBO struct {
	gw *gateway.Gateway
}

func NewZillowFSBO(gw *gateway.Gateway) *ZillowFSBO { return &ZillowFSBO{gw: gw} }

func (z *ZillowFSBO) Name() string { return config.SourceZillowFSBO }

func (z *ZillowFSBO) SearchArea(criteria fsbomodel.FSBOSearchCriteria) ([]fsbomodel.FSBOListing, error) {
	if z.gw.IsCircuitOpen() {
		return nil, nil
	}
	ctx := context.Background()

	location := criteria.Location
	if criteria.LocationType == fsbomodel.LocationZip {
		location = strings.TrimSpace(strings.Split(criteria.Location, ",")[0])
	}
	searchURL := config.ZillowBaseURL + "/homes/fsbo/" + url.QueryEscape(location) + "_rb/"

	headers := gateway.BrowserHeaders()
	headers.Set("Referer", config.ZillowBaseURL+"/")

	resp, body, err := z.gw.Get(ctx, searchURL, headers, nil)
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
	script := doc.Find("script#__NEXT_DATA__").First()
	if script.Length() == 0 {
		return nil, nil
	}
	var data any
	if sonic.UnmarshalString(script.Text(), &data) != nil {
		return nil, nil
	}

	items := findListResults(data, 0, 8)
	var results []fsbomodel.FSBOListing
	for _, item := range items {
		listing := itemToListing(item, criteria)
		if listing != nil {
			results = append(results, *listing)
		}
	}
	return results, nil
}

var listResultKeys = map[string]bool{
	"listResults": true, "list_results": true, "searchResults": true, "mapResults": true,
}

// findListResults recursively searches a decoded JSON value for the
// search-result array, identified either by a well-known key name or by
// structural shape (a list whose first element looks like a listing).
// Mirrors zillow_fsbo.py's _find_list_results.
func findListResults(node any, depth, maxDepth int) []map[string]any {
	if depth > maxDepth {
		return nil
	}
	switch v := node.(type) {
	case map[string]any:
		for key, val := range v {
			if listResultKeys[key] {
				if list, ok := val.([]any); ok && len(list) > 0 {
					return toMapSlice(list)
				}
			}
		}
		for _, val := range v {
			if found := findListResults(val, depth+1, maxDepth); found != nil {
				return found
			}
		}
	case []any:
		if len(v) > 0 {
			if first, ok := v[0].(map[string]any); ok && looksLikeListing(first) {
				return toMapSlice(v)
			}
		}
		for _, item := range v {
			if found := findListResults(item, depth+1, maxDepth); found != nil {
				return found
			}
		}
	}
	return nil
}

func looksLikeListing(m map[string]any) bool {
	_, hasZpid := m["zpid"]
	_, hasAddress := m["address"]
	_, hasDetailURL := m["detailUrl"]
	return hasZpid || hasAddress || hasDetailURL
}

func toMapSlice(list []any) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for _, v := range list {
		if m, ok := v.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func resolveZillowFSBOURL(href string) string {
	if strings.HasPrefix(href, "/") {
		return config.ZillowBaseURL + href
	}
	return href
}

func itemToListing(item map[string]any, criteria fsbomodel.FSBOSearchCriteria) *fsbomodel.FSBOListing {
	address := firstNonEmptyStr2(stringify(item["address"]), stringify(item["streetAddress"]))
	if address == "" {
		return nil
	}

	price := parseIntPtr(firstNonEmptyStr2(stringify(item["price"]), stringify(item["unformattedPrice"])))
	beds := intFromAny(item["beds"], item["bedrooms"])
	baths := floatFromAny(item["baths"], item["bathrooms"])
	dom := intFromAny(item["daysOnZillow"], item["timeOnZillow"])

	if !passesFilters(criteria, price, beds, baths, dom) {
		return nil
	}

	detailURL := stringify(item["detailUrl"])
	if detailURL != "" {
		detailURL = resolveZillowFSBOURL(detailURL)
	}

	phone := ""
	if hdpData, ok := item["hdpData"].(map[string]any); ok {
		if homeInfo, ok := hdpData["homeInfo"].(map[string]any); ok {
			phone = stringify(homeInfo["phone"])
		}
	}

	ownerName := ""
	if attr, ok := item["attributionInfo"].(map[string]any); ok {
		ownerName = stringify(attr["agentName"])
	}
	if ownerName == "" {
		ownerName = stringify(item["ownerName"])
	}

	city := stringify(item["city"])
	state := stringify(item["state"])
	zip := firstNonEmptyStr2(stringify(item["zipcode"]), stringify(item["zip"]))

	fullAddress := address
	if city != "" && state != "" {
		fullAddress = strings.TrimSpace(address + ", " + city + ", " + state + " " + zip)
	}

	sqft := intFromAny(item["livingArea"])
	propertyType := stringify(item["homeType"])

	listing := fsbomodel.FSBOListing{
		Address:      fullAddress,
		City:         city,
		State:        state,
		ZipCode:      zip,
		Price:        price,
		Beds:         beds,
		Baths:        baths,
		Sqft:         sqft,
		PropertyType: propertyType,
		DaysOnMarket: dom,
		OwnerName:    ownerName,
		Phone:        phone,
		ListingURL:   detailURL,
		Source:       config.SourceZillowFSBO,
	}
	listing.ContactStatus = listing.ComputeContactStatus()
	return &listing
}

func firstNonEmptyStr2(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func intFromAny(values ...any) *int {
	for _, v := range values {
		if s := stringify(v); s != "" {
			if n := atoiPtr(s); n != nil {
				return n
			}
		}
	}
	return nil
}

func floatFromAny(values ...any) *float64 {
	for _, v := range values {
		if s := stringify(v); s != "" {
			if f := atofPtr(s); f != nil {
				return f
			}
		}
	}
	return nil
}
