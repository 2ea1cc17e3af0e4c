package fsboscrapers

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/bytedance/sonic"

	"github.com/dispodojo/agentfinder/internal/config"
	"github.com/dispodojo/agentfinder/internal/fsbomodel"
	"github.com/dispodojo/agentfinder/internal/gateway"
	"github.com/dispodojo/agentfinder/internal/normalize"
	"github.com/dispodojo/agentfinder/internal/scrapers"
)

// RealtorFSBO searches Realtor.com's for-sale listings for the target
// area and keeps only the rows with no clearly-named professional agent
// and brokerage attached — the same surface HomeHarvest's "for_sale"
// listing type exposes, filtered by an agent-exclusion heuristic instead
// of trusted directly. Grounded on scrapers/realtor_fsbo.py.
type RealtorFSBO struct {
	gw *gateway.Gateway
}

func NewRealtorFSBO(gw *gateway.Gateway) *RealtorFSBO { return &RealtorFSBO{gw: gw} }

func (r *RealtorFSBO) Name() string { return config.SourceRealtorFSBO }

var realtorFSBOCharsRe = regexp.MustCompile(`[^a-zA-Z0-9\s,-]`)

func (r *RealtorFSBO) SearchArea(criteria fsbomodel.FSBOSearchCriteria) ([]fsbomodel.FSBOListing, error) {
	if r.gw.IsCircuitOpen() {
		return nil, nil
	}
	ctx := context.Background()

	location := criteria.Location
	if criteria.LocationType == fsbomodel.LocationZip {
		location = strings.TrimSpace(strings.Split(criteria.Location, ",")[0])
	}
	clean := realtorFSBOCharsRe.ReplaceAllString(location, "")
	clean = strings.ReplaceAll(clean, " ", "-")
	clean = strings.ReplaceAll(clean, ",", "")
	clean = strings.ReplaceAll(clean, "--", "-")
	searchURL := config.RealtorBaseURL + "/realestateandhomes-search/" + clean

	headers := gateway.BrowserHeaders()
	headers.Set("Referer", config.RealtorBaseURL)

	resp, body, err := r.gw.Get(ctx, searchURL, headers, map[string]string{"status": "for_sale"})
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

	var detailURLs []string
	seen := make(map[string]bool)
	doc.Find(`a[href*="/realestateandhomes-detail/"]`).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}
		if strings.HasPrefix(href, "/") {
			href = config.RealtorBaseURL + href
		}
		if !seen[href] {
			seen[href] = true
			detailURLs = append(detailURLs, href)
		}
	})

	var results []fsbomodel.FSBOListing
	for _, detailURL := range detailURLs {
		listing, err := r.fetchAndParse(ctx, detailURL, criteria)
		if err != nil {
			return nil, err
		}
		if listing != nil {
			results = append(results, *listing)
		}
	}
	return results, nil
}

func (r *RealtorFSBO) fetchAndParse(ctx context.Context, detailURL string, criteria fsbomodel.FSBOSearchCriteria) (*fsbomodel.FSBOListing, error) {
	headers := gateway.BrowserHeaders()
	headers.Set("Referer", config.RealtorBaseURL)

	resp, body, err := r.gw.Get(ctx, detailURL, headers, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != 200 {
		return nil, nil
	}
	return parseRealtorFSBOListing(string(body), detailURL, criteria), nil
}

func parseRealtorFSBOListing(html, detailURL string, criteria fsbomodel.FSBOSearchCriteria) *fsbomodel.FSBOListing {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	script := doc.Find("script#__NEXT_DATA__").First()
	if script.Length() == 0 {
		return nil
	}
	var data map[string]any
	if sonic.UnmarshalString(script.Text(), &data) != nil {
		return nil
	}

	props, _ := digPath(data, "props", "pageProps").(map[string]any)
	propertyData, _ := props["property"].(map[string]any)
	if propertyData == nil {
		propertyData, _ = digPath(props, "initialState", "propertyDetails", "propertyDetails").(map[string]any)
	}
	if propertyData == nil {
		return nil
	}

	listing, _ := propertyData["listing"].(map[string]any)
	listAgent, _ := listing["list_agent"].(map[string]any)
	listOffice, _ := listing["list_office"].(map[string]any)

	agentNameRaw := strings.TrimSpace(stringify(listAgent["name"]))
	brokerRaw := strings.TrimSpace(stringify(listOffice["name"]))

	// Skip rows with a clearly-named professional agent + brokerage —
	// these are not FSBO.
	if len(agentNameRaw) > 3 && len(brokerRaw) > 3 {
		return nil
	}

	description, _ := propertyData["description"].(map[string]any)
	location, _ := propertyData["location"].(map[string]any)
	addressObj, _ := location["address"].(map[string]any)

	address := firstNonEmptyStr2(stringify(addressObj["line"]), stringify(propertyData["full_street_line"]))
	if address == "" {
		return nil
	}
	city := stringify(addressObj["city"])
	state := stringify(addressObj["state_code"])
	zip := stringify(addressObj["postal_code"])

	price := intFromAny(listing["list_price"], description["list_price"], propertyData["list_price"])
	if !passesFilters(criteria, price, nil, nil, nil) {
		return nil
	}

	beds := intFromAny(description["beds"])
	baths := floatFromAny(description["baths"], description["baths_consolidated"])
	dom := intFromAny(description["days_on_market"], propertyData["days_on_market"])

	if !passesFilters(criteria, nil, beds, baths, dom) {
		return nil
	}

	phone := scrapers.CleanPhone(stringify(listAgent["phone"]))
	email := scrapers.CleanEmail(stringify(listAgent["email"]))
	var ownerName string
	if agentNameRaw != "" {
		ownerName = normalize.CleanName(agentNameRaw)
	}

	fullAddress := address
	if city != "" || state != "" {
		fullAddress = strings.TrimSpace(strings.Trim(address+", "+city+", "+state+" "+zip, ", "))
	}

	l := fsbomodel.FSBOListing{
		Address:      fullAddress,
		City:         city,
		State:        state,
		ZipCode:      zip,
		Price:        price,
		Beds:         beds,
		Baths:        baths,
		DaysOnMarket: dom,
		OwnerName:    ownerName,
		Phone:        phone,
		Email:        email,
		ListingURL:   detailURL,
		Source:       config.SourceRealtorFSBO,
	}
	l.ContactStatus = l.ComputeContactStatus()
	return &l
}
