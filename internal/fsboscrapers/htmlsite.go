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

// htmlFSBOSite is the shared pagination/dedup/JSON-fallback engine behind
// fsbo.com and forsalebyowner.com: both sites paginate a search-results
// page, collect listing URLs via a selector-chain-with-__NEXT_DATA__
// fallback, then parse each listing page with an (almost) identical
// field-extraction recipe. Grounded on fsbo_com.py and
// forsalebyowner_com.py, whose _scrape_search_page/_parse_listing bodies
// are structurally identical apart from selectors and the base URL.
type htmlFSBOSite struct {
	gw   *gateway.Gateway
	name string

	baseURL string
	// buildSearchURL returns the full search-results URL for one page.
	buildSearchURL func(criteria fsbomodel.FSBOSearchCriteria, page int) string
	// linkSelectors is tried in order; the first one returning any match wins.
	linkSelectors []string
	// jsonURLMatch decides whether a __NEXT_DATA__ string leaf is a listing URL.
	jsonURLMatch func(string) bool
}

func (s *htmlFSBOSite) Name() string { return s.name }

func (s *htmlFSBOSite) resolve(href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	base := strings.TrimSuffix(s.baseURL, "/")
	if strings.HasPrefix(href, "/") {
		return base + href
	}
	return base + "/" + href
}

func (s *htmlFSBOSite) SearchArea(criteria fsbomodel.FSBOSearchCriteria) ([]fsbomodel.FSBOListing, error) {
	if s.gw.IsCircuitOpen() {
		return nil, nil
	}
	ctx := context.Background()

	urls, err := s.listingURLs(ctx, criteria)
	if err != nil {
		return nil, err
	}

	var results []fsbomodel.FSBOListing
	for _, u := range urls {
		listing, err := s.scrapeListing(ctx, u, criteria)
		if err != nil {
			return nil, err
		}
		if listing != nil {
			results = append(results, *listing)
		}
	}
	return results, nil
}

func (s *htmlFSBOSite) listingURLs(ctx context.Context, criteria fsbomodel.FSBOSearchCriteria) ([]string, error) {
	var all []string
	for page := 1; page <= config.FSBOMaxPages; page++ {
		pageURLs, err := s.scrapeSearchPage(ctx, criteria, page)
		if err != nil {
			return nil, err
		}
		if len(pageURLs) == 0 {
			break
		}
		all = append(all, pageURLs...)
	}
	return all, nil
}

func (s *htmlFSBOSite) scrapeSearchPage(ctx context.Context, criteria fsbomodel.FSBOSearchCriteria, page int) ([]string, error) {
	searchURL := s.buildSearchURL(criteria, page)
	headers := gateway.BrowserHeaders()
	headers.Set("Referer", s.baseURL)

	resp, body, err := s.gw.Get(ctx, searchURL, headers, nil)
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

	var links []string
	for _, sel := range s.linkSelectors {
		doc.Find(sel).Each(func(_ int, a *goquery.Selection) {
			if href, ok := a.Attr("href"); ok && href != "" {
				links = append(links, href)
			}
		})
		if len(links) > 0 {
			break
		}
	}

	if len(links) == 0 {
		if script := doc.Find("script#__NEXT_DATA__").First(); script.Length() > 0 {
			return s.extractURLsFromNextData(script.Text()), nil
		}
		return nil, nil
	}

	seen := make(map[string]bool)
	var result []string
	for _, href := range links {
		full := s.resolve(href)
		if !seen[full] {
			seen[full] = true
			result = append(result, full)
		}
	}
	return result, nil
}

func (s *htmlFSBOSite) extractURLsFromNextData(raw string) []string {
	var data any
	if sonic.UnmarshalString(raw, &data) != nil {
		return nil
	}
	var urls []string
	seen := make(map[string]bool)
	findStringsDeep(data, 0, 8, 50, s.jsonURLMatch, s.resolve, &urls, seen)
	return urls
}

var priceDigitsRe = regexp.MustCompile(`[^\d]`)
var numberRe = regexp.MustCompile(`(\d+)`)
var decimalRe = regexp.MustCompile(`([\d.]+)`)
var daysOnMarketTextRe = regexp.MustCompile(`(?i)days?\s*on\s*market`)

func (s *htmlFSBOSite) scrapeListing(ctx context.Context, url string, criteria fsbomodel.FSBOSearchCriteria) (*fsbomodel.FSBOListing, error) {
	headers := gateway.BrowserHeaders()
	headers.Set("Referer", s.baseURL)

	resp, body, err := s.gw.Get(ctx, url, headers, nil)
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

	addressEl := firstMatch(doc, "h1.listing-address", "[class*='address']", "h1")
	if addressEl == nil || addressEl.Length() == 0 {
		return nil, nil
	}
	rawAddress := strings.TrimSpace(addressEl.Text())

	var price *int
	if priceEl := firstMatch(doc, "[class*='price']", ".listing-price"); priceEl != nil && priceEl.Length() > 0 {
		price = parseIntPtr(priceDigitsRe.ReplaceAllString(priceEl.Text(), ""))
	}

	var beds *int
	var baths *float64
	if bedsEl := firstMatch(doc, "[class*='bed']"); bedsEl != nil && bedsEl.Length() > 0 {
		if m := numberRe.FindStringSubmatch(bedsEl.Text()); m != nil {
			beds = atoiPtr(m[1])
		}
	}
	if bathsEl := firstMatch(doc, "[class*='bath']"); bathsEl != nil && bathsEl.Length() > 0 {
		if m := decimalRe.FindStringSubmatch(bathsEl.Text()); m != nil {
			baths = atofPtr(m[1])
		}
	}

	var dom *int
	bodyText := doc.Text()
	if loc := daysOnMarketTextRe.FindStringIndex(bodyText); loc != nil {
		window := bodyText[loc[0]:min(len(bodyText), loc[1]+10)]
		before := bodyText[max(0, loc[0]-10):loc[0]]
		if m := numberRe.FindStringSubmatch(before + window); m != nil {
			dom = atoiPtr(m[1])
		}
	}

	if !passesFilters(criteria, price, beds, baths, dom) {
		return nil, nil
	}

	var ownerName, phone, email string
	contact := firstMatch(doc, "[class*='contact']", "[class*='owner']")
	if contact != nil && contact.Length() > 0 {
		if nameEl := firstMatchIn(contact, "[class*='name']", "strong"); nameEl != nil && nameEl.Length() > 0 {
			ownerName = normalize.CleanName(nameEl.Text())
		}
		if phoneEl := firstMatchIn(contact, "[href^='tel:']", "[class*='phone']"); phoneEl != nil && phoneEl.Length() > 0 {
			text, _ := phoneEl.Attr("href")
			text = strings.TrimPrefix(text, "tel:")
			if text == "" {
				text = phoneEl.Text()
			}
			phone = scrapers.CleanPhone(text)
		}
		if emailEl := firstMatchIn(contact, "[href^='mailto:']"); emailEl != nil && emailEl.Length() > 0 {
			href, _ := emailEl.Attr("href")
			email = scrapers.CleanEmail(strings.TrimPrefix(href, "mailto:"))
		}
	}

	city, state, zip := splitAddressComponents(rawAddress)

	listing := fsbomodel.FSBOListing{
		Address:    rawAddress,
		City:       city,
		State:      state,
		ZipCode:    zip,
		Price:      price,
		Beds:       beds,
		Baths:      baths,
		DaysOnMarket: dom,
		OwnerName:  ownerName,
		Phone:      phone,
		Email:      email,
		ListingURL: url,
		Source:     s.name,
	}
	listing.ContactStatus = listing.ComputeContactStatus()
	return &listing, nil
}

func firstMatch(doc *goquery.Document, selectors ...string) *goquery.Selection {
	for _, sel := range selectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			return s
		}
	}
	return nil
}

func firstMatchIn(root *goquery.Selection, selectors ...string) *goquery.Selection {
	for _, sel := range selectors {
		if s := root.Find(sel).First(); s.Length() > 0 {
			return s
		}
	}
	return nil
}

