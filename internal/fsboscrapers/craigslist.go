package fsboscrapers

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/dispodojo/agentfinder/internal/config"
	"github.com/dispodojo/agentfinder/internal/fsbomodel"
	"github.com/dispodojo/agentfinder/internal/gateway"
	"github.com/dispodojo/agentfinder/internal/scrapers"
)

// craigslistAreas maps a lowercased "city" or "city, st" search location
// to its Craigslist subdomain. Loaded as a static map rather than a
// bundled JSON asset — no corpus repo uses go:embed for small reference
// data, so a var literal is the idiomatic fit. Grounded on
// scrapers/craigslist_fsbo.py's CRAIGSLIST_AREAS lookup (originally
// loaded from data/craigslist_areas.json).
var craigslistAreas = map[string]string{
	"phoenix":       "phoenix",
	"phoenix, az":   "phoenix",
	"tucson":        "tucson",
	"tucson, az":    "tucson",
	"los angeles":   "losangeles",
	"los angeles, ca": "losangeles",
	"san diego":     "sandiego",
	"san diego, ca": "sandiego",
	"san francisco": "sfbay",
	"san francisco, ca": "sfbay",
	"sacramento":    "sacramento",
	"sacramento, ca": "sacramento",
	"seattle":       "seattle",
	"seattle, wa":   "seattle",
	"portland":      "portland",
	"portland, or":  "portland",
	"denver":        "denver",
	"denver, co":    "denver",
	"dallas":        "dallas",
	"dallas, tx":    "dallas",
	"austin":        "austin",
	"austin, tx":    "austin",
	"houston":       "houston",
	"houston, tx":   "houston",
	"san antonio":   "sanantonio",
	"san antonio, tx": "sanantonio",
	"chicago":       "chicago",
	"chicago, il":   "chicago",
	"miami":         "miami",
	"miami, fl":     "miami",
	"orlando":       "orlando",
	"orlando, fl":   "orlando",
	"tampa":         "tampa",
	"tampa, fl":     "tampa",
	"atlanta":       "atlanta",
	"atlanta, ga":   "atlanta",
	"boston":        "boston",
	"boston, ma":    "boston",
	"new york":      "newyork",
	"new york, ny":  "newyork",
	"philadelphia":  "philadelphia",
	"philadelphia, pa": "philadelphia",
	"washington":    "washingtondc",
	"washington, dc": "washingtondc",
	"las vegas":     "lasvegas",
	"las vegas, nv": "lasvegas",
	"salt lake city": "saltlakecity",
	"salt lake city, ut": "saltlakecity",
	"minneapolis":   "minneapolis",
	"minneapolis, mn": "minneapolis",
	"detroit":       "detroit",
	"detroit, mi":   "detroit",
	"nashville":     "nashville",
	"nashville, tn": "nashville",
	"charlotte":     "charlotte",
	"charlotte, nc": "charlotte",
	"raleigh":       "raleigh",
	"raleigh, nc":   "raleigh",
}

var trailingStateCodeRe = regexp.MustCompile(`\s+[a-z]{2}$`)

// Craigslist scrapes the "real estate - by owner" section for a resolved
// city subdomain. It never surfaces Craigslist's relay email addresses —
// contact_status is "phone_only" or "anonymous" instead. Grounded on
// scrapers/craigslist_fsbo.py.
type Craigslist struct {
	gw *gateway.Gateway
}

func NewCraigslist(gw *gateway.Gateway) *Craigslist { return &Craigslist{gw: gw} }

func (c *Craigslist) Name() string { return config.SourceCraigslist }

func (c *Craigslist) SearchArea(criteria fsbomodel.FSBOSearchCriteria) ([]fsbomodel.FSBOListing, error) {
	if c.gw.IsCircuitOpen() || len(craigslistAreas) == 0 {
		return nil, nil
	}
	area := resolveArea(criteria.Location)
	if area == "" {
		return nil, nil
	}
	return c.scrapeArea(context.Background(), area, criteria)
}

// resolveArea maps a free-form location to a Craigslist subdomain,
// trying the full location, the city alone, then a partial prefix match
// — mirroring _resolve_area's three-tier lookup.
func resolveArea(location string) string {
	loc := strings.ToLower(strings.TrimSpace(location))
	city := strings.TrimSpace(strings.Split(loc, ",")[0])
	city = strings.TrimSpace(trailingStateCodeRe.ReplaceAllString(city, ""))

	if v, ok := craigslistAreas[loc]; ok {
		return v
	}
	if v, ok := craigslistAreas[city]; ok {
		return v
	}
	if len(city) > 3 {
		for key, v := range craigslistAreas {
			if key == city || strings.HasPrefix(key, city) || strings.HasPrefix(city, key) {
				return v
			}
		}
	}
	return ""
}

type clPostLink struct {
	url        string
	postedDate time.Time
	hasDate    bool
}

func (c *Craigslist) scrapeArea(ctx context.Context, area string, criteria fsbomodel.FSBOSearchCriteria) ([]fsbomodel.FSBOListing, error) {
	base := "https://" + area + ".craigslist.org"
	var results []fsbomodel.FSBOListing

	for page := 0; page < config.FSBOMaxPages; page++ {
		offset := page * 120
		headers := gateway.BrowserHeaders()
		headers.Set("Referer", base)
		params := map[string]string{"s": strconv.Itoa(offset)}
		if criteria.LocationType == fsbomodel.LocationZip {
			params["query"] = strings.TrimSpace(strings.Split(criteria.Location, ",")[0])
		}

		resp, body, err := c.gw.Get(ctx, base+"/search/reo", headers, params)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != 200 {
			break
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
		if err != nil {
			break
		}
		links := postLinks(doc, base)
		if len(links) == 0 {
			break
		}

		for _, link := range links {
			if criteria.MaxDaysOnMarket != nil && link.hasDate {
				daysAgo := int(time.Since(link.postedDate).Hours() / 24)
				if daysAgo > *criteria.MaxDaysOnMarket {
					continue
				}
			}
			listing, err := c.scrapePost(ctx, link, criteria)
			if err != nil {
				return nil, err
			}
			if listing != nil {
				results = append(results, *listing)
			}
		}
	}
	return results, nil
}

func postLinks(doc *goquery.Document, base string) []clPostLink {
	items := firstMatchingItems(doc, "li.cl-search-result", "li.result-row", ".cl-search-view-mode-list li")
	var links []clPostLink
	items.Each(func(_ int, item *goquery.Selection) {
		a := firstMatchIn(item, "a.cl-app-anchor", "a.result-title", `a[href*='/d/']`, "a")
		if a == nil || a.Length() == 0 {
			return
		}
		href, _ := a.Attr("href")
		if href == "" {
			return
		}
		full := href
		if !strings.HasPrefix(href, "http") {
			full = strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(href, "/")
		}

		link := clPostLink{url: full}
		dateEl := firstMatchIn(item, "time", ".result-date", "[datetime]")
		if dateEl != nil && dateEl.Length() > 0 {
			dtStr, ok := dateEl.Attr("datetime")
			if !ok || dtStr == "" {
				dtStr, _ = dateEl.Attr("title")
			}
			if len(dtStr) >= 19 {
				if t, err := time.Parse("2006-01-02T15:04:05", dtStr[:19]); err == nil {
					link.postedDate = t
					link.hasDate = true
				}
			}
		}
		links = append(links, link)
	})
	return links
}

func firstMatchingItems(doc *goquery.Document, selectors ...string) *goquery.Selection {
	for _, sel := range selectors {
		if s := doc.Find(sel); s.Length() > 0 {
			return s
		}
	}
	return doc.Find(selectors[len(selectors)-1])
}

var clPhoneRe = regexp.MustCompile(`\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
var clPriceRe = regexp.MustCompile(`\$\s*([\d,]+)`)
var clBedsRe = regexp.MustCompile(`(?i)(\d+)\s*(?:bd|bed|br)`)
var clBathsRe = regexp.MustCompile(`(?i)([\d.]+)\s*(?:ba|bath|bth)`)

func (c *Craigslist) scrapePost(ctx context.Context, link clPostLink, criteria fsbomodel.FSBOSearchCriteria) (*fsbomodel.FSBOListing, error) {
	headers := gateway.BrowserHeaders()
	resp, body, err := c.gw.Get(ctx, link.url, headers, nil)
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

	titleEl := firstMatch(doc, "#titletextonly", "h1.postingtitle")
	bodyEl := firstMatch(doc, "#postingbody", ".postingbody")
	title, body2 := "", ""
	if titleEl != nil {
		title = strings.TrimSpace(titleEl.Text())
	}
	if bodyEl != nil {
		body2 = strings.TrimSpace(bodyEl.Text())
	}
	fullText := title + " " + body2

	var price *int
	if m := clPriceRe.FindStringSubmatch(fullText); m != nil {
		price = parseIntPtr(m[1])
	}
	var beds *int
	var baths *float64
	if m := clBedsRe.FindStringSubmatch(fullText); m != nil {
		beds = atoiPtr(m[1])
	}
	if m := clBathsRe.FindStringSubmatch(fullText); m != nil {
		baths = atofPtr(m[1])
	}

	var dom *int
	if link.hasDate {
		days := int(time.Since(link.postedDate).Hours() / 24)
		if days < 0 {
			days = 0
		}
		dom = &days
	}

	if !passesFilters(criteria, price, beds, baths, dom) {
		return nil, nil
	}

	var phone string
	if m := clPhoneRe.FindString(body2); m != "" {
		phone = scrapers.CleanPhone(m)
	}

	addressEl := firstMatch(doc, ".mapaddress", "[data-latitude]")
	rawAddress := ""
	if addressEl != nil {
		rawAddress = strings.TrimSpace(addressEl.Text())
	}
	if rawAddress == "" {
		rawAddress = title
	}

	contactStatus := fsbomodel.ContactAnonymous
	if phone != "" {
		contactStatus = fsbomodel.ContactPhoneOnly
	}

	listing := fsbomodel.FSBOListing{
		Address:       rawAddress,
		Price:         price,
		Beds:          beds,
		Baths:         baths,
		DaysOnMarket:  dom,
		Phone:         phone,
		ListingURL:    link.url,
		Source:        config.SourceCraigslist,
		ContactStatus: contactStatus,
	}
	return &listing, nil
}
