package scrapers

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dispodojo/agentfinder/internal/config"
	"github.com/dispodojo/agentfinder/internal/gateway"
	"github.com/dispodojo/agentfinder/internal/normalize"
	"github.com/dispodojo/agentfinder/internal/property"
)

// listingTypes is tried in order, matching scrapers/homeharvest_scraper.py:
// active listings sometimes only surface under sold/pending categorization.
var listingTypes = []string{"for_sale", "sold", "pending"}

// HomeHarvest re-implements the homeharvest library's Realtor.com-backed
// search: no equivalent Go package exists anywhere in the corpus, so this
// adapter talks to the same realtor.com search surface Realtor already
// does, applying the library's documented 3-tier row-matching heuristic
// instead of trusting the first hit. Grounded on
// scrapers/homeharvest_scraper.py.
type HomeHarvest struct {
	gw *gateway.Gateway
}

func NewHomeHarvest(gw *gateway.Gateway) *HomeHarvest { return &HomeHarvest{gw: gw} }

func (h *HomeHarvest) Name() string { return config.SourceHomeHarvest }

// candidateRow is one search-result hit: its detail link plus whatever
// address text accompanies it on the results page.
type candidateRow struct {
	address   string
	detailURL string
}

func (h *HomeHarvest) Search(p property.Property) (*property.AgentInfo, error) {
	// Run the blocking multi-listing-type search off the caller's
	// goroutine, mirroring the library's asyncio executor handoff.
	type outcome struct {
		info *property.AgentInfo
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		info, err := h.syncSearch(context.Background(), p)
		done <- outcome{info, err}
	}()
	out := <-done
	return out.info, out.err
}

func (h *HomeHarvest) syncSearch(ctx context.Context, p property.Property) (*property.AgentInfo, error) {
	for _, listingType := range listingTypes {
		rows, err := h.fetchListingRows(ctx, p, listingType)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			continue
		}
		best := findBestMatch(rows, p)
		if best == nil {
			continue
		}
		info, err := h.fetchAndParseDetail(ctx, best.detailURL)
		if err != nil {
			return nil, err
		}
		if info != nil {
			return info, nil
		}
	}
	return nil, nil
}

func (h *HomeHarvest) fetchListingRows(ctx context.Context, p property.Property, listingType string) ([]candidateRow, error) {
	clean := nonSearchCharsRe.ReplaceAllString(p.SearchQuery(), "")
	clean = strings.ReplaceAll(clean, " ", "-")
	clean = strings.ReplaceAll(clean, ",", "")
	clean = strings.ReplaceAll(clean, "--", "-")
	searchURL := config.RealtorBaseURL + "/realestateandhomes-search/" + clean

	headers := gateway.BrowserHeaders()
	headers.Set("Referer", config.RealtorBaseURL)
	resp, body, err := h.gw.Get(ctx, searchURL, headers, map[string]string{"status": listingType})
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

	var rows []candidateRow
	doc.Find(`a[href*="/realestateandhomes-detail/"]`).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}
		if strings.HasPrefix(href, "/") {
			href = config.RealtorBaseURL + href
		}
		rows = append(rows, candidateRow{
			address:   strings.TrimSpace(s.Text()),
			detailURL: href,
		})
	})
	return rows, nil
}

var leadingDigitsRe = regexp.MustCompile(`^\d+`)

// findBestMatch mirrors _find_best_match's three tiers: normalized
// address substring match, then leading-street-number match, then a
// sole-row fallback.
func findBestMatch(rows []candidateRow, p property.Property) *candidateRow {
	addr := p.AddressLine
	if addr == "" {
		addr = p.RawAddress
	}
	target := normalize.Canonical(addr)
	if target == "" {
		return nil
	}

	for i := range rows {
		rowAddr := normalize.Canonical(rows[i].address)
		if rowAddr == "" {
			continue
		}
		if strings.Contains(rowAddr, target) || strings.Contains(target, rowAddr) {
			return &rows[i]
		}
	}

	if num := leadingDigitsRe.FindString(target); num != "" {
		for i := range rows {
			if strings.HasPrefix(strings.TrimSpace(rows[i].address), num) {
				return &rows[i]
			}
		}
	}

	if len(rows) == 1 {
		return &rows[0]
	}
	return nil
}

func (h *HomeHarvest) fetchAndParseDetail(ctx context.Context, detailURL string) (*property.AgentInfo, error) {
	headers := gateway.BrowserHeaders()
	headers.Set("Referer", config.RealtorBaseURL)

	resp, body, err := h.gw.Get(ctx, detailURL, headers, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != 200 {
		return nil, nil
	}
	info := parseRealtorNextData(string(body))
	if info != nil {
		info.Source = config.SourceHomeHarvest
		info.ListingURL = detailURL
	}
	return info, nil
}
