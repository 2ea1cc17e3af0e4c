package fsboscrapers

import (
	"strconv"
	"strings"

	"github.com/dispodojo/agentfinder/internal/config"
	"github.com/dispodojo/agentfinder/internal/fsbomodel"
	"github.com/dispodojo/agentfinder/internal/gateway"
)

// NewForSaleByOwner builds the forsalebyowner.com adapter. Its pagination,
// dedup and __NEXT_DATA__ fallback flow is identical to fsbo.com's — only
// the search-URL shape, link selectors and JSON URL marker differ.
// Grounded on scrapers/forsalebyowner_com.py.
func NewForSaleByOwner(gw *gateway.Gateway) Source {
	return &htmlFSBOSite{
		gw:      gw,
		name:    config.SourceForSaleByOwner,
		baseURL: config.ForSaleByOwnerBaseURL,
		buildSearchURL: func(criteria fsbomodel.FSBOSearchCriteria, page int) string {
			base := config.ForSaleByOwnerBaseURL
			if criteria.LocationType == fsbomodel.LocationZip {
				firstZip := strings.TrimSpace(strings.Split(criteria.Location, ",")[0])
				return base + "/homes/search/?zip=" + firstZip + "&page=" + strconv.Itoa(page)
			}
			parts := strings.SplitN(criteria.Location, ",", 2)
			city := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(parts[0]), " ", "-"))
			state := ""
			if len(parts) > 1 {
				state = strings.ToLower(strings.TrimSpace(parts[1]))
			}
			return base + "/homes/for-sale/" + state + "/" + city + "/?page=" + strconv.Itoa(page)
		},
		linkSelectors: []string{
			`a[href*='/homes/']`, `a[href*='/listing/']`,
			`.property-card a`, `.listing-card a`,
			`[class*='property'] a[href]`, `[class*='listing'] a[href]`,
			`h2 a`, `h3 a`,
		},
		jsonURLMatch: func(s string) bool {
			return strings.HasPrefix(s, "/") && strings.Contains(s, "/homes/") && len(s) < 300
		},
	}
}
