package fsboscrapers

import (
	"strconv"
	"strings"

	"github.com/dispodojo/agentfinder/internal/config"
	"github.com/dispodojo/agentfinder/internal/fsbomodel"
	"github.com/dispodojo/agentfinder/internal/gateway"
)

// NewFSBOCom builds the fsbo.com adapter: search → listing-URL
// pagination → per-listing contact/detail parsing. Grounded on
// scrapers/fsbo_com.py.
func NewFSBOCom(gw *gateway.Gateway) Source {
	return &htmlFSBOSite{
		gw:      gw,
		name:    config.SourceFSBOCom,
		baseURL: config.FSBOComBaseURL,
		buildSearchURL: func(criteria fsbomodel.FSBOSearchCriteria, page int) string {
			q := "page=" + strconv.Itoa(page)
			if criteria.LocationType == fsbomodel.LocationZip {
				firstZip := strings.TrimSpace(strings.Split(criteria.Location, ",")[0])
				q += "&zip=" + firstZip
			} else {
				parts := strings.SplitN(criteria.Location, ",", 2)
				q += "&city=" + strings.TrimSpace(parts[0])
				if len(parts) > 1 {
					q += "&state=" + strings.TrimSpace(parts[1])
				}
			}
			if criteria.MinPrice != nil {
				q += "&min_price=" + strconv.Itoa(*criteria.MinPrice)
			}
			if criteria.MaxPrice != nil {
				q += "&max_price=" + strconv.Itoa(*criteria.MaxPrice)
			}
			if criteria.MinBeds != nil {
				q += "&min_beds=" + strconv.Itoa(*criteria.MinBeds)
			}
			return config.FSBOComBaseURL + "/search?" + q
		},
		linkSelectors: []string{
			`a[href*='/listing/']`, `a[href*='/property/']`,
			`.listing-card a`, `.property-card a`,
			`[class*='listing'] a[href]`, `[class*='property'] a[href]`,
		},
		jsonURLMatch: func(s string) bool {
			return (strings.HasPrefix(s, "/") || strings.HasPrefix(s, "http")) &&
				(strings.Contains(s, "/listing/") || strings.Contains(s, "/property/")) &&
				len(s) < 300
		},
	}
}
