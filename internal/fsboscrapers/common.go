// Package fsboscrapers holds the five FSBO (For Sale By Owner) listing
// source adapters used by the area aggregator: fsbo.com,
// forsalebyowner.com, Zillow's FSBO search, Realtor.com filtered for
// owner listings, and Craigslist's "real estate - by owner" section.
// Grounded on scrapers/fsbo_base.py, fsbo_com.py, forsalebyowner_com.py,
// zillow_fsbo.py, realtor_fsbo.py and craigslist_fsbo.py.
package fsboscrapers

import (
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/dispodojo/agentfinder/internal/fsbomodel"
)

// Source is the FSBO area-search contract: every adapter fans out across
// one geographic area and returns every listing it found there, applying
// its own client-side price/beds/baths/days-on-market filtering as it
// goes (fsbo.com's search URL also carries price and min-beds params;
// the other sources receive no filter).
type Source interface {
	Name() string
	SearchArea(criteria fsbomodel.FSBOSearchCriteria) ([]fsbomodel.FSBOListing, error)
}

// Registry holds the registered FSBO sources in registration order.
type Registry struct {
	mu    sync.RWMutex
	byName map[string]Source
	order  []string
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Source)}
}

func (r *Registry) Register(s Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[s.Name()]; !exists {
		r.order = append(r.order, s.Name())
	}
	r.byName[s.Name()] = s
}

func (r *Registry) All() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Source, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// passesFilters applies criteria's optional price/beds/baths/days-on-market
// bounds, mirroring the min/max checks repeated across every FSBO
// adapter's listing parser. A nil criterion or nil observed value never
// filters the listing out — only a present bound beaten by a present
// value does.
func passesFilters(criteria fsbomodel.FSBOSearchCriteria, price, beds *int, baths *float64, dom *int) bool {
	if criteria.MinPrice != nil && price != nil && *price < *criteria.MinPrice {
		return false
	}
	if criteria.MaxPrice != nil && price != nil && *price > *criteria.MaxPrice {
		return false
	}
	if criteria.MinBeds != nil && beds != nil && *beds < *criteria.MinBeds {
		return false
	}
	if criteria.MinBaths != nil && baths != nil && *baths < *criteria.MinBaths {
		return false
	}
	if criteria.MaxDaysOnMarket != nil && dom != nil && *dom > *criteria.MaxDaysOnMarket {
		return false
	}
	return true
}

var addressComponentsRe = regexp.MustCompile(`([^,]+),\s*([A-Z]{2})\s*(\d{5})?`)

// splitAddressComponents extracts "City, ST ZIP" out of a raw address
// string, matching the regex every HTML-based FSBO listing parser uses.
func splitAddressComponents(rawAddress string) (city, state, zip string) {
	m := addressComponentsRe.FindStringSubmatch(rawAddress)
	if m == nil {
		return "", "", ""
	}
	return strings.TrimSpace(m[1]), m[2], m[3]
}

func parseIntPtr(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	digits := digitsOnlyRe.ReplaceAllString(s, "")
	if digits == "" {
		return nil
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return nil
	}
	return &n
}

var digitsOnlyRe = regexp.MustCompile(`[^\d]`)

func atoiPtr(s string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &n
}

func atofPtr(s string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &f
}

// digPath walks a chain of map keys, returning nil at the first missing
// or non-map step. Duplicated in internal/scrapers as each package keeps
// its own small JSON-walking helper rather than sharing one across
// unrelated adapter families.
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

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return strings.TrimSpace(strconvFormat(t))
	}
}

func strconvFormat(v any) string {
	if f, ok := v.(float64); ok {
		if f == float64(int64(f)) {
			return strconv.FormatInt(int64(f), 10)
		}
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}

// findStringsDeep recursively scans a decoded JSON value (depth-capped)
// for string leaves accepted by match, returning up to capN absolute URLs
// resolved against baseURL. Mirrors fsbo_com.py's
// _find_listing_urls_in_json / zillow_fsbo.py's _find_list_results JSON
// fallback scans.
func findStringsDeep(node any, depth, maxDepth, capN int, match func(string) bool, resolve func(string) string, out *[]string, seen map[string]bool) {
	if depth > maxDepth || len(*out) >= capN {
		return
	}
	switch v := node.(type) {
	case string:
		if match(v) {
			full := resolve(v)
			if !seen[full] {
				seen[full] = true
				*out = append(*out, full)
			}
		}
	case []any:
		for _, item := range v {
			findStringsDeep(item, depth+1, maxDepth, capN, match, resolve, out, seen)
		}
	case map[string]any:
		for _, val := range v {
			findStringsDeep(val, depth+1, maxDepth, capN, match, resolve, out, seen)
		}
	}
}
