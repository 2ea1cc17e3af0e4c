// Package normalize canonicalizes free-form U.S. addresses into a stable
// form used as a cache key and as scraper query input, and generates
// retry variants and fuzzy name-match helpers used by the Resolution
// Engine.
//
// There is no address-normalization or fuzzy-string-matching library
// anywhere in the retrieved corpus, so this package is built entirely on
// the standard library; see DESIGN.md for the stdlib justification.
package normalize

import (
	"regexp"
	"strings"
)

// streetSuffixes maps expanded street-type words to their abbreviation.
// Order within the map does not matter; each entry is applied as its own
// word-boundary regexp pass.
var streetSuffixes = []struct{ full, abbr string }{
	{"STREET", "ST"}, {"AVENUE", "AVE"}, {"BOULEVARD", "BLVD"}, {"DRIVE", "DR"},
	{"LANE", "LN"}, {"ROAD", "RD"}, {"COURT", "CT"}, {"CIRCLE", "CIR"},
	{"PLACE", "PL"}, {"TERRACE", "TER"}, {"WAY", "WAY"}, {"TRAIL", "TRL"},
	{"PARKWAY", "PKWY"}, {"HIGHWAY", "HWY"},
}

var directionals = []struct{ full, abbr string }{
	{"NORTH", "N"}, {"SOUTH", "S"}, {"EAST", "E"}, {"WEST", "W"},
	{"NORTHEAST", "NE"}, {"NORTHWEST", "NW"}, {"SOUTHEAST", "SE"}, {"SOUTHWEST", "SW"},
}

var stateAbbrevs = map[string]string{
	"ALABAMA": "AL", "ALASKA": "AK", "ARIZONA": "AZ", "ARKANSAS": "AR",
	"CALIFORNIA": "CA", "COLORADO": "CO", "CONNECTICUT": "CT", "DELAWARE": "DE",
	"FLORIDA": "FL", "GEORGIA": "GA", "HAWAII": "HI", "IDAHO": "ID",
	"ILLINOIS": "IL", "INDIANA": "IN", "IOWA": "IA", "KANSAS": "KS",
	"KENTUCKY": "KY", "LOUISIANA": "LA", "MAINE": "ME", "MARYLAND": "MD",
	"MASSACHUSETTS": "MA", "MICHIGAN": "MI", "MINNESOTA": "MN", "MISSISSIPPI": "MS",
	"MISSOURI": "MO", "MONTANA": "MT", "NEBRASKA": "NE", "NEVADA": "NV",
	"NEW HAMPSHIRE": "NH", "NEW JERSEY": "NJ", "NEW MEXICO": "NM", "NEW YORK": "NY",
	"NORTH CAROLINA": "NC", "NORTH DAKOTA": "ND", "OHIO": "OH", "OKLAHOMA": "OK",
	"OREGON": "OR", "PENNSYLVANIA": "PA", "RHODE ISLAND": "RI",
	"SOUTH CAROLINA": "SC", "SOUTH DAKOTA": "SD", "TENNESSEE": "TN", "TEXAS": "TX",
	"UTAH": "UT", "VERMONT": "VT", "VIRGINIA": "VA", "WASHINGTON": "WA",
	"WEST VIRGINIA": "WV", "WISCONSIN": "WI", "WYOMING": "WY",
	"DISTRICT OF COLUMBIA": "DC",
}

var whitespaceRe = regexp.MustCompile(`\s+`)

func wordBoundary(word string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + word + `\b`)
}

// Canonical normalizes a raw address: uppercase and trim, collapse
// whitespace, strip periods, expand "#" to "APT", rewrite unit
// designators, rewrite name prefixes (before street suffixes — SAINT must
// become ST before STREET does), rewrite directionals, then rewrite
// street suffixes. Order matters and mirrors the original pipeline
// exactly.
func Canonical(address string) string {
	if address == "" {
		return ""
	}
	addr := strings.ToUpper(strings.TrimSpace(address))
	addr = whitespaceRe.ReplaceAllString(addr, " ")
	addr = strings.ReplaceAll(addr, ".", "")
	addr = strings.ReplaceAll(addr, "#", "APT ")

	addr = wordBoundary("SUITE").ReplaceAllString(addr, "STE")
	addr = wordBoundary("APARTMENT").ReplaceAllString(addr, "APT")
	addr = wordBoundary("BUILDING").ReplaceAllString(addr, "BLDG")
	addr = wordBoundary("FLOOR").ReplaceAllString(addr, "FL")

	// Name prefixes must be rewritten before street suffixes: SAINT->ST
	// has to land before STREET->ST runs, or "SAINT STREET" would collide.
	addr = wordBoundary("MOUNT").ReplaceAllString(addr, "MT")
	addr = wordBoundary("SAINT").ReplaceAllString(addr, "ST")
	addr = wordBoundary("FORT").ReplaceAllString(addr, "FT")

	for _, d := range directionals {
		addr = wordBoundary(d.full).ReplaceAllString(addr, d.abbr)
	}
	for _, s := range streetSuffixes {
		addr = wordBoundary(s.full).ReplaceAllString(addr, s.abbr)
	}

	return addr
}

// NormalizeState converts a full state name to its 2-letter abbreviation,
// passing through values that are already 2 letters or unrecognized.
func NormalizeState(state string) string {
	if state == "" {
		return ""
	}
	upper := strings.ToUpper(strings.TrimSpace(state))
	if len(upper) == 2 {
		return upper
	}
	if abbr, ok := stateAbbrevs[upper]; ok {
		return abbr
	}
	return upper
}

var unitTokenRe = regexp.MustCompile(`(?i)\s*(APT|APARTMENT|STE|SUITE|UNIT|BLDG|BUILDING|FL|FLOOR|#)\s*\S+`)
var leadingStreetRe = regexp.MustCompile(`^(\d+\s+\S+(?:\s+\S+)?)`)

// AddressParts is the minimal shape Variants needs from a Property,
// avoiding an import cycle with package property.
type AddressParts struct {
	AddressLine string
	RawAddress  string
	City        string
	State       string
	ZipCode     string
}

// Variants produces up to three retry-oriented forms of an address: the
// canonical form, the same with unit/apt/suite tokens stripped, and a
// simplified "leading street number + zip" form. Used by the Resolution
// Engine's second pass over NOT_FOUND rows.
func Variants(p AddressParts) []string {
	addr := p.AddressLine
	if addr == "" {
		addr = p.RawAddress
	}
	variants := make([]string, 0, 3)
	variants = append(variants, Canonical(joinParts(addr, p.City, p.State, p.ZipCode)))

	stripped := strings.TrimSpace(unitTokenRe.ReplaceAllString(addr, ""))
	if stripped != "" && stripped != addr {
		variants = append(variants, Canonical(joinParts(stripped, p.City, p.State, p.ZipCode)))
	}

	if m := leadingStreetRe.FindStringSubmatch(addr); m != nil && p.ZipCode != "" {
		simple := Canonical(m[1] + ", " + p.ZipCode)
		if !contains(variants, simple) {
			variants = append(variants, simple)
		}
	}

	if len(variants) > 3 {
		variants = variants[:3]
	}
	return variants
}

func joinParts(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, ", ")
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
