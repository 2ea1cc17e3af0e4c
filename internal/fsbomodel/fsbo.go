// Package fsbomodel holds the value types for the FSBO (For Sale By
// Owner) aggregation engine: search criteria, listings, and their
// derived contact status.
package fsbomodel

import "strings"

// ContactStatus classifies how reachable a FSBO listing's owner is.
type ContactStatus string

const (
	ContactComplete  ContactStatus = "complete"
	ContactPartial   ContactStatus = "partial"
	ContactPhoneOnly ContactStatus = "phone_only"
	ContactAnonymous ContactStatus = "anonymous" // relay-only contact (e.g. craigslist)
	ContactNone      ContactStatus = "none"
)

// LocationType distinguishes how FSBOSearchCriteria.Location is interpreted.
type LocationType string

const (
	LocationZip      LocationType = "zip"
	LocationCityState LocationType = "city_state"
)

// PropertyType enumerates the filterable property categories.
type PropertyType string

const (
	PropertySingleFamily PropertyType = "single_family"
	PropertyCondo        PropertyType = "condo"
	PropertyMultiFamily  PropertyType = "multi_family"
	PropertyLand         PropertyType = "land"
)

// FSBOSearchCriteria is the user-submitted search request. Optional
// numeric filters use pointers so "unset" is distinguishable from zero.
type FSBOSearchCriteria struct {
	Location        string       `json:"location"` // "85001" or "85001,85002" or "Phoenix, AZ"
	LocationType    LocationType `json:"location_type"`
	RadiusMiles     int          `json:"radius_miles"`
	MinPrice        *int         `json:"min_price,omitempty"`
	MaxPrice        *int         `json:"max_price,omitempty"`
	MinBeds         *int         `json:"min_beds,omitempty"`
	MinBaths        *float64     `json:"min_baths,omitempty"`
	PropertyType    *PropertyType `json:"property_type,omitempty"`
	MaxDaysOnMarket *int         `json:"max_days_on_market,omitempty"`
}

// FSBOListing is a single for-sale-by-owner result.
type FSBOListing struct {
	Address       string        `json:"address"`
	City          string        `json:"city"`
	State         string        `json:"state"`
	ZipCode       string        `json:"zip_code"`
	Price         *int          `json:"price,omitempty"`
	Beds          *int          `json:"beds,omitempty"`
	Baths         *float64      `json:"baths,omitempty"`
	Sqft          *int          `json:"sqft,omitempty"`
	PropertyType  string        `json:"property_type,omitempty"`
	DaysOnMarket  *int          `json:"days_on_market,omitempty"`
	OwnerName     string        `json:"owner_name,omitempty"`
	Phone         string        `json:"phone,omitempty"`
	Email         string        `json:"email,omitempty"`
	ListingURL    string        `json:"listing_url,omitempty"`
	Source        string        `json:"source"` // "fsbo.com"|"forsalebyowner.com"|"zillow_fsbo"|"realtor_fsbo"|"craigslist"
	ContactStatus ContactStatus `json:"contact_status"`
}

// ComputeContactStatus derives ContactStatus from the currently populated
// owner/phone/email fields. Adapters that only ever see a relay address
// (craigslist) set ContactAnonymous directly instead of calling this.
func (l FSBOListing) ComputeContactStatus() ContactStatus {
	hasName := strings.TrimSpace(l.OwnerName) != ""
	hasPhone := strings.TrimSpace(l.Phone) != ""
	hasEmail := strings.TrimSpace(l.Email) != ""

	switch {
	case hasName && hasPhone && hasEmail:
		return ContactComplete
	case hasName && (hasPhone || hasEmail):
		return ContactPartial
	case hasPhone && !hasEmail:
		return ContactPhoneOnly
	default:
		return ContactNone
	}
}

// Merge returns a new FSBOListing built by preferring the receiver's
// non-empty/non-nil fields over other's, with contact_status recomputed
// from the merged result. This is a pure function — neither l nor other
// is mutated — per the spec's "receiver-wins merge" design note, which
// diverges deliberately from the Python original's in-place mutation.
func (l FSBOListing) Merge(other FSBOListing) FSBOListing {
	merged := FSBOListing{
		Address:      firstNonEmptyStr(l.Address, other.Address),
		City:         firstNonEmptyStr(l.City, other.City),
		State:        firstNonEmptyStr(l.State, other.State),
		ZipCode:      firstNonEmptyStr(l.ZipCode, other.ZipCode),
		Price:        firstNonNilInt(l.Price, other.Price),
		Beds:         firstNonNilInt(l.Beds, other.Beds),
		Baths:        firstNonNilFloat(l.Baths, other.Baths),
		Sqft:         firstNonNilInt(l.Sqft, other.Sqft),
		PropertyType: firstNonEmptyStr(l.PropertyType, other.PropertyType),
		DaysOnMarket: firstNonNilInt(l.DaysOnMarket, other.DaysOnMarket),
		OwnerName:    firstNonEmptyStr(l.OwnerName, other.OwnerName),
		Phone:        firstNonEmptyStr(l.Phone, other.Phone),
		Email:        firstNonEmptyStr(l.Email, other.Email),
		ListingURL:   firstNonEmptyStr(l.ListingURL, other.ListingURL),
		Source:       mergeSource(l.Source, other.Source),
	}
	merged.ContactStatus = merged.ComputeContactStatus()
	return merged
}

func mergeSource(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" || strings.Contains(a, b) {
		return a
	}
	return a + "+" + b
}

func firstNonEmptyStr(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func firstNonNilInt(a, b *int) *int {
	if a != nil {
		return a
	}
	return b
}

func firstNonNilFloat(a, b *float64) *float64 {
	if a != nil {
		return a
	}
	return b
}
