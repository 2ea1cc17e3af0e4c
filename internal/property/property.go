// Package property holds the value types resolved per input row: the
// address to look up (Property), the agent found for it (AgentInfo), and
// the outcome of a lookup attempt (ScrapeResult).
package property

import (
	"strings"

	"github.com/dispodojo/agentfinder/internal/normalize"
)

// LookupStatus is the tagged outcome of resolving one Property.
type LookupStatus string

const (
	StatusFound     LookupStatus = "found"
	StatusPartial   LookupStatus = "partial" // agent name found, contact missing
	StatusNotFound  LookupStatus = "not_found"
	StatusError     LookupStatus = "error"
	StatusCached    LookupStatus = "cached"
	StatusPending   LookupStatus = "pending"
)

// Property is an address to resolve. It is immutable once constructed by
// the input reader; RowIndex preserves its position in the original file.
type Property struct {
	RawAddress  string
	AddressLine string
	City        string
	State       string
	ZipCode     string
	RowIndex    int
}

// Normalized joins the parsed components into a single display string.
func (p Property) Normalized() string {
	parts := make([]string, 0, 4)
	for _, v := range []string{p.AddressLine, p.City, p.State, p.ZipCode} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.TrimSpace(strings.Join(parts, ", "))
}

// SearchQuery returns the canonical form used as a cache key and as the
// basis for scraper query construction.
func (p Property) SearchQuery() string {
	raw := p.Normalized()
	if raw == "" {
		raw = p.RawAddress
	}
	return normalize.Canonical(raw)
}

// AgentInfo is the result of a lookup against one or more sources.
type AgentInfo struct {
	AgentName     string
	Brokerage     string
	Phone         string
	Email         string
	Source        string // colon/plus-delimited provenance chain
	ListingURL    string
	ListDate      string
	DaysOnMarket  string
	ListingPrice  string
}

// HasContactInfo reports whether a phone or email is present.
func (a AgentInfo) HasContactInfo() bool {
	return a.Phone != "" || a.Email != ""
}

// IsComplete reports whether a name and at least one contact channel are present.
func (a AgentInfo) IsComplete() bool {
	return a.AgentName != "" && a.HasContactInfo()
}

// Merge returns a new AgentInfo built by preferring the receiver's non-empty
// fields over other's, per field. The source tags concatenate with "+" to
// record provenance. Merge is a pure function: neither a nor other is
// mutated, and it is associative but not commutative (receiver wins).
func (a AgentInfo) Merge(other AgentInfo) AgentInfo {
	source := a.Source
	if other.Source != "" {
		if source != "" {
			source = source + "+" + other.Source
		} else {
			source = other.Source
		}
	}
	return AgentInfo{
		AgentName:    firstNonEmpty(a.AgentName, other.AgentName),
		Brokerage:    firstNonEmpty(a.Brokerage, other.Brokerage),
		Phone:        firstNonEmpty(a.Phone, other.Phone),
		Email:        firstNonEmpty(a.Email, other.Email),
		Source:       source,
		ListingURL:   firstNonEmpty(a.ListingURL, other.ListingURL),
		ListDate:     firstNonEmpty(a.ListDate, other.ListDate),
		DaysOnMarket: firstNonEmpty(a.DaysOnMarket, other.DaysOnMarket),
		ListingPrice: firstNonEmpty(a.ListingPrice, other.ListingPrice),
	}
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// ScrapeResult is one row's outcome.
type ScrapeResult struct {
	Property       Property
	AgentInfo      *AgentInfo
	Status         LookupStatus
	SourcesTried   []string
	ErrorMessage   string
	Confidence     float64
	Verified       bool
	SourcesMatched []string
}

// Found reports whether the row ended in one of the "has a result" states.
func (r ScrapeResult) Found() bool {
	switch r.Status {
	case StatusFound, StatusPartial, StatusCached:
		return true
	default:
		return false
	}
}
