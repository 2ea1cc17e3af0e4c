package scrapers

import "testing"

func TestExtractRedfinAgent_FromListingBroker(t *testing.T) {
	payload := map[string]any{
		"listingBroker": map[string]any{
			"listingAgentName": "Jane Doe",
			"brokerName":       "Keller Williams",
			"listingAgentPhone": "5551234567",
			"listingDate":       "2024-01-15",
		},
	}
	info := extractRedfinAgent(payload, "/AZ/Phoenix/123-Main-St/home/12345")
	if info == nil {
		t.Fatal("expected a non-nil AgentInfo")
	}
	if info.AgentName != "Jane Doe" {
		t.Errorf("AgentName = %q, want %q", info.AgentName, "Jane Doe")
	}
	if info.Brokerage != "Keller Williams" {
		t.Errorf("Brokerage = %q, want %q", info.Brokerage, "Keller Williams")
	}
	if info.Phone != "(555) 123-4567" {
		t.Errorf("Phone = %q, want %q", info.Phone, "(555) 123-4567")
	}
	if info.Source != "redfin" {
		t.Errorf("Source = %q, want %q", info.Source, "redfin")
	}
	if info.ListingURL != "https://www.redfin.com/AZ/Phoenix/123-Main-St/home/12345" {
		t.Errorf("ListingURL = %q", info.ListingURL)
	}
}

func TestExtractRedfinAgent_FallsBackToPropertyHistoryEvents(t *testing.T) {
	payload := map[string]any{
		"propertyHistoryInfo": map[string]any{
			"events": []any{
				map[string]any{"eventType": "Sold", "listingAgentName": "Wrong Agent"},
				map[string]any{"eventType": "Listed", "listingAgentName": "Jane Doe", "listingBrokerName": "RE/MAX", "eventDate": "2024-02-01"},
			},
		},
	}
	info := extractRedfinAgent(payload, "")
	if info == nil {
		t.Fatal("expected a non-nil AgentInfo")
	}
	if info.AgentName != "Jane Doe" || info.Brokerage != "RE/MAX" {
		t.Errorf("got AgentName=%q Brokerage=%q", info.AgentName, info.Brokerage)
	}
	if info.ListDate != "2024-02-01" {
		t.Errorf("ListDate = %q, want %q", info.ListDate, "2024-02-01")
	}
}

func TestExtractRedfinAgent_NoAgentNameAnywhereReturnsNil(t *testing.T) {
	payload := map[string]any{
		"mainHouseInfo": map[string]any{"daysOnMarket": float64(5)},
	}
	if got := extractRedfinAgent(payload, ""); got != nil {
		t.Errorf("extractRedfinAgent = %+v, want nil", got)
	}
}

func TestFormatRedfinPrice(t *testing.T) {
	if got := formatRedfinPrice("450000"); got != "$450,000" {
		t.Errorf("formatRedfinPrice(\"450000\") = %q, want %q", got, "$450,000")
	}
	if got := formatRedfinPrice(""); got != "" {
		t.Errorf("formatRedfinPrice(\"\") = %q, want empty", got)
	}
	if got := formatRedfinPrice("not numeric"); got != "not numeric" {
		t.Errorf("formatRedfinPrice(garbage) = %q, want passthrough", got)
	}
}

func TestStripStingrayPrefix(t *testing.T) {
	if got := string(stripStingrayPrefix([]byte(`{}&&{"payload":{}}`))); got != `{"payload":{}}` {
		t.Errorf("stripStingrayPrefix = %q", got)
	}
	if got := string(stripStingrayPrefix([]byte(`{"payload":{}}`))); got != `{"payload":{}}` {
		t.Errorf("stripStingrayPrefix(no prefix) = %q, want unchanged", got)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "", "third"); got != "third" {
		t.Errorf("firstNonEmpty = %q, want %q", got, "third")
	}
	if got := firstNonEmpty("", "", ""); got != "" {
		t.Errorf("firstNonEmpty(all empty) = %q, want empty", got)
	}
}

func TestIsListedEvent(t *testing.T) {
	for _, s := range []string{"Listed", "listed", "Listing"} {
		if !isListedEvent(s) {
			t.Errorf("isListedEvent(%q) = false, want true", s)
		}
	}
	if isListedEvent("Sold") {
		t.Error("isListedEvent(\"Sold\") = true, want false")
	}
}
