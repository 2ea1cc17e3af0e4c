package property

import "testing"

func TestProperty_SearchQuery_FallsBackToRawAddress(t *testing.T) {
	p := Property{RawAddress: "123 Main Street"}
	if got := p.SearchQuery(); got != "123 MAIN ST" {
		t.Errorf("SearchQuery() = %q, want %q", got, "123 MAIN ST")
	}
}

func TestProperty_SearchQuery_PrefersParsedComponents(t *testing.T) {
	p := Property{RawAddress: "raw, unused", AddressLine: "456 Oak Ave", City: "Springfield", State: "IL", ZipCode: "62704"}
	got := p.SearchQuery()
	want := "456 OAK AVE, SPRINGFIELD, IL, 62704"
	if got != want {
		t.Errorf("SearchQuery() = %q, want %q", got, want)
	}
}

func TestAgentInfo_HasContactInfo(t *testing.T) {
	if (AgentInfo{}).HasContactInfo() {
		t.Error("expected no contact info on zero value")
	}
	if !(AgentInfo{Phone: "555-1234"}).HasContactInfo() {
		t.Error("expected phone alone to count as contact info")
	}
}

func TestAgentInfo_IsComplete(t *testing.T) {
	if (AgentInfo{AgentName: "Jane Doe"}).IsComplete() {
		t.Error("name alone should not be complete")
	}
	if !(AgentInfo{AgentName: "Jane Doe", Email: "jane@example.com"}).IsComplete() {
		t.Error("name + contact info should be complete")
	}
}

func TestAgentInfo_Merge_ReceiverWinsAndSourcesConcat(t *testing.T) {
	receiver := AgentInfo{AgentName: "Jane Doe", Source: "redfin"}
	other := AgentInfo{AgentName: "Jane D.", Phone: "555-1234", Source: "zillow"}

	merged := receiver.Merge(other)
	if merged.AgentName != "Jane Doe" {
		t.Errorf("AgentName = %q, want receiver's value", merged.AgentName)
	}
	if merged.Phone != "555-1234" {
		t.Errorf("Phone = %q, want filled in from other", merged.Phone)
	}
	if merged.Source != "redfin+zillow" {
		t.Errorf("Source = %q, want %q", merged.Source, "redfin+zillow")
	}
}

func TestAgentInfo_Merge_IsPure(t *testing.T) {
	receiver := AgentInfo{AgentName: "Jane Doe"}
	other := AgentInfo{Phone: "555-1234"}
	_ = receiver.Merge(other)

	if receiver.Phone != "" {
		t.Error("Merge must not mutate the receiver")
	}
	if other.AgentName != "" {
		t.Error("Merge must not mutate the argument")
	}
}

func TestScrapeResult_Found(t *testing.T) {
	cases := map[LookupStatus]bool{
		StatusFound:    true,
		StatusPartial:  true,
		StatusCached:   true,
		StatusNotFound: false,
		StatusError:    false,
	}
	for status, want := range cases {
		if got := (ScrapeResult{Status: status}).Found(); got != want {
			t.Errorf("Found() for status %q = %v, want %v", status, got, want)
		}
	}
}
