package wiring

import (
	"testing"

	"go.uber.org/zap"
)

func TestAgentSources_DefaultExcludesGoogleWithoutCredentials(t *testing.T) {
	sources, err := AgentSources(SharedClient(), zap.NewNop(), Options{})
	if err != nil {
		t.Fatalf("AgentSources: %v", err)
	}
	for _, s := range sources {
		if s.Name() == "google_search" {
			t.Error("expected google_search to be excluded with no API credentials")
		}
	}
	if len(sources) != 4 {
		t.Errorf("len(sources) = %d, want 4 (redfin, homeharvest, realtor, zillow)", len(sources))
	}
}

func TestAgentSources_RespectsEnabledSourcesFilter(t *testing.T) {
	sources, err := AgentSources(SharedClient(), zap.NewNop(), Options{EnabledSources: []string{"redfin"}})
	if err != nil {
		t.Fatalf("AgentSources: %v", err)
	}
	if len(sources) != 1 || sources[0].Name() != "redfin" {
		t.Errorf("sources = %v, want only redfin", sources)
	}
}

func TestFSBOSources_BuildsAllFive(t *testing.T) {
	sources := FSBOSources(SharedClient(), zap.NewNop())
	if len(sources) != 5 {
		t.Fatalf("len(sources) = %d, want 5", len(sources))
	}
	names := make(map[string]bool, len(sources))
	for _, s := range sources {
		names[s.Name()] = true
	}
	for _, want := range []string{"fsbo.com", "forsalebyowner.com", "zillow_fsbo", "realtor_fsbo", "craigslist"} {
		if !names[want] {
			t.Errorf("missing FSBO source %q in %v", want, names)
		}
	}
}
