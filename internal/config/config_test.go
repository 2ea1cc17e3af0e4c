package config

import "testing"

func TestNew_Defaults(t *testing.T) {
	v := New()
	cfg := FromViper(v, "input.csv")

	if cfg.InputPath != "input.csv" {
		t.Errorf("InputPath = %q, want %q", cfg.InputPath, "input.csv")
	}
	if cfg.OutputFormat != "csv" {
		t.Errorf("OutputFormat = %q, want %q", cfg.OutputFormat, "csv")
	}
	if cfg.MaxConcurrent != MaxGlobalConcurrency {
		t.Errorf("MaxConcurrent = %d, want %d", cfg.MaxConcurrent, MaxGlobalConcurrency)
	}
	if cfg.CachePath != "data/web_cache.db" {
		t.Errorf("CachePath = %q, want %q", cfg.CachePath, "data/web_cache.db")
	}
	if cfg.LogStyle != "terminal" || cfg.LogLevel != "info" {
		t.Errorf("LogStyle/LogLevel = %q/%q, want terminal/info", cfg.LogStyle, cfg.LogLevel)
	}
	if len(cfg.Sources) != 0 {
		t.Errorf("Sources = %v, want empty when unset", cfg.Sources)
	}
}

func TestFromViper_ParsesCommaSeparatedSources(t *testing.T) {
	v := New()
	v.Set("sources", "redfin, zillow ,  , realtor")
	cfg := FromViper(v, "input.csv")

	want := []string{"redfin", "zillow", "realtor"}
	if len(cfg.Sources) != len(want) {
		t.Fatalf("Sources = %v, want %v", cfg.Sources, want)
	}
	for i, s := range want {
		if cfg.Sources[i] != s {
			t.Errorf("Sources[%d] = %q, want %q", i, cfg.Sources[i], s)
		}
	}
}

func TestNew_EnvOverride(t *testing.T) {
	t.Setenv("AGENTFINDER_LOG_LEVEL", "debug")
	v := New()
	cfg := FromViper(v, "input.csv")
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want env override %q", cfg.LogLevel, "debug")
	}
}

func TestDefaultSourceConfigs_GoogleDisabledByDefault(t *testing.T) {
	sources := DefaultSourceConfigs()
	google, ok := sources[SourceGoogle]
	if !ok {
		t.Fatal("expected a google_search entry in DefaultSourceConfigs")
	}
	if google.Enabled {
		t.Error("expected google_search to be disabled by default (requires an API key)")
	}
	if len(sources) != len(SourcePriority)+len(FSBOSourcePriority) {
		t.Errorf("DefaultSourceConfigs has %d entries, want one per agent+FSBO source (%d)",
			len(sources), len(SourcePriority)+len(FSBOSourcePriority))
	}
}

func TestSourcePriority_MatchesConfiguredSources(t *testing.T) {
	sources := DefaultSourceConfigs()
	for _, name := range SourcePriority {
		if _, ok := sources[name]; !ok {
			t.Errorf("SourcePriority names %q, which has no DefaultSourceConfigs entry", name)
		}
	}
	for _, name := range FSBOSourcePriority {
		if _, ok := sources[name]; !ok {
			t.Errorf("FSBOSourcePriority names %q, which has no DefaultSourceConfigs entry", name)
		}
	}
}
