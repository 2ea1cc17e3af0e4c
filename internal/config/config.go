// Package config loads Agent Finder's runtime configuration: CLI flags
// bound through viper with AGENTFINDER_-prefixed environment variable
// overrides, following the flag/env binding style evalaf/cmd/evalaf
// establishes with cobra, generalized here to also read environment
// variables via viper (a declared but, in the teacher, unexercised
// evalaf dependency — this is its first real use in this codebase).
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config is the resolved set of runtime settings for one run of the
// batch resolver, built from CLI flags, environment variables, and
// defaults, in that order of precedence.
type Config struct {
	InputPath      string
	OutputPath     string
	OutputFormat   string // "csv" | "excel"
	Sources        []string
	MaxConcurrent  int
	GoogleAPIKey   string
	GoogleCSEID    string
	NoEnrich       bool
	NoCache        bool
	CachePath      string
	DryRun         bool

	LogStyle string // "terminal" | "json" | "logfmt" | "noop"
	LogLevel string
}

// New builds a viper instance pre-bound to AGENTFINDER_-prefixed
// environment variables, mirroring the env-var surface named in
// SPEC_FULL.md §6.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("AGENTFINDER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("output", "")
	v.SetDefault("format", "csv")
	v.SetDefault("sources", "")
	v.SetDefault("max-concurrent", MaxGlobalConcurrency)
	v.SetDefault("google-api-key", "")
	v.SetDefault("google-cse-id", "")
	v.SetDefault("no-enrich", false)
	v.SetDefault("no-cache", false)
	v.SetDefault("cache-path", "data/web_cache.db")
	v.SetDefault("dry-run", false)
	v.SetDefault("log-style", "terminal")
	v.SetDefault("log-level", "info")

	return v
}

// FromViper resolves a Config from a bound viper instance plus the
// positional input path (cobra args aren't viper-bound).
func FromViper(v *viper.Viper, inputPath string) Config {
	var sources []string
	if raw := v.GetString("sources"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				sources = append(sources, s)
			}
		}
	}

	return Config{
		InputPath:     inputPath,
		OutputPath:    v.GetString("output"),
		OutputFormat:  v.GetString("format"),
		Sources:       sources,
		MaxConcurrent: v.GetInt("max-concurrent"),
		GoogleAPIKey:  v.GetString("google-api-key"),
		GoogleCSEID:   v.GetString("google-cse-id"),
		NoEnrich:      v.GetBool("no-enrich"),
		NoCache:       v.GetBool("no-cache"),
		CachePath:     v.GetString("cache-path"),
		DryRun:        v.GetBool("dry-run"),
		LogStyle:      v.GetString("log-style"),
		LogLevel:      v.GetString("log-level"),
	}
}
