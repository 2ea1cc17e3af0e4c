// Package wiring assembles the Resolution Engine and FSBO Aggregator
// from internal/config's default source configs, sharing one *http.Client
// the way §4.2's Open Question resolves it (one shared client,
// per-source Gateways layered on top).
package wiring

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/dispodojo/agentfinder/internal/config"
	"github.com/dispodojo/agentfinder/internal/fsboscrapers"
	"github.com/dispodojo/agentfinder/internal/gateway"
	"github.com/dispodojo/agentfinder/internal/scrapers"
)

// SharedClient builds the one *http.Client every Gateway and the
// enrichment step shares, with the pool sizing SPEC_FULL.md §5 names.
func SharedClient() *http.Client {
	return &http.Client{
		Timeout: 60 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 20,
		},
	}
}

// Options narrows the configured source set for agent resolution and
// gates optional components (Google CSE needs credentials, enrichment
// can be disabled outright).
type Options struct {
	EnabledSources []string // empty means every source in config.SourcePriority
	GoogleAPIKey   string
	GoogleCSEID    string
}

func enabledSet(requested []string) map[string]bool {
	if len(requested) == 0 {
		return nil
	}
	set := make(map[string]bool, len(requested))
	for _, s := range requested {
		set[s] = true
	}
	return set
}

// AgentSources builds the ordered waterfall of scrapers.Source
// implementations, one Gateway per source, gated by opts.EnabledSources
// and (for Google CSE) the presence of credentials. Order follows
// config.SourcePriority, matching pipeline.py's _build_scrapers.
func AgentSources(client *http.Client, log *zap.Logger, opts Options) ([]scrapers.Source, error) {
	cfgs := config.DefaultSourceConfigs()
	enabled := enabledSet(opts.EnabledSources)

	gw := func(name string) *gateway.Gateway {
		return gateway.New(cfgs[name], client, log)
	}

	var sources []scrapers.Source
	for _, name := range config.SourcePriority {
		if enabled != nil && !enabled[name] {
			continue
		}
		if !cfgs[name].Enabled && name != config.SourceGoogle {
			continue
		}
		switch name {
		case config.SourceRedfin:
			sources = append(sources, scrapers.NewRedfin(gw(name)))
		case config.SourceHomeHarvest:
			sources = append(sources, scrapers.NewHomeHarvest(gw(name)))
		case config.SourceRealtor:
			sources = append(sources, scrapers.NewRealtor(gw(name)))
		case config.SourceZillow:
			sources = append(sources, scrapers.NewZillow(gw(name)))
		case config.SourceGoogle:
			if opts.GoogleAPIKey == "" || opts.GoogleCSEID == "" {
				continue
			}
			cse, err := scrapers.NewGoogleCSE(context.Background(), opts.GoogleAPIKey, opts.GoogleCSEID, client)
			if err != nil {
				if log != nil {
					log.Warn("google cse unavailable, skipping", zap.Error(err))
				}
				continue
			}
			sources = append(sources, cse)
		}
	}
	return sources, nil
}

// FSBOSources builds all 5 FSBO area-search adapters in
// config.FSBOSourcePriority order, one Gateway each.
func FSBOSources(client *http.Client, log *zap.Logger) []fsboscrapers.Source {
	cfgs := config.DefaultSourceConfigs()
	gw := func(name string) *gateway.Gateway {
		return gateway.New(cfgs[name], client, log)
	}

	var sources []fsboscrapers.Source
	for _, name := range config.FSBOSourcePriority {
		switch name {
		case config.SourceFSBOCom:
			sources = append(sources, fsboscrapers.NewFSBOCom(gw(name)))
		case config.SourceForSaleByOwner:
			sources = append(sources, fsboscrapers.NewForSaleByOwner(gw(name)))
		case config.SourceZillowFSBO:
			sources = append(sources, fsboscrapers.NewZillowFSBO(gw(name)))
		case config.SourceRealtorFSBO:
			sources = append(sources, fsboscrapers.NewRealtorFSBO(gw(name)))
		case config.SourceCraigslist:
			sources = append(sources, fsboscrapers.NewCraigslist(gw(name)))
		}
	}
	return sources
}
