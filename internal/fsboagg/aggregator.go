// Package fsboagg fans a search area out across every registered FSBO
// source concurrently, then deduplicates and merges the combined result
// set by normalized street address. Grounded on fsbo_pipeline.py's
// FSBOPipeline.
package fsboagg

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/dispodojo/agentfinder/internal/fsbomodel"
	"github.com/dispodojo/agentfinder/internal/fsboscrapers"
	"github.com/dispodojo/agentfinder/internal/normalize"
)

// ProgressFunc is invoked after every source finishes, mirroring
// fsbo_pipeline.py's progress_callback contract.
type ProgressFunc func(update ProgressUpdate)

// ProgressUpdate mirrors the dict shape fsbo_pipeline.py sends to its
// progress_callback.
type ProgressUpdate struct {
	ScrapersDone  int    `json:"scrapers_done"`
	ScrapersTotal int    `json:"scrapers_total"`
	ListingsFound int    `json:"listings_found"`
	CurrentSource string `json:"current_source"`
	SourceCount   int    `json:"source_count"`
	Status        string `json:"status"`
}

// Aggregator runs every registered FSBO source concurrently against one
// search area and merges the results.
type Aggregator struct {
	Sources  []fsboscrapers.Source
	Progress ProgressFunc
	Log      *zap.Logger
}

// Run fans out criteria to every source concurrently, then deduplicates
// and merges the combined listings by normalized street address.
func (a *Aggregator) Run(ctx context.Context, criteria fsbomodel.FSBOSearchCriteria) ([]fsbomodel.FSBOListing, error) {
	total := len(a.Sources)
	perSource := make([][]fsbomodel.FSBOListing, total)

	var wg sync.WaitGroup
	var mu sync.Mutex
	done := 0

	for i, src := range a.Sources {
		i, src := i, src
		wg.Add(1)
		go func() {
			defer wg.Done()
			results := a.safeSearchArea(src, criteria)
			perSource[i] = results

			mu.Lock()
			done++
			status := "running"
			if done == total {
				status = "complete"
			}
			if a.Progress != nil {
				a.Progress(ProgressUpdate{
					ScrapersDone:  done,
					ScrapersTotal: total,
					ListingsFound: countListings(perSource),
					CurrentSource: src.Name(),
					SourceCount:   len(results),
					Status:        status,
				})
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	var all []fsbomodel.FSBOListing
	for _, results := range perSource {
		all = append(all, results...)
	}

	merged := deduplicateAndMerge(all)
	if a.Log != nil {
		a.Log.Info("fsbo aggregation complete", zap.Int("raw", len(all)), zap.Int("merged", len(merged)))
	}
	return merged, nil
}

// safeSearchArea calls one source's SearchArea, recovering from a panic
// (malformed listing payload, adapter bug) so one misbehaving source
// returns an empty slice instead of crashing the whole aggregation run.
func (a *Aggregator) safeSearchArea(src fsboscrapers.Source, criteria fsbomodel.FSBOSearchCriteria) (results []fsbomodel.FSBOListing) {
	defer func() {
		if rec := recover(); rec != nil {
			if a.Log != nil {
				a.Log.Error("panic in fsbo source", zap.String("source", src.Name()), zap.Any("panic", rec))
			}
			results = nil
		}
	}()
	results, err := src.SearchArea(criteria)
	if err != nil {
		if a.Log != nil {
			a.Log.Warn("fsbo source failed", zap.String("source", src.Name()), zap.Error(err))
		}
		return nil
	}
	return results
}

func countListings(perSource [][]fsbomodel.FSBOListing) int {
	n := 0
	for _, results := range perSource {
		n += len(results)
	}
	return n
}

// deduplicateAndMerge groups listings by normalized street line, merging
// contact info receiver-wins across sources that found the same
// property. Mirrors fsbo_pipeline.py's _deduplicate_and_merge.
func deduplicateAndMerge(listings []fsbomodel.FSBOListing) []fsbomodel.FSBOListing {
	seen := make(map[string]int)
	var merged []fsbomodel.FSBOListing

	for _, listing := range listings {
		key := normalizeForDedup(listing)
		if len(key) < 4 {
			key = listing.ListingURL
			if key == "" {
				key = listing.Address
			}
		}

		if idx, ok := seen[key]; ok {
			merged[idx] = merged[idx].Merge(listing)
		} else {
			seen[key] = len(merged)
			merged = append(merged, listing)
		}
	}
	return merged
}

func normalizeForDedup(listing fsbomodel.FSBOListing) string {
	streetLine := strings.TrimSpace(strings.Split(listing.Address, ",")[0])
	return normalize.Canonical(streetLine)
}
