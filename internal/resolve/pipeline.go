package resolve

import (
	"context"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/dispodojo/agentfinder/internal/normalize"
	"github.com/dispodojo/agentfinder/internal/property"
	"github.com/dispodojo/agentfinder/internal/scrapers"
	"github.com/dispodojo/agentfinder/internal/store"
)

// circuitThreshold matches pipeline.py's _circuit_breaker_threshold: a
// scraper is skipped, pipeline-wide, after this many consecutive
// search() failures. This sits above each source's own Gateway circuit
// breaker — it trips on adapter-level errors (malformed payloads,
// parsing failures), not just on HTTP-level blocks.
const circuitThreshold = 10

// ProgressFunc is invoked after every row finishes (including cache
// hits), mirroring pipeline.py's progress_callback contract.
type ProgressFunc func(update ProgressUpdate)

// ProgressUpdate mirrors the dict shape pipeline.py sends to its
// progress_callback, used to drive both the CLI bar and the SSE stream.
type ProgressUpdate struct {
	Completed      int    `json:"completed"`
	Total          int    `json:"total"`
	Cached         int    `json:"cached"`
	Found          int    `json:"found"`
	Partial        int    `json:"partial"`
	NotFound       int    `json:"not_found"`
	Errors         int    `json:"errors"`
	CurrentAddress string `json:"current_address"`
	CurrentStatus  string `json:"current_status"`
}

// Runner orchestrates the waterfall-with-merge resolution pass across a
// batch of properties. Grounded on pipeline.py's AgentFinderPipeline.
type Runner struct {
	Sources       []scrapers.Source
	Cache         *store.Cache
	EnrichClient  *http.Client
	Enrich        bool
	MaxConcurrent int
	Progress      ProgressFunc
	Log           *zap.Logger

	mu             sync.Mutex
	failureCounts  map[string]int
	circuitOpen    map[string]bool

	statsMu sync.Mutex
	cached, found, partial, notFound, errors int
}

// Run resolves every property, returning one ScrapeResult per input in
// the same order: cache hits first (synchronously), then a
// concurrency-bounded fan-out across the remaining rows, then a
// second-pass retry over simplified address variants for anything that
// ended NOT_FOUND.
func (r *Runner) Run(ctx context.Context, properties []property.Property) ([]property.ScrapeResult, error) {
	r.failureCounts = make(map[string]int)
	r.circuitOpen = make(map[string]bool)

	results := make([]property.ScrapeResult, len(properties))
	pendingIdx := make([]int, 0, len(properties))

	allQueries := make([]string, len(properties))
	for i, p := range properties {
		allQueries[i] = p.SearchQuery()
	}
	pendingAddrs, err := r.Cache.PendingAddresses(allQueries)
	if err != nil {
		return nil, err
	}
	pendingSet := make(map[string]bool, len(pendingAddrs))
	for _, a := range pendingAddrs {
		pendingSet[a] = true
	}

	for i, p := range properties {
		if pendingSet[p.SearchQuery()] {
			pendingIdx = append(pendingIdx, i)
			continue
		}
		info, ok, err := r.Cache.Get(p.SearchQuery())
		if err != nil {
			return nil, err
		}
		if ok {
			r.bumpStat(&r.cached)
			results[i] = property.ScrapeResult{Property: p, AgentInfo: info, Status: property.StatusCached}
		} else {
			pendingIdx = append(pendingIdx, i)
		}
	}

	total := len(pendingIdx)
	r.emitProgress(0, total, "", "cached")

	if total == 0 {
		return results, nil
	}

	maxConcurrent := r.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	sem := make(chan struct{}, maxConcurrent)
	var wg sync.WaitGroup
	for _, idx := range pendingIdx {
		idx := idx
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			results[idx] = r.safeProcessOne(ctx, properties[idx], total)
		}()
	}
	wg.Wait()

	r.retryNotFound(ctx, results, pendingIdx, total)

	return results, nil
}

// retryNotFound re-runs every still-NOT_FOUND row with simplified
// address variants, matching pipeline.py's "Second-pass retry" section.
func (r *Runner) retryNotFound(ctx context.Context, results []property.ScrapeResult, pendingIdx []int, total int) {
	var notFound []int
	for _, idx := range pendingIdx {
		if results[idx].Status == property.StatusNotFound {
			notFound = append(notFound, idx)
		}
	}
	if len(notFound) == 0 {
		return
	}

	r.emitProgress(r.completedCount(), total, "Retrying not-found addresses...", "retrying")

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, idx := range notFound {
		idx := idx
		wg.Add(1)
		go func() {
			defer wg.Done()
			retried := r.retryWithVariants(ctx, results[idx].Property, total)
			if retried == nil || retried.AgentInfo == nil || retried.AgentInfo.AgentName == "" {
				return
			}
			mu.Lock()
			r.statsMu.Lock()
			r.notFound--
			if retried.AgentInfo.HasContactInfo() {
				r.found++
			} else {
				r.partial++
			}
			r.statsMu.Unlock()
			retried.Property = results[idx].Property
			results[idx] = *retried
			mu.Unlock()
		}()
	}
	wg.Wait()
}

func (r *Runner) retryWithVariants(ctx context.Context, p property.Property, total int) *property.ScrapeResult {
	variants := normalize.Variants(normalize.AddressParts{
		AddressLine: p.AddressLine, RawAddress: p.RawAddress,
		City: p.City, State: p.State, ZipCode: p.ZipCode,
	})
	for _, variant := range variants {
		variantProp := p
		variantProp.AddressLine = variant
		result := r.processOne(ctx, variantProp, total)
		if result.AgentInfo != nil && result.AgentInfo.AgentName != "" {
			result.AgentInfo.Source += "+retry"
			return &result
		}
	}
	return nil
}

// safeProcessOne wraps processOne so a panic in one row's scraper call
// (malformed payload, nil-pointer bug in an adapter, etc.) becomes an
// ERROR result for that row instead of taking down the whole batch,
// mirroring pipeline.py's per-row try/except Exception.
func (r *Runner) safeProcessOne(ctx context.Context, p property.Property, total int) (result property.ScrapeResult) {
	defer func() {
		if rec := recover(); rec != nil {
			if r.Log != nil {
				r.Log.Error("panic processing row", zap.String("address", p.RawAddress), zap.Any("panic", rec))
			}
			r.bumpStat(&r.errors)
			r.emitProgress(r.completedCount(), total, p.RawAddress, string(property.StatusError))
			result = property.ScrapeResult{Property: p, Status: property.StatusError}
		}
	}()
	return r.processOne(ctx, p, total)
}

// processOne runs the merge-based waterfall for a single property:
// sources are tried in order, skipping any that tripped the pipeline's
// own circuit breaker; results merge receiver-wins as they arrive; an
// early exit fires once the merged info is complete and 2+ sources
// have returned an agent name. Mirrors pipeline.py's _process_one.
func (r *Runner) processOne(ctx context.Context, p property.Property, total int) property.ScrapeResult {
	var sourcesTried []string
	var agentInfo *property.AgentInfo
	var sourceAgents []sourceAgent

	for _, src := range r.Sources {
		if r.isCircuitOpen(src.Name()) {
			continue
		}

		sourcesTried = append(sourcesTried, src.Name())
		result, err := src.Search(p)
		if err != nil {
			r.recordFailure(src.Name())
			if r.Log != nil {
				r.Log.Info("source failed", zap.String("source", src.Name()), zap.String("address", p.RawAddress), zap.Error(err))
			}
			continue
		}
		r.recordSuccess(src.Name())

		if result != nil && result.AgentName != "" {
			sourceAgents = append(sourceAgents, sourceAgent{source: src.Name(), name: result.AgentName})
			if agentInfo == nil {
				agentInfo = result
			} else {
				merged := agentInfo.Merge(*result)
				agentInfo = &merged
			}
			if agentInfo.IsComplete() && len(sourceAgents) >= 2 {
				break
			}
		}
	}

	confidence, verified := computeConfidence(sourceAgents)

	if agentInfo != nil && !agentInfo.IsComplete() && r.Enrich && r.EnrichClient != nil {
		enriched := EnrichContactInfo(ctx, *agentInfo, r.EnrichClient)
		agentInfo = &enriched
	}

	var status property.LookupStatus
	if agentInfo != nil && agentInfo.AgentName != "" {
		if agentInfo.HasContactInfo() {
			status = property.StatusFound
			r.bumpStat(&r.found)
		} else {
			status = property.StatusPartial
			r.bumpStat(&r.partial)
		}
		_ = r.Cache.Put(p.SearchQuery(), *agentInfo, status)
	} else {
		status = property.StatusNotFound
		r.bumpStat(&r.notFound)
		_ = r.Cache.RecordFailure(p.SearchQuery(), sourcesTried, "No agent info found")
	}

	matched := make([]string, 0, len(sourceAgents))
	for _, sa := range sourceAgents {
		matched = append(matched, sa.source)
	}

	r.emitProgress(r.completedCount(), total, p.RawAddress, string(status))

	return property.ScrapeResult{
		Property:       p,
		AgentInfo:      agentInfo,
		Status:         status,
		SourcesTried:   sourcesTried,
		Confidence:     confidence,
		Verified:       verified,
		SourcesMatched: matched,
	}
}

func (r *Runner) isCircuitOpen(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.circuitOpen[name]
}

func (r *Runner) recordSuccess(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failureCounts[name] = 0
}

func (r *Runner) recordFailure(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failureCounts[name]++
	if r.failureCounts[name] >= circuitThreshold {
		r.circuitOpen[name] = true
		if r.Log != nil {
			r.Log.Warn("pipeline circuit breaker opened", zap.String("source", name), zap.Int("failures", r.failureCounts[name]))
		}
	}
}

func (r *Runner) bumpStat(counter *int) {
	r.statsMu.Lock()
	*counter++
	r.statsMu.Unlock()
}

func (r *Runner) completedCount() int {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	return r.found + r.partial + r.notFound + r.errors
}

func (r *Runner) emitProgress(completed, total int, currentAddress, currentStatus string) {
	if r.Progress == nil {
		return
	}
	r.statsMu.Lock()
	update := ProgressUpdate{
		Completed: completed, Total: total, Cached: r.cached,
		Found: r.found, Partial: r.partial, NotFound: r.notFound, Errors: r.errors,
		CurrentAddress: currentAddress, CurrentStatus: currentStatus,
	}
	r.statsMu.Unlock()
	r.Progress(update)
}
