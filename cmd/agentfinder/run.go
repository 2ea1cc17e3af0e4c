package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	agentfinderconfig "github.com/dispodojo/agentfinder/internal/config"
	"github.com/dispodojo/agentfinder/internal/ingest"
	"github.com/dispodojo/agentfinder/internal/logging"
	"github.com/dispodojo/agentfinder/internal/resolve"
	"github.com/dispodojo/agentfinder/internal/store"
	"github.com/dispodojo/agentfinder/internal/wiring"
)

var runCmd = &cobra.Command{
	Use:   "run <input-file>",
	Short: "Resolve listing agents for a batch of addresses",
	Long: `Run reads a CSV of property addresses, waterfalls each one across
the configured sources, and writes a 3-way CSV split (found, partial,
not_found) to a ZIP file.

Examples:
  agentfinder run properties.csv
  agentfinder run properties.csv --sources redfin,zillow --output results.zip
  agentfinder run properties.csv --no-enrich --max-concurrent 20
`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	flags := runCmd.Flags()
	flags.String("output", "", "Output ZIP path (defaults to <input>_results.zip)")
	flags.String("format", "csv", "Output format: csv")
	flags.String("sources", "", "Comma-separated source list (default: all)")
	flags.Int("max-concurrent", agentfinderconfig.MaxGlobalConcurrency, "Max concurrent lookups")
	flags.String("google-api-key", "", "Google Custom Search API key")
	flags.String("google-cse-id", "", "Google Custom Search Engine ID")
	flags.Bool("no-enrich", false, "Skip the brokerage-website enrichment pass")
	flags.Bool("no-cache", false, "Bypass the SQLite result cache")
	flags.String("cache-path", "data/web_cache.db", "SQLite cache path")
	flags.Bool("dry-run", false, "Parse and validate input without scraping")
	flags.String("log-style", "terminal", "Log style: terminal, json, logfmt, noop")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")

	for _, name := range []string{"output", "format", "sources", "max-concurrent",
		"google-api-key", "google-cse-id", "no-enrich", "no-cache", "cache-path",
		"dry-run", "log-style", "log-level"} {
		_ = cfgViper.BindPFlag(name, flags.Lookup(name))
	}
}

func runBatch(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	cfg := agentfinderconfig.FromViper(cfgViper, inputPath)
	if cfg.OutputFormat != "csv" {
		return fmt.Errorf("--format %s is not supported: this build only writes CSV (see DESIGN.md)", cfg.OutputFormat)
	}

	logger := logging.NewLogger(logging.FromStrings(cfg.LogStyle, cfg.LogLevel))
	defer logger.Sync()

	properties, err := ingest.ReadInput(cfg.InputPath)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	if len(properties) == 0 {
		return fmt.Errorf("no valid addresses found in %s", cfg.InputPath)
	}
	logger.Info("loaded input", zap.Int("rows", len(properties)))

	if cfg.DryRun {
		summary, err := ingest.ValidateInput(cfg.InputPath)
		if err != nil {
			return fmt.Errorf("validating input: %w", err)
		}
		fmt.Printf("total rows: %d (with_city=%d with_state=%d with_zip=%d)\n",
			summary.TotalRows, summary.WithCity, summary.WithState, summary.WithZip)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := wiring.SharedClient()
	sources, err := wiring.AgentSources(client, logger, wiring.Options{
		EnabledSources: cfg.Sources,
		GoogleAPIKey:   cfg.GoogleAPIKey,
		GoogleCSEID:    cfg.GoogleCSEID,
	})
	if err != nil {
		return fmt.Errorf("building sources: %w", err)
	}

	// --no-cache opens an in-memory SQLite database instead of skipping
	// the cache layer outright, matching main.py's cache_path=":memory:"
	// behavior: every lookup this run still goes through Cache.Get/Put,
	// it just never persists past process exit.
	cachePath := cfg.CachePath
	if cfg.NoCache {
		cachePath = ":memory:"
	}
	cache, err := store.OpenCache(cachePath, agentfinderconfig.CacheTTLDays)
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer cache.Close()

	runner := &resolve.Runner{
		Sources:       sources,
		Cache:         cache,
		EnrichClient:  client,
		Enrich:        !cfg.NoEnrich,
		MaxConcurrent: cfg.MaxConcurrent,
		Progress:      newProgressBar(len(properties)),
		Log:           logger,
	}

	results, err := runner.Run(ctx, properties)
	if err != nil {
		return fmt.Errorf("running pipeline: %w", err)
	}

	outputPath := cfg.OutputPath
	if outputPath == "" {
		outputPath = deriveOutputPath(cfg.InputPath)
	}
	written, err := ingest.ExportZip(results, cfg.InputPath, outputPath)
	if err != nil {
		return fmt.Errorf("exporting results: %w", err)
	}

	summary := ingest.GenerateSummary(results)
	fmt.Printf("\nwrote %s\n", written)
	fmt.Printf("found=%d partial=%d cached=%d not_found=%d errors=%d success_rate=%s\n",
		summary.Found, summary.Partial, summary.Cached, summary.NotFound, summary.Errors, summary.SuccessRate)
	return nil
}

// newProgressBar prints a single-line progress update to stderr as rows
// complete, matching pipeline.py's tqdm-driven CLI output in spirit
// without pulling in a terminal-UI dependency no repo in the corpus uses.
func newProgressBar(total int) resolve.ProgressFunc {
	return func(u resolve.ProgressUpdate) {
		fmt.Fprintf(os.Stderr, "\r[%d/%d] found=%d partial=%d cached=%d not_found=%d errors=%d",
			u.Completed, u.Total, u.Found, u.Partial, u.Cached, u.NotFound, u.Errors)
	}
}

func deriveOutputPath(inputPath string) string {
	return withoutExt(inputPath) + "_results.zip"
}

func withoutExt(path string) string {
	for i := len(path) - 1; i >= 0 && path[i] != '/'; i-- {
		if path[i] == '.' {
			return path[:i]
		}
	}
	return path
}
