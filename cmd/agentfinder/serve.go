package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	agentfinderconfig "github.com/dispodojo/agentfinder/internal/config"
	"github.com/dispodojo/agentfinder/internal/healthserver"
	"github.com/dispodojo/agentfinder/internal/httpapi"
	"github.com/dispodojo/agentfinder/internal/job"
	"github.com/dispodojo/agentfinder/internal/logging"
	"github.com/dispodojo/agentfinder/internal/store"
	"github.com/dispodojo/agentfinder/internal/wiring"
)

var (
	servePort       int
	serveHealthPort int
	serveDataDir    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Agent Finder HTTP API",
	Long: `Serve starts the HTTP API that backs the drag-and-drop upload UI:
job-tracked batch resolution with SSE progress, FSBO search, and result
download/export, alongside a health/metrics server for probes.`,
	RunE: runServe,
}

func init() {
	flags := serveCmd.Flags()
	flags.IntVar(&servePort, "port", 9000, "HTTP API port")
	flags.IntVar(&serveHealthPort, "health-port", 9001, "Health/metrics port")
	flags.StringVar(&serveDataDir, "data-dir", "data", "Directory for jobs.json, caches, uploads and result files")
	flags.String("google-api-key", "", "Google Custom Search API key")
	flags.String("google-cse-id", "", "Google Custom Search Engine ID")
	flags.Bool("no-enrich", false, "Skip the brokerage-website enrichment pass")
	flags.Int("max-concurrent", agentfinderconfig.MaxGlobalConcurrency, "Max concurrent lookups")
	flags.String("log-style", "terminal", "Log style: terminal, json, logfmt, noop")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")

	for _, name := range []string{"google-api-key", "google-cse-id", "no-enrich", "max-concurrent", "log-style", "log-level"} {
		_ = cfgViper.BindPFlag(name, flags.Lookup(name))
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := agentfinderconfig.FromViper(cfgViper, "")
	logger := logging.NewLogger(logging.FromStrings(cfg.LogStyle, cfg.LogLevel))
	defer logger.Sync()

	if err := os.MkdirAll(serveDataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	cache, err := store.OpenCache(filepath.Join(serveDataDir, "web_cache.db"), agentfinderconfig.CacheTTLDays)
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer cache.Close()

	fsboStore, err := store.OpenFSBOStore(filepath.Join(serveDataDir, "fsbo.db"))
	if err != nil {
		return fmt.Errorf("opening fsbo store: %w", err)
	}
	defer fsboStore.Close()

	jobs, err := job.NewController(filepath.Join(serveDataDir, "jobs.json"), logger)
	if err != nil {
		return fmt.Errorf("loading jobs: %w", err)
	}
	fsboSearches, err := job.NewController(filepath.Join(serveDataDir, "fsbo_searches.json"), logger)
	if err != nil {
		return fmt.Errorf("loading fsbo searches: %w", err)
	}

	server := &httpapi.Server{
		Log:           logger,
		DataDir:       serveDataDir,
		Client:        wiring.SharedClient(),
		Cache:         cache,
		FSBOStore:     fsboStore,
		Jobs:          jobs,
		FSBOSearches:  fsboSearches,
		GoogleAPIKey:  cfg.GoogleAPIKey,
		GoogleCSEID:   cfg.GoogleCSEID,
		Enrich:        !cfg.NoEnrich,
		MaxConcurrent: cfg.MaxConcurrent,
	}
	handler, err := httpapi.NewHandler(server)
	if err != nil {
		return fmt.Errorf("building api handler: %w", err)
	}

	healthserver.Start(logger, serveHealthPort, func() bool { return true })

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%d", servePort),
		Handler:           handler,
		ReadHeaderTimeout: 40 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting agent finder api", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("api server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
