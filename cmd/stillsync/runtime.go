package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"stillsync/internal/breaker"
	"stillsync/internal/catalog/mtime"
	"stillsync/internal/catalog/tmdb"
	"stillsync/internal/config"
	"stillsync/internal/fetch"
	"stillsync/internal/history"
	"stillsync/internal/ledger"
	"stillsync/internal/matching"
	"stillsync/internal/pipeline"
	"stillsync/internal/scan"
	"stillsync/internal/workflow"
)

// scanRuntime bundles everything the scan command needs. The gate is held
// for the runtime's lifetime.
type scanRuntime struct {
	driver     *scan.Driver
	listing    *ledger.Listing
	checkpoint *ledger.Checkpoint
	gate       *workflow.Gate
}

func (c *commandContext) newScanRuntime() (*scanRuntime, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	gate := workflow.NewGate(cfg.LockPath())
	if err := gate.Acquire(); err != nil {
		return nil, err
	}

	lister, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language,
		cfg.TMDB.Region, cfg.TMDB.OriginalLanguage,
		tmdb.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout()}))
	if err != nil {
		_ = gate.Release()
		return nil, fmt.Errorf("build discover client: %w", err)
	}

	listing := ledger.LoadListing(cfg.ListingPath(), logger)
	checkpoint := ledger.LoadCheckpoint(cfg.CheckpointPath(), logger)

	driver := scan.New(scan.Options{
		Lister:        lister,
		Listing:       listing,
		Checkpoint:    checkpoint,
		MaxPages:      cfg.Scan.MaxPages,
		PersistEvery:  cfg.Scan.PersistEvery,
		EmptyPageStop: cfg.Scan.EmptyPageStop,
		PageDelay:     cfg.PageDelay(),
		Logger:        logger,
	})

	return &scanRuntime{driver: driver, listing: listing, checkpoint: checkpoint, gate: gate}, nil
}

func (r *scanRuntime) Close() {
	_ = r.gate.Release()
}

// downloadRuntime bundles everything the run and retry commands need.
type downloadRuntime struct {
	cfg       *config.Config
	logger    *slog.Logger
	manager   *workflow.Manager
	failures  *ledger.Failures
	ledger    *ledger.Ledger
	history   *history.Store
	gate      *workflow.Gate
	sessionID string
}

func (c *commandContext) newDownloadRuntime() (*downloadRuntime, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	gate := workflow.NewGate(cfg.LockPath())
	if err := gate.Acquire(); err != nil {
		return nil, err
	}

	searcher, err := mtime.New(cfg.MTime.BaseURL, cfg.MTime.PageSize,
		cfg.MTime.SessionToken, cfg.MTime.UserAgent,
		mtime.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout()}))
	if err != nil {
		_ = gate.Release()
		return nil, fmt.Errorf("build asset catalog client: %w", err)
	}

	var historyStore *history.Store
	if cfg.History.Enabled {
		historyStore, err = history.Open(cfg.HistoryDBPath())
		if err != nil {
			_ = gate.Release()
			return nil, fmt.Errorf("open history database: %w", err)
		}
	}

	sessionID := uuid.NewString()
	led := ledger.Load(cfg.LedgerPath(), logger)
	failures := ledger.LoadFailures(cfg.FailuresPath(), logger)
	listing := ledger.LoadListing(cfg.ListingPath(), logger)

	pipe := pipeline.New(pipeline.Options{
		AssetLister: searcher,
		Fetcher: fetch.New(fetch.Options{
			HTTPClient:   &http.Client{Timeout: cfg.RequestTimeout()},
			Attempts:     uint(cfg.Download.RetryAttempts),
			InitialWait:  time.Duration(cfg.Download.RetryInitialWait) * time.Second,
			MaxWait:      time.Duration(cfg.Download.RetryMaxWait) * time.Second,
			UserAgent:    cfg.MTime.UserAgent,
			SessionToken: cfg.MTime.SessionToken,
			Logger:       logger,
		}),
		Pacer: fetch.NewPacer(
			time.Duration(cfg.Download.PacingBase)*time.Second,
			time.Duration(cfg.Download.PacingSpread)*time.Second,
			time.Duration(cfg.Download.PacingCap)*time.Second),
		Breaker: breaker.New(cfg.Breaker.FailureThreshold,
			time.Duration(cfg.Breaker.CooldownSeconds)*time.Second,
			time.Duration(cfg.Breaker.PollSeconds)*time.Second, logger),
		Ledger:     led,
		Failures:   failures,
		History:    historyStore,
		LibraryDir: cfg.Paths.LibraryDir,
		Workers:    cfg.Download.Workers,
		SessionID:  sessionID,
		Logger:     logger,
	})

	manager := workflow.New(workflow.Options{
		Listing:   listing,
		Ledger:    led,
		Failures:  failures,
		Matcher:   matching.New(searcher, matchingPolicy(cfg), logger),
		Pipeline:  pipe,
		SessionID: sessionID,
		Logger:    logger,
	})

	return &downloadRuntime{
		cfg:       cfg,
		logger:    logger,
		manager:   manager,
		failures:  failures,
		ledger:    led,
		history:   historyStore,
		gate:      gate,
		sessionID: sessionID,
	}, nil
}

func (r *downloadRuntime) Close() {
	if r.history != nil {
		_ = r.history.Close()
	}
	_ = r.gate.Release()
}

func matchingPolicy(cfg *config.Config) matching.Policy {
	return matching.Policy{
		AcceptScore:      cfg.Matching.AcceptScore,
		SecondQueryScore: cfg.Matching.SecondQueryScore,
		YearPenalty:      cfg.Matching.YearPenalty,
		YearTolerance:    cfg.Matching.YearTolerance,
	}
}
