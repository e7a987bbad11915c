package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"stillsync/internal/catalog"
	"stillsync/internal/ledger"
	"stillsync/internal/logging"
	"stillsync/internal/matching"
	"stillsync/internal/pipeline"
)

// Summary reports what a download run accomplished.
type Summary struct {
	Pending   int
	Processed int
	Matched   int
	Unmatched int
	Stats     pipeline.Stats
}

// Options configures a Manager.
type Options struct {
	Listing   *ledger.Listing
	Ledger    *ledger.Ledger
	Failures  *ledger.Failures
	Matcher   *matching.Matcher
	Pipeline  *pipeline.Pipeline
	SessionID string
	Logger    *slog.Logger
}

// Manager walks the pending entities through resolution and dispatch.
type Manager struct {
	listing   *ledger.Listing
	ledger    *ledger.Ledger
	failures  *ledger.Failures
	matcher   *matching.Matcher
	pipeline  *pipeline.Pipeline
	sessionID string
	logger    *slog.Logger
}

// New creates a Manager.
func New(opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		listing:   opts.Listing,
		ledger:    opts.Ledger,
		failures:  opts.Failures,
		matcher:   opts.Matcher,
		pipeline:  opts.Pipeline,
		sessionID: opts.SessionID,
		logger:    logging.NewComponentLogger(logger, "workflow"),
	}
}

// Pending returns the listed entities not yet archived in the ledger.
func (m *Manager) Pending() []catalog.Entity {
	var pending []catalog.Entity
	for _, entity := range m.listing.Items() {
		if !m.ledger.HasEntity(entity.ID) {
			pending = append(pending, entity)
		}
	}
	return pending
}

// RunDownloads processes every pending entity: resolve it against the asset
// catalog, download anything new, then archive it in the ledger so later
// runs skip it. An entity is archived even when unmatched, so hopeless
// titles are not re-queried forever. State is saved after every entity;
// cancellation saves and returns what was accomplished so far.
func (m *Manager) RunDownloads(ctx context.Context) (Summary, error) {
	pending := m.Pending()
	summary := Summary{Pending: len(pending)}
	if len(pending) == 0 {
		m.logger.Info("nothing pending, listing fully processed")
		return summary, nil
	}

	m.logger.Info("starting download run",
		logging.String(logging.FieldSessionID, m.sessionID),
		logging.Int("listed", m.listing.Len()),
		logging.Int("pending", len(pending)))

	for _, entity := range pending {
		if err := ctx.Err(); err != nil {
			m.saveState()
			return summary, fmt.Errorf("download run interrupted: %w", err)
		}

		result := m.matcher.Resolve(ctx, entity)
		if !result.Matched() {
			summary.Unmatched++
			summary.Processed++
			m.logger.Info("no catalog match, archiving entity",
				logging.Int64(logging.FieldEntityID, entity.ID),
				logging.String("title", entity.Title()))
			m.ledger.MarkEntity(entity.ID)
			m.saveState()
			continue
		}
		summary.Matched++

		stats, err := m.pipeline.ExpandAndDispatch(ctx, entity, result.MatchedID)
		if err != nil {
			// Listing failed: leave the entity pending for the next run.
			m.logger.Warn("dispatch failed, entity stays pending",
				logging.Int64(logging.FieldEntityID, entity.ID),
				logging.Error(err))
			m.saveState()
			continue
		}
		summary.Stats.New += stats.New
		summary.Stats.Skipped += stats.Skipped
		summary.Stats.Failed += stats.Failed
		summary.Processed++

		m.ledger.MarkEntity(entity.ID)
		m.saveState()

		m.logger.Info("entity archived",
			logging.Int64(logging.FieldEntityID, entity.ID),
			logging.String("title", entity.Title()),
			logging.String("stats", stats.String()))
	}

	m.logger.Info("download run complete",
		logging.String(logging.FieldSessionID, m.sessionID),
		logging.Int("processed", summary.Processed),
		logging.Int("unmatched", summary.Unmatched),
		logging.String("stats", summary.Stats.String()))
	return summary, nil
}

// RetryFailed re-runs the persisted failure list through the pipeline.
func (m *Manager) RetryFailed(ctx context.Context) (pipeline.Stats, error) {
	stats, err := m.pipeline.RetryFailed(ctx)
	m.saveState()
	return stats, err
}

func (m *Manager) saveState() {
	if err := m.ledger.Save(); err != nil {
		m.logger.Warn("ledger save failed", logging.Error(err))
	}
	if err := m.failures.Save(); err != nil {
		m.logger.Warn("failure list save failed", logging.Error(err))
	}
}
