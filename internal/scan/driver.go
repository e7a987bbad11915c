package scan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"stillsync/internal/catalog"
	"stillsync/internal/ledger"
	"stillsync/internal/logging"
)

// Options configures a Driver.
type Options struct {
	Lister        catalog.Lister
	Listing       *ledger.Listing
	Checkpoint    *ledger.Checkpoint
	MaxPages      int
	PersistEvery  int
	EmptyPageStop int
	PageDelay     time.Duration
	Logger        *slog.Logger
}

// Stats summarizes one scan run.
type Stats struct {
	PagesScanned int
	Added        int
}

// Driver walks the discover feed from the checkpointed page, adding unseen
// entities to the listing. Progress persists every few pages and on
// cancellation, so a killed scan never re-reads more than a handful of pages.
type Driver struct {
	lister        catalog.Lister
	listing       *ledger.Listing
	checkpoint    *ledger.Checkpoint
	maxPages      int
	persistEvery  int
	emptyPageStop int
	pageDelay     time.Duration
	logger        *slog.Logger
}

// New creates a Driver.
func New(opts Options) *Driver {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	d := &Driver{
		lister:        opts.Lister,
		listing:       opts.Listing,
		checkpoint:    opts.Checkpoint,
		maxPages:      opts.MaxPages,
		persistEvery:  opts.PersistEvery,
		emptyPageStop: opts.EmptyPageStop,
		pageDelay:     opts.PageDelay,
		logger:        logging.NewComponentLogger(logger, "scan"),
	}
	if d.maxPages < 1 {
		d.maxPages = 1
	}
	if d.persistEvery < 1 {
		d.persistEvery = 10
	}
	if d.emptyPageStop < 1 {
		d.emptyPageStop = 3
	}
	return d
}

// Run scans from the checkpoint until the feed is exhausted, the page ceiling
// is hit, or several consecutive pages yield nothing new. Cancellation
// persists the current position before returning.
func (d *Driver) Run(ctx context.Context) (Stats, error) {
	startPage := d.checkpoint.LastPage()
	if startPage > 1 {
		d.logger.Info("resuming scan from checkpoint", logging.Int(logging.FieldPage, startPage))
	}

	stats := Stats{}
	emptyRun := 0

	for page := startPage; page <= d.maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return stats, d.interrupt(page, stats, err)
		}

		entities, totalPages, err := d.lister.DiscoverMoviesPage(ctx, page)
		if err != nil {
			if ctx.Err() != nil {
				return stats, d.interrupt(page, stats, ctx.Err())
			}
			d.logger.Warn("page fetch failed, skipping",
				logging.Int(logging.FieldPage, page),
				logging.Error(err))
			continue
		}
		stats.PagesScanned++

		if len(entities) == 0 {
			d.logger.Info("feed exhausted", logging.Int(logging.FieldPage, page))
			d.persist(page + 1)
			break
		}

		newCount := 0
		for _, entity := range entities {
			if d.listing.Add(entity) {
				newCount++
			}
		}
		stats.Added += newCount
		d.checkpoint.SetLastPage(page + 1)

		d.logger.Debug("page scanned",
			logging.Int(logging.FieldPage, page),
			logging.Int("new_entities", newCount),
			logging.Int("listing_total", d.listing.Len()))

		if page%d.persistEvery == 0 || newCount > 0 {
			d.persist(page + 1)
		}

		if newCount == 0 {
			emptyRun++
			if emptyRun >= d.emptyPageStop {
				d.logger.Info("no new entities on consecutive pages, stopping early",
					logging.Int(logging.FieldPage, page),
					logging.Int("empty_pages", emptyRun))
				d.persist(page + 1)
				break
			}
		} else {
			emptyRun = 0
		}

		if totalPages > 0 && page >= totalPages {
			d.logger.Info("reached final page", logging.Int(logging.FieldPage, page))
			d.persist(page + 1)
			break
		}

		if err := d.sleep(ctx); err != nil {
			return stats, d.interrupt(page+1, stats, err)
		}
	}

	d.persist(d.checkpoint.LastPage())
	d.logger.Info("scan complete",
		logging.Int("pages_scanned", stats.PagesScanned),
		logging.Int("entities_added", stats.Added),
		logging.Int("listing_total", d.listing.Len()))
	return stats, nil
}

// interrupt persists progress at the given resume page and wraps the cause.
func (d *Driver) interrupt(resumePage int, stats Stats, cause error) error {
	d.persist(resumePage)
	d.logger.Info("scan interrupted, progress saved",
		logging.Int(logging.FieldPage, resumePage),
		logging.Int("entities_added", stats.Added))
	return fmt.Errorf("scan interrupted: %w", cause)
}

func (d *Driver) persist(resumePage int) {
	d.checkpoint.SetLastPage(resumePage)
	if err := d.listing.Save(); err != nil {
		d.logger.Warn("listing save failed", logging.Error(err))
	}
	if err := d.checkpoint.Save(); err != nil {
		d.logger.Warn("checkpoint save failed", logging.Error(err))
	}
}

func (d *Driver) sleep(ctx context.Context) error {
	if d.pageDelay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d.pageDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
