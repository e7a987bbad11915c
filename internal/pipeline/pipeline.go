package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"path/filepath"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"stillsync/internal/breaker"
	"stillsync/internal/catalog"
	"stillsync/internal/fetch"
	"stillsync/internal/history"
	"stillsync/internal/ledger"
	"stillsync/internal/logging"
	"stillsync/internal/textutil"
)

// Stats summarizes one dispatch: how many assets were downloaded, how many
// were already in the ledger, and how many failed.
type Stats struct {
	New     int
	Skipped int
	Failed  int
}

func (s Stats) String() string {
	return fmt.Sprintf("new=%d skipped=%d failed=%d", s.New, s.Skipped, s.Failed)
}

// job is one pending asset download.
type job struct {
	URL       string
	SavePath  string
	EntityID  int64
	MatchedID int64
	RemoteKey string
	Label     string
}

// Options configures a Pipeline.
type Options struct {
	AssetLister catalog.AssetLister
	Fetcher     *fetch.Fetcher
	Pacer       *fetch.Pacer
	Breaker     *breaker.Breaker
	Ledger      *ledger.Ledger
	Failures    *ledger.Failures
	History     *history.Store // optional
	LibraryDir  string
	Workers     int
	SessionID   string
	Logger      *slog.Logger
}

// Pipeline executes download jobs for matched movies.
type Pipeline struct {
	assetLister catalog.AssetLister
	fetcher     *fetch.Fetcher
	pacer       *fetch.Pacer
	breaker     *breaker.Breaker
	ledger      *ledger.Ledger
	failures    *ledger.Failures
	history     *history.Store
	libraryDir  string
	workers     int
	sessionID   string
	logger      *slog.Logger
}

// New creates a Pipeline.
func New(opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		assetLister: opts.AssetLister,
		fetcher:     opts.Fetcher,
		pacer:       opts.Pacer,
		breaker:     opts.Breaker,
		ledger:      opts.Ledger,
		failures:    opts.Failures,
		history:     opts.History,
		libraryDir:  opts.LibraryDir,
		workers:     workers,
		sessionID:   opts.SessionID,
		logger:      logging.NewComponentLogger(logger, "pipeline"),
	}
}

// ExpandAndDispatch lists the matched movie's assets, drops the ones already
// in the ledger, and downloads the rest. The returned stats cover only this
// entity. A listing failure is an error; individual download failures are
// counted, recorded, and do not abort the batch.
func (p *Pipeline) ExpandAndDispatch(ctx context.Context, entity catalog.Entity, matchedID int64) (Stats, error) {
	assets, err := p.assetLister.ListAssets(ctx, matchedID)
	if err != nil {
		return Stats{}, fmt.Errorf("list assets for entity %d: %w", entity.ID, err)
	}

	stats := Stats{}
	entityDir := filepath.Join(p.libraryDir, textutil.EntityDirName(entity.Title(), entity.ID))

	jobs := make([]job, 0, len(assets))
	for _, asset := range assets {
		remoteKey := asset.RemoteKey()
		if p.ledger.HasAsset(entity.ID, remoteKey) {
			stats.Skipped++
			continue
		}
		jobs = append(jobs, job{
			URL:       asset.URL,
			SavePath:  filepath.Join(entityDir, asset.TypeLabel(), assetFileName(asset)),
			EntityID:  entity.ID,
			MatchedID: matchedID,
			RemoteKey: remoteKey,
			Label:     entity.Title(),
		})
	}

	if len(jobs) == 0 {
		p.logger.Debug("no new assets",
			logging.Int64(logging.FieldEntityID, entity.ID),
			logging.Int("skipped", stats.Skipped))
		return stats, nil
	}

	p.logger.Info("dispatching downloads",
		logging.Int64(logging.FieldEntityID, entity.ID),
		logging.Int64(logging.FieldMatchedID, matchedID),
		logging.Int("jobs", len(jobs)),
		logging.Int("skipped", stats.Skipped))

	run := p.runJobs(ctx, jobs)
	stats.New += run.New
	stats.Failed += run.Failed
	return stats, nil
}

// RetryFailed re-runs every job on the persisted failure list. The list is
// rebuilt from whatever fails again, so a fully successful pass leaves it
// empty.
func (p *Pipeline) RetryFailed(ctx context.Context) (Stats, error) {
	items := p.failures.Items()
	if len(items) == 0 {
		return Stats{}, nil
	}

	p.logger.Info("retrying failed downloads", logging.Int("jobs", len(items)))

	jobs := make([]job, 0, len(items))
	for _, item := range items {
		jobs = append(jobs, job{
			URL:       item.URL,
			SavePath:  item.SavePath,
			EntityID:  item.EntityID,
			RemoteKey: item.RemoteKey,
			Label:     item.Label,
		})
	}

	// Clear first: workers re-add whatever fails again.
	p.failures.Replace(nil)
	stats := p.runJobs(ctx, jobs)

	if err := p.failures.Save(); err != nil {
		return stats, fmt.Errorf("persist failure list: %w", err)
	}
	return stats, nil
}

func (p *Pipeline) runJobs(ctx context.Context, jobs []job) Stats {
	var mu sync.Mutex
	stats := Stats{}

	workers := pool.New().WithMaxGoroutines(p.workers)
	for _, pending := range jobs {
		pending := pending
		workers.Go(func() {
			ok := p.runJob(ctx, pending)
			mu.Lock()
			if ok {
				stats.New++
			} else {
				stats.Failed++
			}
			mu.Unlock()
		})
	}
	workers.Wait()
	return stats
}

// runJob downloads one asset. Reports whether the download succeeded; a
// canceled context counts as failure so the job lands on the retry list.
func (p *Pipeline) runJob(ctx context.Context, pending job) bool {
	if err := ctx.Err(); err != nil {
		p.recordFailure(ctx, pending, err)
		return false
	}

	// Cooldown first, so a tripped breaker pauses the whole pool.
	if err := p.breaker.Wait(ctx); err != nil {
		p.recordFailure(ctx, pending, err)
		return false
	}
	if err := p.pacer.Pause(ctx, p.breaker.Failures()); err != nil {
		p.recordFailure(ctx, pending, err)
		return false
	}

	if err := p.fetcher.Download(ctx, pending.URL, pending.SavePath); err != nil {
		p.breaker.RecordFailure()
		p.recordFailure(ctx, pending, err)
		p.logger.Warn("download failed",
			logging.Int64(logging.FieldEntityID, pending.EntityID),
			logging.String(logging.FieldRemoteKey, pending.RemoteKey),
			logging.Error(err))
		return false
	}

	p.breaker.RecordSuccess()
	p.ledger.MarkAsset(pending.EntityID, pending.RemoteKey)
	p.failures.Remove(pending.RemoteKey)
	p.recordHistory(ctx, pending, history.StatusOK, "")

	p.logger.Debug("asset saved",
		logging.Int64(logging.FieldEntityID, pending.EntityID),
		logging.String(logging.FieldRemoteKey, pending.RemoteKey),
		logging.String("path", pending.SavePath))
	return true
}

func (p *Pipeline) recordFailure(ctx context.Context, pending job, cause error) {
	p.failures.Add(ledger.FailedJob{
		URL:       pending.URL,
		SavePath:  pending.SavePath,
		EntityID:  pending.EntityID,
		RemoteKey: pending.RemoteKey,
		Label:     pending.Label,
	})
	p.recordHistory(ctx, pending, history.StatusFailed, cause.Error())
}

func (p *Pipeline) recordHistory(ctx context.Context, pending job, status, errText string) {
	if p.history == nil {
		return
	}
	err := p.history.Record(context.WithoutCancel(ctx), history.Outcome{
		SessionID: p.sessionID,
		EntityID:  pending.EntityID,
		MatchedID: pending.MatchedID,
		RemoteKey: pending.RemoteKey,
		URL:       pending.URL,
		SavePath:  pending.SavePath,
		Status:    status,
		Error:     errText,
	})
	if err != nil {
		p.logger.Warn("history record failed", logging.Error(err))
	}
}

// assetFileName picks the on-disk name for an asset: the remote image ID
// with the URL's extension when an ID exists, otherwise the URL basename.
func assetFileName(asset catalog.Asset) string {
	base := urlBasename(asset.URL)
	if asset.ID <= 0 {
		return textutil.SanitizeFileName(base)
	}
	ext := path.Ext(base)
	if ext == "" {
		ext = ".jpg"
	}
	return fmt.Sprintf("%d%s", asset.ID, ext)
}

func urlBasename(rawURL string) string {
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Path != "" {
		return path.Base(parsed.Path)
	}
	return path.Base(rawURL)
}
