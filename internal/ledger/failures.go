package ledger

import (
	"log/slog"
	"sync"

	"stillsync/internal/logging"
)

// FailedJob is one download that exhausted its retries. It carries enough to
// re-run the fetch without re-resolving the entity.
type FailedJob struct {
	URL       string `json:"url"`
	SavePath  string `json:"save_path"`
	EntityID  int64  `json:"entity_id"`
	RemoteKey string `json:"remote_key"`
	Label     string `json:"label"` // display title for operator output
}

// Failures is the thread-safe persisted list of failed downloads, deduplicated
// by remote key.
type Failures struct {
	path   string
	logger *slog.Logger

	mu    sync.RWMutex
	jobs  []FailedJob
	index map[string]int // remote key -> position in jobs
}

// LoadFailures opens the failure list at path. A missing or corrupt file
// starts empty.
func LoadFailures(path string, logger *slog.Logger) *Failures {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "failures")

	f := &Failures{path: path, logger: logger, index: make(map[string]int)}

	var jobs []FailedJob
	loaded, err := loadDocument(path, &jobs)
	if err != nil {
		warnReinit(logger, path, err)
		return f
	}
	if !loaded {
		return f
	}
	for _, job := range jobs {
		f.add(job)
	}
	return f
}

// Add records a failed job, replacing any previous entry with the same
// remote key.
func (f *Failures) Add(job FailedJob) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.add(job)
}

func (f *Failures) add(job FailedJob) {
	if job.RemoteKey == "" {
		return
	}
	if pos, found := f.index[job.RemoteKey]; found {
		f.jobs[pos] = job
		return
	}
	f.index[job.RemoteKey] = len(f.jobs)
	f.jobs = append(f.jobs, job)
}

// Remove drops the entry with the given remote key, if present.
func (f *Failures) Remove(remoteKey string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pos, found := f.index[remoteKey]
	if !found {
		return
	}
	f.jobs = append(f.jobs[:pos], f.jobs[pos+1:]...)
	delete(f.index, remoteKey)
	for key, p := range f.index {
		if p > pos {
			f.index[key] = p - 1
		}
	}
}

// Replace swaps the entire list. Used by the retry pass, which rebuilds the
// list from whatever failed again.
func (f *Failures) Replace(jobs []FailedJob) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = nil
	f.index = make(map[string]int)
	for _, job := range jobs {
		f.add(job)
	}
}

// Items returns a snapshot of the current failure list in insertion order.
func (f *Failures) Items() []FailedJob {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]FailedJob, len(f.jobs))
	copy(out, f.jobs)
	return out
}

// Len returns the number of recorded failures.
func (f *Failures) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.jobs)
}

// Save rewrites the failure list document.
func (f *Failures) Save() error {
	f.mu.RLock()
	jobs := make([]FailedJob, len(f.jobs))
	copy(jobs, f.jobs)
	f.mu.RUnlock()
	return saveDocument(f.path, jobs)
}
