package ledger

import (
	"log/slog"
	"sync"

	"stillsync/internal/logging"
)

type checkpointDocument struct {
	LastPage int `json:"last_page"`
}

// Checkpoint persists the catalog page a scan should resume from.
type Checkpoint struct {
	path   string
	logger *slog.Logger

	mu       sync.Mutex
	lastPage int
}

// LoadCheckpoint opens the checkpoint at path. A missing or corrupt file
// resumes from page 1.
func LoadCheckpoint(path string, logger *slog.Logger) *Checkpoint {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "checkpoint")

	c := &Checkpoint{path: path, logger: logger, lastPage: 1}

	var doc checkpointDocument
	loaded, err := loadDocument(path, &doc)
	if err != nil {
		warnReinit(logger, path, err)
		return c
	}
	if loaded && doc.LastPage >= 1 {
		c.lastPage = doc.LastPage
	}
	return c
}

// LastPage returns the page the next scan should start from.
func (c *Checkpoint) LastPage() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastPage
}

// SetLastPage records the next resume page.
func (c *Checkpoint) SetLastPage(page int) {
	if page < 1 {
		page = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastPage = page
}

// Save rewrites the checkpoint document.
func (c *Checkpoint) Save() error {
	c.mu.Lock()
	doc := checkpointDocument{LastPage: c.lastPage}
	c.mu.Unlock()
	return saveDocument(c.path, doc)
}
