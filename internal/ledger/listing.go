package ledger

import (
	"log/slog"
	"sync"

	"stillsync/internal/catalog"
	"stillsync/internal/logging"
)

// Listing accumulates the entities collected by scans, in discovery order,
// deduplicated by entity ID.
type Listing struct {
	path   string
	logger *slog.Logger

	mu    sync.RWMutex
	items []catalog.Entity
	seen  map[int64]struct{}
}

// LoadListing opens the entity listing at path. A missing or corrupt file
// starts empty.
func LoadListing(path string, logger *slog.Logger) *Listing {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "listing")

	l := &Listing{path: path, logger: logger, seen: make(map[int64]struct{})}

	var items []catalog.Entity
	loaded, err := loadDocument(path, &items)
	if err != nil {
		warnReinit(logger, path, err)
		return l
	}
	if !loaded {
		return l
	}
	for _, entity := range items {
		if _, dup := l.seen[entity.ID]; dup {
			continue
		}
		l.seen[entity.ID] = struct{}{}
		l.items = append(l.items, entity)
	}
	return l
}

// Add appends an entity if it is not already listed. Reports whether the
// entity was new.
func (l *Listing) Add(entity catalog.Entity) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, dup := l.seen[entity.ID]; dup {
		return false
	}
	l.seen[entity.ID] = struct{}{}
	l.items = append(l.items, entity)
	return true
}

// Items returns a snapshot of the listing in discovery order.
func (l *Listing) Items() []catalog.Entity {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]catalog.Entity, len(l.items))
	copy(out, l.items)
	return out
}

// Len returns the number of listed entities.
func (l *Listing) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Save rewrites the listing document.
func (l *Listing) Save() error {
	l.mu.RLock()
	items := make([]catalog.Entity, len(l.items))
	copy(items, l.items)
	l.mu.RUnlock()
	return saveDocument(l.path, items)
}
