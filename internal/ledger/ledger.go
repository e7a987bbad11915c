package ledger

import (
	"log/slog"
	"sort"
	"strconv"
	"sync"

	"stillsync/internal/logging"
)

// ledgerDocument is the on-disk shape of the completed-work ledger. Asset
// keys are grouped per entity, the entity ID serialized as a string key.
type ledgerDocument struct {
	MovieIDs []int64             `json:"movie_ids"`
	Images   map[string][]string `json:"images"`
}

// Ledger is the thread-safe completed-work record: which entities have been
// fully processed and which individual assets have been downloaded.
type Ledger struct {
	path   string
	logger *slog.Logger

	mu       sync.RWMutex
	entities map[int64]struct{}
	assets   map[int64]map[string]struct{}
}

// Load opens the ledger at path. A missing or corrupt file starts empty.
func Load(path string, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "ledger")

	l := &Ledger{
		path:     path,
		logger:   logger,
		entities: make(map[int64]struct{}),
		assets:   make(map[int64]map[string]struct{}),
	}

	var doc ledgerDocument
	loaded, err := loadDocument(path, &doc)
	if err != nil {
		warnReinit(logger, path, err)
		return l
	}
	if !loaded {
		return l
	}

	for _, id := range doc.MovieIDs {
		l.entities[id] = struct{}{}
	}
	for key, remoteKeys := range doc.Images {
		entityID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		set := make(map[string]struct{}, len(remoteKeys))
		for _, remoteKey := range remoteKeys {
			set[remoteKey] = struct{}{}
		}
		l.assets[entityID] = set
	}

	logger.Debug("ledger loaded",
		logging.Int("entity_count", len(l.entities)),
		logging.String("path", path))
	return l
}

// HasEntity reports whether the entity has been fully processed.
func (l *Ledger) HasEntity(entityID int64) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, found := l.entities[entityID]
	return found
}

// MarkEntity records the entity as fully processed.
func (l *Ledger) MarkEntity(entityID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entities[entityID] = struct{}{}
}

// HasAsset reports whether the asset was already downloaded for the entity.
func (l *Ledger) HasAsset(entityID int64, remoteKey string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, found := l.assets[entityID][remoteKey]
	return found
}

// MarkAsset records a downloaded asset under its entity.
func (l *Ledger) MarkAsset(entityID int64, remoteKey string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	set, found := l.assets[entityID]
	if !found {
		set = make(map[string]struct{})
		l.assets[entityID] = set
	}
	set[remoteKey] = struct{}{}
}

// EntityCount returns the number of fully processed entities.
func (l *Ledger) EntityCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entities)
}

// AssetCount returns the total number of recorded assets.
func (l *Ledger) AssetCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	total := 0
	for _, set := range l.assets {
		total += len(set)
	}
	return total
}

// Save rewrites the ledger document. Output is sorted for determinism.
func (l *Ledger) Save() error {
	l.mu.RLock()
	doc := ledgerDocument{
		MovieIDs: make([]int64, 0, len(l.entities)),
		Images:   make(map[string][]string, len(l.assets)),
	}
	for id := range l.entities {
		doc.MovieIDs = append(doc.MovieIDs, id)
	}
	for entityID, set := range l.assets {
		remoteKeys := make([]string, 0, len(set))
		for remoteKey := range set {
			remoteKeys = append(remoteKeys, remoteKey)
		}
		sort.Strings(remoteKeys)
		doc.Images[strconv.FormatInt(entityID, 10)] = remoteKeys
	}
	l.mu.RUnlock()

	sort.Slice(doc.MovieIDs, func(i, j int) bool { return doc.MovieIDs[i] < doc.MovieIDs[j] })
	return saveDocument(l.path, doc)
}
