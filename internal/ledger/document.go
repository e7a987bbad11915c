package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"stillsync/internal/logging"
)

// loadDocument reads a JSON document into target. A missing file is a fresh
// start; a corrupt file is reported so the caller can warn and reinitialize.
// The boolean reports whether usable data was loaded.
func loadDocument(path string, target any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read state file: %w", err)
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return false, fmt.Errorf("parse state file: %w", err)
	}
	return true, nil
}

// saveDocument rewrites a JSON document atomically via temp file.
func saveDocument(path string, source any) error {
	data, err := json.MarshalIndent(source, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func warnReinit(logger *slog.Logger, path string, err error) {
	logger.Warn("state file unreadable, starting empty",
		logging.String("path", path),
		logging.Error(err),
		logging.String(logging.FieldImpact, "previously recorded progress for this document is lost"))
}
