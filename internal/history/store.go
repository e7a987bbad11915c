package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; the history database is disposable, so mismatches just ask the
// user to delete it.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by an incompatible version.
var ErrSchemaMismatch = errors.New("history schema version mismatch")

// Outcome statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Outcome is one recorded download attempt.
type Outcome struct {
	SessionID string
	EntityID  int64
	MatchedID int64
	RemoteKey string
	URL       string
	SavePath  string
	Status    string
	Error     string
	CreatedAt time.Time
}

// Summary aggregates outcomes.
type Summary struct {
	Total    int
	OK       int
	Failed   int
	Sessions int
}

// Store persists download outcomes in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create history schema: %w", err)
		}
		if _, err := s.db.ExecContext(ctx,
			"INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return nil
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: found %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

// Record stores one download outcome. A zero CreatedAt is filled with now.
func (s *Store) Record(ctx context.Context, outcome Outcome) error {
	status := strings.TrimSpace(outcome.Status)
	if status != StatusOK && status != StatusFailed {
		return fmt.Errorf("invalid outcome status %q", outcome.Status)
	}
	createdAt := outcome.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO download_history
			(session_id, entity_id, matched_id, remote_key, url, save_path, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		outcome.SessionID, outcome.EntityID, outcome.MatchedID, outcome.RemoteKey,
		outcome.URL, outcome.SavePath, status, outcome.Error,
		createdAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	return nil
}

// Recent returns the most recent outcomes, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Outcome, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, entity_id, matched_id, remote_key, url, save_path, status, error, created_at
		FROM download_history
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var outcomes []Outcome
	for rows.Next() {
		var outcome Outcome
		var createdAt string
		if err := rows.Scan(&outcome.SessionID, &outcome.EntityID, &outcome.MatchedID,
			&outcome.RemoteKey, &outcome.URL, &outcome.SavePath,
			&outcome.Status, &outcome.Error, &createdAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		if parsed, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			outcome.CreatedAt = parsed
		}
		outcomes = append(outcomes, outcome)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return outcomes, nil
}

// Summarize aggregates all recorded outcomes.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	var summary Summary
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(1),
			COALESCE(SUM(CASE WHEN status = 'ok' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0),
			COUNT(DISTINCT session_id)
		FROM download_history`).
		Scan(&summary.Total, &summary.OK, &summary.Failed, &summary.Sessions)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize history: %w", err)
	}
	return summary, nil
}
