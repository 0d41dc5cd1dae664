// Package history persists tutorial run outcomes in SQLite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Run is one recorded tutorial run.
type Run struct {
	ID          int64
	RunID       string
	Tutorial    string
	Outcome     string
	Cells       int
	Regenerated bool
	Duration    time.Duration
	StartedAt   time.Time
	Error       string
}

// Store records and lists runs.
type Store interface {
	Record(ctx context.Context, run Run) error
	List(ctx context.Context, tutorial string, limit int) ([]Run, error)
	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open creates or opens the history database at path.
// Use ":memory:" for an in-memory database.
func Open(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A second connection to ":memory:" would see an empty database.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tutorial TEXT NOT NULL,
		outcome TEXT NOT NULL,
		cells INTEGER NOT NULL,
		regenerated INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		started_at INTEGER NOT NULL,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_tutorial ON runs(tutorial);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record inserts a run.
func (s *SQLiteStore) Record(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	regenerated := 0
	if run.Regenerated {
		regenerated = 1
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (run_id, tutorial, outcome, cells, regenerated, duration_ms, started_at, error) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		run.RunID, run.Tutorial, run.Outcome, run.Cells, regenerated,
		run.Duration.Milliseconds(), run.StartedAt.UnixMilli(), run.Error,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// List returns the most recent runs first. An empty tutorial matches all
// tutorials; a non-positive limit returns everything.
func (s *SQLiteStore) List(ctx context.Context, tutorial string, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT id, run_id, tutorial, outcome, cells, regenerated, duration_ms, started_at, error FROM runs"
	var args []any
	if tutorial != "" {
		query += " WHERE tutorial = ?"
		args = append(args, tutorial)
	}
	query += " ORDER BY started_at DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var regenerated int
		var durationMS, startedMS int64
		var errText sql.NullString
		if err := rows.Scan(&r.ID, &r.RunID, &r.Tutorial, &r.Outcome, &r.Cells, &regenerated, &durationMS, &startedMS, &errText); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Regenerated = regenerated != 0
		r.Duration = time.Duration(durationMS) * time.Millisecond
		r.StartedAt = time.UnixMilli(startedMS)
		r.Error = errText.String
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return runs, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
