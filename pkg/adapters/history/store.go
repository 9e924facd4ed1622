// Package history persists run reports in a SQLite database inside the
// plan's system directory, so past command outcomes survive restarts.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/veikko/jamb/pkg/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	command     TEXT NOT NULL,
	status      TEXT NOT NULL,
	elements    INTEGER NOT NULL,
	created     INTEGER NOT NULL,
	skipped     INTEGER NOT NULL,
	message     TEXT NOT NULL DEFAULT '',
	started_at  INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);
`

// Store records command runs.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the run database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; keep the pool at a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Append records one run report.
func (s *Store) Append(ctx context.Context, report core.RunReport) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, command, status, elements, created, skipped, message, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		uuid.NewString(),
		report.Command,
		report.Status.String(),
		report.Elements,
		report.Created,
		report.Skipped,
		report.Message,
		report.StartedAt.Unix(),
		report.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// Run is a persisted run report.
type Run struct {
	ID        string
	Command   string
	Status    string
	Elements  int
	Created   int
	Skipped   int
	Message   string
	StartedAt time.Time
	Duration  time.Duration
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, command, status, elements, created, skipped, message, started_at, duration_ms
		FROM runs
		ORDER BY started_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var startedAt int64
		var durationMs int64
		if err := rows.Scan(&r.ID, &r.Command, &r.Status, &r.Elements, &r.Created, &r.Skipped, &r.Message, &startedAt, &durationMs); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = time.Unix(startedAt, 0)
		r.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
