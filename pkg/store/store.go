// Package store is the SQLite-backed task repository.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/malone1029/nia-results-tracker-sub002/pkg/reconcile"
)

// ErrNotFound is returned when a task id does not exist.
var ErrNotFound = errors.New("task not found")

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id             TEXT PRIMARY KEY,
	process_id     TEXT NOT NULL,
	title          TEXT NOT NULL,
	description    TEXT NOT NULL DEFAULT '',
	category       TEXT NOT NULL,
	origin         TEXT NOT NULL,
	status         TEXT NOT NULL,
	assignee_name  TEXT NOT NULL DEFAULT '',
	assignee_email TEXT NOT NULL DEFAULT '',
	assignee_gid   TEXT NOT NULL DEFAULT '',
	due_on         TIMESTAMP,
	completed      INTEGER NOT NULL DEFAULT 0,
	completed_at   TIMESTAMP,
	section_name   TEXT NOT NULL DEFAULT '',
	section_gid    TEXT NOT NULL DEFAULT '',
	parent_gid     TEXT NOT NULL DEFAULT '',
	is_subtask     INTEGER NOT NULL DEFAULT 0,
	external_gid   TEXT NOT NULL DEFAULT '',
	permalink_url  TEXT NOT NULL DEFAULT '',
	last_synced_at TIMESTAMP,
	created_at     TIMESTAMP NOT NULL,
	updated_at     TIMESTAMP NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_tasks_process_external
	ON tasks (process_id, external_gid) WHERE external_gid != '';

CREATE INDEX IF NOT EXISTS idx_tasks_process ON tasks (process_id);
`

// executor is satisfied by both *sql.DB and *sql.Tx so queries can run
// inside or outside a transaction.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is a SQLite-backed task repository.
type Store struct {
	db   *sql.DB
	exec executor
}

var _ reconcile.Repository = (*Store)(nil)

// Open opens (creating if needed) the task database at path. ":memory:"
// is supported for tests.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL for concurrent readers; SQLite works best with a single writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, exec: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// WithTx runs fn against a repository view bound to a single transaction.
// The reconciler's upsert+delete pass runs here so a mid-pass failure
// rolls back cleanly instead of leaving the store half converged.
func (s *Store) WithTx(ctx context.Context, fn func(repo reconcile.Repository) error) error {
	if s.db == nil {
		return errors.New("store is already transaction-bound")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&Store{exec: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (after: %w)", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
