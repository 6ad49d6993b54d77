// Package sqlite provides SQLite-based persistent storage for Paydirt.
// Uses WAL mode for concurrent reads and crash-safe writes.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// DB wraps a SQLite connection with WAL mode and migrations.
type DB struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at dir/state.db.
// Enables WAL mode, foreign keys, and 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "state.db")
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// SQLite is single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping() error {
	return d.db.Ping()
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
			id          TEXT PRIMARY KEY,
			creator     TEXT NOT NULL,
			assignee    TEXT,
			description TEXT NOT NULL DEFAULT '',
			reward      INTEGER NOT NULL,
			state       TEXT NOT NULL,
			deadline    INTEGER,
			created_at  INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_state ON tasks(state)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_creator ON tasks(creator)`,

		`CREATE TABLE IF NOT EXISTS trainings (
			id          TEXT PRIMARY KEY,
			creator     TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			reward      INTEGER NOT NULL,
			completed   BOOLEAN DEFAULT 0,
			created_at  INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS training_certified (
			training_id TEXT NOT NULL,
			principal   TEXT NOT NULL,
			PRIMARY KEY (training_id, principal)
		)`,

		`CREATE TABLE IF NOT EXISTS ratings (
			id         TEXT PRIMARY KEY,
			task_id    TEXT NOT NULL,
			rater      TEXT NOT NULL,
			ratee      TEXT NOT NULL,
			score      INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ratings_ratee ON ratings(ratee)`,
		`CREATE INDEX IF NOT EXISTS idx_ratings_task ON ratings(task_id)`,

		// Custody ledger (double-entry bookkeeping)
		`CREATE TABLE IF NOT EXISTS escrow_ledger (
			id         INTEGER PRIMARY KEY,
			timestamp  INTEGER NOT NULL,
			type       TEXT NOT NULL,
			entry_type TEXT NOT NULL,
			account    TEXT NOT NULL,
			amount     INTEGER NOT NULL,
			ref_id     TEXT,
			balance    INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_account ON escrow_ledger(account)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func nullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
