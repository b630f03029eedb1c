// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// We use modernc.org/sqlite rather than mattn/go-sqlite3: it is a pure Go
// translation of SQLite, so no CGo and no C toolchain needed for builds or
// cross-compilation.
//
// The blank import below registers the driver with database/sql under the
// name "sqlite" — after that, sql.Open("sqlite", ...) just works.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements the repository
// interfaces. The server owns the lifecycle: New opens, Close releases.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
// Use ":memory:" in tests for a throwaway database.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Ping forces a real connection now, so a bad path or permissions
	// problem surfaces here instead of on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads while a sync's replace transaction is
	// writing — important because grid reads and syncs overlap.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are off by default in SQLite. We need them on so that
	// deleting a profile cascades to its day and run rows.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping verifies the database is reachable. Used by the /health/db probe.
func (db *DB) Ping() error {
	return db.conn.Ping()
}

// migrate runs all database migrations. CREATE TABLE IF NOT EXISTS plus
// addColumnIfNotExists keeps every step idempotent — safe on existing DBs.
func (db *DB) migrate() error {
	// Base profiles table. The public-identity columns (github_id,
	// public_id) arrived later and are added below, mirroring the
	// deployment history.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS profiles (
			id         TEXT PRIMARY KEY,
			username   TEXT NOT NULL UNIQUE,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating profiles table: %w", err)
	}

	// Public-identity columns. NULL means "not linked yet"; the partial
	// unique indexes enforce uniqueness only once a value is set (a plain
	// UNIQUE column would treat two unlinked profiles as a conflict).
	if err := db.addColumnIfNotExists("profiles", "github_id", "INTEGER"); err != nil {
		return fmt.Errorf("adding github_id to profiles: %w", err)
	}
	if err := db.addColumnIfNotExists("profiles", "public_id", "TEXT"); err != nil {
		return fmt.Errorf("adding public_id to profiles: %w", err)
	}
	_, err = db.conn.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_profiles_github_id
			ON profiles(github_id) WHERE github_id IS NOT NULL;
		CREATE UNIQUE INDEX IF NOT EXISTS idx_profiles_public_id
			ON profiles(public_id) WHERE public_id IS NOT NULL;
	`)
	if err != nil {
		return fmt.Errorf("creating profile identity indexes: %w", err)
	}

	// One row per (profile, day). Day is an ISO date string — SQLite has
	// no date type and ISO strings compare correctly with BETWEEN.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS contribution_days (
			id         TEXT PRIMARY KEY,
			profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
			day        TEXT NOT NULL,
			count      INTEGER NOT NULL DEFAULT 0,
			UNIQUE(profile_id, day)
		);
		CREATE INDEX IF NOT EXISTS idx_contribution_days_profile
			ON contribution_days(profile_id, day);
	`)
	if err != nil {
		return fmt.Errorf("creating contribution_days table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS sync_runs (
			id            TEXT PRIMARY KEY,
			profile_id    TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
			status        TEXT NOT NULL,
			fetched_count INTEGER NOT NULL DEFAULT 0,
			saved_count   INTEGER NOT NULL DEFAULT 0,
			error_message TEXT NOT NULL DEFAULT '',
			started_at    DATETIME NOT NULL,
			finished_at   DATETIME
		);
		CREATE INDEX IF NOT EXISTS idx_sync_runs_profile_started
			ON sync_runs(profile_id, started_at);
	`)
	if err != nil {
		return fmt.Errorf("creating sync_runs table: %w", err)
	}

	return nil
}

// addColumnIfNotExists adds a column to a table only if it doesn't already
// exist. Makes ALTER TABLE migrations idempotent.
func (db *DB) addColumnIfNotExists(table, column, definition string) error {
	var count int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`,
		table, column,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking column %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return nil // column already exists
	}
	_, err = db.conn.Exec(fmt.Sprintf(
		`ALTER TABLE %s ADD COLUMN %s %s`, table, column, definition,
	))
	return err
}
