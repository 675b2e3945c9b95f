package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Open creates or opens the SQLite database at the given path. WAL mode keeps
// readers unblocked while the ingest and resolve cycles write; the busy
// timeout lets racing writers wait instead of failing.
func Open(dbPath string) (*sql.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %s: %w", pragma, err)
		}
	}

	return db, nil
}

// Migrate runs the schema creation SQL. Safe to call multiple times due to
// IF NOT EXISTS.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	if _, err := db.Exec(`INSERT OR IGNORE INTO schema_version (version) VALUES (1)`); err != nil {
		return fmt.Errorf("recording schema version: %w", err)
	}

	return nil
}
