package store

import (
	"database/sql"
	"fmt"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Store holds the database handle and provides access to repositories.
type Store struct {
	db *sql.DB
}

// Open creates a new Store connected to the SQLite database at dsn.
// It applies recommended pragmas and creates missing tables.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	return &Store{db: db}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// TemplateRepo returns a TemplateRepo backed by this store.
func (s *Store) TemplateRepo() TemplateRepo {
	return &templateRepo{db: s.db}
}

// SampleSetRepo returns a SampleSetRepo backed by this store.
func (s *Store) SampleSetRepo() SampleSetRepo {
	return &sampleSetRepo{db: s.db}
}

// UploadRepo returns an UploadRepo backed by this store.
func (s *Store) UploadRepo() UploadRepo {
	return &uploadRepo{db: s.db}
}

// applyPragmas configures SQLite for optimal single-user performance.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS templates (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL UNIQUE,
		document   TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sample_sets (
		id            TEXT PRIMARY KEY,
		template_name TEXT NOT NULL,
		samples       TEXT NOT NULL,
		count         INTEGER NOT NULL,
		created_at    INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sample_sets_template
		ON sample_sets (template_name, created_at)`,
	`CREATE TABLE IF NOT EXISTS upload_events (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		template_name TEXT NOT NULL,
		bank_id       INTEGER NOT NULL,
		success       INTEGER NOT NULL,
		failed        INTEGER NOT NULL,
		errors        TEXT NOT NULL,
		created_at    INTEGER NOT NULL
	)`,
}

// migrate creates the tables and indexes if they do not exist.
func migrate(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
