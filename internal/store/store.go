// Package store persists timelines, events and tags in a local SQLite
// database and maintains the identifier cross-references between them.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const currentVersion = 1

type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	// Configure pragmas.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	// DateTime-valued columns (start, "end") hold the value's JSON object
	// form; event_ids and tag_ids hold ordered JSON id arrays. event_tags
	// materializes the set-membership index over events' tag references.
	const ddl = `
	CREATE TABLE IF NOT EXISTS metadata (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		name          TEXT NOT NULL DEFAULT '',
		description   TEXT NOT NULL DEFAULT '',
		start         TEXT NOT NULL,
		"end"         TEXT NOT NULL,
		event_ids     TEXT NOT NULL DEFAULT '[]',
		created_on    TEXT NOT NULL,
		last_modified TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_metadata_name     ON metadata(name);
	CREATE INDEX IF NOT EXISTS idx_metadata_start    ON metadata(start);
	CREATE INDEX IF NOT EXISTS idx_metadata_end      ON metadata("end");
	CREATE INDEX IF NOT EXISTS idx_metadata_created  ON metadata(created_on);
	CREATE INDEX IF NOT EXISTS idx_metadata_modified ON metadata(last_modified);

	CREATE TABLE IF NOT EXISTS events (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		name          TEXT NOT NULL,
		description   TEXT NOT NULL DEFAULT '',
		start         TEXT NOT NULL,
		"end"         TEXT,
		tag_ids       TEXT NOT NULL DEFAULT '[]',
		created_on    TEXT NOT NULL,
		last_modified TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_name     ON events(name);
	CREATE INDEX IF NOT EXISTS idx_events_start    ON events(start);
	CREATE INDEX IF NOT EXISTS idx_events_end      ON events("end");
	CREATE INDEX IF NOT EXISTS idx_events_created  ON events(created_on);
	CREATE INDEX IF NOT EXISTS idx_events_modified ON events(last_modified);

	CREATE TABLE IF NOT EXISTS event_tags (
		event_id INTEGER NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		tag_id   INTEGER NOT NULL,
		PRIMARY KEY (event_id, tag_id)
	);

	CREATE INDEX IF NOT EXISTS idx_event_tags_tag ON event_tags(tag_id);

	CREATE TABLE IF NOT EXISTS tags (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		name          TEXT NOT NULL UNIQUE,
		description   TEXT NOT NULL DEFAULT '',
		created_on    TEXT NOT NULL,
		last_modified TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tags_created  ON tags(created_on);
	CREATE INDEX IF NOT EXISTS idx_tags_modified ON tags(last_modified);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR IGNORE INTO settings (key, value) VALUES
		('preferred_timezone', ''),
		('pretty_export',      'true');
	`
	_, err := s.db.Exec(ddl)
	return err
}

// DeleteDatabase drops every collection and re-creates the empty schema.
// Used for full reset.
func (s *Store) DeleteDatabase() error {
	drops := []string{
		"DROP TABLE IF EXISTS event_tags",
		"DROP TABLE IF EXISTS events",
		"DROP TABLE IF EXISTS metadata",
		"DROP TABLE IF EXISTS tags",
		"DROP TABLE IF EXISTS settings",
		"PRAGMA user_version = 0",
	}
	for _, q := range drops {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
	}
	return s.migrate()
}

// DefaultDBPath returns ~/.config/lifeline/lifeline.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "lifeline", "lifeline.db"), nil
}
