package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

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

// migrations[i] upgrades the schema from user_version i to i+1.
var migrations = []string{
	// Task ids are Redmine issue ids; local tasks take negative ids so the
	// two never collide. parent_id is not a foreign key: a parent may be
	// outside the synced set.
	`
	CREATE TABLE IF NOT EXISTS tasks (
		id              INTEGER PRIMARY KEY,
		source          TEXT NOT NULL DEFAULT 'local',
		subject         TEXT NOT NULL,
		description     TEXT NOT NULL DEFAULT '',
		parent_id       INTEGER,
		start_date      TEXT,
		due_date        TEXT,
		estimated_hours REAL,
		done_ratio      INTEGER NOT NULL DEFAULT 0,
		status_name     TEXT NOT NULL DEFAULT '',
		status_color    TEXT NOT NULL DEFAULT '',
		project_name    TEXT NOT NULL DEFAULT '',
		custom_group    TEXT NOT NULL DEFAULT '',
		sort_order      INTEGER NOT NULL DEFAULT 0,
		updated_at      TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_source ON tasks(source);

	CREATE TABLE IF NOT EXISTS holidays (
		id    INTEGER PRIMARY KEY AUTOINCREMENT,
		date  TEXT NOT NULL UNIQUE,
		name  TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS time_entries (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id     INTEGER NOT NULL,
		start_time  TEXT NOT NULL,
		end_time    TEXT,
		duration    INTEGER NOT NULL DEFAULT 0,
		notes       TEXT NOT NULL DEFAULT '',
		synced      INTEGER NOT NULL DEFAULT 0,
		created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE INDEX IF NOT EXISTS idx_entries_task  ON time_entries(task_id);
	CREATE INDEX IF NOT EXISTS idx_entries_start ON time_entries(start_time);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR IGNORE INTO settings (key, value) VALUES
		('exclude_saturday', 'true'),
		('exclude_sunday',   'true'),
		('redmine_url',      ''),
		('redmine_api_key',  ''),
		('daily_goal',       '28800'),
		('timeline_zoom',    'day');
	`,
	// Links are dropped along with either of their tasks.
	`
	CREATE TABLE IF NOT EXISTS task_links (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		source_id  INTEGER NOT NULL,
		target_id  INTEGER NOT NULL,
		link_type  INTEGER NOT NULL DEFAULT 0,
		UNIQUE(source_id, target_id)
	);

	CREATE INDEX IF NOT EXISTS idx_links_target ON task_links(target_id);
	`,
}

func (s *Store) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	for v := version; v < len(migrations); v++ {
		if err := s.step(v); err != nil {
			return fmt.Errorf("migrate to v%d: %w", v+1, err)
		}
	}
	return nil
}

// step runs one migration and bumps user_version in the same transaction.
func (s *Store) step(v int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(migrations[v]); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", v+1)); err != nil {
		return err
	}
	return tx.Commit()
}
