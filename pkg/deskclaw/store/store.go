// Package store – store.go implements the SQLite persistence layer for
// DeskClaw: users, chat sessions and messages, query history, preferences,
// goals, tasks, reminders and response feedback. The assistant core only
// talks to this package through narrow CRUD calls; schema and driver
// details stay here.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Store wraps the SQLite database connection.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Config holds SQLite-specific configuration.
type Config struct {
	// Path is the database file location. ":memory:" is valid for tests.
	Path string `yaml:"path"`

	// JournalMode is the SQLite journal mode (default: WAL).
	JournalMode string `yaml:"journal_mode"`

	// BusyTimeoutMs is the lock wait timeout in milliseconds (default: 5000).
	BusyTimeoutMs int `yaml:"busy_timeout_ms"`
}

// DefaultConfig returns sensible defaults for the store.
func DefaultConfig() Config {
	return Config{
		Path:          "./data/deskclaw.db",
		JournalMode:   "WAL",
		BusyTimeoutMs: 5000,
	}
}

// Effective returns a copy with defaults filled in for zero values.
func (c Config) Effective() Config {
	out := c
	if out.Path == "" {
		out.Path = "./data/deskclaw.db"
	}
	if out.JournalMode == "" {
		out.JournalMode = "WAL"
	}
	if out.BusyTimeoutMs <= 0 {
		out.BusyTimeoutMs = 5000
	}
	return out
}

// Open opens or creates the DeskClaw database and applies the schema.
func Open(cfg Config, logger *slog.Logger) (*Store, error) {
	cfg = cfg.Effective()

	if cfg.Path != ":memory:" {
		dir := filepath.Dir(cfg.Path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory %q: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("%s?_journal_mode=%s&_busy_timeout=%d&_foreign_keys=ON",
		cfg.Path, cfg.JournalMode, cfg.BusyTimeoutMs)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database %q: %w", cfg.Path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger.With("component", "store"),
	}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// initSchema creates all tables if they do not exist.
func (s *Store) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			first_name    TEXT NOT NULL,
			last_name     TEXT NOT NULL,
			email         TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at    DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS sessions (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_email TEXT NOT NULL,
			session_id TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS messages (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id INTEGER NOT NULL,
			role       TEXT NOT NULL,
			content    TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (session_id) REFERENCES sessions (id)
		);

		CREATE TABLE IF NOT EXISTS last_queries (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_email TEXT NOT NULL,
			query      TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS preferences (
			user_email TEXT NOT NULL,
			key        TEXT NOT NULL,
			value      TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_email, key)
		);

		CREATE TABLE IF NOT EXISTS goals (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			user_email  TEXT NOT NULL,
			description TEXT NOT NULL,
			status      TEXT NOT NULL DEFAULT 'active',
			created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS tasks (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			user_email  TEXT NOT NULL,
			description TEXT NOT NULL,
			status      TEXT NOT NULL DEFAULT 'pending',
			due_date    TEXT,
			created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS reminders (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_email TEXT NOT NULL DEFAULT '',
			message    TEXT NOT NULL,
			remind_at  TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS feedback (
			id                   INTEGER PRIMARY KEY AUTOINCREMENT,
			response_id          TEXT NOT NULL,
			user_email           TEXT NOT NULL,
			rating               INTEGER NOT NULL,
			conversation_history TEXT NOT NULL,
			created_at           DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`
	_, err := s.db.Exec(schema)
	return err
}
