package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite navigation index over scanned PHP files.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS files (
  id              INTEGER PRIMARY KEY,
  path            TEXT NOT NULL UNIQUE,
  hash            TEXT NOT NULL,
  version         TEXT NOT NULL,
  success         BOOLEAN NOT NULL DEFAULT TRUE,
  error           TEXT,
  error_line      INTEGER,
  last_indexed    TIMESTAMP
);

CREATE TABLE IF NOT EXISTS classes (
  id              INTEGER PRIMARY KEY,
  file_id         INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
  name            TEXT NOT NULL,
  namespace       TEXT NOT NULL,
  full_name       TEXT NOT NULL,
  signature       TEXT,
  comment         TEXT,
  line            INTEGER
);

CREATE TABLE IF NOT EXISTS members (
  id              INTEGER PRIMARY KEY,
  class_id        INTEGER NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
  kind            TEXT NOT NULL,
  name            TEXT NOT NULL,
  type_expr       TEXT,
  signature       TEXT,
  comment         TEXT,
  visibility      TEXT,
  is_static       BOOLEAN DEFAULT FALSE,
  line            INTEGER,
  end_pos         INTEGER
);

CREATE TABLE IF NOT EXISTS functions (
  id              INTEGER PRIMARY KEY,
  file_id         INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
  name            TEXT NOT NULL,
  signature       TEXT,
  return_type     TEXT,
  comment         TEXT,
  line            INTEGER,
  end_pos         INTEGER
);

CREATE TABLE IF NOT EXISTS defines (
  id              INTEGER PRIMARY KEY,
  file_id         INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
  name            TEXT NOT NULL,
  value           TEXT,
  comment         TEXT,
  line            INTEGER
);

CREATE TABLE IF NOT EXISTS includes (
  id              INTEGER PRIMARY KEY,
  file_id         INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
  target          TEXT NOT NULL,
  line            INTEGER
);

CREATE TABLE IF NOT EXISTS variables (
  id              INTEGER PRIMARY KEY,
  file_id         INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
  class_name      TEXT,
  function_name   TEXT,
  name            TEXT NOT NULL,
  type            TEXT,
  doc_type        TEXT
);

CREATE INDEX IF NOT EXISTS idx_classes_name ON classes(name COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS idx_classes_full_name ON classes(full_name COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS idx_classes_file ON classes(file_id);
CREATE INDEX IF NOT EXISTS idx_members_class ON members(class_id);
CREATE INDEX IF NOT EXISTS idx_functions_name ON functions(name COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS idx_functions_file ON functions(file_id);
CREATE INDEX IF NOT EXISTS idx_defines_file ON defines(file_id);
CREATE INDEX IF NOT EXISTS idx_includes_file ON includes(file_id);
CREATE INDEX IF NOT EXISTS idx_includes_target ON includes(target);
CREATE INDEX IF NOT EXISTS idx_variables_file ON variables(file_id);
`

// DeleteFile removes a file and everything declared in it. Deleting a path
// that was never indexed is not an error.
func (s *Store) DeleteFile(path string) error {
	if _, err := s.db.Exec("DELETE FROM files WHERE path = ?", path); err != nil {
		return fmt.Errorf("store: delete file %s: %w", path, err)
	}
	return nil
}
