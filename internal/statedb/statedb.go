// Package statedb keeps agentssh's history in SQLite: which sessions it
// spawned (and with which worktree) and when agents finished working.
package statedb

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"
)

// SchemaVersion tracks the current database schema version.
// Bump this when adding migrations.
const SchemaVersion = 1

// Metadata keys.
const (
	MetaLastAgent = "last_agent"
	MetaLastDir   = "last_dir"
)

// StateDB wraps a SQLite database. It is safe for concurrent use: the UI and
// the activity detector goroutine both write to it.
type StateDB struct {
	db *sql.DB
}

// SpawnRow records one session created by the spawn wizard.
type SpawnRow struct {
	SessionName  string
	AgentID      string
	WorkDir      string
	WorktreePath string
	Command      string
	CreatedAt    time.Time
}

// Open creates or opens a SQLite database at dbPath with WAL mode and busy timeout.
func Open(dbPath string) (*StateDB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("statedb: mkdir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("statedb: open: %w", err)
	}
	// PRAGMAs are per connection; one connection keeps them in effect and
	// serialises writers inside this process.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("statedb: %s: %w", pragma, err)
		}
	}
	return &StateDB{db: db}, nil
}

// Close checkpoints WAL and closes the database.
func (s *StateDB) Close() error {
	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return s.db.Close()
}

// Migrate creates tables if they don't exist.
func (s *StateDB) Migrate() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("statedb: begin migrate: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmts := []struct {
		name string
		sql  string
	}{
		{"metadata", `
			CREATE TABLE IF NOT EXISTS metadata (
				key   TEXT PRIMARY KEY,
				value TEXT NOT NULL
			)`},
		{"spawns", `
			CREATE TABLE IF NOT EXISTS spawns (
				session_name  TEXT PRIMARY KEY,
				agent_id      TEXT NOT NULL,
				work_dir      TEXT NOT NULL,
				worktree_path TEXT NOT NULL DEFAULT '',
				command       TEXT NOT NULL DEFAULT '',
				created_at    INTEGER NOT NULL
			)`},
		{"completions", `
			CREATE TABLE IF NOT EXISTS completions (
				id           INTEGER PRIMARY KEY AUTOINCREMENT,
				session_name TEXT NOT NULL,
				completed_at INTEGER NOT NULL
			)`},
		{"completions index", `
			CREATE INDEX IF NOT EXISTS idx_completions_session
				ON completions (session_name, completed_at)`},
	}
	for _, st := range stmts {
		if _, err := tx.Exec(st.sql); err != nil {
			return fmt.Errorf("statedb: create %s: %w", st.name, err)
		}
	}

	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO metadata (key, value) VALUES ('schema_version', ?)`,
		strconv.Itoa(SchemaVersion),
	); err != nil {
		return fmt.Errorf("statedb: set schema version: %w", err)
	}
	return tx.Commit()
}

// --- Spawns ---

// RecordSpawn inserts or replaces the row for a spawned session.
func (s *StateDB) RecordSpawn(row SpawnRow) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO spawns (session_name, agent_id, work_dir, worktree_path, command, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		row.SessionName, row.AgentID, row.WorkDir, row.WorktreePath, row.Command, row.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("statedb: record spawn: %w", err)
	}
	return nil
}

// Spawn looks up a spawned session. ok is false when the session was not
// created by agentssh (or predates the history database).
func (s *StateDB) Spawn(sessionName string) (row SpawnRow, ok bool, err error) {
	var created int64
	err = s.db.QueryRow(`
		SELECT session_name, agent_id, work_dir, worktree_path, command, created_at
		FROM spawns WHERE session_name = ?`, sessionName,
	).Scan(&row.SessionName, &row.AgentID, &row.WorkDir, &row.WorktreePath, &row.Command, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return SpawnRow{}, false, nil
	}
	if err != nil {
		return SpawnRow{}, false, fmt.Errorf("statedb: load spawn: %w", err)
	}
	row.CreatedAt = time.Unix(created, 0)
	return row, true, nil
}

// DeleteSpawn forgets a session and its completions.
func (s *StateDB) DeleteSpawn(sessionName string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("statedb: begin delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM spawns WHERE session_name = ?`, sessionName); err != nil {
		return fmt.Errorf("statedb: delete spawn: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM completions WHERE session_name = ?`, sessionName); err != nil {
		return fmt.Errorf("statedb: delete completions: %w", err)
	}
	return tx.Commit()
}

// --- Completions ---

// RecordCompletion stores that the agent in sessionName went quiet at t.
func (s *StateDB) RecordCompletion(sessionName string, t time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO completions (session_name, completed_at) VALUES (?, ?)`,
		sessionName, t.Unix(),
	)
	if err != nil {
		return fmt.Errorf("statedb: record completion: %w", err)
	}
	return nil
}

// LastCompletions returns the most recent completion time per session.
func (s *StateDB) LastCompletions() (map[string]time.Time, error) {
	rows, err := s.db.Query(`
		SELECT session_name, MAX(completed_at) FROM completions GROUP BY session_name`)
	if err != nil {
		return nil, fmt.Errorf("statedb: query completions: %w", err)
	}
	defer rows.Close()

	out := make(map[string]time.Time)
	for rows.Next() {
		var name string
		var ts int64
		if err := rows.Scan(&name, &ts); err != nil {
			return nil, fmt.Errorf("statedb: scan completion: %w", err)
		}
		out[name] = time.Unix(ts, 0)
	}
	return out, rows.Err()
}

// CompletionCount returns how many times the session's agent has finished.
func (s *StateDB) CompletionCount(sessionName string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM completions WHERE session_name = ?`, sessionName).Scan(&n)
	return n, err
}

// --- Metadata ---

// SetMeta sets a key-value pair in the metadata table.
func (s *StateDB) SetMeta(key, value string) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO metadata (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta gets a value from the metadata table. Returns "" if not found.
func (s *StateDB) GetMeta(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}
