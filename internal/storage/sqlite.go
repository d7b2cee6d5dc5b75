// Package storage provides SQLite-based recording of pacing sessions:
// every input fed to the engine and every output it produced.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/arcade-pacer/internal/core"
)

// Store manages the SQLite database connection.
type Store struct {
	db *sql.DB
}

// SessionMeta describes one recorded session.
type SessionMeta struct {
	ID         string
	Profile    string
	Mode       core.Mode
	Seed       uint64
	Source     string // What drove the session, e.g. "player" or "script:steady"
	Config     string // Engine config as YAML, needed for replay
	StartedAt  time.Time
	EndedAt    time.Time // Zero while the session is open
	Ticks      int
	Events     int
	FinalScore float64
	FinalLevel uint8
}

// Summary is written when a session ends.
type Summary struct {
	Ticks      int
	Events     int
	FinalScore float64
	FinalLevel uint8
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
// Seeds and timestamps are unsigned in Go and stored bit-cast to INTEGER.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			profile TEXT NOT NULL,
			mode TEXT NOT NULL,
			seed INTEGER NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			config TEXT NOT NULL,
			started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			ended_at DATETIME,
			ticks INTEGER NOT NULL DEFAULT 0,
			events INTEGER NOT NULL DEFAULT 0,
			final_score REAL NOT NULL DEFAULT 0,
			final_level INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at DESC);

		CREATE TABLE IF NOT EXISTS inputs (
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			kind TEXT NOT NULL,
			at_ms INTEGER NOT NULL,
			payload TEXT NOT NULL,
			PRIMARY KEY (session_id, seq)
		);

		CREATE TABLE IF NOT EXISTS telemetry (
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			at_ms INTEGER NOT NULL,
			score REAL NOT NULL,
			level INTEGER NOT NULL,
			spawn_interval_mul REAL NOT NULL,
			speed_mul REAL NOT NULL,
			hit_window_mul REAL NOT NULL,
			wrong_add REAL NOT NULL,
			junk_add REAL NOT NULL,
			features TEXT NOT NULL,
			PRIMARY KEY (session_id, seq)
		);

		CREATE TABLE IF NOT EXISTS tips (
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			at_ms INTEGER NOT NULL,
			reason TEXT NOT NULL,
			message TEXT NOT NULL,
			PRIMARY KEY (session_id, seq)
		);

		CREATE TABLE IF NOT EXISTS anomalies (
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			at_ms INTEGER NOT NULL,
			component TEXT NOT NULL,
			kind TEXT NOT NULL,
			detail TEXT NOT NULL,
			PRIMARY KEY (session_id, seq)
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// CreateSession records the start of a session.
func (s *Store) CreateSession(meta SessionMeta) error {
	_, err := s.db.Exec(
		`INSERT INTO sessions (id, profile, mode, seed, source, config)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		meta.ID, meta.Profile, string(meta.Mode), int64(meta.Seed), meta.Source, meta.Config,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot create session: %w", err)
	}
	return nil
}

// FinishSession stores the session summary and end time.
func (s *Store) FinishSession(id string, sum Summary) error {
	res, err := s.db.Exec(
		`UPDATE sessions
		 SET ended_at = CURRENT_TIMESTAMP, ticks = ?, events = ?, final_score = ?, final_level = ?
		 WHERE id = ?`,
		sum.Ticks, sum.Events, sum.FinalScore, int(sum.FinalLevel), id,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot finish session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("storage: unknown session %q", id)
	}
	return nil
}

const sessionColumns = `id, profile, mode, seed, source, config, started_at, ended_at,
	ticks, events, final_score, final_level`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (SessionMeta, error) {
	var (
		m                  SessionMeta
		mode               string
		seed               int64
		level              int
		startedAt, endedAt any
	)
	err := row.Scan(&m.ID, &m.Profile, &mode, &seed, &m.Source, &m.Config,
		&startedAt, &endedAt, &m.Ticks, &m.Events, &m.FinalScore, &level)
	if err != nil {
		return m, err
	}
	m.Mode = core.Mode(mode)
	m.Seed = uint64(seed)
	m.FinalLevel = uint8(level)
	m.StartedAt = parseTime(startedAt)
	m.EndedAt = parseTime(endedAt)
	return m, nil
}

// SessionByID retrieves a session. Returns nil if it does not exist.
func (s *Store) SessionByID(id string) (*SessionMeta, error) {
	m, err := scanSession(s.db.QueryRow(
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query session: %w", err)
	}
	return &m, nil
}

// RecentSessions retrieves the most recently started sessions.
func (s *Store) RecentSessions(limit int) ([]SessionMeta, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT `+sessionColumns+` FROM sessions
		 ORDER BY started_at DESC, rowid DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionMeta
	for rows.Next() {
		m, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		out = append(out, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return out, nil
}

// DeleteSession removes a session and everything recorded for it.
func (s *Store) DeleteSession(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: cannot begin delete: %w", err)
	}
	for _, table := range []string{"inputs", "telemetry", "tips", "anomalies"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE session_id = ?", id); err != nil {
			tx.Rollback()
			return fmt.Errorf("storage: cannot delete %s: %w", table, err)
		}
	}
	if _, err := tx.Exec("DELETE FROM sessions WHERE id = ?", id); err != nil {
		tx.Rollback()
		return fmt.Errorf("storage: cannot delete session: %w", err)
	}
	return tx.Commit()
}

// parseTime handles both time.Time and string datetimes.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
