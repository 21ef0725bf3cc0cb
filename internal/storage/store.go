package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gamecenter/internal/stats"

	_ "modernc.org/sqlite"
)

// SessionRow is a play session as persisted.
type SessionRow struct {
	Code      string
	GameID    string
	Status    string // "waiting", "playing", "finished"
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store handles SQLite persistence for play sessions, match snapshots and
// stats records. It satisfies stats.Store.
type Store struct {
	db *sql.DB
}

var _ stats.Store = (*Store)(nil)

// New opens (or creates) the database and runs migrations.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// :memory: gives each connection its own database
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			code       TEXT PRIMARY KEY,
			game_id    TEXT NOT NULL,
			status     TEXT NOT NULL DEFAULT 'waiting',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS match_state (
			session_code TEXT PRIMARY KEY REFERENCES sessions(code),
			state_json   TEXT NOT NULL,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS stats (
			game_key    TEXT PRIMARY KEY,
			record_json TEXT NOT NULL,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	return err
}

// CreateSession inserts a new waiting session.
func (s *Store) CreateSession(ctx context.Context, code, gameID string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (code, game_id, status) VALUES (?, ?, 'waiting')",
		code, gameID,
	)
	return err
}

const sessionColumns = "code, game_id, status, created_at, updated_at"

func scanSession(sc interface{ Scan(...any) error }) (SessionRow, error) {
	var sr SessionRow
	err := sc.Scan(&sr.Code, &sr.GameID, &sr.Status, &sr.CreatedAt, &sr.UpdatedAt)
	return sr, err
}

// GetSession retrieves a session by code. Missing rows return sql.ErrNoRows.
func (s *Store) GetSession(ctx context.Context, code string) (*SessionRow, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+sessionColumns+" FROM sessions WHERE code = ?", code)
	sr, err := scanSession(row)
	if err != nil {
		return nil, err
	}
	return &sr, nil
}

// UpdateSessionStatus changes a session's status and touches updated_at.
func (s *Store) UpdateSessionStatus(ctx context.Context, code, status string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE sessions SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE code = ?",
		status, code,
	)
	return err
}

// ListSessions returns all sessions with the given status (or all if status is empty).
func (s *Store) ListSessions(ctx context.Context, status string) ([]SessionRow, error) {
	var rows *sql.Rows
	var err error
	if status == "" {
		rows, err = s.db.QueryContext(ctx, "SELECT "+sessionColumns+" FROM sessions ORDER BY created_at DESC")
	} else {
		rows, err = s.db.QueryContext(ctx, "SELECT "+sessionColumns+" FROM sessions WHERE status = ? ORDER BY created_at DESC", status)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []SessionRow
	for rows.Next() {
		sr, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, sr)
	}
	return result, rows.Err()
}

// SaveMatchState upserts a match snapshot.
func (s *Store) SaveMatchState(ctx context.Context, sessionCode, stateJSON string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO match_state (session_code, state_json, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(session_code) DO UPDATE SET state_json = excluded.state_json, updated_at = excluded.updated_at
	`, sessionCode, stateJSON)
	return err
}

// GetMatchState retrieves a match snapshot.
func (s *Store) GetMatchState(ctx context.Context, sessionCode string) (string, error) {
	var stateJSON string
	err := s.db.QueryRowContext(ctx, "SELECT state_json FROM match_state WHERE session_code = ?", sessionCode).Scan(&stateJSON)
	return stateJSON, err
}

// DeleteSession removes a session and its match snapshot.
func (s *Store) DeleteSession(ctx context.Context, code string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, "DELETE FROM match_state WHERE session_code = ?", code); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE code = ?", code); err != nil {
		return err
	}
	return tx.Commit()
}

// LoadStats returns the stats blob stored under key.
func (s *Store) LoadStats(ctx context.Context, key string) ([]byte, error) {
	var record string
	err := s.db.QueryRowContext(ctx, "SELECT record_json FROM stats WHERE game_key = ?", key).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, stats.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load stats %s: %w", key, err)
	}
	return []byte(record), nil
}

// SaveStats overwrites the stats blob stored under key.
func (s *Store) SaveStats(ctx context.Context, key string, blob []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stats (game_key, record_json, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(game_key) DO UPDATE SET record_json = excluded.record_json, updated_at = excluded.updated_at
	`, key, string(blob))
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
