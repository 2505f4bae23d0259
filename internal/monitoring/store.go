// Package monitoring - store.go persists usage events to SQLite.
//
// DESIGN: One table, append-only. The gateway writes a row after each
// /ai request finishes (or is rejected) and the admin endpoint reads
// the most recent rows back. WAL mode keeps concurrent stream writes
// from blocking the reads.
package monitoring

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists usage events to a SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the usage database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
		return nil, fmt.Errorf("creating usage db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening usage db: %w", err)
	}

	_, _ = db.Exec("PRAGMA journal_mode=WAL")
	_, _ = db.Exec("PRAGMA busy_timeout=5000")

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS usage_events (
			request_id        TEXT PRIMARY KEY,
			timestamp         INTEGER NOT NULL,
			user_id           TEXT NOT NULL,
			tool_type         TEXT NOT NULL,
			model             TEXT NOT NULL DEFAULT '',
			status_code       INTEGER NOT NULL,
			input_tokens_est  INTEGER NOT NULL DEFAULT 0,
			output_tokens_est INTEGER NOT NULL DEFAULT 0,
			quota_remaining   INTEGER NOT NULL DEFAULT 0,
			success           INTEGER NOT NULL,
			error             TEXT NOT NULL DEFAULT '',
			duration_ms       INTEGER NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating usage table: %w", err)
	}
	_, _ = db.Exec(`CREATE INDEX IF NOT EXISTS idx_usage_user ON usage_events(user_id, timestamp)`)

	return &Store{db: db}, nil
}

// RecordRequest appends one usage event.
func (s *Store) RecordRequest(ev *UsageEvent) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO usage_events
			(request_id, timestamp, user_id, tool_type, model, status_code,
			 input_tokens_est, output_tokens_est, quota_remaining, success, error, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, ev.RequestID, ev.Timestamp.Unix(), ev.UserID, ev.ToolType, ev.Model, ev.StatusCode,
		ev.InputTokensEst, ev.OutputTokensEst, ev.QuotaRemaining, boolToInt(ev.Success), ev.Error, ev.DurationMs)
	if err != nil {
		return fmt.Errorf("recording usage event: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (s *Store) Recent(limit int) ([]*UsageEvent, error) {
	rows, err := s.db.Query(`
		SELECT request_id, timestamp, user_id, tool_type, model, status_code,
		       input_tokens_est, output_tokens_est, quota_remaining, success, error, duration_ms
		FROM usage_events
		ORDER BY timestamp DESC, request_id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying usage events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []*UsageEvent
	for rows.Next() {
		var ev UsageEvent
		var ts int64
		var success int
		if err := rows.Scan(&ev.RequestID, &ts, &ev.UserID, &ev.ToolType, &ev.Model, &ev.StatusCode,
			&ev.InputTokensEst, &ev.OutputTokensEst, &ev.QuotaRemaining, &success, &ev.Error, &ev.DurationMs); err != nil {
			return nil, fmt.Errorf("scanning usage event: %w", err)
		}
		ev.Timestamp = time.Unix(ts, 0).UTC()
		ev.Success = success != 0
		events = append(events, &ev)
	}
	return events, rows.Err()
}

// CountToday returns how many requests a user made since midnight UTC.
// Diagnostic view onto the same data the in-memory quota tracks.
func (s *Store) CountToday(userID string, now time.Time) (int, error) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	var n int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM usage_events WHERE user_id = ? AND timestamp >= ?
	`, userID, midnight.Unix()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting usage events: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
