// Package history records every hook invocation in a project-local
// sqlite database for the `hookwise history` command.
//
// Writes are best-effort: a failed append is logged and swallowed so the
// audit trail can never block or fail a hook.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS invocations (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    invocation   TEXT NOT NULL,
    hook         TEXT NOT NULL,
    event        TEXT NOT NULL,
    status       TEXT NOT NULL,
    should_block INTEGER NOT NULL DEFAULT 0,
    channel      TEXT NOT NULL DEFAULT '',
    model        TEXT NOT NULL DEFAULT '',
    duration_ms  INTEGER NOT NULL DEFAULT 0,
    created_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_invocations_created_at ON invocations (created_at DESC);
`

// Record is one invocation's audit row.
type Record struct {
	Invocation  string        `json:"invocation" yaml:"invocation"`
	Hook        string        `json:"hook" yaml:"hook"`
	Event       string        `json:"event" yaml:"event"`
	Status      string        `json:"status" yaml:"status"`
	ShouldBlock bool          `json:"should_block" yaml:"should_block"`
	Channel     string        `json:"channel,omitempty" yaml:"channel,omitempty"`
	Model       string        `json:"model,omitempty" yaml:"model,omitempty"`
	Duration    time.Duration `json:"duration" yaml:"duration"`
	CreatedAt   time.Time     `json:"created_at" yaml:"created_at"`
}

// Store is the invocation history database.
type Store struct {
	db *sql.DB
}

// Open creates or opens the history database at path and ensures the
// schema exists. With modernc.org/sqlite a single connection avoids
// SQLITE_BUSY on the write path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Append records one invocation. Failures are logged, never returned, so
// callers do not have to guard the audit write.
func (s *Store) Append(ctx context.Context, rec Record) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO invocations
		 (invocation, hook, event, status, should_block, channel, model, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Invocation, rec.Hook, rec.Event, rec.Status,
		boolToInt(rec.ShouldBlock), rec.Channel, rec.Model,
		rec.Duration.Milliseconds(), rec.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		log.Warn().Err(err).Str("hook", rec.Hook).Msg("failed to append history record")
	}
}

// Recent returns the newest records, newest first, at most limit rows.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT invocation, hook, event, status, should_block, channel, model, duration_ms, created_at
		 FROM invocations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var blocked, durationMs int64
		var createdAt string
		if err := rows.Scan(&rec.Invocation, &rec.Hook, &rec.Event, &rec.Status,
			&blocked, &rec.Channel, &rec.Model, &durationMs, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		rec.ShouldBlock = blocked != 0
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
