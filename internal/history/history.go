// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists generated briefs per user in SQLite. The
// orchestrator reads prior briefs at the start of a follow-up run and
// appends the new brief on success; those are the only two points
// where run state crosses a persistence boundary.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/brief-engine/pkg/types"
)

const defaultRetention = 10

// Store manages the brief history SQLite database.
type Store struct {
	db        *sql.DB
	retention int
}

// Open opens or creates the history database at cfg.DBPath and
// creates the schema if it does not exist.
func Open(cfg types.HistoryConfig) (*Store, error) {
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	retention := cfg.Retention
	if retention <= 0 {
		retention = defaultRetention
	}

	s := &Store{db: db, retention: retention}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS briefs (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			topic TEXT NOT NULL,
			payload TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_briefs_user_id ON briefs(user_id, created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// List returns the user's stored briefs, most recent first. A user
// with no history returns an empty slice, not an error.
func (s *Store) List(ctx context.Context, userID string) ([]types.FinalBrief, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM briefs WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying briefs for %s: %w", userID, err)
	}
	defer rows.Close()

	var briefs []types.FinalBrief
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning brief row: %w", err)
		}
		var b types.FinalBrief
		if err := json.Unmarshal([]byte(payload), &b); err != nil {
			return nil, fmt.Errorf("decoding stored brief: %w", err)
		}
		briefs = append(briefs, b)
	}
	return briefs, rows.Err()
}

// Append stores a completed brief for the user and prunes entries
// beyond the retention limit, oldest first.
func (s *Store) Append(ctx context.Context, userID string, brief types.FinalBrief) error {
	payload, err := json.Marshal(brief)
	if err != nil {
		return fmt.Errorf("encoding brief: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	createdAt := brief.GeneratedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO briefs (id, user_id, topic, payload, created_at) VALUES (?, ?, ?, ?, ?)`,
		brief.ID, userID, brief.Topic, string(payload), createdAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("inserting brief: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM briefs WHERE user_id = ? AND id NOT IN (
			SELECT id FROM briefs WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?
		)`, userID, userID, s.retention,
	); err != nil {
		return fmt.Errorf("pruning history: %w", err)
	}

	return tx.Commit()
}
