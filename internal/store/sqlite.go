// Package store persists event list snapshots and summary history in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Ashfaaq98/health-console/internal/health"
)

// ErrNotFound is returned when a lookup matches no rows.
var ErrNotFound = errors.New("not found")

// Store represents the SQLite storage implementation
type Store struct {
	db *sql.DB
}

// Snapshot is a persisted event list together with the query that produced it.
type Snapshot struct {
	ID         string             `json:"id"`
	UserID     string             `json:"user_id"`
	Accounts   []string           `json:"accounts"`
	Filter     health.EventFilter `json:"filter,omitempty"`
	EventCount int                `json:"event_count"`
	CreatedAt  time.Time          `json:"created_at"`
	Events     []health.Event     `json:"events,omitempty"`
}

// NewStore creates a new SQLite store instance
func NewStore(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open(sqliteDriver, dbPath+sqliteParams)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps :memory: databases shared and serializes writers
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			accounts TEXT NOT NULL,
			filter TEXT,
			event_count INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS snapshot_events (
			snapshot_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			event_arn TEXT NOT NULL,
			account_id TEXT,
			service TEXT,
			region TEXT,
			event_type_code TEXT,
			event_type_category TEXT,
			status_code TEXT,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (snapshot_id, position),
			FOREIGN KEY (snapshot_id) REFERENCES snapshots(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS summaries (
			id TEXT PRIMARY KEY,
			event_arn TEXT NOT NULL,
			user_id TEXT,
			state TEXT NOT NULL,
			text TEXT,
			message TEXT,
			attempt INTEGER NOT NULL DEFAULT 0,
			metadata TEXT,
			created_at INTEGER NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_snapshots_user_created ON snapshots(user_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshot_events_arn ON snapshot_events(event_arn)`,
		`CREATE INDEX IF NOT EXISTS idx_summaries_arn ON summaries(event_arn)`,
		`CREATE INDEX IF NOT EXISTS idx_summaries_created ON summaries(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}
	return nil
}

// SaveSnapshot stores an event list and the query that produced it. Events
// keep their service order.
func (s *Store) SaveSnapshot(ctx context.Context, userID string, accounts []string, filter health.EventFilter, events []health.Event) (string, error) {
	accountsJSON, err := json.Marshal(accounts)
	if err != nil {
		return "", fmt.Errorf("failed to marshal accounts: %w", err)
	}
	var filterJSON []byte
	if filter != nil {
		if filterJSON, err = json.Marshal(filter); err != nil {
			return "", fmt.Errorf("failed to marshal filter: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id := uuid.NewString()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, user_id, accounts, filter, event_count, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, userID, string(accountsJSON), nullString(string(filterJSON)), len(events), time.Now().UnixNano())
	if err != nil {
		return "", fmt.Errorf("failed to save snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO snapshot_events (
		snapshot_id, position, event_arn, account_id, service, region,
		event_type_code, event_type_category, status_code, raw_json
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare event insert: %w", err)
	}
	defer stmt.Close()

	for i, ev := range events {
		raw, err := json.Marshal(ev)
		if err != nil {
			return "", fmt.Errorf("failed to marshal event %s: %w", ev.EventArn, err)
		}
		if _, err := stmt.ExecContext(ctx, id, i, ev.EventArn, ev.AccountID, ev.Service, ev.Region,
			ev.EventTypeCode, ev.EventTypeCategory, ev.StatusCode, string(raw)); err != nil {
			return "", fmt.Errorf("failed to save snapshot event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return id, nil
}

// LatestSnapshot returns the most recent snapshot of userID with its events.
func (s *Store) LatestSnapshot(ctx context.Context, userID string) (*Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, accounts, filter, event_count, created_at
		FROM snapshots WHERE user_id = ? ORDER BY created_at DESC LIMIT 1`, userID)

	snap, err := scanSnapshot(row)
	if err != nil {
		return nil, err
	}
	if snap.Events, err = s.snapshotEvents(ctx, snap.ID); err != nil {
		return nil, err
	}
	return snap, nil
}

// ListSnapshots returns snapshot headers for userID, newest first. Events
// are not loaded.
func (s *Store) ListSnapshots(ctx context.Context, userID string, limit int) ([]Snapshot, error) {
	query := `SELECT id, user_id, accounts, filter, event_count, created_at
		FROM snapshots WHERE user_id = ? ORDER BY created_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *snap)
	}
	return out, rows.Err()
}

// PruneSnapshots deletes all but the newest keep snapshots of userID.
func (s *Store) PruneSnapshots(ctx context.Context, userID string, keep int) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE user_id = ? AND id NOT IN (
			SELECT id FROM snapshots WHERE user_id = ? ORDER BY created_at DESC LIMIT ?
		)`, userID, userID, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) snapshotEvents(ctx context.Context, snapshotID string) ([]health.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT raw_json FROM snapshot_events WHERE snapshot_id = ? ORDER BY position`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot events: %w", err)
	}
	defer rows.Close()

	var events []health.Event
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot event: %w", err)
		}
		var ev health.Event
		if err := json.Unmarshal([]byte(raw), &ev); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (*Snapshot, error) {
	var snap Snapshot
	var accountsJSON string
	var filterJSON sql.NullString
	var createdAt int64

	err := row.Scan(&snap.ID, &snap.UserID, &accountsJSON, &filterJSON, &snap.EventCount, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}

	snap.CreatedAt = time.Unix(0, createdAt)
	if err := json.Unmarshal([]byte(accountsJSON), &snap.Accounts); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot accounts: %w", err)
	}
	if filterJSON.Valid && strings.TrimSpace(filterJSON.String) != "" {
		if err := json.Unmarshal([]byte(filterJSON.String), &snap.Filter); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot filter: %w", err)
		}
	}
	return &snap, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
