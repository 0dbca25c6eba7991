package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SummaryRecord is one settled summarization attempt.
type SummaryRecord struct {
	ID        string            `json:"id"`
	EventArn  string            `json:"event_arn"`
	UserID    string            `json:"user_id,omitempty"`
	State     string            `json:"state"` // "succeeded" or "failed"
	Text      string            `json:"text,omitempty"`
	Message   string            `json:"message,omitempty"`
	Attempt   int               `json:"attempt"`
	Metadata  map[string]string `json:"metadata,omitempty"` // backend, model, etc.
	CreatedAt time.Time         `json:"created_at"`
}

// SaveSummary appends a summary record to the history.
func (s *Store) SaveSummary(ctx context.Context, rec SummaryRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	var metadataJSON []byte
	if rec.Metadata != nil {
		var err error
		if metadataJSON, err = json.Marshal(rec.Metadata); err != nil {
			return "", fmt.Errorf("failed to marshal summary metadata: %w", err)
		}
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO summaries (
		id, event_arn, user_id, state, text, message, attempt, metadata, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.EventArn, rec.UserID, rec.State, rec.Text, rec.Message,
		rec.Attempt, nullString(string(metadataJSON)), rec.CreatedAt.UnixNano())
	if err != nil {
		return "", fmt.Errorf("failed to insert summary: %w", err)
	}
	return rec.ID, nil
}

// ListSummaries returns summary records newest first. An empty arn lists
// records for every event.
func (s *Store) ListSummaries(ctx context.Context, arn string, limit int) ([]SummaryRecord, error) {
	query := `SELECT id, event_arn, user_id, state, text, message, attempt, metadata, created_at
		FROM summaries`
	var args []any
	if arn != "" {
		query += " WHERE event_arn = ?"
		args = append(args, arn)
	}
	query += " ORDER BY created_at DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query summaries: %w", err)
	}
	defer rows.Close()

	var records []SummaryRecord
	for rows.Next() {
		var rec SummaryRecord
		var userID, text, message, metadataJSON *string
		var createdAt int64

		if err := rows.Scan(&rec.ID, &rec.EventArn, &userID, &rec.State, &text, &message,
			&rec.Attempt, &metadataJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		rec.CreatedAt = time.Unix(0, createdAt)
		if userID != nil {
			rec.UserID = *userID
		}
		if text != nil {
			rec.Text = *text
		}
		if message != nil {
			rec.Message = *message
		}
		if metadataJSON != nil {
			if err := json.Unmarshal([]byte(*metadataJSON), &rec.Metadata); err != nil {
				rec.Metadata = map[string]string{"raw": *metadataJSON}
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
