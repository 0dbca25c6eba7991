package bus

import (
	"fmt"
	"strconv"
	"time"
)

// SummaryMessage is a settled summarization attempt.
type SummaryMessage struct {
	EventArn  string `json:"event_arn"`
	UserID    string `json:"user_id"`
	State     string `json:"state"` // "succeeded" or "failed"
	Text      string `json:"text,omitempty"`
	Message   string `json:"message,omitempty"`
	Attempt   int    `json:"attempt"`
	Timestamp int64  `json:"timestamp"`
}

// PageLoadMessage records one page of details merged into a snapshot.
type PageLoadMessage struct {
	UserID     string `json:"user_id"`
	Generation uint64 `json:"generation"`
	Page       int    `json:"page"`
	Details    int    `json:"details"`
	Failures   int    `json:"failures"`
	Timestamp  int64  `json:"timestamp"`
}

func (m SummaryMessage) fields() map[string]interface{} {
	return map[string]interface{}{
		"event_arn": m.EventArn,
		"user_id":   m.UserID,
		"state":     m.State,
		"text":      m.Text,
		"message":   m.Message,
		"attempt":   m.Attempt,
		"timestamp": m.Timestamp,
	}
}

func summaryFromFields(f map[string]string) SummaryMessage {
	m := SummaryMessage{
		EventArn: f["event_arn"],
		UserID:   f["user_id"],
		State:    f["state"],
		Text:     f["text"],
		Message:  f["message"],
	}
	if n, err := strconv.Atoi(f["attempt"]); err == nil {
		m.Attempt = n
	}
	if ts, err := parseTimestamp(f["timestamp"]); err == nil {
		m.Timestamp = ts
	}
	return m
}

func (m PageLoadMessage) fields() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    m.UserID,
		"generation": strconv.FormatUint(m.Generation, 10),
		"page":       m.Page,
		"details":    m.Details,
		"failures":   m.Failures,
		"timestamp":  m.Timestamp,
	}
}

// parseTimestamp parses epoch seconds, epoch milliseconds or RFC 3339 into
// epoch seconds.
func parseTimestamp(timestamp string) (int64, error) {
	if timestamp == "" {
		return time.Now().Unix(), nil
	}
	if n, err := strconv.ParseInt(timestamp, 10, 64); err == nil {
		// 13+ digits are milliseconds
		if n > 1_000_000_000_000 {
			return n / 1000, nil
		}
		return n, nil
	}
	if ts, err := time.Parse(time.RFC3339Nano, timestamp); err == nil {
		return ts.Unix(), nil
	}
	return time.Now().Unix(), fmt.Errorf("unable to parse timestamp: %s", timestamp)
}
