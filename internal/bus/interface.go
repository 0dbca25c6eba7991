// Package bus publishes dashboard activity on Redis Streams so that other
// consoles, chat-ops relays or audit jobs can follow it.
package bus

import (
	"context"
	"errors"
	"io"
	"log"
)

// Stream names.
const (
	StreamSummaries = "health:summaries"
	StreamPages     = "health:pages"
)

// ErrDisabled is returned by readers of a bus without a Redis connection.
var ErrDisabled = errors.New("bus: redis is not configured or not reachable")

// Publisher emits dashboard activity. Publishing never blocks the dashboard
// on consumers; streams are capped and old entries trimmed.
type Publisher interface {
	PublishSummary(ctx context.Context, msg SummaryMessage) error
	PublishPageLoad(ctx context.Context, msg PageLoadMessage) error
}

// SummaryHandler processes one consumed summary. A handler error leaves the
// entry pending so another consumer of the group can claim it.
type SummaryHandler func(ctx context.Context, msg SummaryMessage) error

// Bus is a Publisher that can also be consumed and inspected.
type Bus interface {
	Publisher
	ReadSummaries(ctx context.Context, group, consumer string, handler SummaryHandler) error
	Stats(ctx context.Context) (Stats, error)
	Ping(ctx context.Context) error
	Close() error
}

// Stats describes the streams behind a bus.
type Stats struct {
	Backend string                 `json:"backend" yaml:"backend"`
	Streams map[string]StreamStats `json:"streams,omitempty" yaml:"streams,omitempty"`
}

// StreamStats describes one stream.
type StreamStats struct {
	Length         int64  `json:"length" yaml:"length"`
	LastEntryID    string `json:"last_entry_id" yaml:"last_entry_id"`
	ConsumerGroups int    `json:"consumer_groups" yaml:"consumer_groups"`
}

// NewBus connects to redisURL. Without a URL, or when Redis does not answer,
// the returned bus drops publications and refuses reads with ErrDisabled.
func NewBus(redisURL string, logger *log.Logger) Bus {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if redisURL == "" {
		return disabled{}
	}
	rb, err := NewRedisBus(redisURL, logger)
	if err != nil {
		logger.Printf("Redis bus unavailable, publishing disabled: %v", err)
		return disabled{}
	}
	return rb
}

// Enabled reports whether b is backed by Redis.
func Enabled(b Bus) bool {
	_, off := b.(disabled)
	return b != nil && !off
}
