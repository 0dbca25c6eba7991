package bus

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// DefaultMaxLen bounds each stream; older entries are trimmed on publish.
const DefaultMaxLen = 10000

// RedisBus publishes to and reads from Redis Streams.
type RedisBus struct {
	client *redis.Client
	logger *log.Logger
	maxLen int64
}

// StreamMessage represents a message in a Redis Stream
type StreamMessage struct {
	ID     string            `json:"id"`
	Fields map[string]string `json:"fields"`
}

// StreamHandler is a function that processes stream messages
type StreamHandler func(ctx context.Context, message StreamMessage) error

// NewRedisBus connects to redisURL and verifies the connection.
func NewRedisBus(redisURL string, logger *log.Logger) (*RedisBus, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if logger == nil {
		logger = log.New(log.Writer(), "[RedisBus] ", log.LstdFlags)
	}
	return &RedisBus{client: client, logger: logger, maxLen: DefaultMaxLen}, nil
}

// Close closes the Redis connection
func (rb *RedisBus) Close() error {
	return rb.client.Close()
}

func (rb *RedisBus) publish(ctx context.Context, stream string, fields map[string]interface{}) error {
	return rb.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: rb.maxLen,
		Approx: true,
		Values: fields,
	}).Err()
}

// PublishSummary publishes a settled summary to the summaries stream
func (rb *RedisBus) PublishSummary(ctx context.Context, msg SummaryMessage) error {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().Unix()
	}
	if err := rb.publish(ctx, StreamSummaries, msg.fields()); err != nil {
		return fmt.Errorf("failed to publish summary: %w", err)
	}
	rb.logger.Printf("Published %s summary for %s", msg.State, msg.EventArn)
	return nil
}

// PublishPageLoad publishes a page load to the pages stream
func (rb *RedisBus) PublishPageLoad(ctx context.Context, msg PageLoadMessage) error {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().Unix()
	}
	if err := rb.publish(ctx, StreamPages, msg.fields()); err != nil {
		return fmt.Errorf("failed to publish page load: %w", err)
	}
	return nil
}

// CreateConsumerGroup creates a consumer group for a stream if it doesn't exist
func (rb *RedisBus) CreateConsumerGroup(ctx context.Context, stream, group string) error {
	err := rb.client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group %s for stream %s: %w", group, stream, err)
	}
	return nil
}

// ReadStream reads messages from a stream using consumer groups. Messages
// are acknowledged after handler returns nil.
func (rb *RedisBus) ReadStream(ctx context.Context, stream, group, consumer string, handler StreamHandler) error {
	if err := rb.CreateConsumerGroup(ctx, stream, group); err != nil {
		return err
	}
	rb.logger.Printf("Starting stream reader for %s (group: %s, consumer: %s)", stream, group, consumer)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		result := rb.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    group,
			Consumer: consumer,
			Streams:  []string{stream, ">"},
			Count:    10,
			Block:    1 * time.Second,
		})
		if err := result.Err(); err != nil {
			if err == redis.Nil {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			rb.logger.Printf("Error reading from stream %s: %v", stream, err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for _, s := range result.Val() {
			for _, message := range s.Messages {
				msg := StreamMessage{ID: message.ID, Fields: make(map[string]string, len(message.Values))}
				for key, value := range message.Values {
					if str, ok := value.(string); ok {
						msg.Fields[key] = str
					}
				}
				if err := handler(ctx, msg); err != nil {
					rb.logger.Printf("Error processing message %s: %v", message.ID, err)
					continue
				}
				if err := rb.client.XAck(ctx, s.Stream, group, message.ID).Err(); err != nil {
					rb.logger.Printf("Error acknowledging message %s: %v", message.ID, err)
				}
			}
		}
	}
}

// ReadSummaries consumes the summaries stream as consumer of group.
func (rb *RedisBus) ReadSummaries(ctx context.Context, group, consumer string, handler SummaryHandler) error {
	return rb.ReadStream(ctx, StreamSummaries, group, consumer, func(ctx context.Context, m StreamMessage) error {
		return handler(ctx, summaryFromFields(m.Fields))
	})
}

// Ping checks the Redis connection.
func (rb *RedisBus) Ping(ctx context.Context) error {
	return rb.client.Ping(ctx).Err()
}

// Stats reports the length, last entry and consumer groups of each stream.
// Streams that were never written are omitted.
func (rb *RedisBus) Stats(ctx context.Context) (Stats, error) {
	st := Stats{Backend: "redis", Streams: map[string]StreamStats{}}
	for _, stream := range []string{StreamSummaries, StreamPages} {
		info, err := rb.client.XInfoStream(ctx, stream).Result()
		if err != nil {
			if err == redis.Nil || strings.Contains(err.Error(), "no such key") {
				continue
			}
			return st, fmt.Errorf("xinfo %s: %w", stream, err)
		}
		ss := StreamStats{Length: info.Length, LastEntryID: info.LastEntry.ID}
		if groups, err := rb.client.XInfoGroups(ctx, stream).Result(); err == nil {
			ss.ConsumerGroups = len(groups)
		}
		st.Streams[stream] = ss
	}
	return st, nil
}
