package bus

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBusWithoutURLIsDisabled(t *testing.T) {
	b := NewBus("", nil)
	require.False(t, Enabled(b))

	ctx := context.Background()
	assert.NoError(t, b.PublishSummary(ctx, SummaryMessage{EventArn: "arn:1"}))
	assert.NoError(t, b.PublishPageLoad(ctx, PageLoadMessage{Page: 1}))
	assert.NoError(t, b.Ping(ctx))

	stats, err := b.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "disabled", stats.Backend)
	assert.Empty(t, stats.Streams)

	err = b.ReadSummaries(ctx, "g", "c", func(context.Context, SummaryMessage) error { return nil })
	assert.ErrorIs(t, err, ErrDisabled)
	assert.NoError(t, b.Close())
}

func TestNewBusUnreachableIsDisabled(t *testing.T) {
	b := NewBus("redis://127.0.0.1:1/0", nil)
	assert.False(t, Enabled(b))
	assert.False(t, Enabled(nil))
}

func TestSummaryFieldsRoundTrip(t *testing.T) {
	in := SummaryMessage{
		EventArn:  "arn:aws:health:us-east-1::event/EC2/1",
		UserID:    "alice",
		State:     "succeeded",
		Text:      "Summary:\nS",
		Attempt:   2,
		Timestamp: 1700000000,
	}
	raw := map[string]string{}
	for k, v := range in.fields() {
		switch t := v.(type) {
		case string:
			raw[k] = t
		case int:
			raw[k] = strconv.Itoa(t)
		case int64:
			raw[k] = strconv.FormatInt(t, 10)
		}
	}
	assert.Equal(t, in, summaryFromFields(raw))
}

func TestParseTimestamp(t *testing.T) {
	ts, err := parseTimestamp("1700000000")
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), ts)

	ts, err = parseTimestamp("1700000000123")
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), ts)

	ts, err = parseTimestamp("2023-11-14T22:13:20Z")
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), ts)

	_, err = parseTimestamp("yesterday")
	assert.Error(t, err)
}

// Requires a reachable Redis; set HEALTH_CONSOLE_TEST_REDIS_URL to run.
func TestRedisBusPublishAndRead(t *testing.T) {
	url := os.Getenv("HEALTH_CONSOLE_TEST_REDIS_URL")
	if url == "" {
		t.Skip("HEALTH_CONSOLE_TEST_REDIS_URL not set")
	}
	rb, err := NewRedisBus(url, nil)
	require.NoError(t, err)
	defer rb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	group := "test-" + time.Now().Format("150405.000000")
	require.NoError(t, rb.CreateConsumerGroup(ctx, StreamSummaries, group))
	// second call is a no-op
	require.NoError(t, rb.CreateConsumerGroup(ctx, StreamSummaries, group))

	require.NoError(t, rb.PublishSummary(ctx, SummaryMessage{EventArn: "arn:test", State: "failed", Message: "boom", Attempt: 1}))

	got := make(chan SummaryMessage, 1)
	go func() {
		_ = rb.ReadSummaries(ctx, group, "c1", func(ctx context.Context, m SummaryMessage) error {
			if m.EventArn == "arn:test" {
				got <- m
			}
			return nil
		})
	}()
	select {
	case m := <-got:
		assert.Equal(t, "failed", m.State)
		assert.Equal(t, "boom", m.Message)
		assert.Equal(t, 1, m.Attempt)
	case <-ctx.Done():
		t.Fatal("summary not received")
	}

	stats, err := rb.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "redis", stats.Backend)
	assert.Positive(t, stats.Streams[StreamSummaries].Length)
	assert.Positive(t, stats.Streams[StreamSummaries].ConsumerGroups)
}
