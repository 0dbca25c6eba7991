package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ashfaaq98/health-console/internal/health"
)

func detail(arn string) health.EventDetail {
	return health.EventDetail{
		EventArn:          arn,
		LatestDescription: "desc " + arn,
		AffectedEntities:  []string{"i-1"},
		Fields:            map[string]any{"event_arn": arn, "region": "us-east-1"},
	}
}

func TestMemoryCacheTTL(t *testing.T) {
	mc := NewMemoryCache(10, nil)
	defer mc.Close()

	mc.Set("a", detail("a"), time.Hour)
	mc.Set("b", detail("b"), -time.Second)

	got, ok := mc.Get("a")
	require.True(t, ok)
	assert.Equal(t, "desc a", got.LatestDescription)

	_, ok = mc.Get("b")
	assert.False(t, ok, "expired entry must miss")

	mc.Delete("a")
	_, ok = mc.Get("a")
	assert.False(t, ok)
}

func TestMemoryCacheEvictsSoonestExpiry(t *testing.T) {
	mc := NewMemoryCache(2, nil)
	defer mc.Close()

	mc.Set("short", detail("short"), time.Minute)
	mc.Set("long", detail("long"), time.Hour)
	mc.Set("new", detail("new"), time.Hour)

	assert.Equal(t, 2, mc.Len())
	_, ok := mc.Get("short")
	assert.False(t, ok)
	_, ok = mc.Get("long")
	assert.True(t, ok)

	// overwriting an existing key does not evict
	mc.Set("long", detail("long"), time.Hour)
	assert.Equal(t, 2, mc.Len())
}

func TestManagerFallbackPromotesToPrimary(t *testing.T) {
	primary := NewMemoryCache(10, nil)
	fallback := NewMemoryCache(10, nil)
	m := NewManagerWith(primary, fallback, time.Minute, nil)
	defer m.Close()

	fallback.Set("a", detail("a"), time.Hour)
	_, ok := m.Get("a")
	require.True(t, ok)
	_, ok = primary.Get("a")
	assert.True(t, ok, "fallback hit should be copied to primary")

	_, ok = m.Get("missing")
	assert.False(t, ok)

	hits, misses, ratio := m.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
	assert.InDelta(t, 0.5, ratio, 1e-9)

	m.Clear()
	_, ok = fallback.Get("a")
	assert.False(t, ok)
}

func TestNewManagerWithoutRedisUsesMemory(t *testing.T) {
	m := NewManager(Options{UseRedis: true, RedisURL: "redis://127.0.0.1:1/0", Size: 5}, nil)
	defer m.Close()

	m.Set("a", detail("a"), 0)
	_, ok := m.Get("a")
	assert.True(t, ok)
}

type countingDetails struct {
	calls    int
	requests [][]string
	failArn  string
	err      error
}

func (c *countingDetails) QueryDetails(ctx context.Context, arns []string) (health.DetailBatch, error) {
	c.calls++
	c.requests = append(c.requests, arns)
	if c.err != nil {
		return health.DetailBatch{}, c.err
	}
	var b health.DetailBatch
	for _, arn := range arns {
		if arn == c.failArn {
			b.Failures = append(b.Failures, health.DetailFailure{EventArn: arn, Reason: "AccessDenied"})
			continue
		}
		b.Details = append(b.Details, detail(arn))
	}
	return b, nil
}

func TestCachedDetailsServesHitsAndFetchesMisses(t *testing.T) {
	inner := &countingDetails{failArn: "c"}
	mc := NewMemoryCache(10, nil)
	defer mc.Close()
	svc := NewCachedDetails(inner, mc, time.Hour, nil)

	b, err := svc.QueryDetails(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Len(t, b.Details, 2)
	assert.Len(t, b.Failures, 1)

	b, err = svc.QueryDetails(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Len(t, b.Details, 2)
	assert.Len(t, b.Failures, 1)
	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, []string{"c"}, inner.requests[1], "only the failed ARN is re-requested")

	inner.failArn = ""
	_, err = svc.QueryDetails(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	b, err = svc.QueryDetails(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Len(t, b.Details, 3)
	assert.Equal(t, 3, inner.calls)
}

func TestCachedDetailsPropagatesErrors(t *testing.T) {
	inner := &countingDetails{err: errors.New("unavailable")}
	mc := NewMemoryCache(10, nil)
	defer mc.Close()

	_, err := NewCachedDetails(inner, mc, time.Hour, nil).QueryDetails(context.Background(), []string{"a"})
	assert.EqualError(t, err, "unavailable")
	assert.Zero(t, mc.Len())
}

// Requires a reachable Redis; set HEALTH_CONSOLE_TEST_REDIS_URL to run.
func TestRedisCacheRoundTrip(t *testing.T) {
	url := os.Getenv("HEALTH_CONSOLE_TEST_REDIS_URL")
	if url == "" {
		t.Skip("HEALTH_CONSOLE_TEST_REDIS_URL not set")
	}
	rc, err := NewRedisCache(url, "health:test:"+time.Now().Format("150405.000")+":", nil)
	require.NoError(t, err)
	defer rc.Close()
	defer rc.Clear()

	rc.Set("a", detail("a"), time.Minute)
	got, ok := rc.Get("a")
	require.True(t, ok)
	assert.Equal(t, detail("a").LatestDescription, got.LatestDescription)
	assert.Equal(t, []string{"i-1"}, got.AffectedEntities)
	assert.Equal(t, "us-east-1", got.Fields["region"])

	rc.Clear()
	_, ok = rc.Get("a")
	assert.False(t, ok)
}
