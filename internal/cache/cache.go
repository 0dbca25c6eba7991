// Package cache keeps event detail records across refreshes and sessions,
// in memory or in Redis, so that re-querying a page does not always hit the
// detail service.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Ashfaaq98/health-console/internal/health"
)

// DefaultPrefix namespaces detail keys in Redis.
const DefaultPrefix = "health:detail:"

// Cache stores event details by ARN.
type Cache interface {
	Get(arn string) (health.EventDetail, bool)
	Set(arn string, d health.EventDetail, ttl time.Duration)
	Delete(arn string)
	Clear()
	Close() error
}

type entry struct {
	detail health.EventDetail
	expiry time.Time
}

// MemoryCache is an in-process cache with TTL and size-bounded eviction.
type MemoryCache struct {
	mu      sync.RWMutex
	data    map[string]entry
	maxSize int
	logger  *log.Logger

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryCache creates a memory cache holding up to maxSize entries.
func NewMemoryCache(maxSize int, logger *log.Logger) *MemoryCache {
	if maxSize <= 0 {
		maxSize = 1000
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	mc := &MemoryCache{
		data:    make(map[string]entry),
		maxSize: maxSize,
		logger:  logger,
		stop:    make(chan struct{}),
	}
	go mc.cleanup(5 * time.Minute)
	return mc
}

func (mc *MemoryCache) Get(arn string) (health.EventDetail, bool) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	e, ok := mc.data[arn]
	if !ok || time.Now().After(e.expiry) {
		return health.EventDetail{}, false
	}
	return e.detail, true
}

func (mc *MemoryCache) Set(arn string, d health.EventDetail, ttl time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if _, exists := mc.data[arn]; !exists && len(mc.data) >= mc.maxSize {
		mc.evictOldest()
	}
	mc.data[arn] = entry{detail: d, expiry: time.Now().Add(ttl)}
}

func (mc *MemoryCache) Delete(arn string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	delete(mc.data, arn)
}

func (mc *MemoryCache) Clear() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.data = make(map[string]entry)
}

// Len returns the number of stored entries, expired ones included.
func (mc *MemoryCache) Len() int {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return len(mc.data)
}

func (mc *MemoryCache) Close() error {
	mc.stopOnce.Do(func() { close(mc.stop) })
	mc.Clear()
	return nil
}

// evictOldest drops the entry closest to expiry. Caller holds mu.
func (mc *MemoryCache) evictOldest() {
	var oldestKey string
	var oldest time.Time
	first := true
	for k, v := range mc.data {
		if first || v.expiry.Before(oldest) {
			oldestKey, oldest, first = k, v.expiry, false
		}
	}
	if !first {
		delete(mc.data, oldestKey)
	}
}

func (mc *MemoryCache) cleanup(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-mc.stop:
			return
		case <-t.C:
			mc.mu.Lock()
			now := time.Now()
			for k, v := range mc.data {
				if now.After(v.expiry) {
					delete(mc.data, k)
				}
			}
			mc.mu.Unlock()
		}
	}
}

// RedisCache stores details as JSON under a key prefix.
type RedisCache struct {
	client *redis.Client
	prefix string
	logger *log.Logger
}

// NewRedisCache connects to redisURL and verifies the connection.
func NewRedisCache(redisURL, prefix string, logger *log.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	c := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		c.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &RedisCache{client: c, prefix: prefix, logger: logger}, nil
}

func (rc *RedisCache) Get(arn string) (health.EventDetail, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	raw, err := rc.client.Get(ctx, rc.prefix+arn).Bytes()
	if err != nil {
		if err != redis.Nil {
			rc.logger.Printf("Redis get error for %s: %v", arn, err)
		}
		return health.EventDetail{}, false
	}
	var d health.EventDetail
	if err := json.Unmarshal(raw, &d); err != nil {
		rc.logger.Printf("Redis unmarshal error for %s: %v", arn, err)
		_ = rc.client.Del(ctx, rc.prefix+arn).Err()
		return health.EventDetail{}, false
	}
	return d, true
}

func (rc *RedisCache) Set(arn string, d health.EventDetail, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	b, err := json.Marshal(d)
	if err != nil {
		rc.logger.Printf("Redis marshal error: %v", err)
		return
	}
	if err := rc.client.Set(ctx, rc.prefix+arn, b, ttl).Err(); err != nil {
		rc.logger.Printf("Redis set error for %s: %v", arn, err)
	}
}

func (rc *RedisCache) Delete(arn string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.client.Del(ctx, rc.prefix+arn).Err(); err != nil {
		rc.logger.Printf("Redis del error for %s: %v", arn, err)
	}
}

// Clear removes every key under the prefix. It scans instead of using KEYS
// so a large keyspace does not block the server.
func (rc *RedisCache) Clear() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	iter := rc.client.Scan(ctx, 0, rc.prefix+"*", 500).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		rc.logger.Printf("Redis scan error: %v", err)
		return
	}
	if len(keys) > 0 {
		if err := rc.client.Del(ctx, keys...).Err(); err != nil {
			rc.logger.Printf("Redis clear error: %v", err)
		}
	}
}

func (rc *RedisCache) Close() error {
	return rc.client.Close()
}
