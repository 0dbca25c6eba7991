package cache

import (
	"io"
	"log"
	"sync"
	"time"

	"github.com/Ashfaaq98/health-console/internal/health"
)

// Options configures a Manager.
type Options struct {
	UseRedis bool
	RedisURL string
	Size     int           // memory cache capacity
	TTL      time.Duration // default entry lifetime
}

// DefaultTTL applies when Options.TTL is zero.
const DefaultTTL = 5 * time.Minute

// Manager coordinates a primary cache (Redis when available) with an
// in-memory fallback and counts hits and misses.
type Manager struct {
	primary  Cache
	fallback Cache
	ttl      time.Duration
	logger   *log.Logger

	mu     sync.RWMutex
	hits   int64
	misses int64
}

// NewManager builds a manager. When Redis is requested but unreachable the
// memory cache is used alone.
func NewManager(opts Options, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	var primary, fallback Cache
	mem := NewMemoryCache(opts.Size, logger)
	primary = mem
	if opts.UseRedis && opts.RedisURL != "" {
		rc, err := NewRedisCache(opts.RedisURL, DefaultPrefix, logger)
		if err != nil {
			logger.Printf("Redis cache unavailable, falling back to memory: %v", err)
		} else {
			primary, fallback = rc, mem
		}
	}
	return &Manager{primary: primary, fallback: fallback, ttl: ttl, logger: logger}
}

// NewManagerWith wraps explicit caches; fallback may be nil.
func NewManagerWith(primary, fallback Cache, ttl time.Duration, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{primary: primary, fallback: fallback, ttl: ttl, logger: logger}
}

func (m *Manager) Get(arn string) (health.EventDetail, bool) {
	if v, ok := m.primary.Get(arn); ok {
		m.record(true)
		return v, true
	}
	if m.fallback != nil {
		if v, ok := m.fallback.Get(arn); ok {
			m.record(true)
			m.primary.Set(arn, v, m.ttl)
			return v, true
		}
	}
	m.record(false)
	return health.EventDetail{}, false
}

// Set stores d with ttl, or the manager default when ttl is zero.
func (m *Manager) Set(arn string, d health.EventDetail, ttl time.Duration) {
	if ttl <= 0 {
		ttl = m.ttl
	}
	m.primary.Set(arn, d, ttl)
	if m.fallback != nil {
		m.fallback.Set(arn, d, ttl)
	}
}

func (m *Manager) Delete(arn string) {
	m.primary.Delete(arn)
	if m.fallback != nil {
		m.fallback.Delete(arn)
	}
}

func (m *Manager) Clear() {
	m.primary.Clear()
	if m.fallback != nil {
		m.fallback.Clear()
	}
}

func (m *Manager) Close() error {
	err := m.primary.Close()
	if m.fallback != nil {
		if e := m.fallback.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

func (m *Manager) record(hit bool) {
	m.mu.Lock()
	if hit {
		m.hits++
	} else {
		m.misses++
	}
	m.mu.Unlock()
}

// Stats returns hit and miss counts and the hit ratio.
func (m *Manager) Stats() (hits, misses int64, ratio float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	hits, misses = m.hits, m.misses
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}
