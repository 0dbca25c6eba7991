package cache

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/Ashfaaq98/health-console/internal/health"
)

// CachedDetails serves detail records from a cache and asks the wrapped
// service only for the ARNs it misses. Failures are never cached, so a
// failed ARN is retried on its next request.
type CachedDetails struct {
	next   health.DetailService
	cache  Cache
	ttl    time.Duration
	logger *log.Logger
}

// NewCachedDetails wraps next with c.
func NewCachedDetails(next health.DetailService, c Cache, ttl time.Duration, logger *log.Logger) *CachedDetails {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &CachedDetails{next: next, cache: c, ttl: ttl, logger: logger}
}

var _ health.DetailService = (*CachedDetails)(nil)

func (c *CachedDetails) QueryDetails(ctx context.Context, eventArns []string) (health.DetailBatch, error) {
	var batch health.DetailBatch
	missing := make([]string, 0, len(eventArns))
	for _, arn := range eventArns {
		if d, ok := c.cache.Get(arn); ok {
			batch.Details = append(batch.Details, d)
			continue
		}
		missing = append(missing, arn)
	}
	if len(missing) == 0 {
		c.logger.Printf("Detail batch of %d served from cache", len(eventArns))
		return batch, nil
	}

	fetched, err := c.next.QueryDetails(ctx, missing)
	if err != nil {
		return health.DetailBatch{}, err
	}
	for _, d := range fetched.Details {
		if d.EventArn != "" {
			c.cache.Set(d.EventArn, d, c.ttl)
		}
	}
	batch.Details = append(batch.Details, fetched.Details...)
	batch.Failures = append(batch.Failures, fetched.Failures...)
	return batch, nil
}
