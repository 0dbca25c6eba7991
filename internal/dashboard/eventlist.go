package dashboard

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/Ashfaaq98/health-console/internal/health"
)

// EventListCache fetches the event list for a query and installs it into a
// snapshot.
type EventListCache struct {
	svc    health.EventQueryService
	userID string
	role   string
	logger *log.Logger
	rec    Recorder
}

// NewEventListCache creates a list cache. An empty role selects
// health.DefaultCrossAccountRole.
func NewEventListCache(svc health.EventQueryService, userID, role string, logger *log.Logger, rec Recorder) *EventListCache {
	if role == "" {
		role = health.DefaultCrossAccountRole
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &EventListCache{svc: svc, userID: userID, role: role, logger: logger, rec: recorderOrNop(rec)}
}

// BuildRequest maps each account of q to its per-account query.
func (c *EventListCache) BuildRequest(q Query) map[string]health.AccountQuery {
	filter := q.Filter
	if filter == nil {
		filter = health.EventFilter{}
	}
	req := make(map[string]health.AccountQuery, len(q.Accounts))
	for _, id := range q.Accounts {
		req[id] = health.AccountQuery{CrossAccountRole: c.role, EventFilter: filter}
	}
	return req
}

// Refresh queries the full event list and installs it into snap, resetting
// its detail caches and page cursor. A query that matches nothing installs
// an empty list and returns health.ErrEmptyResult. When another refresh was
// started while this one was in flight, the result is dropped with
// health.ErrStaleSnapshot and snap is left to the newer refresh.
func (c *EventListCache) Refresh(ctx context.Context, snap *Snapshot, q Query) ([]health.Event, error) {
	if len(q.Accounts) == 0 {
		return nil, health.ErrNoAccountsSelected
	}

	seq := snap.beginRefresh()
	events, err := c.svc.QueryEvents(ctx, c.userID, c.BuildRequest(q))
	if err != nil {
		c.rec.RemoteCall(ServiceEvents, OutcomeError)
		return nil, fmt.Errorf("query health events: %w", err)
	}

	if !snap.install(seq, events) {
		c.rec.StaleResult()
		c.logger.Printf("Discarding event list of superseded refresh #%d", seq)
		return nil, health.ErrStaleSnapshot
	}

	if len(events) == 0 {
		c.rec.RemoteCall(ServiceEvents, OutcomeEmpty)
		return nil, health.ErrEmptyResult
	}
	c.rec.RemoteCall(ServiceEvents, OutcomeOK)
	c.logger.Printf("Loaded %d health events across %d accounts", len(events), len(q.Accounts))
	return append([]health.Event(nil), events...), nil
}
