package dashboard

import (
	"context"
	"io"
	"log"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/Ashfaaq98/health-console/internal/health"
)

// NoDataReason is recorded for ARNs the detail service left out of its reply.
const NoDataReason = "no data returned"

// DetailCache loads event details one page at a time into a snapshot.
// Concurrent requests for the same page of the same snapshot share a single
// remote call.
type DetailCache struct {
	svc    health.DetailService
	logger *log.Logger
	rec    Recorder
	group  singleflight.Group
}

// NewDetailCache creates a detail cache backed by svc.
func NewDetailCache(svc health.DetailService, logger *log.Logger, rec Recorder) *DetailCache {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &DetailCache{svc: svc, logger: logger, rec: recorderOrNop(rec)}
}

// EnsurePage fetches the details of page unless it is already loaded, and
// returns what was added. A transport failure returns *health.DetailFetchError
// and leaves the page unloaded. A result that arrives after snap was replaced
// is dropped with health.ErrStaleSnapshot.
func (c *DetailCache) EnsurePage(ctx context.Context, snap *Snapshot, page int) (Delta, error) {
	gen, arns, loaded, err := snap.pageRequest(page)
	if err != nil {
		return Delta{}, err
	}
	if loaded {
		return Delta{}, nil
	}

	key := strconv.FormatUint(gen, 10) + ":" + strconv.Itoa(page)
	v, err, shared := c.group.Do(key, func() (interface{}, error) {
		// a flight that finished just before this one started may have loaded it
		if snap.loadedAt(gen, page) {
			return Delta{}, nil
		}
		batch, err := c.svc.QueryDetails(ctx, arns)
		if err != nil {
			c.rec.RemoteCall(ServiceDetails, OutcomeError)
			return nil, &health.DetailFetchError{Page: page, Err: err}
		}
		c.rec.RemoteCall(ServiceDetails, OutcomeOK)

		delta := PartitionBatch(arns, batch)
		if err := snap.mergePage(gen, page, delta); err != nil {
			c.rec.StaleResult()
			c.logger.Printf("Discarding details for page %d of superseded snapshot", page)
			return nil, err
		}
		c.rec.PageLoaded()
		c.logger.Printf("Loaded page %d: %d details, %d failures", page, len(delta.Details), len(delta.Failures))
		return delta, nil
	})
	if err != nil {
		return Delta{}, err
	}
	if shared {
		c.logger.Printf("Page %d request coalesced with an in-flight fetch", page)
	}
	return v.(Delta), nil
}

// PartitionBatch sorts a detail batch into per-ARN outcomes for the requested
// ARNs. ARNs present in neither list fail with NoDataReason. An ARN reported
// both ways counts as a detail. Entries for ARNs that were not requested are
// ignored.
func PartitionBatch(requested []string, batch health.DetailBatch) Delta {
	want := make(map[string]bool, len(requested))
	for _, arn := range requested {
		want[arn] = true
	}

	delta := Delta{
		Details:  make(map[string]health.EventDetail),
		Failures: make(map[string]string),
	}
	for _, d := range batch.Details {
		if want[d.EventArn] {
			delta.Details[d.EventArn] = d
		}
	}
	for _, f := range batch.Failures {
		if !want[f.EventArn] {
			continue
		}
		if _, ok := delta.Details[f.EventArn]; ok {
			continue
		}
		delta.Failures[f.EventArn] = f.Reason
	}
	for _, arn := range requested {
		_, ok := delta.Details[arn]
		_, failed := delta.Failures[arn]
		if !ok && !failed {
			delta.Failures[arn] = NoDataReason
		}
	}
	return delta
}
