package dashboard

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/stretchr/testify/mock"

	"github.com/Ashfaaq98/health-console/internal/health"
)

// mockDirectory is a testify mock of health.AccountDirectory.
type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) AllowedAccounts(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	accounts, _ := args.Get(0).([]string)
	return accounts, args.Error(1)
}

type fakeEvents struct {
	mu       sync.Mutex
	events   []health.Event
	err      error
	requests []map[string]health.AccountQuery
	gate     chan struct{} // when set, QueryEvents blocks until it receives
}

func (f *fakeEvents) QueryEvents(ctx context.Context, userID string, accounts map[string]health.AccountQuery) ([]health.Event, error) {
	f.mu.Lock()
	f.requests = append(f.requests, accounts)
	events, err, gate := f.events, f.err, f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return events, err
}

func (f *fakeEvents) set(events []health.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = events
}

type fakeDetails struct {
	mu       sync.Mutex
	failures map[string]string // ARN -> reason reported by the service
	omit     map[string]bool   // ARNs left out of the reply
	err      error
	calls    atomic.Int32
	batches  [][]string
	gate     chan struct{}
	started  chan struct{}
}

func (f *fakeDetails) QueryDetails(ctx context.Context, arns []string) (health.DetailBatch, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.batches = append(f.batches, append([]string(nil), arns...))
	gate, started, err := f.gate, f.started, f.err
	f.mu.Unlock()
	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return health.DetailBatch{}, err
	}

	var batch health.DetailBatch
	for _, arn := range arns {
		if f.omit[arn] {
			continue
		}
		if reason, ok := f.failures[arn]; ok {
			batch.Failures = append(batch.Failures, health.DetailFailure{EventArn: arn, Reason: reason})
			continue
		}
		batch.Details = append(batch.Details, health.EventDetail{
			EventArn:          arn,
			LatestDescription: "description of " + arn,
			AffectedEntities:  []string{"i-0abc"},
			Fields:            map[string]any{"event_arn": arn},
		})
	}
	return batch, nil
}

func (f *fakeDetails) batch(i int) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.batches[i]
}

type fakeSummarizer struct {
	calls atomic.Int32
	reply health.SummaryReply
	err   error
	gate  chan struct{}
}

func (f *fakeSummarizer) QuerySummary(ctx context.Context, description string, entities []string) (health.SummaryReply, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	return f.reply, f.err
}

// makeEvents returns n events with ARNs arn:aws:health:evt/1..n.
func makeEvents(n int) []health.Event {
	events := make([]health.Event, n)
	for i := range events {
		events[i] = health.Event{
			EventArn:          fmt.Sprintf("arn:aws:health:evt/%d", i+1),
			AccountID:         "111111111111",
			Service:           "EC2",
			Region:            "us-east-1",
			EventTypeCode:     "AWS_EC2_INSTANCE_RETIREMENT_SCHEDULED",
			EventTypeCategory: "scheduledChange",
			StatusCode:        "upcoming",
		}
	}
	return events
}

func arnsOf(events []health.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.EventArn
	}
	return out
}

type countingRecorder struct {
	mu      sync.Mutex
	remote  map[string]int
	pages   int
	settled map[string]int
	stale   int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{remote: map[string]int{}, settled: map[string]int{}}
}

func (r *countingRecorder) RemoteCall(service, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remote[service+"/"+outcome]++
}

func (r *countingRecorder) PageLoaded() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages++
}

func (r *countingRecorder) SummarySettled(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settled[outcome]++
}

func (r *countingRecorder) StaleResult() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stale++
}
