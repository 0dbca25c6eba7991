package dashboard

import (
	"context"
	"io"
	"log"
	"sync"
	"time"

	"github.com/Ashfaaq98/health-console/internal/health"
	"github.com/Ashfaaq98/health-console/internal/summary"
)

// SummaryState is the lifecycle state of one event's summary.
type SummaryState int

const (
	SummaryAbsent SummaryState = iota
	SummaryLoading
	SummarySucceeded
	SummaryFailed
)

func (s SummaryState) String() string {
	switch s {
	case SummaryLoading:
		return "loading"
	case SummarySucceeded:
		return "succeeded"
	case SummaryFailed:
		return "failed"
	default:
		return "absent"
	}
}

// Messages used for failed summaries when the service gives none.
const (
	msgTransport = "failed to reach the summarization service"
	msgRejected  = "summarization service returned an error"
	msgParse     = "could not parse the summarization response"
)

// SummaryStatus is the observable summary state of one ARN.
type SummaryStatus struct {
	State     SummaryState
	Text      string // rendered summary when succeeded
	Message   string // reason when failed
	Attempt   int
	UpdatedAt time.Time
}

// Err returns the failure as *health.SummarizationError, or nil when the
// summary has not failed.
func (s SummaryStatus) Err(arn string) error {
	if s.State != SummaryFailed {
		return nil
	}
	return &health.SummarizationError{EventArn: arn, Message: s.Message}
}

type summaryEntry struct {
	status SummaryStatus
	done   chan struct{}
}

// Summaries runs and tracks per-ARN summarization. A summary that is loading
// cannot be re-triggered; one that has settled can be, which starts a new
// attempt.
type Summaries struct {
	svc      health.Summarizer
	sections []summary.Section
	logger   *log.Logger
	rec      Recorder

	mu       sync.Mutex
	entries  map[string]*summaryEntry
	onSettle func(arn string, st SummaryStatus)
}

// NewSummaries creates a summary tracker backed by svc.
func NewSummaries(svc health.Summarizer, logger *log.Logger, rec Recorder) *Summaries {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Summaries{
		svc:      svc,
		sections: summary.DefaultSections,
		logger:   logger,
		rec:      recorderOrNop(rec),
		entries:  make(map[string]*summaryEntry),
	}
}

// OnSettled registers a callback run after each attempt reaches a terminal
// state. It runs on the summarization goroutine before Wait returns.
func (s *Summaries) OnSettled(fn func(arn string, st SummaryStatus)) {
	s.mu.Lock()
	s.onSettle = fn
	s.mu.Unlock()
}

// Trigger starts summarizing arn in the background and reports whether a new
// attempt was started. It does nothing while a summary for arn is loading.
func (s *Summaries) Trigger(ctx context.Context, arn, description string, affectedEntities []string) bool {
	s.mu.Lock()
	prev := s.entries[arn]
	if prev != nil && prev.status.State == SummaryLoading {
		s.mu.Unlock()
		return false
	}
	attempt := 1
	if prev != nil {
		attempt = prev.status.Attempt + 1
	}
	e := &summaryEntry{
		status: SummaryStatus{State: SummaryLoading, Attempt: attempt, UpdatedAt: time.Now()},
		done:   make(chan struct{}),
	}
	s.entries[arn] = e
	s.mu.Unlock()

	entities := append([]string(nil), affectedEntities...)
	go s.run(ctx, arn, description, entities, e)
	return true
}

func (s *Summaries) run(ctx context.Context, arn, description string, entities []string, e *summaryEntry) {
	st := s.summarize(ctx, arn, description, entities)
	st.Attempt = e.status.Attempt
	st.UpdatedAt = time.Now()

	s.mu.Lock()
	e.status = st
	hook := s.onSettle
	s.mu.Unlock()

	if st.State == SummarySucceeded {
		s.rec.SummarySettled(OutcomeOK)
	} else {
		s.rec.SummarySettled(OutcomeError)
	}
	// waiters are released after the hook so they observe its effects
	if hook != nil {
		hook(arn, st)
	}
	close(e.done)
}

func (s *Summaries) summarize(ctx context.Context, arn, description string, entities []string) SummaryStatus {
	reply, err := s.svc.QuerySummary(ctx, description, entities)
	if err != nil {
		s.rec.RemoteCall(ServiceSummarize, OutcomeError)
		s.logger.Printf("Summarization request for %s failed: %v", arn, err)
		return SummaryStatus{State: SummaryFailed, Message: msgTransport + ": " + err.Error()}
	}
	s.rec.RemoteCall(ServiceSummarize, OutcomeOK)

	if reply.Status != health.SummaryOK {
		msg := reply.Message
		if msg == "" {
			msg = msgRejected
		}
		s.logger.Printf("Summarization for %s rejected: %s", arn, msg)
		return SummaryStatus{State: SummaryFailed, Message: msg}
	}

	root, err := summary.Parse(reply.Result)
	if err != nil {
		s.logger.Printf("Summarization reply for %s unparseable: %v", arn, err)
		return SummaryStatus{State: SummaryFailed, Message: msgParse}
	}
	return SummaryStatus{State: SummarySucceeded, Text: summary.Render(root, s.sections)}
}

// Status returns the current state for arn.
func (s *Summaries) Status(arn string) SummaryStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[arn]; ok {
		return e.status
	}
	return SummaryStatus{State: SummaryAbsent}
}

// Wait blocks until the current attempt for arn settles or ctx is done.
func (s *Summaries) Wait(ctx context.Context, arn string) (SummaryStatus, error) {
	s.mu.Lock()
	e, ok := s.entries[arn]
	s.mu.Unlock()
	if !ok {
		return SummaryStatus{State: SummaryAbsent}, nil
	}
	select {
	case <-e.done:
		s.mu.Lock()
		defer s.mu.Unlock()
		return e.status, nil
	case <-ctx.Done():
		return s.Status(arn), ctx.Err()
	}
}

// Snapshot returns the state of every ARN that has been summarized.
func (s *Summaries) Snapshot() map[string]SummaryStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]SummaryStatus, len(s.entries))
	for arn, e := range s.entries {
		out[arn] = e.status
	}
	return out
}
