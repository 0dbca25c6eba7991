package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ashfaaq98/health-console/internal/health"
)

const okPayload = "<Output><Summary>S</Summary><Action>A</Action></Output>"

func waitSettled(t *testing.T, s *Summaries, arn string) SummaryStatus {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st, err := s.Wait(ctx, arn)
	require.NoError(t, err)
	return st
}

func TestSummaryLifecycle(t *testing.T) {
	svc := &fakeSummarizer{reply: health.SummaryReply{Status: health.SummaryOK, Result: okPayload}}
	s := NewSummaries(svc, nil, nil)

	assert.Equal(t, SummaryAbsent, s.Status("x").State)
	assert.True(t, s.Trigger(context.Background(), "x", "desc", nil))

	st := waitSettled(t, s, "x")
	assert.Equal(t, SummarySucceeded, st.State)
	assert.Equal(t, "Summary:\nS\n\nAction:\nA", st.Text)
	assert.Equal(t, 1, st.Attempt)
	assert.NoError(t, st.Err("x"))
}

func TestSummaryNoDuplicateWhileLoading(t *testing.T) {
	svc := &fakeSummarizer{
		reply: health.SummaryReply{Status: health.SummaryOK, Result: okPayload},
		gate:  make(chan struct{}),
	}
	s := NewSummaries(svc, nil, nil)

	assert.True(t, s.Trigger(context.Background(), "x", "desc", nil))
	assert.False(t, s.Trigger(context.Background(), "x", "desc", nil))
	assert.Equal(t, SummaryLoading, s.Status("x").State)

	close(svc.gate)
	waitSettled(t, s, "x")
	assert.Equal(t, int32(1), svc.calls.Load())
}

func TestSummaryRetriggerAfterSettle(t *testing.T) {
	svc := &fakeSummarizer{reply: health.SummaryReply{Status: health.SummaryOK, Result: okPayload}}
	s := NewSummaries(svc, nil, nil)

	s.Trigger(context.Background(), "x", "desc", nil)
	waitSettled(t, s, "x")
	require.True(t, s.Trigger(context.Background(), "x", "desc", nil))
	st := waitSettled(t, s, "x")
	assert.Equal(t, 2, st.Attempt)
	assert.Equal(t, int32(2), svc.calls.Load())
}

func TestSummaryFailures(t *testing.T) {
	cases := []struct {
		name    string
		svc     *fakeSummarizer
		message string
	}{
		{
			name:    "transport",
			svc:     &fakeSummarizer{err: errors.New("timeout")},
			message: msgTransport + ": timeout",
		},
		{
			name:    "rejected with message",
			svc:     &fakeSummarizer{reply: health.SummaryReply{Status: health.SummaryRejected, Message: "model not allowed"}},
			message: "model not allowed",
		},
		{
			name:    "rejected without message",
			svc:     &fakeSummarizer{reply: health.SummaryReply{Status: health.SummaryRejected}},
			message: msgRejected,
		},
		{
			name:    "malformed payload",
			svc:     &fakeSummarizer{reply: health.SummaryReply{Status: health.SummaryOK, Result: "<Output><Summary>S</Output>"}},
			message: msgParse,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSummaries(tc.svc, nil, nil)
			s.Trigger(context.Background(), "x", "desc", nil)
			st := waitSettled(t, s, "x")
			assert.Equal(t, SummaryFailed, st.State)
			assert.Equal(t, tc.message, st.Message)

			var sumErr *health.SummarizationError
			require.ErrorAs(t, st.Err("x"), &sumErr)
			assert.Equal(t, "x", sumErr.EventArn)
		})
	}
}

func TestSummaryWithoutSectionsSucceedsEmpty(t *testing.T) {
	svc := &fakeSummarizer{reply: health.SummaryReply{Status: health.SummaryOK, Result: "no tags here"}}
	s := NewSummaries(svc, nil, nil)
	s.Trigger(context.Background(), "x", "desc", nil)
	st := waitSettled(t, s, "x")
	assert.Equal(t, SummarySucceeded, st.State)
	assert.Empty(t, st.Text)
}

func TestSummaryOnSettledHook(t *testing.T) {
	svc := &fakeSummarizer{reply: health.SummaryReply{Status: health.SummaryOK, Result: okPayload}}
	rec := newCountingRecorder()
	s := NewSummaries(svc, nil, rec)
	got := make(chan SummaryStatus, 1)
	s.OnSettled(func(arn string, st SummaryStatus) {
		assert.Equal(t, "x", arn)
		got <- st
	})

	s.Trigger(context.Background(), "x", "desc", nil)
	select {
	case st := <-got:
		assert.Equal(t, SummarySucceeded, st.State)
	case <-time.After(2 * time.Second):
		t.Fatal("hook not called")
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, 1, rec.settled[OutcomeOK])
}

func TestSummaryWaitAbsent(t *testing.T) {
	s := NewSummaries(&fakeSummarizer{}, nil, nil)
	st, err := s.Wait(context.Background(), "missing")
	require.NoError(t, err)
	assert.Equal(t, SummaryAbsent, st.State)
}
