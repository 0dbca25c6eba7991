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

func TestBuildRequestUsesRoleForEveryAccount(t *testing.T) {
	c := NewEventListCache(&fakeEvents{}, "alice", "", nil, nil)
	req := c.BuildRequest(Query{Accounts: []string{"111111111111", "222222222222"}})

	require.Len(t, req, 2)
	for _, aq := range req {
		assert.Equal(t, health.DefaultCrossAccountRole, aq.CrossAccountRole)
		assert.NotNil(t, aq.EventFilter)
		assert.Empty(t, aq.EventFilter)
	}

	c = NewEventListCache(&fakeEvents{}, "alice", "AuditRole", nil, nil)
	filter := health.EventFilter{health.KeyRegion: {"us-east-1"}}
	req = c.BuildRequest(Query{Accounts: []string{"111111111111"}, Filter: filter})
	assert.Equal(t, health.AccountQuery{CrossAccountRole: "AuditRole", EventFilter: filter}, req["111111111111"])
}

func TestRefreshInstallsSnapshot(t *testing.T) {
	svc := &fakeEvents{events: makeEvents(12)}
	rec := newCountingRecorder()
	c := NewEventListCache(svc, "alice", "", nil, rec)
	snap := NewSnapshot()

	events, err := c.Refresh(context.Background(), snap, Query{Accounts: []string{"111111111111"}})
	require.NoError(t, err)
	assert.Len(t, events, 12)
	assert.Equal(t, 2, snap.TotalPages())
	assert.Equal(t, 1, snap.Page())
	assert.Equal(t, uint64(1), snap.Generation())
	assert.Equal(t, 1, rec.remote["events/ok"])
}

func TestRefreshResetsDerivedState(t *testing.T) {
	svc := &fakeEvents{events: makeEvents(12)}
	c := NewEventListCache(svc, "alice", "", nil, nil)
	dc := NewDetailCache(&fakeDetails{failures: map[string]string{"arn:aws:health:evt/2": "AccessDenied"}}, nil, nil)
	snap := NewSnapshot()
	q := Query{Accounts: []string{"111111111111"}}

	_, err := c.Refresh(context.Background(), snap, q)
	require.NoError(t, err)
	_, err = dc.EnsurePage(context.Background(), snap, 1)
	require.NoError(t, err)
	require.NoError(t, snap.SetPage(2))

	svc.set(makeEvents(3))
	_, err = c.Refresh(context.Background(), snap, q)
	require.NoError(t, err)

	assert.Empty(t, snap.PagesLoaded())
	assert.Equal(t, 1, snap.Page())
	_, ok := snap.Detail("arn:aws:health:evt/1")
	assert.False(t, ok)
	_, failed := snap.Failure("arn:aws:health:evt/2")
	assert.False(t, failed)
}

func TestRefreshEmptyResult(t *testing.T) {
	svc := &fakeEvents{events: makeEvents(5)}
	c := NewEventListCache(svc, "alice", "", nil, nil)
	snap := NewSnapshot()
	q := Query{Accounts: []string{"111111111111"}}

	_, err := c.Refresh(context.Background(), snap, q)
	require.NoError(t, err)

	svc.set(nil)
	events, err := c.Refresh(context.Background(), snap, q)
	assert.ErrorIs(t, err, health.ErrEmptyResult)
	assert.Empty(t, events)
	assert.Equal(t, 0, snap.EventCount())
	assert.Equal(t, 0, snap.TotalPages())
}

func TestRefreshTransportErrorKeepsSnapshot(t *testing.T) {
	svc := &fakeEvents{events: makeEvents(5)}
	c := NewEventListCache(svc, "alice", "", nil, nil)
	snap := NewSnapshot()
	q := Query{Accounts: []string{"111111111111"}}

	_, err := c.Refresh(context.Background(), snap, q)
	require.NoError(t, err)

	svc.mu.Lock()
	svc.err = errors.New("dial tcp: connection refused")
	svc.mu.Unlock()
	_, err = c.Refresh(context.Background(), snap, q)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, 5, snap.EventCount())
}

func TestRefreshNoAccounts(t *testing.T) {
	svc := &fakeEvents{}
	c := NewEventListCache(svc, "alice", "", nil, nil)
	_, err := c.Refresh(context.Background(), NewSnapshot(), Query{})
	assert.ErrorIs(t, err, health.ErrNoAccountsSelected)
	assert.Empty(t, svc.requests)
}

func TestOlderRefreshDoesNotOverwriteNewer(t *testing.T) {
	slow := &fakeEvents{events: makeEvents(30), gate: make(chan struct{})}
	fast := &fakeEvents{events: makeEvents(2)}
	snap := NewSnapshot()
	q := Query{Accounts: []string{"111111111111"}}

	done := make(chan error, 1)
	go func() {
		_, err := NewEventListCache(slow, "alice", "", nil, nil).Refresh(context.Background(), snap, q)
		done <- err
	}()
	// wait until the slow refresh has registered itself
	require.Eventually(t, func() bool {
		slow.mu.Lock()
		defer slow.mu.Unlock()
		return len(slow.requests) == 1
	}, time.Second, 5*time.Millisecond)

	_, err := NewEventListCache(fast, "alice", "", nil, nil).Refresh(context.Background(), snap, q)
	require.NoError(t, err)

	close(slow.gate)
	assert.ErrorIs(t, <-done, health.ErrStaleSnapshot)
	assert.Equal(t, 2, snap.EventCount())
}
