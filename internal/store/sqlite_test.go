package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ashfaaq98/health-console/internal/health"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleEvents(n int) []health.Event {
	events := make([]health.Event, n)
	for i := range events {
		events[i] = health.Event{
			EventArn:          "arn:aws:health:us-east-1::event/EC2/" + string(rune('a'+i)),
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

func TestNewStore(t *testing.T) {
	store := newTestStore(t)

	for _, table := range []string{"snapshots", "snapshot_events", "summaries"} {
		var count int
		err := store.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "table %s", table)
	}
}

func TestNewStoreCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "health.db")
	store, err := NewStore(path)
	require.NoError(t, err)
	defer store.Close()
	assert.FileExists(t, path)
}

func TestSaveAndLoadLatestSnapshot(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.SaveSnapshot(ctx, "alice", []string{"111111111111"}, nil, sampleEvents(2))
	require.NoError(t, err)

	filter := health.EventFilter{health.KeyService: {"EC2"}}
	id, err := store.SaveSnapshot(ctx, "alice", []string{"111111111111", "222222222222"}, filter, sampleEvents(3))
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	snap, err := store.LatestSnapshot(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, id, snap.ID)
	assert.Equal(t, []string{"111111111111", "222222222222"}, snap.Accounts)
	assert.Equal(t, filter, snap.Filter)
	assert.Equal(t, 3, snap.EventCount)
	assert.Equal(t, sampleEvents(3), snap.Events)
}

func TestLatestSnapshotNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.LatestSnapshot(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEmptySnapshot(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.SaveSnapshot(ctx, "bob", []string{"111111111111"}, nil, nil)
	require.NoError(t, err)

	snap, err := store.LatestSnapshot(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 0, snap.EventCount)
	assert.Empty(t, snap.Events)
	assert.Nil(t, snap.Filter)
}

func TestListAndPruneSnapshots(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := store.SaveSnapshot(ctx, "alice", []string{"1"}, nil, sampleEvents(i+1))
		require.NoError(t, err)
	}
	_, err := store.SaveSnapshot(ctx, "bob", []string{"1"}, nil, sampleEvents(1))
	require.NoError(t, err)

	list, err := store.ListSnapshots(ctx, "alice", 0)
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, 4, list[0].EventCount, "newest first")
	assert.Nil(t, list[0].Events)

	removed, err := store.PruneSnapshots(ctx, "alice", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	list, err = store.ListSnapshots(ctx, "alice", 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	var orphans int
	require.NoError(t, store.db.QueryRow(
		`SELECT COUNT(*) FROM snapshot_events WHERE snapshot_id NOT IN (SELECT id FROM snapshots)`).Scan(&orphans))
	assert.Equal(t, 0, orphans)

	bob, err := store.ListSnapshots(ctx, "bob", 10)
	require.NoError(t, err)
	assert.Len(t, bob, 1)
}

func TestSummaryHistory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	arn := "arn:aws:health:us-east-1::event/EC2/a"
	base := time.Now().Add(-time.Hour)

	_, err := store.SaveSummary(ctx, SummaryRecord{
		EventArn:  arn,
		UserID:    "alice",
		State:     "failed",
		Message:   "Error calling summarization service: timeout",
		Attempt:   1,
		CreatedAt: base,
	})
	require.NoError(t, err)

	_, err = store.SaveSummary(ctx, SummaryRecord{
		EventArn:  arn,
		UserID:    "alice",
		State:     "succeeded",
		Text:      "Summary:\nS",
		Attempt:   2,
		Metadata:  map[string]string{"backend": "api"},
		CreatedAt: base.Add(time.Minute),
	})
	require.NoError(t, err)

	_, err = store.SaveSummary(ctx, SummaryRecord{EventArn: "arn:other", State: "succeeded", Attempt: 1})
	require.NoError(t, err)

	records, err := store.ListSummaries(ctx, arn, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "succeeded", records[0].State)
	assert.Equal(t, "Summary:\nS", records[0].Text)
	assert.Equal(t, "api", records[0].Metadata["backend"])
	assert.Equal(t, "failed", records[1].State)
	assert.Equal(t, 1, records[1].Attempt)
	assert.Nil(t, records[1].Metadata)

	all, err := store.ListSummaries(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	limited, err := store.ListSummaries(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
