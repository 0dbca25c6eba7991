package ui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ashfaaq98/health-console/internal/dashboard"
	"github.com/Ashfaaq98/health-console/internal/health"
)

type stubDirectory struct{ accounts []string }

func (d stubDirectory) AllowedAccounts(context.Context, string) ([]string, error) {
	return d.accounts, nil
}

type stubEvents struct{ events []health.Event }

func (s stubEvents) QueryEvents(context.Context, string, map[string]health.AccountQuery) ([]health.Event, error) {
	return s.events, nil
}

type stubDetails struct {
	mu       sync.Mutex
	failures map[string]string
	calls    int
}

func (s *stubDetails) QueryDetails(_ context.Context, arns []string) (health.DetailBatch, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	var b health.DetailBatch
	for _, arn := range arns {
		if reason, ok := s.failures[arn]; ok {
			b.Failures = append(b.Failures, health.DetailFailure{EventArn: arn, Reason: reason})
			continue
		}
		b.Details = append(b.Details, health.EventDetail{
			EventArn:          arn,
			LatestDescription: "description of " + arn,
			AffectedEntities:  []string{"i-123"},
			Fields: map[string]any{
				"event_arn":          arn,
				"latest_description": "description of " + arn,
				"metadata":           map[string]any{"k": "v"},
			},
		})
	}
	return b, nil
}

type stubSummarizer struct{}

func (stubSummarizer) QuerySummary(context.Context, string, []string) (health.SummaryReply, error) {
	return health.SummaryReply{Status: health.SummaryOK, Result: "<Output><Summary>S</Summary><Action>A</Action></Output>"}, nil
}

func makeEvents(n int) []health.Event {
	events := make([]health.Event, n)
	for i := range events {
		events[i] = health.Event{
			EventArn:          fmt.Sprintf("arn:aws:health:us-east-1::event/EC2/AWS_EC2_OPERATIONAL_ISSUE/%d", i+1),
			AccountID:         "111111111111",
			Service:           []string{"EC2", "RDS"}[i%2],
			Region:            "us-east-1",
			EventTypeCode:     "AWS_EC2_OPERATIONAL_ISSUE",
			EventTypeCategory: "issue",
			StatusCode:        "open",
		}
	}
	return events
}

func newTestCoordinator(t *testing.T, n int, failures map[string]string) (*Coordinator, *stubDetails) {
	t.Helper()
	details := &stubDetails{failures: failures}
	session := dashboard.NewSession(dashboard.Services{
		Directory:  stubDirectory{accounts: []string{"111111111111"}},
		Events:     stubEvents{events: makeEvents(n)},
		Details:    details,
		Summarizer: stubSummarizer{},
	}, dashboard.Config{UserID: "alice"})
	return NewCoordinator(session, nil), details
}

func TestCoordinatorRefreshAndPaging(t *testing.T) {
	c, details := newTestCoordinator(t, 12, nil)
	ctx := context.Background()

	require.NoError(t, c.Refresh(ctx))
	assert.Equal(t, "Loaded 12 health events (2 pages).", c.Status().Text)

	rows := c.Rows()
	require.Len(t, rows, 10)
	for _, r := range rows {
		assert.Equal(t, DetailLoaded, r.State)
	}

	require.NoError(t, c.NextPage(ctx))
	assert.Len(t, c.Rows(), 2)
	assert.Equal(t, "Page 2 of 2.", c.Status().Text)

	require.NoError(t, c.NextPage(ctx))
	assert.Contains(t, c.Status().Text, "Already at last page")

	require.NoError(t, c.PrevPage(ctx))
	require.NoError(t, c.PrevPage(ctx))
	assert.Equal(t, "Already at first page.", c.Status().Text)

	// page 1 and page 2 each fetched once
	assert.Equal(t, 2, details.calls)
}

func TestCoordinatorFailedDetailShowsReason(t *testing.T) {
	failed := "arn:aws:health:us-east-1::event/EC2/AWS_EC2_OPERATIONAL_ISSUE/1"
	c, _ := newTestCoordinator(t, 3, map[string]string{failed: "AccessDenied"})
	ctx := context.Background()
	require.NoError(t, c.Refresh(ctx))

	rows := c.Rows()
	assert.Equal(t, DetailFailed, rows[0].State)
	assert.Equal(t, "AccessDenied", rows[0].Reason)

	label, enabled := c.SummaryAction(failed)
	assert.False(t, enabled)
	assert.Equal(t, "Failure Reason: AccessDenied", label)

	err := c.Summarize(ctx, failed)
	assert.ErrorIs(t, err, health.ErrSummaryUnavailable)
	assert.True(t, c.Status().IsError)
	assert.Equal(t, dashboard.SummaryAbsent, c.Session().Summaries().Status(failed).State)
}

func TestCoordinatorSummarize(t *testing.T) {
	c, _ := newTestCoordinator(t, 2, nil)
	ctx := context.Background()
	require.NoError(t, c.Refresh(ctx))

	arn := c.Rows()[1].Event.EventArn
	label, enabled := c.SummaryAction(arn)
	assert.True(t, enabled)
	assert.Equal(t, "Summarize (s)", label)

	require.NoError(t, c.Summarize(ctx, arn))
	st, err := c.Session().Summaries().Wait(ctx, arn)
	require.NoError(t, err)
	assert.Equal(t, dashboard.SummarySucceeded, st.State)
	assert.Equal(t, "Summary:\nS\n\nAction:\nA", st.Text)
	assert.Equal(t, dashboard.SummarySucceeded, c.Rows()[1].Summary.State)
}

func TestCoordinatorToggleAndArnDisplay(t *testing.T) {
	c, _ := newTestCoordinator(t, 1, nil)
	ctx := context.Background()
	require.NoError(t, c.Refresh(ctx))
	arn := c.Rows()[0].Event.EventArn

	assert.Equal(t, arn, c.Toggle(arn))
	assert.True(t, c.Rows()[0].Expanded)
	assert.Equal(t, "", c.Toggle(arn))

	assert.Equal(t, arn[:ArnDisplayWidth]+"...", c.DisplayArn(arn))
	c.ToggleArn(arn)
	assert.Equal(t, arn, c.DisplayArn(arn))
	assert.Equal(t, "short", c.DisplayArn("short"))

	c.Toggle(arn)
	require.NoError(t, c.Refresh(ctx))
	assert.Equal(t, "", c.Expanded(), "refresh collapses the expanded row")
}

func TestCoordinatorDetailFields(t *testing.T) {
	c, _ := newTestCoordinator(t, 1, nil)
	require.NoError(t, c.Refresh(context.Background()))
	arn := c.Rows()[0].Event.EventArn

	fields := c.DetailFields(arn)
	require.Len(t, fields, 3)
	assert.Equal(t, "event_arn", fields[0].Name)
	assert.Equal(t, "metadata", fields[2].Name)
	assert.Equal(t, `{"k":"v"}`, fields[2].Value)
	assert.Nil(t, c.DetailFields("arn:unknown"))
}

func TestCoordinatorFilterOptions(t *testing.T) {
	c, _ := newTestCoordinator(t, 4, nil)
	ctx := context.Background()
	require.NoError(t, c.Refresh(ctx))

	assert.Equal(t, []string{"All", "111111111111"}, c.FilterOptions(dashboard.FieldManagementAccount))
	assert.Equal(t, []string{"All", "EC2", "RDS"}, c.FilterOptions(dashboard.FieldService))

	require.NoError(t, c.SetFilter(dashboard.FieldRegion, "eu-west-1"))
	assert.Equal(t, []string{"All", "eu-west-1", "us-east-1"}, c.FilterOptions(dashboard.FieldRegion))

	assert.Error(t, c.SetFilter("severity", "high"))
	assert.Nil(t, c.FilterOptions("severity"))

	c.ResetFilters()
	assert.Equal(t, health.DefaultFilter(), c.Session().Filters().Current())
}

func TestCoordinatorEmptyResultIsInformational(t *testing.T) {
	c, _ := newTestCoordinator(t, 0, nil)
	err := c.Refresh(context.Background())
	assert.ErrorIs(t, err, health.ErrEmptyResult)
	assert.False(t, c.Status().IsError)
	assert.Equal(t, "No health events found for the selected filters.", c.Status().Text)
	assert.Nil(t, c.Rows())
}

func TestNewUIRendersWithoutRunning(t *testing.T) {
	c, _ := newTestCoordinator(t, 12, nil)
	require.NoError(t, c.Refresh(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	u := NewUI(ctx, c, Options{Theme: "light"}, nil)

	assert.Equal(t, "light", u.themeName)
	assert.Len(t, u.rows, 10)
	assert.Equal(t, len(tableHeaders), u.eventTable.GetColumnCount())
	assert.Equal(t, 11, u.eventTable.GetRowCount())

	stats := u.GetStats()
	assert.Equal(t, 12, stats["events_loaded"])
	assert.Equal(t, 2, stats["total_pages"])

	// Redraw is a no-op while the application is not running.
	u.Redraw()

	u.setTheme(nextTheme(u.themeName))
	assert.Equal(t, "neon", u.themeName)
	assert.True(t, strings.Contains(u.statusBar.GetText(true), "Theme: neon"))
}

func TestRenderDetailForExpandedRow(t *testing.T) {
	failed := "arn:aws:health:us-east-1::event/EC2/AWS_EC2_OPERATIONAL_ISSUE/2"
	c, _ := newTestCoordinator(t, 2, map[string]string{failed: "AccessDenied"})
	require.NoError(t, c.Refresh(context.Background()))

	u := NewUI(context.Background(), c, Options{}, nil)
	c.Toggle(failed)
	u.render()
	u.eventTable.Select(2, 0)
	u.renderDetail()

	text := u.detailView.GetText(true)
	assert.Contains(t, text, failed)
	assert.Contains(t, text, "Failure Reason: AccessDenied")
	assert.NotContains(t, text, "Summarize (s)")
}

func TestThemeCycle(t *testing.T) {
	name := "dark"
	seen := map[string]bool{}
	for range themeOrder {
		name = nextTheme(name)
		seen[name] = true
	}
	assert.Len(t, seen, len(themeOrder))
	assert.Equal(t, "dark", nextTheme("unknown"))

	got, _ := themeByName("nope")
	assert.Equal(t, "dark", got)
}
