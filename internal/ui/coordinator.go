package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/Ashfaaq98/health-console/internal/dashboard"
	"github.com/Ashfaaq98/health-console/internal/health"
)

// ArnDisplayWidth is the truncated width of an ARN in the event table.
const ArnDisplayWidth = 30

// DetailState is the load state of one row's detail record.
type DetailState int

const (
	DetailPending DetailState = iota
	DetailLoaded
	DetailFailed
)

// Row is one event table row of the current page.
type Row struct {
	Event    health.Event
	State    DetailState
	Reason   string // failure reason when State is DetailFailed
	Summary  dashboard.SummaryStatus
	Expanded bool
}

// Status is the transient status line.
type Status struct {
	Text    string
	IsError bool
	At      time.Time
}

// Coordinator keeps the presentation state of the dashboard on top of a
// session: which row is expanded, which ARNs are shown in full, and the
// last status message. It drives page loads when the page changes and
// summarization when the operator asks for it. Methods are safe to call
// from background goroutines.
type Coordinator struct {
	session *dashboard.Session
	logger  *log.Logger

	mu       sync.Mutex
	expanded string
	fullArn  map[string]bool
	status   Status
}

// NewCoordinator creates a coordinator for session.
func NewCoordinator(session *dashboard.Session, logger *log.Logger) *Coordinator {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Coordinator{session: session, logger: logger, fullArn: make(map[string]bool)}
}

// Session returns the underlying session.
func (c *Coordinator) Session() *dashboard.Session { return c.session }

// Status returns the last status message.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Coordinator) setStatus(text string, isError bool) {
	c.mu.Lock()
	c.status = Status{Text: text, IsError: isError, At: time.Now()}
	c.mu.Unlock()
}

// report sets the status from err, or from okText when err is nil, and
// returns err unchanged.
func (c *Coordinator) report(err error, okText string) error {
	if err == nil {
		c.setStatus(okText, false)
		return nil
	}
	msg, isError := dashboard.StatusLine(err)
	c.setStatus(msg, isError)
	if isError {
		c.logger.Printf("%s: %v", msg, err)
	}
	return err
}

// RefreshAccounts reloads the allowed accounts.
func (c *Coordinator) RefreshAccounts(ctx context.Context) ([]string, error) {
	accounts, err := c.session.RefreshAccounts(ctx)
	return accounts, c.report(err, fmt.Sprintf("Loaded %d allowed accounts.", len(accounts)))
}

// Refresh re-queries the event list. The expanded row is collapsed since
// it belongs to the old list.
func (c *Coordinator) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.expanded = ""
	c.mu.Unlock()

	events, err := c.session.Refresh(ctx)
	snap := c.session.Snapshot()
	return c.report(err, fmt.Sprintf("Loaded %d health events (%d pages).", len(events), snap.TotalPages()))
}

// SetFilter updates one filter field. The list is not re-queried until
// Refresh.
func (c *Coordinator) SetFilter(name, value string) error {
	if err := c.session.Filters().Set(name, value); err != nil {
		c.setStatus(err.Error(), true)
		return err
	}
	return nil
}

// ResetFilters sets every filter back to All.
func (c *Coordinator) ResetFilters() {
	c.session.Filters().Reset()
	c.setStatus("Filters reset.", false)
}

// GoToPage moves to page and loads its details when they are missing.
func (c *Coordinator) GoToPage(ctx context.Context, page int) error {
	_, err := c.session.GoToPage(ctx, page)
	snap := c.session.Snapshot()
	return c.report(err, fmt.Sprintf("Page %d of %d.", snap.Page(), snap.TotalPages()))
}

// NextPage moves one page forward. At the last page it only reports.
func (c *Coordinator) NextPage(ctx context.Context) error {
	snap := c.session.Snapshot()
	if snap.Page() >= snap.TotalPages() {
		c.setStatus(fmt.Sprintf("Already at last page (%d/%d).", snap.Page(), snap.TotalPages()), false)
		return nil
	}
	return c.GoToPage(ctx, snap.Page()+1)
}

// PrevPage moves one page back. At the first page it only reports.
func (c *Coordinator) PrevPage(ctx context.Context) error {
	snap := c.session.Snapshot()
	if snap.Page() <= 1 {
		c.setStatus("Already at first page.", false)
		return nil
	}
	return c.GoToPage(ctx, snap.Page()-1)
}

// RetryPage re-requests the current page's details. Pages that already
// loaded are not fetched again.
func (c *Coordinator) RetryPage(ctx context.Context) error {
	snap := c.session.Snapshot()
	if snap.EventCount() == 0 {
		return nil
	}
	_, err := c.session.LoadPage(ctx, snap.Page())
	return c.report(err, fmt.Sprintf("Page %d of %d.", snap.Page(), snap.TotalPages()))
}

// Toggle expands arn, or collapses it when it is already expanded. It
// returns the expanded ARN afterwards.
func (c *Coordinator) Toggle(arn string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.expanded == arn {
		c.expanded = ""
	} else {
		c.expanded = arn
	}
	return c.expanded
}

// Expanded returns the expanded ARN, or "".
func (c *Coordinator) Expanded() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expanded
}

// ToggleArn switches arn between truncated and full display.
func (c *Coordinator) ToggleArn(arn string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fullArn[arn] = !c.fullArn[arn]
}

// DisplayArn returns arn as the table shows it.
func (c *Coordinator) DisplayArn(arn string) string {
	c.mu.Lock()
	full := c.fullArn[arn]
	c.mu.Unlock()
	if full {
		return arn
	}
	return truncateString(arn, ArnDisplayWidth)
}

// Summarize starts a summary for arn.
func (c *Coordinator) Summarize(ctx context.Context, arn string) error {
	started, err := c.session.Summarize(ctx, arn)
	if err != nil {
		return c.report(err, "")
	}
	if !started {
		c.setStatus("Summary already loading.", false)
		return nil
	}
	c.setStatus("Summarizing event...", false)
	return nil
}

// SummaryAction describes what the summarize action offers for arn. When
// the detail failed the label is the failure reason and the action is
// disabled.
func (c *Coordinator) SummaryAction(arn string) (label string, enabled bool) {
	snap := c.session.Snapshot()
	if reason, failed := snap.Failure(arn); failed {
		return "Failure Reason: " + reason, false
	}
	d, ok := snap.Detail(arn)
	if !ok {
		return "Loading details...", false
	}
	if d.LatestDescription == "" {
		return "No description to summarize.", false
	}
	if c.session.Summaries().Status(arn).State == dashboard.SummaryLoading {
		return "Summarizing...", false
	}
	return "Summarize (s)", true
}

// Rows returns the rows of the current page.
func (c *Coordinator) Rows() []Row {
	snap := c.session.Snapshot()
	if snap.EventCount() == 0 {
		return nil
	}
	events, err := snap.PageEvents(snap.Page())
	if err != nil {
		return nil
	}
	expanded := c.Expanded()
	rows := make([]Row, 0, len(events))
	for _, ev := range events {
		row := Row{
			Event:    ev,
			Summary:  c.session.Summaries().Status(ev.EventArn),
			Expanded: ev.EventArn == expanded,
		}
		if reason, failed := snap.Failure(ev.EventArn); failed {
			row.State, row.Reason = DetailFailed, reason
		} else if _, ok := snap.Detail(ev.EventArn); ok {
			row.State = DetailLoaded
		}
		rows = append(rows, row)
	}
	return rows
}

// DetailField is one rendered field of a detail record.
type DetailField struct {
	Name  string
	Value string
}

// DetailFields returns the loaded detail of arn as sorted name/value pairs.
func (c *Coordinator) DetailFields(arn string) []DetailField {
	d, ok := c.session.Snapshot().Detail(arn)
	if !ok {
		return nil
	}
	names := d.FieldNames()
	out := make([]DetailField, 0, len(names))
	for _, name := range names {
		out = append(out, DetailField{Name: name, Value: health.FormatValue(d.Fields[name])})
	}
	return out
}

// FilterOptions returns the choices offered for a filter field: All,
// then the allowed accounts for the management account field, or the
// distinct values of the current list for the attribute fields. The
// current selection is always included.
func (c *Coordinator) FilterOptions(field string) []string {
	current, err := c.session.Filters().Get(field)
	if err != nil {
		return nil
	}

	var values []string
	if field == dashboard.FieldManagementAccount {
		values = c.session.Accounts().Accounts()
	} else {
		for _, ev := range c.session.Snapshot().Events() {
			values = append(values, eventAttr(ev, field))
		}
	}
	values = append(values, current)

	seen := map[string]bool{health.All: true, "": true}
	var distinct []string
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		distinct = append(distinct, v)
	}
	sort.Strings(distinct)
	return append([]string{health.All}, distinct...)
}

func eventAttr(ev health.Event, field string) string {
	switch field {
	case dashboard.FieldEventArn:
		return ev.EventArn
	case dashboard.FieldEventType:
		return ev.EventTypeCode
	case dashboard.FieldEventCategory:
		return ev.EventTypeCategory
	case dashboard.FieldEventStatus:
		return ev.StatusCode
	case dashboard.FieldService:
		return ev.Service
	case dashboard.FieldRegion:
		return ev.Region
	}
	return ""
}

// PageInfo returns the cursor, page count and event count.
func (c *Coordinator) PageInfo() (page, total, events int) {
	snap := c.session.Snapshot()
	return snap.Page(), snap.TotalPages(), snap.EventCount()
}

// IsStale reports whether err only means a newer refresh won.
func IsStale(err error) bool {
	return errors.Is(err, health.ErrStaleSnapshot)
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
