package dashboard

import (
	"context"
	"errors"
	"io"
	"log"

	"github.com/Ashfaaq98/health-console/internal/health"
)

// Services bundles the remote collaborators of a session.
type Services struct {
	Directory  health.AccountDirectory
	Events     health.EventQueryService
	Details    health.DetailService
	Summarizer health.Summarizer
}

// Hooks are optional callbacks fired after state changes. They let the UI,
// the history store and the event bus observe the session without the core
// depending on them.
type Hooks struct {
	OnRefresh    func(q Query, events []health.Event)
	OnPageLoaded func(page int, d Delta)
	OnSummary    func(arn string, st SummaryStatus)
}

// Config configures a session.
type Config struct {
	UserID           string
	CrossAccountRole string
	Logger           *log.Logger
	Recorder         Recorder
	Hooks            Hooks
}

// Session ties the filter model, the account scope, the snapshot and the
// caches together for one user.
type Session struct {
	userID    string
	filters   *FilterModel
	accounts  *AccountScope
	snapshot  *Snapshot
	list      *EventListCache
	details   *DetailCache
	summaries *Summaries
	hooks     Hooks
	logger    *log.Logger
}

// NewSession wires a session over svc.
func NewSession(svc Services, cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Session{
		userID:    cfg.UserID,
		filters:   NewFilterModel(),
		accounts:  NewAccountScope(svc.Directory, cfg.UserID, logger),
		snapshot:  NewSnapshot(),
		list:      NewEventListCache(svc.Events, cfg.UserID, cfg.CrossAccountRole, logger, cfg.Recorder),
		details:   NewDetailCache(svc.Details, logger, cfg.Recorder),
		summaries: NewSummaries(svc.Summarizer, logger, cfg.Recorder),
		hooks:     cfg.Hooks,
		logger:    logger,
	}
	if cfg.Hooks.OnSummary != nil {
		s.summaries.OnSettled(cfg.Hooks.OnSummary)
	}
	return s
}

func (s *Session) UserID() string { return s.userID }
func (s *Session) Filters() *FilterModel { return s.filters }
func (s *Session) Accounts() *AccountScope { return s.accounts }
func (s *Session) Snapshot() *Snapshot { return s.snapshot }
func (s *Session) Summaries() *Summaries { return s.summaries }
func (s *Session) EventList() *EventListCache { return s.list }

// RefreshAccounts reloads the allowed accounts.
func (s *Session) RefreshAccounts(ctx context.Context) ([]string, error) {
	return s.accounts.Refresh(ctx)
}

// Refresh re-queries the event list with the current filters and loads the
// details of page 1. The accounts are loaded first if they never were.
// When page 1 fails to load, the events are still returned together with
// the *health.DetailFetchError.
func (s *Session) Refresh(ctx context.Context) ([]health.Event, error) {
	if !s.accounts.Loaded() && health.IsAll(s.filters.Current().ManagementAccount) {
		if _, err := s.accounts.Refresh(ctx); err != nil {
			return nil, err
		}
	}

	q, err := ComputeQuery(s.filters.Current(), s.accounts.Accounts())
	if err != nil {
		return nil, err
	}

	events, err := s.list.Refresh(ctx, s.snapshot, q)
	switch {
	case errors.Is(err, health.ErrEmptyResult):
		if s.hooks.OnRefresh != nil {
			s.hooks.OnRefresh(q, nil)
		}
		return nil, err
	case err != nil:
		return nil, err
	}
	if s.hooks.OnRefresh != nil {
		s.hooks.OnRefresh(q, events)
	}

	if _, err := s.LoadPage(ctx, 1); err != nil {
		return events, err
	}
	return events, nil
}

// LoadPage ensures the details of page are loaded without moving the cursor.
func (s *Session) LoadPage(ctx context.Context, page int) (Delta, error) {
	d, err := s.details.EnsurePage(ctx, s.snapshot, page)
	if err != nil {
		return Delta{}, err
	}
	if !d.Empty() && s.hooks.OnPageLoaded != nil {
		s.hooks.OnPageLoaded(page, d)
	}
	return d, nil
}

// GoToPage moves the cursor to page and loads its details.
func (s *Session) GoToPage(ctx context.Context, page int) (Delta, error) {
	if err := s.snapshot.SetPage(page); err != nil {
		return Delta{}, err
	}
	return s.LoadPage(ctx, page)
}

// NextPage and PrevPage move the cursor by one page.
func (s *Session) NextPage(ctx context.Context) (Delta, error) {
	return s.GoToPage(ctx, s.snapshot.Page()+1)
}

func (s *Session) PrevPage(ctx context.Context) (Delta, error) {
	return s.GoToPage(ctx, s.snapshot.Page()-1)
}

// Summarize starts a summary for arn using its loaded detail. It reports
// false when a summary for arn is already loading.
func (s *Session) Summarize(ctx context.Context, arn string) (bool, error) {
	if _, failed := s.snapshot.Failure(arn); failed {
		return false, health.ErrSummaryUnavailable
	}
	d, ok := s.snapshot.Detail(arn)
	if !ok || d.LatestDescription == "" {
		return false, health.ErrNoDescription
	}
	return s.summaries.Trigger(ctx, arn, d.LatestDescription, d.AffectedEntities), nil
}
