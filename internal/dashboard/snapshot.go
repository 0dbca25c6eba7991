package dashboard

import (
	"sort"
	"sync"

	"github.com/Ashfaaq98/health-console/internal/health"
)

// Delta is what one page load added to the snapshot.
type Delta struct {
	Details  map[string]health.EventDetail
	Failures map[string]string
}

// Empty reports whether the delta carries nothing.
func (d Delta) Empty() bool {
	return len(d.Details) == 0 && len(d.Failures) == 0
}

// Snapshot is the session state derived from the latest successful refresh:
// the event list, the accumulated per-ARN detail outcomes and the set of
// pages already fetched. An ARN is never in both the detail and failure maps.
type Snapshot struct {
	mu          sync.RWMutex
	generation  uint64
	refreshSeq  uint64
	events      []health.Event
	details     map[string]health.EventDetail
	failures    map[string]string
	pagesLoaded map[int]bool
	page        int
}

// NewSnapshot returns an empty snapshot at generation 0.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		details:     make(map[string]health.EventDetail),
		failures:    make(map[string]string),
		pagesLoaded: make(map[int]bool),
		page:        1,
	}
}

// Generation identifies the installed event list. It changes on every install.
func (s *Snapshot) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Events returns a copy of the event list.
func (s *Snapshot) Events() []health.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]health.Event(nil), s.events...)
}

// EventCount returns the number of events in the snapshot.
func (s *Snapshot) EventCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// TotalPages returns the page count of the event list.
func (s *Snapshot) TotalPages() int {
	return TotalPages(s.EventCount())
}

// Page returns the current page.
func (s *Snapshot) Page() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.page
}

// SetPage moves the cursor. Out of range pages are rejected.
func (s *Snapshot) SetPage(page int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, _, err := PageBounds(page, len(s.events)); err != nil {
		return err
	}
	s.page = page
	return nil
}

// PageEvents returns the events of page.
func (s *Snapshot) PageEvents(page int) ([]health.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start, end, err := PageBounds(page, len(s.events))
	if err != nil {
		return nil, err
	}
	return append([]health.Event(nil), s.events[start:end]...), nil
}

// Event looks up an event by ARN.
func (s *Snapshot) Event(arn string) (health.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.events {
		if e.EventArn == arn {
			return e, true
		}
	}
	return health.Event{}, false
}

// Detail returns the loaded detail for arn.
func (s *Snapshot) Detail(arn string) (health.EventDetail, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.details[arn]
	return d, ok
}

// Failure returns the recorded failure reason for arn.
func (s *Snapshot) Failure(arn string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.failures[arn]
	return r, ok
}

// PageLoaded reports whether page has been fetched in this snapshot.
func (s *Snapshot) PageLoaded(page int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pagesLoaded[page]
}

// PagesLoaded returns the fetched pages in ascending order.
func (s *Snapshot) PagesLoaded() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int, 0, len(s.pagesLoaded))
	for p := range s.pagesLoaded {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

// Counts returns the sizes of the detail and failure maps.
func (s *Snapshot) Counts() (details, failures int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.details), len(s.failures)
}

// beginRefresh registers a new refresh and returns its sequence number.
func (s *Snapshot) beginRefresh() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshSeq++
	return s.refreshSeq
}

// install replaces the event list and resets every derived cache. It is a
// no-op returning false when a later refresh has started since seq.
func (s *Snapshot) install(seq uint64, events []health.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.refreshSeq {
		return false
	}
	s.generation++
	s.events = append([]health.Event(nil), events...)
	s.details = make(map[string]health.EventDetail)
	s.failures = make(map[string]string)
	s.pagesLoaded = make(map[int]bool)
	s.page = 1
	return true
}

// pageRequest validates page and returns what a fetch for it needs.
func (s *Snapshot) pageRequest(page int) (gen uint64, arns []string, loaded bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start, end, err := PageBounds(page, len(s.events))
	if err != nil {
		return 0, nil, false, err
	}
	if s.pagesLoaded[page] {
		return s.generation, nil, true, nil
	}
	arns = make([]string, 0, end-start)
	for _, e := range s.events[start:end] {
		arns = append(arns, e.EventArn)
	}
	return s.generation, arns, false, nil
}

func (s *Snapshot) loadedAt(gen uint64, page int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation == gen && s.pagesLoaded[page]
}

// mergePage unions a page result into the maps and marks the page loaded.
// Results for an older generation are rejected with ErrStaleSnapshot.
func (s *Snapshot) mergePage(gen uint64, page int, d Delta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return health.ErrStaleSnapshot
	}
	for arn, detail := range d.Details {
		s.details[arn] = detail
		delete(s.failures, arn)
	}
	for arn, reason := range d.Failures {
		if _, ok := s.details[arn]; ok {
			continue
		}
		s.failures[arn] = reason
	}
	s.pagesLoaded[page] = true
	return nil
}
