package health

import (
	"errors"
	"fmt"
)

var (
	// ErrNoAccountsSelected means the account scope resolved to nothing; no
	// query may be issued.
	ErrNoAccountsSelected = errors.New("no accounts selected for querying health events")

	// ErrEmptyResult means the query succeeded and matched no events.
	ErrEmptyResult = errors.New("no health events found")

	// ErrInvalidPage is returned for page numbers outside [1, totalPages].
	ErrInvalidPage = errors.New("invalid page number")

	// ErrStaleSnapshot means a result arrived for a snapshot that has since
	// been replaced by a refresh; it was discarded.
	ErrStaleSnapshot = errors.New("result belongs to a superseded snapshot")

	// ErrSummaryUnavailable means the event's detail fetch failed, so there is
	// no description to summarize.
	ErrSummaryUnavailable = errors.New("summary unavailable: event detail failed to load")

	// ErrNoDescription means the event has no loaded detail or an empty description.
	ErrNoDescription = errors.New("event description not loaded")

	// ErrDirectoryUnavailable wraps account directory failures.
	ErrDirectoryUnavailable = errors.New("account directory unavailable")
)

// DetailFetchError is a page-level detail failure. The page is not marked
// loaded, so re-requesting it retries the fetch.
type DetailFetchError struct {
	Page int
	Err  error
}

func (e *DetailFetchError) Error() string {
	return fmt.Sprintf("failed to load event details for page %d: %v", e.Page, e.Err)
}

func (e *DetailFetchError) Unwrap() error { return e.Err }

// SummarizationError is the failed terminal state of one summarization.
type SummarizationError struct {
	EventArn string
	Message  string
	Err      error
}

func (e *SummarizationError) Error() string {
	return fmt.Sprintf("summarize %s: %s", e.EventArn, e.Message)
}

func (e *SummarizationError) Unwrap() error { return e.Err }
