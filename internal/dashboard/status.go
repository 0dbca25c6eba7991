package dashboard

import (
	"errors"
	"fmt"

	"github.com/Ashfaaq98/health-console/internal/health"
)

// StatusLine turns the outcome of a session operation into a one-line
// operator message. isError is false for informational outcomes such as an
// empty result.
func StatusLine(err error) (msg string, isError bool) {
	var fetchErr *health.DetailFetchError
	var sumErr *health.SummarizationError
	switch {
	case err == nil:
		return "", false
	case errors.Is(err, health.ErrEmptyResult):
		return "No health events found for the selected filters.", false
	case errors.Is(err, health.ErrNoAccountsSelected):
		return "No accounts selected for querying health events.", true
	case errors.Is(err, health.ErrStaleSnapshot):
		return "Results were superseded by a newer refresh.", false
	case errors.Is(err, health.ErrInvalidPage):
		return "Page out of range.", true
	case errors.Is(err, health.ErrSummaryUnavailable):
		return "Summary unavailable: the event details failed to load.", true
	case errors.Is(err, health.ErrNoDescription):
		return "Event description not loaded yet.", true
	case errors.As(err, &fetchErr):
		return fmt.Sprintf("Failed to load event details for page %d.", fetchErr.Page), true
	case errors.As(err, &sumErr):
		return sumErr.Message, true
	case errors.Is(err, health.ErrDirectoryUnavailable):
		return "Failed to load allowed accounts: " + err.Error(), true
	default:
		return "Failed to fetch health events: " + err.Error(), true
	}
}
