package health

import "context"

// AccountDirectory resolves which accounts a user may query.
type AccountDirectory interface {
	AllowedAccounts(ctx context.Context, userID string) ([]string, error)
}

// EventQueryService returns the full, unpaginated list of events matching
// the per-account queries. An empty slice with a nil error is a valid outcome.
type EventQueryService interface {
	QueryEvents(ctx context.Context, userID string, accounts map[string]AccountQuery) ([]Event, error)
}

// DetailService returns detail records or per-ARN failures for a batch of ARNs.
type DetailService interface {
	QueryDetails(ctx context.Context, eventArns []string) (DetailBatch, error)
}

// Summarizer produces a tagged natural-language summary of an event
// description. A non-nil error is a transport failure; service-side
// rejections come back as SummaryRejected.
type Summarizer interface {
	QuerySummary(ctx context.Context, description string, affectedEntities []string) (SummaryReply, error)
}
