package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Ashfaaq98/health-console/internal/health"
)

var (
	_ health.AccountDirectory  = (*Client)(nil)
	_ health.EventQueryService = (*Client)(nil)
	_ health.DetailService     = (*Client)(nil)
	_ health.Summarizer        = (*Client)(nil)
)

// accountRef is one entry of allowed_accounts: an object carrying AccountId,
// or a bare account ID string.
type accountRef string

func (a *accountRef) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*a = accountRef(s)
		return nil
	}
	var obj struct {
		AccountID string `json:"AccountId"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	*a = accountRef(obj.AccountID)
	return nil
}

// AllowedAccounts returns the account IDs userID may query.
func (c *Client) AllowedAccounts(ctx context.Context, userID string) ([]string, error) {
	var resp struct {
		AllowedAccounts []accountRef `json:"allowed_accounts"`
	}
	if err := c.post(ctx, PathAllowedAccounts, map[string]string{"user_id": userID}, &resp); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(resp.AllowedAccounts))
	for _, a := range resp.AllowedAccounts {
		if a != "" {
			out = append(out, string(a))
		}
	}
	return out, nil
}

type queryEventsRequest struct {
	UserID   string                         `json:"user_id"`
	Accounts map[string]health.AccountQuery `json:"accounts"`
}

// QueryEvents returns every event matching the per-account queries.
func (c *Client) QueryEvents(ctx context.Context, userID string, accounts map[string]health.AccountQuery) ([]health.Event, error) {
	var resp struct {
		AllEvents []health.Event `json:"all_events"`
	}
	req := queryEventsRequest{UserID: userID, Accounts: accounts}
	if err := c.post(ctx, PathQueryEvents, req, &resp); err != nil {
		return nil, err
	}
	if resp.AllEvents == nil {
		return []health.Event{}, nil
	}
	return resp.AllEvents, nil
}

// QueryDetails returns the detail records and per-ARN failures for a batch.
func (c *Client) QueryDetails(ctx context.Context, eventArns []string) (health.DetailBatch, error) {
	var resp struct {
		EventDetails    []health.EventDetail   `json:"event_details"`
		FailedEventArns []health.DetailFailure `json:"failed_event_arns"`
	}
	if err := c.post(ctx, PathEventDetails, map[string][]string{"event_arns": eventArns}, &resp); err != nil {
		return health.DetailBatch{}, err
	}
	return health.DetailBatch{Details: resp.EventDetails, Failures: resp.FailedEventArns}, nil
}

type summarizeRequest struct {
	EventDesc        string   `json:"event_desc"`
	AffectedEntities []string `json:"affected_entities"`
	ModelID          string   `json:"model_id,omitempty"`
}

// QuerySummary asks the backend to summarize a description. Error replies
// from the service come back as health.SummaryRejected carrying the service
// message; only transport failures return an error.
func (c *Client) QuerySummary(ctx context.Context, description string, affectedEntities []string) (health.SummaryReply, error) {
	entities := affectedEntities
	if entities == nil {
		entities = []string{}
	}
	req := summarizeRequest{EventDesc: description, AffectedEntities: entities, ModelID: c.modelID}

	var resp struct {
		Result string `json:"result"`
	}
	err := c.post(ctx, PathSummarize, req, &resp)
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return health.SummaryReply{Status: health.SummaryRejected, Message: apiErr.Message}, nil
	case err != nil:
		return health.SummaryReply{}, fmt.Errorf("summarize: %w", err)
	}
	return health.SummaryReply{Status: health.SummaryOK, Result: resp.Result}, nil
}
