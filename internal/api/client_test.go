package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ashfaaq98/health-console/internal/health"
)

func newBackend(t *testing.T, handlers map[string]http.HandlerFunc) *Client {
	t.Helper()
	mux := http.NewServeMux()
	for path, h := range handlers {
		mux.HandleFunc(path, h)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := New(Config{Endpoint: srv.URL + "/"}, nil)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{}, nil)
	assert.Error(t, err)

	_, err = New(Config{Endpoint: "http://x", ModelID: "gpt-4"}, nil)
	assert.Error(t, err)

	c, err := New(Config{Endpoint: "http://x", ModelID: DefaultModel}, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, c.modelID)
}

func TestAllowedAccounts(t *testing.T) {
	c := newBackend(t, map[string]http.HandlerFunc{
		PathAllowedAccounts: func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "alice", body["user_id"])
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"message": "Get allowed_accounts successfully",
				"allowed_accounts": []interface{}{
					map[string]string{"AccountId": "111111111111", "AccountName": "prod"},
					"222222222222",
				},
			})
		},
	})

	accounts, err := c.AllowedAccounts(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"111111111111", "222222222222"}, accounts)
}

func TestQueryEvents(t *testing.T) {
	c := newBackend(t, map[string]http.HandlerFunc{
		PathQueryEvents: func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				UserID   string                         `json:"user_id"`
				Accounts map[string]health.AccountQuery `json:"accounts"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "alice", body.UserID)
			assert.Equal(t, health.EventFilter{health.KeyService: {"EC2"}}, body.Accounts["111111111111"].EventFilter)
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"all_events": []map[string]string{
					{"EventArn": "arn:1", "AccountId": "111111111111", "Service": "EC2", "StatusCode": "open"},
				},
			})
		},
	})

	events, err := c.QueryEvents(context.Background(), "alice", map[string]health.AccountQuery{
		"111111111111": {CrossAccountRole: health.DefaultCrossAccountRole, EventFilter: health.EventFilter{health.KeyService: {"EC2"}}},
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "arn:1", events[0].EventArn)
	assert.Equal(t, "open", events[0].StatusCode)
}

func TestQueryEventsEmpty(t *testing.T) {
	c := newBackend(t, map[string]http.HandlerFunc{
		PathQueryEvents: func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]interface{}{"message": "ok"})
		},
	})
	events, err := c.QueryEvents(context.Background(), "alice", nil)
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestQueryDetails(t *testing.T) {
	c := newBackend(t, map[string]http.HandlerFunc{
		PathEventDetails: func(w http.ResponseWriter, r *http.Request) {
			var body map[string][]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, []string{"arn:1", "arn:2"}, body["event_arns"])
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"event_details": []map[string]interface{}{
					{"event_arn": "arn:1", "latest_description": "desc", "affected_entities": []string{"i-1"}},
				},
				"failed_event_arns": []map[string]string{
					{"event_arn": "arn:2", "reason": "AccessDenied"},
				},
			})
		},
	})

	batch, err := c.QueryDetails(context.Background(), []string{"arn:1", "arn:2"})
	require.NoError(t, err)
	require.Len(t, batch.Details, 1)
	assert.Equal(t, "desc", batch.Details[0].LatestDescription)
	assert.Equal(t, []string{"i-1"}, batch.Details[0].AffectedEntities)
	assert.Equal(t, []health.DetailFailure{{EventArn: "arn:2", Reason: "AccessDenied"}}, batch.Failures)
}

func TestServerErrorIsAPIError(t *testing.T) {
	c := newBackend(t, map[string]http.HandlerFunc{
		PathEventDetails: func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadGateway, map[string]string{"message": "upstream timeout"})
		},
	})

	_, err := c.QueryDetails(context.Background(), []string{"arn:1"})
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream timeout", apiErr.Message)
	assert.True(t, IsAPIError(err))
}

func TestQuerySummary(t *testing.T) {
	c := newBackend(t, map[string]http.HandlerFunc{
		PathSummarize: func(w http.ResponseWriter, r *http.Request) {
			var body summarizeRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "instance retirement", body.EventDesc)
			assert.Equal(t, []string{}, body.AffectedEntities)
			assert.Empty(t, body.ModelID)
			writeJSON(w, http.StatusOK, map[string]string{
				"message": "Model invocation successful",
				"result":  "<Output><Summary>S</Summary></Output>",
			})
		},
	})

	reply, err := c.QuerySummary(context.Background(), "instance retirement", nil)
	require.NoError(t, err)
	assert.Equal(t, health.SummaryOK, reply.Status)
	assert.Equal(t, "<Output><Summary>S</Summary></Output>", reply.Result)
}

func TestQuerySummaryRejected(t *testing.T) {
	c := newBackend(t, map[string]http.HandlerFunc{
		PathSummarize: func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"message": "ThrottlingException: Too many requests, please wait before trying again.",
			})
		},
	})

	reply, err := c.QuerySummary(context.Background(), "desc", []string{"i-1"})
	require.NoError(t, err)
	assert.Equal(t, health.SummaryRejected, reply.Status)
	assert.Equal(t, "ThrottlingException: Too many requests, please wait before trying again.", reply.Message)
}

func TestQuerySummaryTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(Config{Endpoint: url}, nil)
	require.NoError(t, err)
	_, err = c.QuerySummary(context.Background(), "desc", nil)
	require.Error(t, err)
	assert.False(t, IsAPIError(err))
}

func TestIsAllowedModel(t *testing.T) {
	assert.True(t, IsAllowedModel(DefaultModel))
	assert.True(t, IsAllowedModel("anthropic.claude-3-haiku-20240307-v1:0"))
	assert.False(t, IsAllowedModel("anthropic.claude-v2"))
}
