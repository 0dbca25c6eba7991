// Package api is the HTTP client for the health data backend: the account
// directory, the event query service, the detail service and the
// summarization endpoint.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// Endpoint paths, relative to the configured base URL.
const (
	PathAllowedAccounts = "/get_allowed_accounts"
	PathQueryEvents     = "/query_health_events"
	PathEventDetails    = "/query_event_details"
	PathSummarize       = "/query_bedrock"
)

// DefaultTimeout applies when Config.Timeout is zero.
const DefaultTimeout = 60 * time.Second

// Config configures a Client.
type Config struct {
	Endpoint string        // base URL, e.g. https://abc.execute-api.us-east-1.amazonaws.com/prod
	Timeout  time.Duration // per request
	ModelID  string        // summarization model; empty lets the service choose
}

// Client talks to the health data backend. It implements
// health.AccountDirectory, health.EventQueryService, health.DetailService
// and health.Summarizer.
type Client struct {
	endpoint   string
	modelID    string
	httpClient *http.Client
	logger     *log.Logger
}

// New constructs a Client.
func New(cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("api: endpoint is required")
	}
	if cfg.ModelID != "" && !IsAllowedModel(cfg.ModelID) {
		return nil, fmt.Errorf("api: model %q is not an allowed summarization model", cfg.ModelID)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Client{
		endpoint:   strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/"),
		modelID:    cfg.ModelID,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// APIError is a non-2xx response from the backend.
type APIError struct {
	Path       string
	StatusCode int
	Message    string // the service's message field, or a truncated body
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api %s: status %d: %s", e.Path, e.StatusCode, e.Message)
}

// envelope is the message field every backend response carries.
type envelope struct {
	Message string `json:"message"`
}

// post sends in as JSON to path and decodes a 2xx reply into out.
func (c *Client) post(ctx context.Context, path string, in, out interface{}) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("api %s: encode request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("api %s: build request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("api %s: request error: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("api %s: read response: %w", path, err)
	}
	c.logger.Printf("POST %s -> %d (%s)", path, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode/100 != 2 {
		msg := truncateString(strings.TrimSpace(string(body)), 300)
		var env envelope
		if json.Unmarshal(body, &env) == nil && env.Message != "" {
			msg = env.Message
		}
		return &APIError{Path: path, StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("api %s: decode response: %w", path, err)
	}
	return nil
}

// IsAPIError reports whether err is (or wraps) an *APIError.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
