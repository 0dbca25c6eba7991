package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"
)

const defaultOpenRouterEndpoint = "https://openrouter.ai/api/v1"

// OpenRouter completes prompts through OpenRouter's OpenAI-compatible API.
type OpenRouter struct {
	base   string
	model  string
	key    string
	client *http.Client
	logger *log.Logger
}

// NewOpenRouter returns an OpenRouter provider. An empty apiKey falls back to
// OPENROUTER_API_KEY.
func NewOpenRouter(endpoint, model, apiKey string, logger *log.Logger) (*OpenRouter, error) {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		endpoint = defaultOpenRouterEndpoint
	}
	if apiKey = strings.TrimSpace(apiKey); apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY"))
	}
	if apiKey == "" {
		return nil, fmt.Errorf("openrouter: api_key missing (set it in the settings file or OPENROUTER_API_KEY)")
	}
	return &OpenRouter{
		base:   endpoint,
		model:  strings.TrimSpace(model),
		key:    apiKey,
		client: &http.Client{Timeout: time.Minute},
		logger: logger,
	}, nil
}

func (o *OpenRouter) Name() string { return "openrouter/" + o.model }

type orMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type orRequest struct {
	Model       string      `json:"model"`
	Messages    []orMessage `json:"messages"`
	MaxTokens   int         `json:"max_tokens,omitempty"`
	Temperature float64     `json:"temperature"`
}

type orResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		FinishReason string    `json:"finish_reason"`
		Message      orMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Code    interface{} `json:"code"`
		Message string      `json:"message"`
	} `json:"error"`
}

// Complete posts to /chat/completions with an optional system message.
func (o *OpenRouter) Complete(ctx context.Context, p Prompt) (*Completion, error) {
	if o.model == "" {
		return &Completion{Refusal: "openrouter: no model selected"}, nil
	}
	msgs := make([]orMessage, 0, 2)
	if p.System != "" {
		msgs = append(msgs, orMessage{Role: "system", Content: p.System})
	}
	msgs = append(msgs, orMessage{Role: "user", Content: p.User})

	started := time.Now()
	status, body, err := apiCall{
		method: http.MethodPost,
		url:    o.base + "/chat/completions",
		bearer: o.key,
		body:   orRequest{Model: o.model, Messages: msgs, MaxTokens: p.MaxTokens, Temperature: p.Temperature},
	}.do(ctx, o.client)
	if err != nil {
		return nil, fmt.Errorf("openrouter completion: %w", err)
	}

	var out orResponse
	decodeErr := json.Unmarshal(body, &out)
	switch {
	case decodeErr == nil && out.Error != nil:
		return &Completion{Model: o.model, Refusal: out.Error.Message}, nil
	case !success(status):
		return nil, fmt.Errorf("openrouter completion: status %d: %s", status, clip(string(body), 400))
	case decodeErr != nil:
		return nil, fmt.Errorf("openrouter completion: decode response: %w", decodeErr)
	case len(out.Choices) == 0:
		return &Completion{Model: o.model, Refusal: "openrouter: response had no choices"}, nil
	}

	choice := out.Choices[0]
	if choice.FinishReason == "content_filter" {
		return &Completion{Model: o.model, Refusal: "openrouter: blocked by content filter"}, nil
	}
	model := out.Model
	if model == "" {
		model = o.model
	}
	return &Completion{
		Text:         cleanOutput(choice.Message.Content),
		Model:        model,
		PromptTokens: out.Usage.PromptTokens,
		OutputTokens: out.Usage.CompletionTokens,
		Elapsed:      time.Since(started),
	}, nil
}

// ListModels returns the sorted model IDs OpenRouter offers.
func (o *OpenRouter) ListModels(ctx context.Context) ([]string, error) {
	status, body, err := apiCall{method: http.MethodGet, url: o.base + "/models", bearer: o.key}.do(ctx, o.client)
	if err != nil {
		return nil, fmt.Errorf("openrouter models: %w", err)
	}
	if !success(status) {
		return nil, fmt.Errorf("openrouter models: status %d: %s", status, clip(string(body), 300))
	}
	var list struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("openrouter models: decode: %w", err)
	}
	ids := make([]string, 0, len(list.Data))
	for _, m := range list.Data {
		if m.ID != "" {
			ids = append(ids, m.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// HealthCheck checks that the key is accepted.
func (o *OpenRouter) HealthCheck(ctx context.Context) error {
	_, err := o.ListModels(ctx)
	return err
}
