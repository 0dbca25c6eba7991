package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

const defaultOllamaEndpoint = "http://localhost:11434"

// Ollama completes prompts with a model served by a local Ollama daemon.
type Ollama struct {
	base   string
	model  string
	client *http.Client
	logger *log.Logger
}

// NewOllama returns a provider for the daemon at endpoint. model may be empty
// when the provider is only used to list models.
func NewOllama(endpoint, model string, logger *log.Logger) (*Ollama, error) {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return nil, fmt.Errorf("ollama: endpoint is required")
	}
	return &Ollama{
		base:   endpoint,
		model:  strings.TrimSpace(model),
		client: &http.Client{Timeout: 2 * time.Minute},
		logger: logger,
	}, nil
}

func (o *Ollama) Name() string { return "ollama/" + o.model }

type ollamaGenerate struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	System  string        `json:"system,omitempty"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature"`
}

type ollamaGenerated struct {
	Response        string `json:"response"`
	Error           string `json:"error"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
	DoneReason      string `json:"done_reason"`
}

// Complete runs a non-streaming /api/generate call.
func (o *Ollama) Complete(ctx context.Context, p Prompt) (*Completion, error) {
	if o.model == "" {
		return &Completion{Refusal: "ollama: no model selected"}, nil
	}
	started := time.Now()
	status, body, err := apiCall{
		method: http.MethodPost,
		url:    o.base + "/api/generate",
		body: ollamaGenerate{
			Model:   o.model,
			Prompt:  p.User,
			System:  p.System,
			Options: ollamaOptions{NumPredict: p.MaxTokens, Temperature: p.Temperature},
		},
	}.do(ctx, o.client)
	if err != nil {
		return nil, fmt.Errorf("ollama generate: %w", err)
	}

	var out ollamaGenerated
	decodeErr := json.Unmarshal(body, &out)
	if !success(status) {
		// unknown models come back as 404 {"error": "model ... not found"}
		if decodeErr == nil && out.Error != "" {
			return &Completion{Model: o.model, Refusal: "ollama: " + out.Error}, nil
		}
		return nil, fmt.Errorf("ollama generate: status %d: %s", status, clip(string(body), 300))
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("ollama generate: decode response: %w", decodeErr)
	}
	if out.Error != "" {
		return &Completion{Model: o.model, Refusal: "ollama: " + out.Error}, nil
	}
	if o.logger != nil && out.DoneReason == "length" {
		o.logger.Printf("ollama: %s stopped at the token limit (%d)", o.model, p.MaxTokens)
	}
	return &Completion{
		Text:         cleanOutput(out.Response),
		Model:        o.model,
		PromptTokens: out.PromptEvalCount,
		OutputTokens: out.EvalCount,
		Elapsed:      time.Since(started),
	}, nil
}

// ListModels returns the names of the locally pulled models.
func (o *Ollama) ListModels(ctx context.Context) ([]string, error) {
	status, body, err := apiCall{method: http.MethodGet, url: o.base + "/api/tags"}.do(ctx, o.client)
	if err != nil {
		return nil, fmt.Errorf("ollama tags: %w", err)
	}
	if !success(status) {
		return nil, fmt.Errorf("ollama tags: status %d: %s", status, clip(string(body), 200))
	}
	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.Unmarshal(body, &tags); err != nil {
		return nil, fmt.Errorf("ollama tags: decode: %w", err)
	}
	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		if m.Name != "" {
			names = append(names, m.Name)
		}
	}
	return names, nil
}

// HealthCheck verifies the daemon answers and has the selected model pulled.
func (o *Ollama) HealthCheck(ctx context.Context) error {
	names, err := o.ListModels(ctx)
	if err != nil {
		return err
	}
	if o.model == "" {
		return nil
	}
	for _, n := range names {
		if n == o.model || strings.TrimSuffix(n, ":latest") == o.model {
			return nil
		}
	}
	return fmt.Errorf("ollama: model %q is not pulled (run: ollama pull %s)", o.model, o.model)
}
