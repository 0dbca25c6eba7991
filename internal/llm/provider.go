// Package llm summarizes health events with a locally chosen model (Ollama
// or OpenRouter) instead of the backend summarization endpoint.
package llm

import (
	"context"
	"regexp"
	"strings"
	"time"
)

// Prompt is a single-turn completion request.
type Prompt struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Completion is what a provider answered. Refusal is set when the provider
// itself declined the request (unknown model, quota, moderation); transport
// and decoding failures are returned as errors instead.
type Completion struct {
	Text         string
	Model        string
	PromptTokens int
	OutputTokens int
	Refusal      string
	Elapsed      time.Duration
}

// Provider turns a prompt into text.
type Provider interface {
	Name() string
	Complete(ctx context.Context, p Prompt) (*Completion, error)
}

var reasoningBlock = regexp.MustCompile(`(?is)<\s*(think|thinking)\s*>.*?<\s*/\s*(think|thinking)\s*>`)

// cleanOutput drops reasoning blocks some models emit ahead of the answer.
func cleanOutput(s string) string {
	return strings.TrimSpace(reasoningBlock.ReplaceAllString(s, ""))
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
