package llm

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/Ashfaaq98/health-console/internal/health"
)

// DefaultMaxTokens caps the length of a generated summary.
const DefaultMaxTokens = 2000

const systemPrompt = "You explain AWS Health events to cloud operators. Reply only with the requested <Output> block."

// Summarizer implements health.Summarizer on top of a Provider. The provider
// and its limits can be replaced while summaries are running; each request
// uses the values current when it started.
type Summarizer struct {
	mu       sync.RWMutex
	provider Provider
	settings Settings
	logger   *log.Logger
}

var _ health.Summarizer = (*Summarizer)(nil)

// NewSummarizer returns a summarizer using p with the default limits. p may
// be nil until Swap is called; summaries are rejected meanwhile.
func NewSummarizer(p Provider, logger *log.Logger) *Summarizer {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Summarizer{provider: p, settings: DefaultSettings(), logger: logger}
}

// Swap installs p with the token and temperature limits of s.
func (s *Summarizer) Swap(p Provider, settings Settings) {
	settings.withDefaults()
	s.mu.Lock()
	s.provider = p
	s.settings = settings
	s.mu.Unlock()
}

// Provider returns the installed provider, or nil.
func (s *Summarizer) Provider() Provider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.provider
}

// QuerySummary asks the provider for the tagged summary of one event.
// Refusals become health.SummaryRejected replies; transport failures are
// returned as errors.
func (s *Summarizer) QuerySummary(ctx context.Context, description string, affectedEntities []string) (health.SummaryReply, error) {
	s.mu.RLock()
	p, settings := s.provider, s.settings
	s.mu.RUnlock()
	if p == nil {
		return health.SummaryReply{Status: health.SummaryRejected, Message: "no LLM provider configured"}, nil
	}

	c, err := p.Complete(ctx, Prompt{
		System:      systemPrompt,
		User:        BuildPrompt(description, affectedEntities),
		MaxTokens:   settings.MaxTokens,
		Temperature: settings.Temperature,
	})
	if err != nil {
		return health.SummaryReply{}, fmt.Errorf("llm summarize: %w", err)
	}
	switch {
	case c == nil:
		return health.SummaryReply{Status: health.SummaryRejected, Message: p.Name() + " returned nothing"}, nil
	case c.Refusal != "":
		return health.SummaryReply{Status: health.SummaryRejected, Message: c.Refusal}, nil
	}
	s.logger.Printf("%s answered in %s (%d prompt, %d output tokens)",
		p.Name(), c.Elapsed.Round(time.Millisecond), c.PromptTokens, c.OutputTokens)
	return health.SummaryReply{Status: health.SummaryOK, Result: c.Text}, nil
}
