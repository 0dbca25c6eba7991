package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
)

// ErrNoDiscovery is returned by TryListModels for providers that cannot
// enumerate their models.
var ErrNoDiscovery = errors.New("provider does not support model discovery")

// Discovery is implemented by providers that can list models and check
// their own reachability.
type Discovery interface {
	ListModels(ctx context.Context) ([]string, error)
	HealthCheck(ctx context.Context) error
}

// Build returns the provider selected by cfg.
func Build(cfg ProviderConfig, logger *log.Logger) (Provider, error) {
	kind := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if _, known := providerDefaults[kind]; !known {
		if kind == "" {
			return nil, fmt.Errorf("no LLM provider selected (known: %s)", knownProviders())
		}
		return nil, fmt.Errorf("unknown LLM provider %q (known: %s)", cfg.Provider, knownProviders())
	}
	switch kind {
	case "openrouter":
		return NewOpenRouter(cfg.Endpoint, cfg.Model, cfg.APIKey, logger)
	default:
		return NewOllama(cfg.Endpoint, cfg.Model, logger)
	}
}

// TryHealthCheck runs p's health check if it has one. A nil provider is
// reported as unconfigured.
func TryHealthCheck(ctx context.Context, p Provider) error {
	if p == nil {
		return errors.New("no LLM provider configured")
	}
	if d, ok := p.(Discovery); ok {
		return d.HealthCheck(ctx)
	}
	return nil
}

// TryListModels lists p's models if it supports discovery.
func TryListModels(ctx context.Context, p Provider) ([]string, error) {
	if d, ok := p.(Discovery); ok {
		return d.ListModels(ctx)
	}
	return nil, ErrNoDiscovery
}
