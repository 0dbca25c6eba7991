package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ProviderConfig selects a provider and model.
type ProviderConfig struct {
	Provider string            `json:"provider" yaml:"provider"`
	Endpoint string            `json:"endpoint" yaml:"endpoint"`
	Model    string            `json:"model" yaml:"model"`
	APIKey   string            `json:"api_key" yaml:"api_key,omitempty"`
	Extra    map[string]string `json:"extra" yaml:"extra,omitempty"`
}

// Settings is the content of the LLM settings file.
type Settings struct {
	Active      ProviderConfig `json:"active" yaml:"active"`
	MaxTokens   int            `json:"max_tokens,omitempty" yaml:"max_tokens"`
	Temperature float64        `json:"temperature,omitempty" yaml:"temperature"`
}

// DefaultTemperature keeps summaries close to the source text.
const DefaultTemperature = 0.2

// providerDefaults maps each known provider to its default endpoint and
// model. An empty model means the operator must pick one.
var providerDefaults = map[string]ProviderConfig{
	"ollama":     {Endpoint: defaultOllamaEndpoint, Model: "qwen3:0.6b"},
	"openrouter": {Endpoint: defaultOpenRouterEndpoint},
}

func knownProviders() string {
	names := make([]string, 0, len(providerDefaults))
	for n := range providerDefaults {
		names = append(names, n)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// DefaultSettings targets a local Ollama daemon.
func DefaultSettings() Settings {
	s := Settings{}
	s.withDefaults()
	return s
}

// Normalize returns s with the provider name lowercased and missing
// endpoint, model and limits filled from the provider defaults.
func Normalize(s Settings) Settings {
	s.withDefaults()
	return s
}

func (s *Settings) withDefaults() {
	s.Active.Provider = strings.ToLower(strings.TrimSpace(s.Active.Provider))
	if s.Active.Provider == "" {
		s.Active.Provider = "ollama"
	}
	if d, ok := providerDefaults[s.Active.Provider]; ok {
		if s.Active.Endpoint == "" {
			s.Active.Endpoint = d.Endpoint
		}
		if s.Active.Model == "" {
			s.Active.Model = d.Model
		}
	}
	if s.Active.Extra == nil {
		s.Active.Extra = map[string]string{}
	}
	if s.MaxTokens <= 0 {
		s.MaxTokens = DefaultMaxTokens
	}
	if s.Temperature <= 0 {
		s.Temperature = DefaultTemperature
	}
}

// LoadSettings reads the settings file at path and fills provider defaults.
// A missing file yields DefaultSettings.
func LoadSettings(path string) (Settings, error) {
	if path == "" {
		return Settings{}, errors.New("llm settings: empty path")
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("llm settings: %w", err)
	}
	var s Settings
	if err := json.Unmarshal(b, &s); err != nil {
		return Settings{}, fmt.Errorf("llm settings: parse %s: %w", path, err)
	}
	s.withDefaults()
	return s, nil
}

// SaveSettings replaces the file at path with s. The file is written next to
// its destination and renamed into place with mode 0600, since it may hold an
// API key.
func SaveSettings(path string, s Settings) error {
	if path == "" {
		return errors.New("llm settings: empty path")
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("llm settings: encode: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("llm settings: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".llm_settings-*.json")
	if err != nil {
		return fmt.Errorf("llm settings: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("llm settings: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("llm settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("llm settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("llm settings: %w", err)
	}
	return nil
}
