package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"strings"
	"testing"
)

type orRecorded struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

// newOpenRouterTestServer serves /chat/completions and /models. reply is
// returned as the assistant content; last receives the decoded request.
func newOpenRouterTestServer(t *testing.T, reply string, last *orRecorded) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); !strings.HasPrefix(got, "Bearer ") {
			http.Error(w, "missing auth", http.StatusUnauthorized)
			return
		}
		var body orRecorded
		_ = json.NewDecoder(r.Body).Decode(&body)
		if last != nil {
			*last = body
		}
		if body.Model == "over-quota" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusPaymentRequired)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]interface{}{"message": "Insufficient credits", "code": 402},
			})
			return
		}
		resp := map[string]interface{}{
			"id": "chatcmpl-test",
			"choices": []map[string]interface{}{
				{
					"index":         0,
					"finish_reason": "stop",
					"message":       map[string]string{"role": "assistant", "content": reply},
				},
			},
			"model": "test-model-2024",
			"usage": map[string]int{"prompt_tokens": 7, "completion_tokens": 3},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})

	mux.HandleFunc("/models", func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{
			"data": []map[string]string{{"id": "b-model"}, {"id": "a-model"}, {"id": "c-model"}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenRouterCompleteSuccess(t *testing.T) {
	var last orRecorded
	srv := newOpenRouterTestServer(t, "<think>hmm</think><Output><Summary>S</Summary></Output>", &last)

	provider, err := NewOpenRouter(srv.URL, "test-model", "testkey", nil)
	if err != nil {
		t.Fatalf("NewOpenRouter error: %v", err)
	}

	c, err := provider.Complete(context.Background(), Prompt{
		System:      "be brief",
		User:        "Hi",
		MaxTokens:   64,
		Temperature: 0.2,
	})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if c.Refusal != "" {
		t.Fatalf("unexpected refusal: %+v", c)
	}
	if c.Text != "<Output><Summary>S</Summary></Output>" {
		t.Errorf("thinking section not stripped: %q", c.Text)
	}
	if c.PromptTokens != 7 || c.OutputTokens != 3 || c.Model != "test-model-2024" {
		t.Errorf("unexpected usage: %+v", c)
	}
	if len(last.Messages) != 2 || last.Messages[0].Role != "system" || last.Messages[1].Content != "Hi" {
		t.Errorf("unexpected messages sent: %+v", last.Messages)
	}
	if last.MaxTokens != 64 || last.Temperature != 0.2 {
		t.Errorf("unexpected limits sent: %+v", last)
	}
}

func TestOpenRouterCompleteNoModel(t *testing.T) {
	provider, err := NewOpenRouter("https://example.com", "", "key", nil)
	if err != nil {
		t.Fatalf("NewOpenRouter error: %v", err)
	}
	c, err := provider.Complete(context.Background(), Prompt{User: "hi"})
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}
	if c == nil || c.Refusal == "" {
		t.Fatalf("expected a refusal for the empty model, got: %#v", c)
	}
}

func TestOpenRouterProviderErrorIsReported(t *testing.T) {
	srv := newOpenRouterTestServer(t, "", nil)
	provider, err := NewOpenRouter(srv.URL, "over-quota", "k", nil)
	if err != nil {
		t.Fatalf("NewOpenRouter error: %v", err)
	}
	c, err := provider.Complete(context.Background(), Prompt{User: "x"})
	if err != nil {
		t.Fatalf("expected a refusal, got transport error %v", err)
	}
	if c.Refusal != "Insufficient credits" {
		t.Errorf("unexpected refusal: %q", c.Refusal)
	}
}

func TestOpenRouterListModelsAndHealthCheck(t *testing.T) {
	srv := newOpenRouterTestServer(t, "", nil)

	provider, err := NewOpenRouter(srv.URL, "any-model", "testkey", nil)
	if err != nil {
		t.Fatalf("NewOpenRouter error: %v", err)
	}
	list, err := provider.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels error: %v", err)
	}
	if len(list) != 3 || !sort.StringsAreSorted(list) {
		t.Fatalf("expected 3 sorted models, got %v", list)
	}
	if err := provider.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck error: %v", err)
	}
}

func TestBuildOpenRouterWithEnvAPIKey(t *testing.T) {
	srv := newOpenRouterTestServer(t, "", nil)

	_ = os.Setenv("OPENROUTER_API_KEY", "env-key")
	defer os.Unsetenv("OPENROUTER_API_KEY")

	p, err := Build(ProviderConfig{Provider: "OpenRouter", Endpoint: srv.URL, Model: "m"}, nil)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if err := TryHealthCheck(context.Background(), p); err != nil {
		t.Fatalf("TryHealthCheck error: %v", err)
	}
	models, err := TryListModels(context.Background(), p)
	if err != nil || len(models) == 0 {
		t.Fatalf("TryListModels: %v %v", models, err)
	}
}

func TestBuildRejectsUnknownProvider(t *testing.T) {
	if _, err := Build(ProviderConfig{Provider: "bedrock"}, nil); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
	if _, err := Build(ProviderConfig{}, nil); err == nil {
		t.Fatalf("expected error for empty provider")
	}
	if err := TryHealthCheck(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil provider")
	}
}
