package ai

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zhouzirui/ergodesk/backend/internal/config"
	"github.com/zhouzirui/ergodesk/backend/internal/model/chat"
)

const completionBody = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"created": 1700000000,
	"model": "test-model",
	"choices": [{"index": 0, "message": {"role": "assistant", "content": "Lower your desk by 2 inches."}, "finish_reason": "stop"}],
	"usage": {"prompt_tokens": 10, "completion_tokens": 8, "total_tokens": 18}
}`

func newCompletionServer(t *testing.T, status int, body string, captured *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		raw, _ := io.ReadAll(r.Body)
		if captured != nil {
			*captured = string(raw)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func openAIConfig(baseURL string) config.GeneratorConfig {
	return config.GeneratorConfig{
		Provider: config.ProviderOpenAI,
		APIKey:   "test-key",
		Model:    "test-model",
		BaseURL:  baseURL,
	}
}

func TestOpenAIGeneratorGenerate(t *testing.T) {
	var captured string
	srv := newCompletionServer(t, http.StatusOK, completionBody, &captured)

	gen, err := NewOpenAIGenerator(openAIConfig(srv.URL + "/v1"))
	if err != nil {
		t.Fatalf("NewOpenAIGenerator err: %v", err)
	}

	history := []chat.Turn{
		{Role: chat.RoleUser, Text: "I work from a sofa"},
		{Role: chat.RoleAssistant, Text: "Try a table instead."},
	}
	reply, err := gen.Generate(context.Background(), history, "My desk is too high")
	if err != nil {
		t.Fatalf("Generate err: %v", err)
	}
	if reply != "Lower your desk by 2 inches." {
		t.Fatalf("unexpected reply %q", reply)
	}

	for _, want := range []string{"I work from a sofa", "Try a table instead.", "My desk is too high", `"assistant"`} {
		if !strings.Contains(captured, want) {
			t.Fatalf("request body missing %q: %s", want, captured)
		}
	}
}

func TestOpenAIGeneratorProviderError(t *testing.T) {
	srv := newCompletionServer(t, http.StatusUnauthorized, `{"error":{"message":"invalid api key","type":"invalid_request_error"}}`, nil)

	gen, err := NewOpenAIGenerator(openAIConfig(srv.URL + "/v1"))
	if err != nil {
		t.Fatalf("NewOpenAIGenerator err: %v", err)
	}

	if _, err := gen.Generate(context.Background(), nil, "hello"); err == nil {
		t.Fatal("expected provider error")
	}
}

func TestNewGeneratorRejectsMissingCredential(t *testing.T) {
	cfg := config.GeneratorConfig{Provider: config.ProviderOpenAI, Model: "m"}

	_, err := NewGenerator(context.Background(), cfg)
	if !errors.Is(err, config.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}

func TestNewGeneratorSelectsOpenAI(t *testing.T) {
	gen, err := NewGenerator(context.Background(), openAIConfig("http://127.0.0.1:1/v1"))
	if err != nil {
		t.Fatalf("NewGenerator err: %v", err)
	}
	if _, ok := gen.(*OpenAIGenerator); !ok {
		t.Fatalf("expected *OpenAIGenerator, got %T", gen)
	}
}
