// internal/providers/ollama/provider_test.go
package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mwiater/ragchat/internal/providers"
)

// TestProviderGenerateConcise verifies the request payload carries the concise
// sampling settings and that the response text is returned trimmed.
func TestProviderGenerateConcise(t *testing.T) {
	t.Parallel()

	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"llama3","response":"  short answer \n","done":true}`))
	}))
	defer server.Close()

	provider, err := New(Config{Host: server.URL, Model: "llama3", SystemPrompt: "be brief", MaxTokens: 1000})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := provider.Generate(context.Background(), "question?", providers.ModeConcise)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if out != "short answer" {
		t.Fatalf("unexpected output %q", out)
	}

	if payload["stream"] != false || payload["prompt"] != "question?" || payload["system"] != "be brief" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	options, ok := payload["options"].(map[string]any)
	if !ok {
		t.Fatalf("expected options object, got %T", payload["options"])
	}
	if options["num_predict"].(float64) != 200 {
		t.Fatalf("expected num_predict 200, got %v", options["num_predict"])
	}
	if temp := options["temperature"].(float64); temp < 0.19 || temp > 0.21 {
		t.Fatalf("expected temperature 0.2, got %v", temp)
	}
}

func TestProviderGenerateHTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model 'nope' not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	provider, err := New(Config{Host: server.URL, Model: "nope"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = provider.Generate(context.Background(), "hi", providers.ModeDetailed)
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected 404 error, got %v", err)
	}
}

func TestNewRequiresModel(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for empty model")
	}
}
