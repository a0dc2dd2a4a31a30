// internal/embedding/ollama/ollama.go
// Package ollama embeds text with an Ollama host's /api/embed endpoint.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mwiater/ragchat/internal/logging"
	"github.com/mwiater/ragchat/internal/rag"
)

const providerName = "ollama"

// DefaultHost is used when Config.Host is empty.
const DefaultHost = "http://localhost:11434"

// Config configures an Embedder.
type Config struct {
	Host    string
	Model   string
	Timeout time.Duration
}

// Embedder sends one batch request per Embed call.
type Embedder struct {
	client    *http.Client
	host      string
	model     string
	dimension int
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float32 `json:"embeddings"`
}

// New probes the host with a one-item batch to learn the model's dimension.
// Any failure is reported as a *rag.ModelUnavailableError.
func New(ctx context.Context, cfg Config) (*Embedder, error) {
	host := strings.TrimRight(strings.TrimSpace(cfg.Host), "/")
	if host == "" {
		host = DefaultHost
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, &rag.ModelUnavailableError{Provider: providerName, Err: fmt.Errorf("model name is empty")}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	e := &Embedder{
		client: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{ForceAttemptHTTP2: false},
		},
		host:  host,
		model: model,
	}
	probe, err := e.embed(ctx, []string{"probe"})
	if err != nil {
		return nil, &rag.ModelUnavailableError{Provider: providerName, Model: model, Err: err}
	}
	if len(probe) != 1 || len(probe[0]) == 0 {
		return nil, &rag.ModelUnavailableError{Provider: providerName, Model: model, Err: fmt.Errorf("probe returned no embedding")}
	}
	e.dimension = len(probe[0])
	return e, nil
}

// Dimension returns the width reported by the startup probe.
func (e *Embedder) Dimension() int { return e.dimension }

// Model returns the embedding model name.
func (e *Embedder) Model() string { return e.model }

// Embed embeds texts in a single request. Output i corresponds to texts[i].
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := e.embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("ollama: /api/embed returned %d embeddings for %d inputs", len(vectors), len(texts))
	}
	return vectors, nil
}

func (e *Embedder) embed(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, err
	}
	logging.LogRequest("RAGCHAT->EMBED", e.host, e.model, map[string]any{"inputs": len(texts)})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.host+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		logging.LogRequest("EMBED->RAGCHAT", e.host, e.model, respBody)
		return nil, fmt.Errorf("ollama: /api/embed returned %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}

	var parsed embedResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("ollama: decode /api/embed response: %w", err)
	}
	logging.LogRequest("EMBED->RAGCHAT", e.host, e.model, map[string]any{"embeddings": len(parsed.Embeddings)})
	return parsed.Embeddings, nil
}
