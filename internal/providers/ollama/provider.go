// internal/providers/ollama/provider.go
// Package ollama provides a TextGenerator backed by an Ollama host's /api/generate endpoint.
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
	"github.com/mwiater/ragchat/internal/providers"
)

// Config configures a Provider.
type Config struct {
	Host         string
	Model        string
	SystemPrompt string
	MaxTokens    int
	Timeout      time.Duration
}

// Provider implements providers.TextGenerator using non-streaming generate requests.
type Provider struct {
	client       *http.Client
	host         string
	model        string
	systemPrompt string
	maxTokens    int
}

type generateResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	TotalDuration   int64  `json:"total_duration"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
	Error           string `json:"error,omitempty"`
}

// New constructs a Provider. The host defaults to a local Ollama install.
func New(cfg Config) (*Provider, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("ollama: model is required")
	}
	host := strings.TrimRight(strings.TrimSpace(cfg.Host), "/")
	if host == "" {
		host = "http://localhost:11434"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Provider{
		client: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{ForceAttemptHTTP2: false},
		},
		host:         host,
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		maxTokens:    cfg.MaxTokens,
	}, nil
}

// Name identifies the provider in logs and responses.
func (p *Provider) Name() string { return "ollama" }

// Generate sends prompt to /api/generate and returns the full response text.
func (p *Provider) Generate(ctx context.Context, prompt string, mode providers.Mode) (string, error) {
	settings := mode.Settings(p.maxTokens)
	payload := map[string]any{
		"model":  p.model,
		"prompt": prompt,
		"stream": false,
		"options": map[string]any{
			"temperature": settings.Temperature,
			"num_predict": settings.MaxTokens,
		},
	}
	if p.systemPrompt != "" {
		payload["system"] = p.systemPrompt
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	logging.LogRequest("RAGCHAT->LLM", p.host, p.model, map[string]any{"mode": mode.String(), "prompt_chars": len(prompt), "num_predict": settings.MaxTokens})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	logging.LogRequest("LLM->RAGCHAT", p.host, p.model, respBody)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama: /api/generate returned %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}

	var result generateResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("ollama: decode generate response: %w", err)
	}
	if result.Error != "" {
		return "", fmt.Errorf("ollama: %s", result.Error)
	}
	return strings.TrimSpace(result.Response), nil
}
