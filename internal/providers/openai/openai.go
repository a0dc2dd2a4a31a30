// internal/providers/openai/openai.go
// Package openai provides chat completion and speech-to-text through any
// OpenAI-compatible API, including Perplexity.
package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/mwiater/ragchat/internal/logging"
	"github.com/mwiater/ragchat/internal/providers"
)

const (
	// DefaultModel is the chat model used against api.openai.com.
	DefaultModel = "gpt-4o-mini"
	// PerplexityBaseURL is the OpenAI-compatible Perplexity endpoint.
	PerplexityBaseURL = "https://api.perplexity.ai"
	// PerplexityModel is the default Perplexity model.
	PerplexityModel = "sonar-pro"
	// DefaultSystemPrompt is sent when no system prompt is configured.
	DefaultSystemPrompt = "You are a helpful assistant."
	// DefaultTranscriptionModel is the Whisper model used for voice input.
	DefaultTranscriptionModel = goopenai.Whisper1
)

// ErrMissingAPIKey is returned when no API key is available.
var ErrMissingAPIKey = errors.New("api key is not set")

// Config configures a Generator or Transcriber.
type Config struct {
	Name         string
	APIKey       string
	BaseURL      string
	Model        string
	SystemPrompt string
	MaxTokens    int
}

// Generator implements providers.TextGenerator with chat completions.
type Generator struct {
	client       *goopenai.Client
	name         string
	host         string
	model        string
	systemPrompt string
	maxTokens    int
}

func newClient(apiKey, baseURL string) (*goopenai.Client, string) {
	cfg := goopenai.DefaultConfig(apiKey)
	if base := strings.TrimRight(strings.TrimSpace(baseURL), "/"); base != "" {
		cfg.BaseURL = base
	}
	return goopenai.NewClientWithConfig(cfg), cfg.BaseURL
}

// NewGenerator validates cfg and returns a Generator.
func NewGenerator(cfg Config) (*Generator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%s: %w", nameOr(cfg.Name, "openai"), ErrMissingAPIKey)
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	system := cfg.SystemPrompt
	if strings.TrimSpace(system) == "" {
		system = DefaultSystemPrompt
	}
	client, host := newClient(cfg.APIKey, cfg.BaseURL)
	return &Generator{
		client:       client,
		name:         nameOr(cfg.Name, "openai"),
		host:         host,
		model:        model,
		systemPrompt: system,
		maxTokens:    cfg.MaxTokens,
	}, nil
}

// NewPerplexity returns a Generator for Perplexity's sonar models.
func NewPerplexity(cfg Config) (*Generator, error) {
	cfg.Name = "perplexity"
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = PerplexityBaseURL
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = PerplexityModel
	}
	return NewGenerator(cfg)
}

// Name identifies the provider in logs and responses.
func (g *Generator) Name() string { return g.name }

// Generate sends a system and user message and returns the first choice.
func (g *Generator) Generate(ctx context.Context, prompt string, mode providers.Mode) (string, error) {
	settings := mode.Settings(g.maxTokens)
	req := goopenai.ChatCompletionRequest{
		Model: g.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: g.systemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   settings.MaxTokens,
		Temperature: settings.Temperature,
	}
	logging.LogRequest("RAGCHAT->LLM", g.host, g.model, map[string]any{"mode": mode.String(), "prompt_chars": len(prompt), "max_tokens": settings.MaxTokens})

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s chat completion: %w", g.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: %w", g.name, providers.ErrEmptyCompletion)
	}
	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	logging.LogRequest("LLM->RAGCHAT", g.host, g.model, map[string]any{"chars": len(answer), "finish_reason": string(resp.Choices[0].FinishReason)})
	return answer, nil
}

// Transcriber implements providers.Transcriber with the audio transcription endpoint.
type Transcriber struct {
	client *goopenai.Client
	host   string
	model  string
}

// NewTranscriber validates cfg and returns a Transcriber.
func NewTranscriber(cfg Config) (*Transcriber, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("transcriber: %w", ErrMissingAPIKey)
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultTranscriptionModel
	}
	client, host := newClient(cfg.APIKey, cfg.BaseURL)
	return &Transcriber{client: client, host: host, model: model}, nil
}

// Transcribe uploads audio and returns the recognised text. filename only
// tells the service the container format and defaults to audio.wav.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if len(audio) == 0 {
		return "", errors.New("transcribe: audio is empty")
	}
	if strings.TrimSpace(filename) == "" {
		filename = "audio.wav"
	}
	logging.LogRequest("RAGCHAT->STT", t.host, t.model, map[string]any{"bytes": len(audio), "file": filepath.Base(filename)})

	resp, err := t.client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    t.model,
		FilePath: filepath.Base(filename),
		Reader:   bytes.NewReader(audio),
	})
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

func nameOr(name, fallback string) string {
	if strings.TrimSpace(name) == "" {
		return fallback
	}
	return name
}
