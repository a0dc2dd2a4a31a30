// Package openai embeds text through an OpenAI-compatible /embeddings endpoint.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/mwiater/ragchat/internal/logging"
	"github.com/mwiater/ragchat/internal/rag"
)

const providerName = "openai"

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "text-embedding-3-small"

var knownDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// Config configures an Embedder.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	Dimension int
}

// Embedder sends one batch request per Embed call.
type Embedder struct {
	client    *goopenai.Client
	host      string
	model     string
	dimension int
}

// New validates cfg and returns an Embedder. A missing key or model is
// reported as a *rag.ModelUnavailableError.
func New(cfg Config) (*Embedder, error) {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &rag.ModelUnavailableError{Provider: providerName, Model: model, Err: errors.New("api key is not set")}
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		clientCfg.BaseURL = base
	}

	dim := cfg.Dimension
	if dim <= 0 {
		dim = knownDimensions[model]
	}
	return &Embedder{
		client:    goopenai.NewClientWithConfig(clientCfg),
		host:      clientCfg.BaseURL,
		model:     model,
		dimension: dim,
	}, nil
}

// Dimension returns the configured or well-known width for the model, or 0 when unknown.
func (e *Embedder) Dimension() int { return e.dimension }

// Model returns the embedding model name.
func (e *Embedder) Model() string { return e.model }

// Embed embeds texts in a single request. Output i corresponds to texts[i].
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	logging.LogRequest("RAGCHAT->EMBED", e.host, e.model, map[string]any{"inputs": len(texts)})

	resp, err := e.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
		Model: goopenai.EmbeddingModel(e.model),
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embeddings: got %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) || out[d.Index] != nil {
			return nil, fmt.Errorf("openai embeddings: unexpected index %d", d.Index)
		}
		v := make([]float32, len(d.Embedding))
		for i := range d.Embedding {
			v[i] = float32(d.Embedding[i])
		}
		out[d.Index] = v
	}
	logging.LogRequest("EMBED->RAGCHAT", e.host, e.model, map[string]any{"vectors": len(out), "dimension": len(out[0])})
	return out, nil
}
