package rag

import (
	"context"
	"fmt"
)

// Embedder turns text into fixed-width vectors. Output i is the embedding of
// input i, and every vector has Dimension() entries. Implementations hold no
// per-call state and may be shared.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	Model() string
}

// EmbedOne embeds a single string as a batch of one.
func EmbedOne(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedder %s returned %d vectors for 1 input", e.Model(), len(vectors))
	}
	return vectors[0], nil
}

// checkBatch verifies the positional contract of an Embed call.
func checkBatch(vectors [][]float32, inputs int) (int, error) {
	if len(vectors) != inputs {
		return 0, fmt.Errorf("embedder returned %d vectors for %d inputs", len(vectors), inputs)
	}
	dim := 0
	for i, v := range vectors {
		if len(v) == 0 {
			return 0, fmt.Errorf("embedder returned empty vector at %d", i)
		}
		if i == 0 {
			dim = len(v)
			continue
		}
		if len(v) != dim {
			return 0, fmt.Errorf("%w: vector %d has %d entries, expected %d", ErrDimensionMismatch, i, len(v), dim)
		}
	}
	return dim, nil
}
