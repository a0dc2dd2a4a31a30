package hashing

import (
	"context"
	"math"
	"reflect"
	"testing"

	"github.com/mwiater/ragchat/internal/rag"
)

var _ rag.Embedder = (*Embedder)(nil)

func TestEmbedShapeAndNorm(t *testing.T) {
	e := New(64)
	vectors, err := e.Embed(context.Background(), []string{"cats are great", "", "The the THE"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vectors) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(vectors))
	}
	for i, v := range vectors {
		if len(v) != 64 {
			t.Fatalf("vector %d has %d entries", i, len(v))
		}
	}
	var norm float64
	for _, x := range vectors[0] {
		norm += float64(x) * float64(x)
	}
	if math.Abs(norm-1) > 1e-5 {
		t.Fatalf("expected unit vector, norm^2=%f", norm)
	}
	for _, x := range vectors[2] {
		if x != 0 {
			t.Fatalf("expected zero vector for stopword-only text")
		}
	}
}

func TestEmbedDeterministic(t *testing.T) {
	a, _ := New(0).Embed(context.Background(), []string{"Vector stores hold embeddings"})
	b, _ := New(0).Embed(context.Background(), []string{"vector STORES hold embeddings"})
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("expected case-insensitive deterministic vectors")
	}
	if len(a[0]) != DefaultDimension {
		t.Fatalf("expected default dimension %d, got %d", DefaultDimension, len(a[0]))
	}
}

func TestEmbedRelatedTextScoresHigher(t *testing.T) {
	e := New(512)
	vectors, err := e.Embed(context.Background(), []string{"tell me about cats", "cats are great", "the weather is sunny"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	cats := rag.CosineSimilarity(vectors[0], vectors[1])
	weather := rag.CosineSimilarity(vectors[0], vectors[2])
	if cats <= weather {
		t.Fatalf("expected cats (%f) to beat weather (%f)", cats, weather)
	}
}

func TestEmbedHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(8).Embed(ctx, []string{"x"}); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestModelIncludesDimension(t *testing.T) {
	if got := New(256).Model(); got != "hashing-bow-256" {
		t.Fatalf("unexpected model %q", got)
	}
}
