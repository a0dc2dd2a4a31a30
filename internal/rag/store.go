package rag

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// Store builds, loads and searches vector snapshots on disk.
type Store struct {
	embedder Embedder
	now      func() time.Time
}

// NewStore returns a Store that embeds chunks and queries with e.
func NewStore(e Embedder) (*Store, error) {
	if e == nil {
		return nil, errors.New("rag: embedder must not be nil")
	}
	return &Store{embedder: e, now: time.Now}, nil
}

// Embedder returns the embedder the store was built with.
func (s *Store) Embedder() Embedder { return s.embedder }

// Build embeds all chunks in a single batch and replaces the snapshot at path.
func (s *Store) Build(ctx context.Context, chunks []string, metadata []Metadata, path string) error {
	if len(chunks) != len(metadata) {
		return fmt.Errorf("%w: %d chunks, %d metadata", ErrLengthMismatch, len(chunks), len(metadata))
	}
	if len(chunks) == 0 {
		return ErrNoChunks
	}

	vectors, err := s.embedder.Embed(ctx, chunks)
	if err != nil {
		return fmt.Errorf("embed %d chunks: %w", len(chunks), err)
	}
	dim, err := checkBatch(vectors, len(chunks))
	if err != nil {
		return err
	}

	snap := &Snapshot{
		Version:    snapshotVersion,
		Model:      s.embedder.Model(),
		Dimension:  dim,
		CreatedAt:  s.now().UTC(),
		Embeddings: vectors,
		Texts:      append([]string(nil), chunks...),
		Metadata:   append([]Metadata(nil), metadata...),
	}
	return writeSnapshot(path, snap)
}

// Load reads the snapshot at path. A missing file yields (nil, nil).
func (s *Store) Load(path string) (*Snapshot, error) {
	return readSnapshot(path)
}

// Search ranks every stored chunk against query by cosine similarity and
// returns at most k results, best first. Equal scores keep snapshot order.
// A missing or empty snapshot yields no results and no error.
func (s *Store) Search(ctx context.Context, query string, k int, path string) ([]Result, error) {
	if k <= 0 {
		return nil, nil
	}
	snap, err := s.Load(path)
	if err != nil {
		return nil, err
	}
	if snap.Len() == 0 {
		return nil, nil
	}

	queryVec, err := EmbedOne(ctx, s.embedder, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(queryVec) != snap.Dimension {
		return nil, fmt.Errorf("%w: query has %d entries, snapshot %s has %d", ErrDimensionMismatch, len(queryVec), path, snap.Dimension)
	}
	return rank(snap, queryVec, k), nil
}

func rank(snap *Snapshot, queryVec []float32, k int) []Result {
	scores := make([]float64, len(snap.Embeddings))
	for i, v := range snap.Embeddings {
		scores[i] = CosineSimilarity(queryVec, v)
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if k > len(order) {
		k = len(order)
	}
	results := make([]Result, k)
	for r := 0; r < k; r++ {
		i := order[r]
		results[r] = Result{
			Rank:     r + 1,
			Text:     snap.Texts[i],
			Score:    scores[i],
			Metadata: snap.Metadata[i],
		}
	}
	return results
}

// CosineSimilarity returns dot(a,b)/(|a||b|) accumulated in float64.
// Mismatched lengths or a zero-norm operand score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
