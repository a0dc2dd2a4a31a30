// Package hashing provides a local, deterministic feature-hashing embedder.
package hashing

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ModelName identifies vectors produced by this embedder in snapshots.
const ModelName = "hashing-bow"

// DefaultDimension is used when New is given a non-positive dimension.
const DefaultDimension = 1024

var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)

// Embedder maps each token to a signed bucket and weights it by 1+log(tf).
// Vectors are L2 normalised. It holds no state beyond its configuration.
type Embedder struct {
	dimension int
	stopwords map[string]struct{}
}

// New returns an Embedder producing vectors of the given width.
func New(dimension int) *Embedder {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &Embedder{dimension: dimension, stopwords: defaultStopwords()}
}

// Dimension returns the width of every vector.
func (e *Embedder) Dimension() int { return e.dimension }

// Model returns a name that also encodes the width.
func (e *Embedder) Model() string { return fmt.Sprintf("%s-%d", ModelName, e.dimension) }

// Embed embeds every text. Output i corresponds to texts[i].
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.vector(text)
	}
	return out, nil
}

func (e *Embedder) vector(text string) []float32 {
	counts := make(map[string]int)
	for _, tok := range e.tokenize(text) {
		counts[tok]++
	}

	acc := make([]float64, e.dimension)
	for tok, n := range counts {
		h := xxhash.Sum64String(tok)
		idx := h % uint64(e.dimension)
		sign := 1.0
		if h>>63 == 1 {
			sign = -1.0
		}
		acc[idx] += sign * (1 + math.Log(float64(n)))
	}

	var norm float64
	for _, v := range acc {
		norm += v * v
	}
	vec := make([]float32, e.dimension)
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i, v := range acc {
		vec[i] = float32(v / norm)
	}
	return vec
}

func (e *Embedder) tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, stop := e.stopwords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by",
		"with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those",
		"from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about",
		"between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same",
		"too", "very", "can", "will", "just", "don", "should", "now", "me", "my", "i", "you", "your", "what",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
