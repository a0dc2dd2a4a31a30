// Package websearch fetches live web results to complement document retrieval.
package websearch

import (
	"context"
	"errors"
)

// ErrMissingAPIKey is returned when a search backend has no credentials.
var ErrMissingAPIKey = errors.New("web search api key is not set")

// Result is a single organic search hit.
type Result struct {
	Title   string `json:"title" yaml:"title"`
	Snippet string `json:"snippet" yaml:"snippet"`
	Link    string `json:"link" yaml:"link"`
}

// Searcher returns up to n results for query.
type Searcher interface {
	Search(ctx context.Context, query string, n int) ([]Result, error)
}
