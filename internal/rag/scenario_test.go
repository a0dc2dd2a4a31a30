package rag_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mwiater/ragchat/internal/embedding/hashing"
	"github.com/mwiater/ragchat/internal/rag"
)

func TestCatsOutrankWeather(t *testing.T) {
	store, err := rag.NewStore(hashing.New(0))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	path := filepath.Join(t.TempDir(), "vector_store.rag")
	chunks := []string{"cats are great", "the weather is sunny"}
	meta := []rag.Metadata{{Filename: "pets.txt"}, {Filename: "forecast.txt"}}
	if err := store.Build(context.Background(), chunks, meta, path); err != nil {
		t.Fatalf("Build: %v", err)
	}

	top, err := store.Search(context.Background(), "tell me about cats", 1, path)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(top) != 1 || top[0].Text != "cats are great" {
		t.Fatalf("expected cats chunk on top, got %+v", top)
	}

	all, err := store.Search(context.Background(), "tell me about cats", 2, path)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if all[0].Score <= all[1].Score {
		t.Fatalf("expected cats score %f above weather score %f", all[0].Score, all[1].Score)
	}
}

func TestBuildIndexThenRetrieveWithHashingEmbedder(t *testing.T) {
	store, err := rag.NewStore(hashing.New(256))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	r, err := rag.NewRetriever(store, rag.Options{IndexPath: filepath.Join(t.TempDir(), "idx.rag"), ChunkSize: 100, ChunkOverlap: 10})
	if err != nil {
		t.Fatalf("NewRetriever: %v", err)
	}
	docs := []rag.Document{
		{Filename: "go.md", Data: []byte("Goroutines are lightweight threads managed by the Go runtime.")},
		{Filename: "tea.md", Data: []byte("Green tea is steeped at lower temperatures than black tea.")},
	}
	result, err := r.BuildIndex(context.Background(), docs)
	if err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}
	if result.ChunkCount != 2 {
		t.Fatalf("expected 2 chunks, got %d", result.ChunkCount)
	}
	hits := r.Retrieve(context.Background(), "how are goroutines scheduled by the runtime", 1)
	if len(hits) != 1 || hits[0].Metadata.Filename != "go.md" {
		t.Fatalf("expected go.md hit, got %+v", hits)
	}
}
