package ragchat

import (
	"context"
	"fmt"

	"github.com/mwiater/ragchat/internal/chat"
	"github.com/mwiater/ragchat/internal/providerfactory"
	"github.com/mwiater/ragchat/internal/rag"
)

// newRetriever connects the configured embedder to the snapshot at cfg.IndexPath.
func (a *app) newRetriever(ctx context.Context) (*rag.Retriever, error) {
	embedder, err := providerfactory.NewEmbedder(ctx, &a.cfg)
	if err != nil {
		return nil, fmt.Errorf("embedding model: %w", err)
	}
	store, err := rag.NewStore(embedder)
	if err != nil {
		return nil, err
	}
	return rag.NewRetriever(store, rag.Options{
		IndexPath:    a.cfg.IndexPath,
		ChunkSize:    a.cfg.ChunkSize,
		ChunkOverlap: a.cfg.ChunkOverlap,
	})
}

// newAssistant wires retrieval, generation, web search and speech-to-text.
func (a *app) newAssistant(ctx context.Context, retriever chat.Retriever) (*chat.Assistant, error) {
	generator, err := providerfactory.NewTextGenerator(&a.cfg)
	if err != nil {
		return nil, fmt.Errorf("text generator: %w", err)
	}
	transcriber, err := providerfactory.NewTranscriber(&a.cfg)
	if err != nil {
		return nil, fmt.Errorf("transcriber: %w", err)
	}
	searcher, err := providerfactory.NewSearcher(ctx, &a.cfg)
	if err != nil {
		return nil, fmt.Errorf("web search: %w", err)
	}
	return chat.New(chat.Options{
		Retriever:   retriever,
		Searcher:    searcher,
		Generator:   generator,
		Transcriber: transcriber,
		TopK:        a.cfg.TopK,
		WebResults:  a.cfg.WebSearch.NumResults,
	})
}

func (a *app) timeoutContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, a.cfg.RequestTimeout())
}
