// internal/providerfactory/factory.go
package providerfactory

import (
	"context"
	"fmt"
	"strings"

	"github.com/mwiater/ragchat/internal/appconfig"
	"github.com/mwiater/ragchat/internal/embedding/hashing"
	ollamaembed "github.com/mwiater/ragchat/internal/embedding/ollama"
	openaiembed "github.com/mwiater/ragchat/internal/embedding/openai"
	"github.com/mwiater/ragchat/internal/logging"
	"github.com/mwiater/ragchat/internal/providers"
	"github.com/mwiater/ragchat/internal/providers/ollama"
	"github.com/mwiater/ragchat/internal/providers/openai"
	"github.com/mwiater/ragchat/internal/providers/simulated"
	"github.com/mwiater/ragchat/internal/rag"
	"github.com/mwiater/ragchat/internal/websearch"
)

// NewEmbedder selects the embedding model named by cfg.Embedding.
func NewEmbedder(ctx context.Context, cfg *appconfig.Config) (rag.Embedder, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config provided to provider factory")
	}
	ec := cfg.Embedding
	switch normalize(ec.Provider) {
	case appconfig.ProviderHashing, "":
		return hashing.New(ec.Dimension), nil
	case appconfig.ProviderOpenAI:
		env := ec.APIKeyEnv
		if env == "" {
			env = "OPENAI_API_KEY"
		}
		e, err := openaiembed.New(openaiembed.Config{
			APIKey:    appconfig.Secret(env),
			BaseURL:   ec.BaseURL,
			Model:     ec.Model,
			Dimension: ec.Dimension,
		})
		if err != nil {
			return nil, err
		}
		return e, nil
	case appconfig.ProviderOllama:
		e, err := ollamaembed.New(ctx, ollamaembed.Config{
			Host:    ec.Host,
			Model:   ec.Model,
			Timeout: cfg.RequestTimeout(),
		})
		if err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", ec.Provider)
	}
}

// NewTextGenerator selects the text generator named by cfg.LLM.
func NewTextGenerator(cfg *appconfig.Config) (providers.TextGenerator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config provided to provider factory")
	}
	lc := cfg.LLM
	oc := openai.Config{
		APIKey:       appconfig.Secret(cfg.LLMAPIKeyEnv()),
		BaseURL:      lc.BaseURL,
		Model:        lc.Model,
		SystemPrompt: lc.SystemPrompt,
		MaxTokens:    lc.MaxTokens,
	}
	var (
		gen providers.TextGenerator
		err error
	)
	switch normalize(lc.Provider) {
	case appconfig.ProviderSimulated, "":
		return simulated.NewGenerator("LLM"), nil
	case appconfig.ProviderOpenAI:
		gen, err = asGenerator(openai.NewGenerator(oc))
	case appconfig.ProviderPerplexity:
		gen, err = asGenerator(openai.NewPerplexity(oc))
	case appconfig.ProviderOllama:
		var p *ollama.Provider
		p, err = ollama.New(ollama.Config{
			Host:         lc.Host,
			Model:        lc.Model,
			SystemPrompt: lc.SystemPrompt,
			MaxTokens:    lc.MaxTokens,
			Timeout:      cfg.RequestTimeout(),
		})
		if err == nil {
			gen = p
		}
	default:
		return nil, fmt.Errorf("unknown llm provider %q", lc.Provider)
	}
	if err != nil {
		return nil, err
	}
	logging.LogEvent("text generator ready: %s", gen.Name())
	return gen, nil
}

func asGenerator(g *openai.Generator, err error) (providers.TextGenerator, error) {
	if err != nil {
		return nil, err
	}
	return g, nil
}

// NewTranscriber selects the speech-to-text service. It returns (nil, nil)
// when voice input is disabled.
func NewTranscriber(cfg *appconfig.Config) (providers.Transcriber, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config provided to provider factory")
	}
	sc := cfg.Speech
	switch normalize(sc.Provider) {
	case appconfig.ProviderNone, "":
		return nil, nil
	case appconfig.ProviderSimulated:
		return &simulated.Transcriber{}, nil
	case appconfig.ProviderOpenAI:
		t, err := openai.NewTranscriber(openai.Config{
			APIKey:  appconfig.Secret(sc.APIKeyEnv),
			BaseURL: sc.BaseURL,
			Model:   sc.Model,
		})
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unknown speech provider %q", sc.Provider)
	}
}

// NewSearcher returns the configured web searcher, or (nil, nil) when web
// search is disabled. When a Redis address is configured the searcher is
// wrapped with a result cache; an unreachable Redis only disables caching.
func NewSearcher(ctx context.Context, cfg *appconfig.Config) (websearch.Searcher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config provided to provider factory")
	}
	wc := cfg.WebSearch
	if !wc.Enabled {
		return nil, nil
	}
	if p := normalize(wc.Provider); p != appconfig.ProviderSerpAPI && p != "" {
		return nil, fmt.Errorf("unknown web search provider %q", wc.Provider)
	}
	searcher, err := websearch.NewSerpAPI(appconfig.Secret(wc.APIKeyEnv), wc.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", wc.APIKeyEnv, err)
	}
	if strings.TrimSpace(cfg.Redis.Addr) == "" {
		return searcher, nil
	}

	client, err := websearch.NewRedisClient(ctx, cfg.Redis.Addr, appconfig.Secret(cfg.Redis.PasswordEnv), cfg.Redis.DB)
	if err != nil {
		logging.LogWarn("[SEARCH] result cache disabled: %v", err)
		return searcher, nil
	}
	logging.LogEvent("[SEARCH] caching results in redis at %s", cfg.Redis.Addr)
	return websearch.NewCached(searcher, websearch.NewRedisCache(client, wc.CacheTTL())), nil
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
