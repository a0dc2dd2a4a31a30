// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// defaultRequestTimeout is the default timeout for outbound HTTP requests.
	defaultRequestTimeout = 120 * time.Second
	// defaultLogFile is used when no log file is configured.
	defaultLogFile = "ragchat.log"
)

// Provider names accepted in configuration.
const (
	ProviderHashing    = "hashing"
	ProviderOpenAI     = "openai"
	ProviderOllama     = "ollama"
	ProviderPerplexity = "perplexity"
	ProviderSimulated  = "simulated"
	ProviderSerpAPI    = "serpapi"
	ProviderNone       = "none"
)

// Config represents the top-level application configuration.
type Config struct {
	IndexPath      string          `json:"indexPath" mapstructure:"indexPath"`
	ChunkSize      int             `json:"chunkSize" mapstructure:"chunkSize"`
	ChunkOverlap   int             `json:"chunkOverlap" mapstructure:"chunkOverlap"`
	TopK           int             `json:"topK" mapstructure:"topK"`
	Debug          bool            `json:"debug" mapstructure:"debug"`
	LogFile        string          `json:"logFile,omitempty" mapstructure:"logFile"`
	TimeoutSeconds int             `json:"timeout,omitempty" mapstructure:"timeout"`
	Embedding      EmbeddingConfig `json:"embedding" mapstructure:"embedding"`
	LLM            LLMConfig       `json:"llm" mapstructure:"llm"`
	WebSearch      WebSearchConfig `json:"webSearch" mapstructure:"webSearch"`
	Speech         SpeechConfig    `json:"speech" mapstructure:"speech"`
	Redis          RedisConfig     `json:"redis" mapstructure:"redis"`
	Server         ServerConfig    `json:"server" mapstructure:"server"`
	ConfigPath     string          `json:"-" mapstructure:"-"`
}

// EmbeddingConfig selects the embedding model used for indexing and queries.
type EmbeddingConfig struct {
	Provider  string `json:"provider" mapstructure:"provider"`
	Model     string `json:"model,omitempty" mapstructure:"model"`
	Host      string `json:"host,omitempty" mapstructure:"host"`
	BaseURL   string `json:"baseURL,omitempty" mapstructure:"baseURL"`
	APIKeyEnv string `json:"apiKeyEnv,omitempty" mapstructure:"apiKeyEnv"`
	Dimension int    `json:"dimension,omitempty" mapstructure:"dimension"`
}

// LLMConfig selects the text generator.
type LLMConfig struct {
	Provider     string `json:"provider" mapstructure:"provider"`
	Model        string `json:"model,omitempty" mapstructure:"model"`
	Host         string `json:"host,omitempty" mapstructure:"host"`
	BaseURL      string `json:"baseURL,omitempty" mapstructure:"baseURL"`
	APIKeyEnv    string `json:"apiKeyEnv,omitempty" mapstructure:"apiKeyEnv"`
	SystemPrompt string `json:"systemPrompt,omitempty" mapstructure:"systemPrompt"`
	MaxTokens    int    `json:"maxTokens,omitempty" mapstructure:"maxTokens"`
}

// WebSearchConfig configures the optional live web search.
type WebSearchConfig struct {
	Enabled         bool   `json:"enabled" mapstructure:"enabled"`
	Provider        string `json:"provider,omitempty" mapstructure:"provider"`
	BaseURL         string `json:"baseURL,omitempty" mapstructure:"baseURL"`
	APIKeyEnv       string `json:"apiKeyEnv,omitempty" mapstructure:"apiKeyEnv"`
	NumResults      int    `json:"numResults,omitempty" mapstructure:"numResults"`
	CacheTTLSeconds int    `json:"cacheTTL,omitempty" mapstructure:"cacheTTL"`
}

// SpeechConfig selects the speech-to-text service used for voice questions.
type SpeechConfig struct {
	Provider  string `json:"provider" mapstructure:"provider"`
	Model     string `json:"model,omitempty" mapstructure:"model"`
	BaseURL   string `json:"baseURL,omitempty" mapstructure:"baseURL"`
	APIKeyEnv string `json:"apiKeyEnv,omitempty" mapstructure:"apiKeyEnv"`
}

// RedisConfig points at the cache used for web search results. An empty Addr disables caching.
type RedisConfig struct {
	Addr        string `json:"addr,omitempty" mapstructure:"addr"`
	PasswordEnv string `json:"passwordEnv,omitempty" mapstructure:"passwordEnv"`
	DB          int    `json:"db,omitempty" mapstructure:"db"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr        string `json:"addr" mapstructure:"addr"`
	MaxUploadMB int    `json:"maxUploadMB,omitempty" mapstructure:"maxUploadMB"`
}

// Default returns a configuration that works offline: local hashing embeddings,
// the simulated generator, and no web search.
func Default() Config {
	return Config{
		IndexPath:      "vector_store.rag",
		ChunkSize:      800,
		ChunkOverlap:   100,
		TopK:           4,
		TimeoutSeconds: int(defaultRequestTimeout.Seconds()),
		Embedding: EmbeddingConfig{
			Provider:  ProviderHashing,
			Dimension: 1024,
		},
		LLM: LLMConfig{
			Provider:     ProviderSimulated,
			SystemPrompt: "You are a helpful assistant.",
			MaxTokens:    512,
		},
		WebSearch: WebSearchConfig{
			Provider:        ProviderSerpAPI,
			APIKeyEnv:       "SERPAPI_KEY",
			NumResults:      3,
			CacheTTLSeconds: 900,
		},
		Speech: SpeechConfig{
			Provider:  ProviderNone,
			Model:     "whisper-1",
			APIKeyEnv: "OPENAI_API_KEY",
		},
		Server: ServerConfig{
			Addr:        ":8080",
			MaxUploadMB: 32,
		},
	}
}

// RequestTimeout returns the timeout for outbound HTTP requests, falling back to the default if not specified.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return defaultLogFile
}

// CacheTTL returns how long web search results stay cached.
func (w WebSearchConfig) CacheTTL() time.Duration {
	if w.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(w.CacheTTLSeconds) * time.Second
}

// MaxUploadBytes returns the request body limit for uploads.
func (s ServerConfig) MaxUploadBytes() int64 {
	mb := s.MaxUploadMB
	if mb <= 0 {
		mb = 32
	}
	return int64(mb) << 20
}

// LLMAPIKeyEnv returns the environment variable holding the generator's API key.
func (c Config) LLMAPIKeyEnv() string {
	if env := strings.TrimSpace(c.LLM.APIKeyEnv); env != "" {
		return env
	}
	if strings.EqualFold(c.LLM.Provider, ProviderPerplexity) {
		return "PERPLEXITY_API_KEY"
	}
	return "OPENAI_API_KEY"
}

// Secret reads the named environment variable. An empty name yields "".
func Secret(env string) string {
	env = strings.TrimSpace(env)
	if env == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(env))
}

// Validate reports configuration values that would make the core misbehave.
func (c Config) Validate() error {
	var errs []error
	if c.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("chunkSize must be greater than zero, got %d", c.ChunkSize))
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		errs = append(errs, fmt.Errorf("chunkOverlap must be in [0, chunkSize), got %d", c.ChunkOverlap))
	}
	if c.TopK <= 0 {
		errs = append(errs, fmt.Errorf("topK must be greater than zero, got %d", c.TopK))
	}
	if strings.TrimSpace(c.IndexPath) == "" {
		errs = append(errs, errors.New("indexPath is required"))
	}
	if !oneOf(c.Embedding.Provider, ProviderHashing, ProviderOpenAI, ProviderOllama) {
		errs = append(errs, fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider))
	}
	if !oneOf(c.LLM.Provider, ProviderSimulated, ProviderOpenAI, ProviderPerplexity, ProviderOllama) {
		errs = append(errs, fmt.Errorf("unknown llm provider %q", c.LLM.Provider))
	}
	if c.WebSearch.Enabled && !oneOf(c.WebSearch.Provider, ProviderSerpAPI) {
		errs = append(errs, fmt.Errorf("unknown web search provider %q", c.WebSearch.Provider))
	}
	if !oneOf(c.Speech.Provider, ProviderNone, ProviderOpenAI, ProviderSimulated, "") {
		errs = append(errs, fmt.Errorf("unknown speech provider %q", c.Speech.Provider))
	}
	return errors.Join(errs...)
}

// Load reads the JSON configuration at path on top of Default.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}
	config, err := loadFromPath(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("no configuration file found at %q", path)
		}
		return Config{}, fmt.Errorf("could not read config file %q: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %q: %w", path, err)
	}
	config.ConfigPath = path
	return config, nil
}

// loadFromPath is a helper function that loads the configuration from a specific file path.
func loadFromPath(path string) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	config := Default()
	if err := json.NewDecoder(file).Decode(&config); err != nil {
		return Config{}, err
	}
	if config.TimeoutSeconds <= 0 {
		config.TimeoutSeconds = int(defaultRequestTimeout.Seconds())
	}
	return config, nil
}

func oneOf(value string, options ...string) bool {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, o := range options {
		if value == o {
			return true
		}
	}
	return false
}
