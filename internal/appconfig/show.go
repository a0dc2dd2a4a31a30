package appconfig

import (
	"fmt"
	"io"

	"github.com/k0kubun/pp"
)

// ShowConfig prints the current configuration summary. Secrets are never
// held in Config, only the names of the environment variables that carry them.
func ShowConfig(out io.Writer, cfg Config, debug bool) {
	if cfg.ConfigPath == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", cfg.ConfigPath)
	}

	if debug {
		pp.ColoringEnabled = false
		_, _ = pp.Fprintln(out, cfg)
		return
	}

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Debug:             %v\n", cfg.Debug)
	fmt.Fprintf(out, "  Log File:          %s\n", cfg.LogFilePath())
	fmt.Fprintf(out, "  Request Timeout:   %s\n", cfg.RequestTimeout())
	fmt.Fprintf(out, "  Index Path:        %s\n", cfg.IndexPath)
	fmt.Fprintf(out, "  Chunk Size:        %d\n", cfg.ChunkSize)
	fmt.Fprintf(out, "  Chunk Overlap:     %d\n", cfg.ChunkOverlap)
	fmt.Fprintf(out, "  Top K:             %d\n", cfg.TopK)
	fmt.Fprintf(out, "  Embedding:         %s %s\n", cfg.Embedding.Provider, cfg.Embedding.Model)
	fmt.Fprintf(out, "  LLM:               %s %s (max tokens %d)\n", cfg.LLM.Provider, cfg.LLM.Model, cfg.LLM.MaxTokens)
	fmt.Fprintf(out, "  LLM API Key Env:   %s (%s)\n", cfg.LLMAPIKeyEnv(), secretState(cfg.LLMAPIKeyEnv()))
	fmt.Fprintf(out, "  Web Search:        %v (%s, %d results)\n", cfg.WebSearch.Enabled, cfg.WebSearch.Provider, cfg.WebSearch.NumResults)
	if cfg.WebSearch.Enabled {
		fmt.Fprintf(out, "  Web Search Key:    %s (%s)\n", cfg.WebSearch.APIKeyEnv, secretState(cfg.WebSearch.APIKeyEnv))
	}
	fmt.Fprintf(out, "  Speech:            %s %s\n", cfg.Speech.Provider, cfg.Speech.Model)
	if cfg.Redis.Addr != "" {
		fmt.Fprintf(out, "  Redis:             %s db=%d\n", cfg.Redis.Addr, cfg.Redis.DB)
	}
	fmt.Fprintf(out, "  Server Address:    %s\n", cfg.Server.Addr)
}

func secretState(env string) string {
	if Secret(env) == "" {
		return "unset"
	}
	return "set"
}
