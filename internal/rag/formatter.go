package rag

import (
	"fmt"
	"strings"
)

// FormatContext renders results as a compact preview block, one line per hit.
// maxTokens caps the whitespace-separated words included; zero means no cap.
// It returns the block, the words used, and the number of distinct source files.
func FormatContext(results []Result, maxTokens int) (string, int, int) {
	if len(results) == 0 {
		return "", 0, 0
	}
	if maxTokens < 0 {
		maxTokens = 0
	}

	var b strings.Builder
	b.WriteString("CONTEXT\n")

	used := 0
	remaining := maxTokens
	sources := make(map[string]struct{})

	for _, res := range results {
		text := strings.Join(strings.Fields(res.Text), " ")
		if text == "" {
			continue
		}
		if maxTokens > 0 {
			if remaining <= 0 {
				break
			}
			text = truncateToTokens(text, remaining)
		}

		tokens := estimateTokens(text)
		fmt.Fprintf(&b, "[%d doc:%s score=%.3f] %s\n", res.Rank, res.Metadata.Filename, res.Score, text)
		used += tokens
		if maxTokens > 0 {
			remaining -= tokens
		}
		sources[res.Metadata.Filename] = struct{}{}
	}

	return strings.TrimRight(b.String(), "\n"), used, len(sources)
}

func estimateTokens(text string) int {
	return len(strings.Fields(text))
}

func truncateToTokens(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	parts := strings.Fields(text)
	if len(parts) <= maxTokens {
		return text
	}
	return strings.Join(parts[:maxTokens], " ")
}
