// Package prompt assembles the single-turn prompt sent to the text generator.
package prompt

import (
	"fmt"
	"strings"

	"github.com/mwiater/ragchat/internal/providers"
	"github.com/mwiater/ragchat/internal/rag"
	"github.com/mwiater/ragchat/internal/websearch"
)

const webHeader = "[WEB SEARCH RESULTS]"

// Input is everything the prompt is built from.
type Input struct {
	Question  string
	Retrieved []rag.Result
	Web       []websearch.Result
	Mode      providers.Mode
}

// Assemble renders in as the answer prompt. Empty sections are kept with no
// body so the layout never changes.
func Assemble(in Input) string {
	mode := in.Mode
	if mode == "" {
		mode = providers.ModeDetailed
	}

	var b strings.Builder
	b.WriteString("You are an AI assistant with RAG + Web Search.\n\n")
	b.WriteString("User Question:\n")
	b.WriteString(strings.TrimSpace(in.Question))
	b.WriteString("\n\nRetrieved Document Context:\n")
	b.WriteString(RetrievedContext(in.Retrieved))
	b.WriteString("\n\nWeb Search Context:\n")
	b.WriteString(WebContext(in.Web))
	fmt.Fprintf(&b, "\n\nResponse Mode: %s\n\n", mode)
	b.WriteString("Give the best possible answer.\n")
	return b.String()
}

// RetrievedContext renders each hit as "(score=0.123)" followed by its text,
// with hits separated by a blank line.
func RetrievedContext(results []rag.Result) string {
	blocks := make([]string, 0, len(results))
	for _, r := range results {
		blocks = append(blocks, fmt.Sprintf("(score=%.3f)\n%s", r.Score, r.Text))
	}
	return strings.Join(blocks, "\n\n")
}

// WebContext renders web hits under a marker line, or "" when there are none.
func WebContext(results []websearch.Result) string {
	if len(results) == 0 {
		return ""
	}
	blocks := make([]string, 0, len(results))
	for _, r := range results {
		var lines []string
		for _, field := range []string{r.Title, r.Snippet, r.Link} {
			if s := strings.TrimSpace(field); s != "" {
				lines = append(lines, s)
			}
		}
		if len(lines) > 0 {
			blocks = append(blocks, strings.Join(lines, "\n"))
		}
	}
	if len(blocks) == 0 {
		return ""
	}
	return "\n\n" + webHeader + "\n" + strings.Join(blocks, "\n\n")
}
