// internal/tui/render.go
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mwiater/ragchat/internal/chat"
	"github.com/mwiater/ragchat/internal/rag"
	"github.com/mwiater/ragchat/internal/util"
)

const (
	defaultWidth   = 100
	previewRunes   = 240
	promptMaxRunes = 4000
)

var (
	headerStyle    = lipgloss.NewStyle().Background(lipgloss.Color("62")).Foreground(lipgloss.Color("230")).Padding(0, 1)
	labelStyle     = lipgloss.NewStyle().Bold(true)
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	scoreStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("40"))
)

func normalizeWidth(width int) int {
	if width <= 20 {
		return defaultWidth
	}
	return width
}

// RenderResults formats retrieval hits as a numbered list with score and source.
func RenderResults(results []rag.Result, width int) string {
	width = normalizeWidth(width)
	if len(results) == 0 {
		return mutedStyle.Render("No matching chunks. Build the index with `ragchat index build` first.")
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Top %d chunks", len(results))))
	b.WriteString("\n")
	for _, r := range results {
		fmt.Fprintf(&b, "\n%s %s %s\n",
			labelStyle.Render(fmt.Sprintf("#%d", r.Rank)),
			scoreStyle.Render(fmt.Sprintf("score=%.3f", r.Score)),
			mutedStyle.Render(r.Metadata.Filename))
		text := util.TruncateRunes(strings.Join(strings.Fields(r.Text), " "), previewRunes)
		b.WriteString(util.WrapToWidth(text, width-2))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderAnswer formats a chat response for the terminal.
func RenderAnswer(resp chat.Response, width int, showPrompt bool) string {
	width = normalizeWidth(width)
	var b strings.Builder
	if resp.Transcript != "" {
		fmt.Fprintf(&b, "%s %s\n\n", labelStyle.Render("You said:"), resp.Transcript)
	}
	if showPrompt {
		b.WriteString(headerStyle.Render("Prompt"))
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(util.TruncateToWidth(util.TruncateRunes(resp.Prompt, promptMaxRunes), width)))
		b.WriteString("\n\n")
	}
	b.WriteString(assistantStyle.Render("Response:"))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Width(width).Render(resp.Answer))
	b.WriteString("\n\n")

	sources := make([]string, 0, len(resp.Retrieved))
	for _, r := range resp.Retrieved {
		sources = append(sources, fmt.Sprintf("%s (%.3f)", r.Metadata.Filename, r.Score))
	}
	footer := fmt.Sprintf("mode=%s provider=%s chunks=%d web=%d %.1fs", resp.Mode, resp.Provider, len(resp.Retrieved), len(resp.Web), resp.Elapsed.Seconds())
	if len(sources) > 0 {
		footer += " sources: " + strings.Join(sources, ", ")
	}
	b.WriteString(mutedStyle.Render(util.WrapToWidth(footer, width)))
	b.WriteString("\n")
	return b.String()
}

// RenderIndexStatus summarises the snapshot on disk.
func RenderIndexStatus(status rag.IndexStatus) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Vector store"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  Path:       %s\n", status.Path)
	if !status.Exists {
		b.WriteString(mutedStyle.Render("  No snapshot yet. Upload files first!"))
		b.WriteString("\n")
		return b.String()
	}
	fmt.Fprintf(&b, "  Chunks:     %d\n", status.Chunks)
	fmt.Fprintf(&b, "  Dimension:  %d\n", status.Dimension)
	fmt.Fprintf(&b, "  Model:      %s\n", status.Model)
	fmt.Fprintf(&b, "  Files:      %s\n", strings.Join(status.Files, ", "))
	return b.String()
}
