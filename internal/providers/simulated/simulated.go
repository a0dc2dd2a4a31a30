// Package simulated provides offline stand-ins for the text generator and transcriber.
package simulated

import (
	"context"
	"fmt"
	"strings"

	"github.com/mwiater/ragchat/internal/providers"
)

// Generator answers every prompt with a fixed marker naming the mode.
type Generator struct {
	name string
}

// NewGenerator returns a Generator labelled with name, e.g. "Perplexity".
func NewGenerator(name string) *Generator {
	if strings.TrimSpace(name) == "" {
		name = "LLM"
	}
	return &Generator{name: name}
}

// Name identifies the provider in logs and responses.
func (g *Generator) Name() string { return "simulated" }

// Generate ignores prompt and reports which mode was requested.
func (g *Generator) Generate(ctx context.Context, _ string, mode providers.Mode) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return fmt.Sprintf("[Simulated %s response for mode=%s]", g.name, mode), nil
}

// Transcriber returns a fixed transcript, or the audio bytes themselves when
// they are valid text.
type Transcriber struct {
	Transcript string
}

// Transcribe returns t.Transcript when set, otherwise the trimmed audio bytes.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if t.Transcript != "" {
		return t.Transcript, nil
	}
	return strings.TrimSpace(string(audio)), nil
}
