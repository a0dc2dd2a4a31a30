// internal/providers/provider.go

// Package providers defines the capabilities the answer pipeline needs from
// external services: text generation and speech-to-text. Each vendor is one
// implementation; callers depend only on these interfaces.
package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Mode controls answer length and creativity.
type Mode string

const (
	// ModeConcise asks for a short, focused answer.
	ModeConcise Mode = "concise"
	// ModeDetailed asks for a thorough answer.
	ModeDetailed Mode = "detailed"
)

const (
	// DefaultMaxTokens caps detailed answers when no limit is configured.
	DefaultMaxTokens = 512
	// conciseMaxTokens caps concise answers regardless of configuration.
	conciseMaxTokens = 200
)

// ErrUnknownMode is returned by ParseMode for unrecognised names.
var ErrUnknownMode = errors.New("unknown response mode")

// ErrEmptyCompletion is returned when a provider answers with no choices.
var ErrEmptyCompletion = errors.New("provider returned no completion")

// ParseMode maps a user-supplied name to a Mode. Empty input selects ModeDetailed.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ModeDetailed):
		return ModeDetailed, nil
	case string(ModeConcise):
		return ModeConcise, nil
	default:
		return "", fmt.Errorf("%w: %q (want concise or detailed)", ErrUnknownMode, s)
	}
}

func (m Mode) String() string { return string(m) }

// Settings holds the sampling parameters derived from a Mode.
type Settings struct {
	MaxTokens   int
	Temperature float32
}

// Settings returns the generation parameters for m. Concise answers use at most
// 200 tokens at temperature 0.2; detailed answers use maxTokens at 0.7.
func (m Mode) Settings(maxTokens int) Settings {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if m == ModeConcise {
		return Settings{MaxTokens: min(conciseMaxTokens, maxTokens), Temperature: 0.2}
	}
	return Settings{MaxTokens: maxTokens, Temperature: 0.7}
}

// TextGenerator produces a completion for an assembled prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, mode Mode) (string, error)
	Name() string
}

// Transcriber turns recorded speech into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}
