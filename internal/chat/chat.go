// Package chat runs the question-answering pipeline: retrieve, search, assemble, generate.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mwiater/ragchat/internal/logging"
	"github.com/mwiater/ragchat/internal/prompt"
	"github.com/mwiater/ragchat/internal/providers"
	"github.com/mwiater/ragchat/internal/rag"
	"github.com/mwiater/ragchat/internal/websearch"
)

const (
	// DefaultTopK is the number of chunks retrieved when a request does not say.
	DefaultTopK = 4
	// DefaultWebResults is the number of web hits requested when enabled.
	DefaultWebResults = 3
	// EmptyAnswerNotice replaces a blank completion.
	EmptyAnswerNotice = "The model returned an empty answer. Try rephrasing the question."
)

var (
	// ErrEmptyQuestion is returned when the question is blank.
	ErrEmptyQuestion = errors.New("question is empty")
	// ErrEmptyTranscript is returned when speech-to-text produced no words.
	ErrEmptyTranscript = errors.New("transcript is empty")
	// ErrTranscription wraps failures from the speech-to-text service.
	ErrTranscription = errors.New("transcription failed")
	// ErrNoTranscriber is returned by AskVoice when no transcriber is configured.
	ErrNoTranscriber = errors.New("voice input is not configured")
)

// Retriever returns the chunks most similar to a query. It never fails.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) []rag.Result
}

// Options wires an Assistant. Searcher and Transcriber are optional.
type Options struct {
	Retriever   Retriever
	Searcher    websearch.Searcher
	Generator   providers.TextGenerator
	Transcriber providers.Transcriber
	TopK        int
	WebResults  int
}

// Assistant answers questions. It keeps no state between calls.
type Assistant struct {
	retriever   Retriever
	searcher    websearch.Searcher
	generator   providers.TextGenerator
	transcriber providers.Transcriber
	topK        int
	webResults  int
}

// Request is a single question.
type Request struct {
	Question     string
	Mode         providers.Mode
	UseWebSearch bool
	TopK         int
}

// Response carries the answer and everything that went into it.
type Response struct {
	Question   string             `json:"question" yaml:"question"`
	Transcript string             `json:"transcript,omitempty" yaml:"transcript,omitempty"`
	Answer     string             `json:"answer" yaml:"answer"`
	Mode       providers.Mode     `json:"mode" yaml:"mode"`
	Provider   string             `json:"provider" yaml:"provider"`
	Prompt     string             `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	Retrieved  []rag.Result       `json:"retrieved" yaml:"retrieved"`
	Web        []websearch.Result `json:"web,omitempty" yaml:"web,omitempty"`
	Elapsed    time.Duration      `json:"elapsed_ns" yaml:"elapsed"`
}

// New validates opts and returns an Assistant.
func New(opts Options) (*Assistant, error) {
	if opts.Retriever == nil {
		return nil, errors.New("chat: retriever is required")
	}
	if opts.Generator == nil {
		return nil, errors.New("chat: generator is required")
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.WebResults <= 0 {
		opts.WebResults = DefaultWebResults
	}
	return &Assistant{
		retriever:   opts.Retriever,
		searcher:    opts.Searcher,
		generator:   opts.Generator,
		transcriber: opts.Transcriber,
		topK:        opts.TopK,
		webResults:  opts.WebResults,
	}, nil
}

// Ask answers req. Retrieval and web search run concurrently and never fail
// the request; a generator error is returned to the caller.
func (a *Assistant) Ask(ctx context.Context, req Request) (Response, error) {
	start := time.Now()
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return Response{}, ErrEmptyQuestion
	}
	mode := req.Mode
	if mode == "" {
		mode = providers.ModeDetailed
	}
	k := req.TopK
	if k <= 0 {
		k = a.topK
	}

	var (
		retrieved []rag.Result
		web       []websearch.Result
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		retrieved = a.retriever.Retrieve(gctx, question, k)
		return nil
	})
	if req.UseWebSearch {
		if a.searcher == nil {
			logging.LogWarn("[CHAT] web search requested but not configured")
		} else {
			g.Go(func() error {
				results, err := a.searcher.Search(gctx, question, a.webResults)
				if err != nil {
					logging.LogWarn("[CHAT] web search failed: %v", err)
					return nil
				}
				web = results
				return nil
			})
		}
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	assembled := prompt.Assemble(prompt.Input{
		Question:  question,
		Retrieved: retrieved,
		Web:       web,
		Mode:      mode,
	})

	answer, err := a.generator.Generate(ctx, assembled, mode)
	if err != nil {
		return Response{}, fmt.Errorf("generate answer with %s: %w", a.generator.Name(), err)
	}
	if strings.TrimSpace(answer) == "" {
		answer = EmptyAnswerNotice
	}
	logging.LogEvent("[CHAT] answered mode=%s retrieved=%d web=%d provider=%s", mode, len(retrieved), len(web), a.generator.Name())

	return Response{
		Question:  question,
		Answer:    answer,
		Mode:      mode,
		Provider:  a.generator.Name(),
		Prompt:    assembled,
		Retrieved: retrieved,
		Web:       web,
		Elapsed:   time.Since(start),
	}, nil
}

// AskVoice transcribes audio and answers the transcript. req.Question is ignored.
func (a *Assistant) AskVoice(ctx context.Context, audio []byte, filename string, req Request) (Response, error) {
	if a.transcriber == nil {
		return Response{}, ErrNoTranscriber
	}
	transcript, err := a.transcriber.Transcribe(ctx, audio, filename)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %w", ErrTranscription, err)
	}
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return Response{}, ErrEmptyTranscript
	}
	logging.LogEvent("[CHAT] transcribed %d bytes of audio: %q", len(audio), transcript)

	req.Question = transcript
	resp, err := a.Ask(ctx, req)
	if err != nil {
		return Response{Transcript: transcript}, err
	}
	resp.Transcript = transcript
	return resp, nil
}

// Transcribe exposes the configured transcriber on its own.
func (a *Assistant) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if a.transcriber == nil {
		return "", ErrNoTranscriber
	}
	text, err := a.transcriber.Transcribe(ctx, audio, filename)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTranscription, err)
	}
	return strings.TrimSpace(text), nil
}
