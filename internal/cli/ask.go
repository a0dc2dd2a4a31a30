package ragchat

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mwiater/ragchat/internal/chat"
	"github.com/mwiater/ragchat/internal/providers"
	"github.com/mwiater/ragchat/internal/tui"
)

type askOptions struct {
	mode       string
	web        bool
	k          int
	audio      string
	showPrompt bool
	format     string
}

// newAskCmd answers a typed question, or a spoken one with --audio.
func newAskCmd(a *app) *cobra.Command {
	var opts askOptions
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a question from the indexed documents and, optionally, the web",
		Args: func(cmd *cobra.Command, args []string) error {
			if opts.audio == "" && len(args) == 0 {
				return fmt.Errorf("a question or --audio is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAsk(cmd, strings.Join(args, " "), opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.mode, "mode", "m", string(providers.ModeDetailed), "response mode: concise or detailed")
	flags.BoolVarP(&opts.web, "web", "w", false, "add web search results to the prompt")
	flags.IntVarP(&opts.k, "k", "k", 0, "number of chunks to retrieve (default from config)")
	flags.StringVarP(&opts.audio, "audio", "a", "", "ask with a recorded question instead of text")
	flags.BoolVar(&opts.showPrompt, "show-prompt", false, "print the assembled prompt")
	flags.StringVarP(&opts.format, "format", "f", formatText, "output format: text, json or yaml")
	return cmd
}

func (a *app) runAsk(cmd *cobra.Command, question string, opts askOptions) error {
	mode, err := providers.ParseMode(opts.mode)
	if err != nil {
		return err
	}
	format, err := checkFormat(opts.format)
	if err != nil {
		return err
	}
	if opts.web && !a.cfg.WebSearch.Enabled {
		tui.Warn(cmd.ErrOrStderr(), "Web search is disabled in the configuration; answering from documents only.")
	}

	ctx, cancel := a.timeoutContext(cmd.Context())
	defer cancel()
	retriever, err := a.newRetriever(ctx)
	if err != nil {
		return err
	}
	assistant, err := a.newAssistant(ctx, retriever)
	if err != nil {
		return err
	}

	req := chat.Request{
		Question:     question,
		Mode:         mode,
		UseWebSearch: opts.web,
		TopK:         opts.k,
	}
	resp, err := tui.WithSpinner(ctx, "Thinking...", func(ctx context.Context) (chat.Response, error) {
		if opts.audio == "" {
			return assistant.Ask(ctx, req)
		}
		audio, err := os.ReadFile(opts.audio)
		if err != nil {
			return chat.Response{}, fmt.Errorf("read audio: %w", err)
		}
		return assistant.AskVoice(ctx, audio, filepath.Base(opts.audio), req)
	})
	if err != nil {
		if resp.Transcript != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "You said: %s\n", resp.Transcript)
		}
		return err
	}

	out := cmd.OutOrStdout()
	if format != formatText {
		if !opts.showPrompt {
			resp.Prompt = ""
		}
		return writeStructured(out, format, resp)
	}
	fmt.Fprint(out, tui.RenderAnswer(resp, 0, opts.showPrompt))
	return nil
}
