package ragchat

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mwiater/ragchat/internal/tui"
)

func newTranscribeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Convert a recorded question to text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			audio, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read audio: %w", err)
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

			text, err := tui.WithSpinner(ctx, "Transcribing...", func(ctx context.Context) (string, error) {
				return assistant.Transcribe(ctx, audio, filepath.Base(args[0]))
			})
			if err != nil {
				return err
			}
			if text == "" {
				tui.Warn(cmd.ErrOrStderr(), "No speech recognised.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}
