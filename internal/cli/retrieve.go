package ragchat

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mwiater/ragchat/internal/rag"
	"github.com/mwiater/ragchat/internal/tui"
)

const formatContext = "context"

func newRetrieveCmd(a *app) *cobra.Command {
	var (
		k         int
		format    string
		maxTokens int
	)
	cmd := &cobra.Command{
		Use:   "retrieve <query>",
		Short: "Show the chunks most similar to a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := checkFormat(format, formatContext)
			if err != nil {
				return err
			}
			if k <= 0 {
				k = a.cfg.TopK
			}
			query := strings.Join(args, " ")

			ctx, cancel := a.timeoutContext(cmd.Context())
			defer cancel()
			retriever, err := a.newRetriever(ctx)
			if err != nil {
				return err
			}
			results, _ := tui.WithSpinner(ctx, "Searching...", func(ctx context.Context) ([]rag.Result, error) {
				return retriever.Retrieve(ctx, query, k), nil
			})
			if results == nil {
				results = []rag.Result{}
			}

			out := cmd.OutOrStdout()
			switch f {
			case formatText:
				fmt.Fprintln(out, tui.RenderResults(results, 0))
			case formatContext:
				block, tokens, sources := rag.FormatContext(results, maxTokens)
				fmt.Fprint(out, block)
				fmt.Fprintf(out, "(%d tokens from %d source(s))\n", tokens, sources)
			default:
				return writeStructured(out, f, results)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&k, "k", "k", 0, "number of chunks to return (default from config)")
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "output format: text, context, json or yaml")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "cap on words shown with --format context (0 = no cap)")
	return cmd
}
