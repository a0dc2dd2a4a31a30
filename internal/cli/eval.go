package ragchat

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwiater/ragchat/internal/accuracy"
	"github.com/mwiater/ragchat/internal/tui"
)

// newEvalCmd scores retrieval against a suite of questions with known sources.
func newEvalCmd(a *app) *cobra.Command {
	var (
		k           int
		concurrency int
		resultsDir  string
		format      string
	)
	cmd := &cobra.Command{
		Use:   "eval <suite.json>",
		Short: "Measure how often retrieval finds the expected documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := checkFormat(format)
			if err != nil {
				return err
			}
			suite, err := accuracy.LoadSuite(args[0])
			if err != nil {
				return err
			}
			if k <= 0 {
				k = a.cfg.TopK
			}

			ctx, cancel := a.timeoutContext(cmd.Context())
			defer cancel()
			retriever, err := a.newRetriever(ctx)
			if err != nil {
				return err
			}
			status, err := retriever.Status()
			if err != nil {
				return err
			}
			if !status.Exists {
				return fmt.Errorf("no index at %s: run `ragchat index build` first", status.Path)
			}

			results, summary, err := accuracy.Run(ctx, retriever, suite, accuracy.Options{
				TopK:        k,
				Concurrency: concurrency,
				Model:       status.Model,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if resultsDir != "" {
				path, err := accuracy.AppendResults(resultsDir, status.Model, results)
				if err != nil {
					return err
				}
				tui.Success(cmd.ErrOrStderr(), "Results appended to %s", path)
			}
			if f != formatText {
				return writeStructured(out, f, summary)
			}
			for _, r := range results {
				mark := "miss"
				if r.Correct {
					mark = fmt.Sprintf("hit@%d", r.FirstHitRank)
				}
				fmt.Fprintf(out, "[%d] %-7s %s\n", r.TestID, mark, r.Question)
			}
			fmt.Fprintf(out, "\nmodel=%s k=%d hit rate=%.2f (%d/%d) MRR=%.3f keyword coverage=%.2f\n",
				summary.Model, summary.TopK, summary.HitRate, summary.Hits, summary.Total, summary.MRR, summary.KeywordCoverage)
			return nil
		},
	}
	cmd.Flags().IntVarP(&k, "k", "k", 0, "chunks retrieved per question (default from config)")
	cmd.Flags().IntVar(&concurrency, "concurrency", accuracy.DefaultConcurrency, "questions evaluated in parallel")
	cmd.Flags().StringVar(&resultsDir, "results-dir", "", "append per-question results as JSON lines under this directory")
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "summary format: text, json or yaml")
	return cmd
}
