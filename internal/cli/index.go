package ragchat

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mwiater/ragchat/internal/rag"
	"github.com/mwiater/ragchat/internal/tui"
	"github.com/mwiater/ragchat/internal/util"
)

func newIndexCmd(a *app) *cobra.Command {
	indexCmd := &cobra.Command{
		Use:   "index",
		Short: "Build or inspect the vector store",
	}
	indexCmd.AddCommand(newIndexBuildCmd(a), newIndexStatusCmd(a))
	return indexCmd
}

// newIndexBuildCmd replaces the snapshot with the chunks of the given files.
// Directories are searched for .txt, .md and .pdf files.
func newIndexBuildCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "build <file-or-dir>...",
		Short: "Chunk, embed and store documents, replacing the current index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := util.ExpandPaths(args, util.DocumentExtensions)
			if err != nil {
				return err
			}
			docs, err := readDocuments(paths)
			if err != nil {
				return err
			}

			ctx, cancel := a.timeoutContext(cmd.Context())
			defer cancel()
			retriever, err := a.newRetriever(ctx)
			if err != nil {
				return err
			}

			label := fmt.Sprintf("Indexing %d file(s)...", len(docs))
			result, err := tui.WithSpinner(ctx, label, func(ctx context.Context) (rag.BuildResult, error) {
				return retriever.BuildIndex(ctx, docs)
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, de := range result.Errors {
				tui.Warn(out, "Skipped %s: %v", de.Filename, de.Err)
			}
			if result.ChunkCount == 0 {
				tui.Warn(out, "Upload files first! No text could be indexed.")
				return nil
			}
			tui.Success(out, "Vector store built with %d chunks!", result.ChunkCount)
			if a.cfg.Debug {
				for _, p := range paths {
					name := filepath.Base(p)
					if n, ok := result.PerFile[name]; ok {
						fmt.Fprintf(out, "  %s: %d chunks\n", name, n)
					}
				}
			}
			return nil
		},
	}
}

func newIndexStatusCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show what the current snapshot holds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := checkFormat(format)
			if err != nil {
				return err
			}
			status, err := rag.ReadStatus(a.cfg.IndexPath)
			if err != nil {
				return err
			}
			if f != formatText {
				return writeStructured(cmd.OutOrStdout(), f, status)
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderIndexStatus(status))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "output format: text, json or yaml")
	return cmd
}

// readDocuments loads each file as an upload named by its base name.
func readDocuments(paths []string) ([]rag.Document, error) {
	docs := make([]rag.Document, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		docs = append(docs, rag.Document{Filename: filepath.Base(p), Data: data})
	}
	return docs, nil
}
