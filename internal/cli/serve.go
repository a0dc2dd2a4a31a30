package ragchat

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	transporthttp "github.com/mwiater/ragchat/internal/transport/http"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the index and answer pipeline over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			retriever, err := a.newRetriever(ctx)
			if err != nil {
				return err
			}
			assistant, err := a.newAssistant(ctx, retriever)
			if err != nil {
				return err
			}

			ginMode := gin.ReleaseMode
			if a.cfg.Debug {
				ginMode = gin.DebugMode
			}
			router := transporthttp.NewRouter(transporthttp.Deps{
				Index:          retriever,
				Assistant:      assistant,
				MaxUploadBytes: a.cfg.Server.MaxUploadBytes(),
				TopK:           a.cfg.TopK,
				GinMode:        ginMode,
				StartedAt:      time.Now(),
			})
			cmd.Printf("ragchat listening on %s\n", addr)
			return transporthttp.Serve(ctx, addr, router)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
