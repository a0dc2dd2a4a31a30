// Package http exposes the index and answer pipeline over a JSON API.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mwiater/ragchat/internal/logging"
	"github.com/mwiater/ragchat/internal/metrics"
	"github.com/mwiater/ragchat/internal/transport/http/handler"
	"github.com/mwiater/ragchat/internal/transport/http/response"
)

const shutdownTimeout = 10 * time.Second

// Deps are the services the router dispatches to.
type Deps struct {
	Index          handler.Index
	Assistant      handler.Assistant
	MaxUploadBytes int64
	TopK           int
	GinMode        string
	StartedAt      time.Time
	Metrics        *metrics.Aggregator
}

func NewRouter(deps Deps) *gin.Engine {
	if deps.GinMode != "" {
		gin.SetMode(deps.GinMode)
	}
	if deps.StartedAt.IsZero() {
		deps.StartedAt = time.Now()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewAggregator()
	}
	router := gin.New()
	router.Use(requestLogger(deps.Metrics), gin.Recovery())
	if deps.MaxUploadBytes > 0 {
		router.MaxMultipartMemory = deps.MaxUploadBytes
	}

	healthHandler := handler.NewHealthHandler(deps.Index, deps.StartedAt)
	ragHandler := handler.NewRAGHandler(deps.Index, deps.MaxUploadBytes, deps.TopK)
	chatHandler := handler.NewChatHandler(deps.Assistant, deps.MaxUploadBytes)

	router.GET("/healthz", healthHandler.Check)

	v1 := router.Group("/api/v1")
	v1.POST("/index", ragHandler.BuildIndex)
	v1.GET("/index", ragHandler.Status)
	v1.POST("/retrieve", ragHandler.Retrieve)
	v1.POST("/ask", chatHandler.Ask)
	v1.POST("/ask/voice", chatHandler.AskVoice)
	v1.POST("/transcribe", chatHandler.Transcribe)
	v1.GET("/metrics", func(c *gin.Context) {
		response.OK(c, gin.H{"routes": deps.Metrics.Snapshot()})
	})

	return router
}

// Serve runs handler on addr until ctx is cancelled, then drains in-flight
// requests.
func Serve(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.LogEvent("[HTTP] listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logging.LogEvent("[HTTP] shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// requestLogger routes access lines through the application log instead of
// gin's stdout writer and records per-route latency.
func requestLogger(agg *metrics.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)
		status := c.Writer.Status()
		agg.Record(c.FullPath(), status, elapsed)
		logging.LogEvent("[HTTP] %s %s status=%d duration=%s",
			c.Request.Method, c.Request.URL.Path, status, elapsed.Round(time.Millisecond))
	}
}
