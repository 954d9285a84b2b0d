// weather-mcp serves the weather tool set over streamable HTTP.
//
// Run:
//
//	MCP_BEARER_TOKEN=your-secret-token go run ./cmd/weather-mcp
//
// Then connect any MCP client to http://<host>:8000/mcp with header
// Authorization: Bearer <your-secret-token>.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openwx/weather-mcp/internal/config"
	"github.com/openwx/weather-mcp/internal/openmeteo"
	"github.com/openwx/weather-mcp/internal/server"
)

const (
	shutdownTimeout = 10 * time.Second

	// No read/write deadlines: the streamable transport holds SSE streams
	// open for the lifetime of a session.
	serverReadHeaderTimeout = 10 * time.Second
	serverIdleTimeout       = 120 * time.Second
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.BearerToken == config.DefaultBearerToken {
		logger.Warn("MCP_BEARER_TOKEN is not set; using the placeholder token. " +
			"Override it in any non-trivial deployment.")
	}

	gateway := openmeteo.NewClient(
		cfg.UpstreamBaseURL,
		&http.Client{Timeout: cfg.UpstreamTimeout},
	)
	srv := server.New(gateway, logger)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Handler(cfg),
		ReadHeaderTimeout: serverReadHeaderTimeout,
		IdleTimeout:       serverIdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.ListenAddr, "path", "/mcp")
		serverErrors <- httpServer.ListenAndServe()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErrors:
		logger.Error("server failed", "error", err)
		os.Exit(1)
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
			httpServer.Close()
		}
	}
}
