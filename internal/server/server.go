// Copyright 2025 The Weather MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

// Package server exposes the weather gateway as an MCP tool server. Tool
// dispatch, schema validation, and session handling come from the official
// MCP Go SDK; this package contributes tool registration, bearer-token
// authentication, and the HTTP surface.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/openwx/weather-mcp/internal/config"
	"github.com/openwx/weather-mcp/internal/openmeteo"
)

const (
	serverName    = "weather"
	serverVersion = "1.0.0"

	// keepAliveInterval is the ping cadence used to detect dead sessions.
	keepAliveInterval = 5 * time.Second
)

// Gateway is the outbound provider surface consumed by the tool handlers.
// *openmeteo.Client satisfies it; tests substitute stubs.
type Gateway interface {
	CurrentWeather(ctx context.Context, lat, lon float64) (*openmeteo.CurrentWeather, error)
	Forecast(ctx context.Context, lat, lon float64, days int) (*openmeteo.Forecast, error)
}

var _ Gateway = (*openmeteo.Client)(nil)

// Server wires the two weather tools into an mcp.Server. It holds only
// configuration and is safe for concurrent use; each tool call runs on its
// own goroutine inside the SDK.
type Server struct {
	mcpServer *mcp.Server
	gateway   Gateway
	logger    *slog.Logger
}

// New builds a Server around the given gateway.
//
// Both arguments must not be nil.
func New(gateway Gateway, logger *slog.Logger) *Server {
	if gateway == nil {
		panic("server: nil Gateway")
	}
	if logger == nil {
		panic("server: nil logger")
	}

	s := &Server{gateway: gateway, logger: logger}

	m := mcp.NewServer(
		&mcp.Implementation{Name: serverName, Version: serverVersion},
		&mcp.ServerOptions{KeepAlive: keepAliveInterval},
	)
	mcp.AddTool(m, currentWeatherTool(), s.handleCurrentWeather)
	mcp.AddTool(m, forecastTool(), s.handleForecast)
	s.mcpServer = m

	return s
}

// Run serves MCP on the given transport until the context is canceled.
// Useful for stdio or in-memory transports; HTTP deployments use Handler.
func (s *Server) Run(ctx context.Context, t mcp.Transport) error {
	return s.mcpServer.Run(ctx, t)
}

// Handler returns the HTTP surface: the streamable MCP endpoint at /mcp
// behind bearer authentication, and an unauthenticated liveness probe at
// /healthz.
//
//	handler := srv.Handler(cfg)
//	http.ListenAndServe(cfg.ListenAddr, handler)
func (s *Server) Handler(cfg *config.Config) http.Handler {
	streamable := mcp.NewStreamableHTTPHandler(
		func(*http.Request) *mcp.Server { return s.mcpServer },
		nil,
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"` + serverName + `"}`))
	})

	r.Handle("/mcp", RequireBearer(cfg.BearerToken, s.logger)(streamable))

	return r
}
