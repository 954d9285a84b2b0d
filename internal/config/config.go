// Copyright 2025 The Weather MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

// Package config reads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/openwx/weather-mcp/internal/openmeteo"
)

// DefaultBearerToken is the placeholder token used when MCP_BEARER_TOKEN is
// unset. It must be overridden in any non-trivial deployment; main logs a
// warning when it is in effect.
const DefaultBearerToken = "default-secret-token-change-me"

// Config is constructed once at startup and read-only afterwards. It is
// passed explicitly into the server rather than held as a global.
type Config struct {
	// BearerToken is the shared secret required on every /mcp request.
	BearerToken string

	// ListenAddr is the address the HTTP server binds to.
	ListenAddr string

	// UpstreamBaseURL is the Open-Meteo API root. Overridable mainly so
	// tests and air-gapped deployments can point at a stub.
	UpstreamBaseURL string

	// UpstreamTimeout bounds each outbound provider call.
	UpstreamTimeout time.Duration
}

// Load reads configuration from the environment with defaults. A .env file
// in the working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load() // .env is optional

	cfg := &Config{
		BearerToken:     getenvDefault("MCP_BEARER_TOKEN", DefaultBearerToken),
		ListenAddr:      getenvDefault("MCP_LISTEN_ADDR", "0.0.0.0:8000"),
		UpstreamBaseURL: getenvDefault("OPENMETEO_BASE_URL", openmeteo.DefaultBaseURL),
	}

	timeoutStr := getenvDefault("OPENMETEO_TIMEOUT", "30s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid OPENMETEO_TIMEOUT: %w", err)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("OPENMETEO_TIMEOUT must be positive, got %s", timeout)
	}
	cfg.UpstreamTimeout = timeout

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
