// Copyright 2025 The Weather MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openwx/weather-mcp/internal/openmeteo"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MCP_BEARER_TOKEN", "")
	t.Setenv("MCP_LISTEN_ADDR", "")
	t.Setenv("OPENMETEO_BASE_URL", "")
	t.Setenv("OPENMETEO_TIMEOUT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultBearerToken, cfg.BearerToken)
	assert.Equal(t, "0.0.0.0:8000", cfg.ListenAddr)
	assert.Equal(t, openmeteo.DefaultBaseURL, cfg.UpstreamBaseURL)
	assert.Equal(t, 30*time.Second, cfg.UpstreamTimeout)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MCP_BEARER_TOKEN", "s3cret")
	t.Setenv("MCP_LISTEN_ADDR", "127.0.0.1:9000")
	t.Setenv("OPENMETEO_BASE_URL", "http://localhost:8089/v1")
	t.Setenv("OPENMETEO_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.BearerToken)
	assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddr)
	assert.Equal(t, "http://localhost:8089/v1", cfg.UpstreamBaseURL)
	assert.Equal(t, 5*time.Second, cfg.UpstreamTimeout)
}

func TestLoadRejectsBadTimeout(t *testing.T) {
	t.Setenv("OPENMETEO_TIMEOUT", "soon")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENMETEO_TIMEOUT")

	t.Setenv("OPENMETEO_TIMEOUT", "-1s")
	_, err = Load()
	require.Error(t, err)
}
