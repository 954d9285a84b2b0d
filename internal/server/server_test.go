// Copyright 2025 The Weather MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openwx/weather-mcp/internal/openmeteo"
)

// stubGateway is a canned Gateway for exercising the tool handlers without
// network traffic.
type stubGateway struct {
	current  *openmeteo.CurrentWeather
	forecast *openmeteo.Forecast
	err      error

	calls    atomic.Int32
	lastDays atomic.Int32
}

func (g *stubGateway) CurrentWeather(context.Context, float64, float64) (*openmeteo.CurrentWeather, error) {
	g.calls.Add(1)
	if g.err != nil {
		return nil, g.err
	}
	return g.current, nil
}

func (g *stubGateway) Forecast(_ context.Context, _, _ float64, days int) (*openmeteo.Forecast, error) {
	g.calls.Add(1)
	g.lastDays.Store(int32(days))
	if g.err != nil {
		return nil, g.err
	}
	if g.forecast != nil {
		return g.forecast, nil
	}
	fc := &openmeteo.Forecast{Days: make([]openmeteo.ForecastDay, days)}
	for i := range fc.Days {
		fc.Days[i] = openmeteo.ForecastDay{
			Date:           "2025-06-0" + string(rune('1'+i)),
			TemperatureMax: 20,
			TemperatureMin: 10,
			WeatherCode:    1,
		}
	}
	return fc, nil
}

func testCurrent() *openmeteo.CurrentWeather {
	return &openmeteo.CurrentWeather{
		ObservationTime: "2025-06-01T12:00",
		Temperature:     21.4,
		WindSpeed:       12.3,
		WindDirection:   245,
		WeatherCode:     2,
	}
}

func newTestServer(gw Gateway) *Server {
	return New(gw, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// connectTestClient runs the server over an in-memory transport and connects
// a test client. Cleanup is handled via t.Cleanup.
func connectTestClient(t *testing.T, s *Server) *mcp.ClientSession {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Run(ctx, serverTransport)
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		cancel()
		t.Fatalf("client.Connect: %v", err)
	}

	t.Cleanup(func() {
		session.Close()
		cancel()
		<-errCh
	})

	return session
}

// schemaProps mirrors the parts of a tool input schema the tests assert on.
type schemaProps struct {
	Properties map[string]struct {
		Type    string          `json:"type"`
		Minimum *float64        `json:"minimum"`
		Maximum *float64        `json:"maximum"`
		Default json.RawMessage `json:"default"`
	} `json:"properties"`
	Required []string `json:"required"`
}

func decodeInputSchema(t *testing.T, tool *mcp.Tool) schemaProps {
	t.Helper()
	raw, err := json.Marshal(tool.InputSchema)
	require.NoError(t, err)
	var props schemaProps
	require.NoError(t, json.Unmarshal(raw, &props))
	return props
}

func TestListTools(t *testing.T) {
	session := connectTestClient(t, newTestServer(&stubGateway{current: testCurrent()}))

	result, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)
	require.Len(t, result.Tools, 2)

	byName := make(map[string]*mcp.Tool, len(result.Tools))
	for _, tool := range result.Tools {
		byName[tool.Name] = tool
	}
	require.Contains(t, byName, "get_current_weather")
	require.Contains(t, byName, "get_forecast")

	// get_current_weather: both coordinates required and range-bounded.
	current := decodeInputSchema(t, byName["get_current_weather"])
	assert.ElementsMatch(t, []string{"latitude", "longitude"}, current.Required)
	lat := current.Properties["latitude"]
	require.NotNil(t, lat.Minimum)
	assert.Equal(t, -90.0, *lat.Minimum)
	require.NotNil(t, lat.Maximum)
	assert.Equal(t, 90.0, *lat.Maximum)
	lon := current.Properties["longitude"]
	require.NotNil(t, lon.Minimum)
	assert.Equal(t, -180.0, *lon.Minimum)

	// get_forecast: days optional with default 7 and range [1,16].
	forecast := decodeInputSchema(t, byName["get_forecast"])
	assert.ElementsMatch(t, []string{"latitude", "longitude"}, forecast.Required)
	days := forecast.Properties["days"]
	require.NotNil(t, days.Minimum)
	assert.Equal(t, 1.0, *days.Minimum)
	require.NotNil(t, days.Maximum)
	assert.Equal(t, 16.0, *days.Maximum)
	assert.JSONEq(t, "7", string(days.Default))
}

func TestCallCurrentWeather(t *testing.T) {
	gw := &stubGateway{current: testCurrent()}
	session := connectTestClient(t, newTestServer(gw))

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "get_current_weather",
		Arguments: map[string]json.RawMessage{
			"latitude":  json.RawMessage(`40.7128`),
			"longitude": json.RawMessage(`-74.006`),
		},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)
	require.NotEmpty(t, result.Content)

	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, `"temperature":21.4`)
	assert.Contains(t, text.Text, `"weather_code":2`)
	assert.EqualValues(t, 1, gw.calls.Load())
}

func TestCallForecast_DefaultDays(t *testing.T) {
	gw := &stubGateway{}
	session := connectTestClient(t, newTestServer(gw))

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "get_forecast",
		Arguments: map[string]json.RawMessage{
			"latitude":  json.RawMessage(`40.7128`),
			"longitude": json.RawMessage(`-74.006`),
		},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.EqualValues(t, 7, gw.lastDays.Load(), "omitted days must default to 7")
}

func TestCallForecast_ExplicitDays(t *testing.T) {
	gw := &stubGateway{}
	session := connectTestClient(t, newTestServer(gw))

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "get_forecast",
		Arguments: map[string]json.RawMessage{
			"latitude":  json.RawMessage(`40.7128`),
			"longitude": json.RawMessage(`-74.006`),
			"days":      json.RawMessage(`3`),
		},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.EqualValues(t, 3, gw.lastDays.Load())
}

func TestCallTool_GatewayFailureIsToolError(t *testing.T) {
	gw := &stubGateway{err: &openmeteo.UpstreamError{StatusCode: 500, Body: "boom"}}
	session := connectTestClient(t, newTestServer(gw))

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "get_current_weather",
		Arguments: map[string]json.RawMessage{
			"latitude":  json.RawMessage(`40.7128`),
			"longitude": json.RawMessage(`-74.006`),
		},
	})
	// Gateway failures surface as structured tool errors, not transport
	// failures; the server keeps serving.
	require.NoError(t, err)
	require.True(t, result.IsError)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "upstream error")
	assert.Contains(t, text.Text, "500")
}

func TestCallTool_OutOfRangeArguments(t *testing.T) {
	gw := &stubGateway{current: testCurrent()}
	session := connectTestClient(t, newTestServer(gw))

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "get_current_weather",
		Arguments: map[string]json.RawMessage{
			"latitude":  json.RawMessage(`91`),
			"longitude": json.RawMessage(`0`),
		},
	})
	// The SDK checks arguments against the declared schema, so the request
	// is rejected either as a call error or an error result; the gateway
	// must not be invoked.
	if err == nil {
		require.True(t, result.IsError)
	}
	assert.EqualValues(t, 0, gw.calls.Load())
}

func TestCallTool_UnknownName(t *testing.T) {
	session := connectTestClient(t, newTestServer(&stubGateway{current: testCurrent()}))

	_, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "get_tides",
		Arguments: map[string]json.RawMessage{},
	})
	require.Error(t, err, "unknown tool names must fail closed")
}
