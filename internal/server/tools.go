// Copyright 2025 The Weather MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package server

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/openwx/weather-mcp/internal/openmeteo"
)

const defaultForecastDays = 7

// CurrentWeatherInput are the arguments of the get_current_weather tool.
type CurrentWeatherInput struct {
	Latitude  float64 `json:"latitude" jsonschema:"latitude of the location in decimal degrees"`
	Longitude float64 `json:"longitude" jsonschema:"longitude of the location in decimal degrees"`
}

// ForecastInput are the arguments of the get_forecast tool. Days is optional
// and defaults to 7.
type ForecastInput struct {
	Latitude  float64 `json:"latitude" jsonschema:"latitude of the location in decimal degrees"`
	Longitude float64 `json:"longitude" jsonschema:"longitude of the location in decimal degrees"`
	Days      int     `json:"days,omitempty" jsonschema:"number of days to forecast (1-16, default 7)"`
}

// currentWeatherTool declares the get_current_weather tool with explicit
// range constraints on the inferred schema, so tools/list exposes the full
// parameter contract. Schema construction failures are programming errors
// and panic at startup.
func currentWeatherTool() *mcp.Tool {
	schema, err := jsonschema.For[CurrentWeatherInput](nil)
	if err != nil {
		panic("server: current weather input schema: " + err.Error())
	}
	bound(schema.Properties["latitude"], -90, 90)
	bound(schema.Properties["longitude"], -180, 180)

	return &mcp.Tool{
		Name:        "get_current_weather",
		Title:       "Current Weather",
		Description: "Get current weather for a location",
		InputSchema: schema,
	}
}

// forecastTool declares the get_forecast tool.
func forecastTool() *mcp.Tool {
	schema, err := jsonschema.For[ForecastInput](nil)
	if err != nil {
		panic("server: forecast input schema: " + err.Error())
	}
	bound(schema.Properties["latitude"], -90, 90)
	bound(schema.Properties["longitude"], -180, 180)

	days := schema.Properties["days"]
	bound(days, openmeteo.MinForecastDays, openmeteo.MaxForecastDays)
	days.Default = json.RawMessage(strconv.Itoa(defaultForecastDays))

	return &mcp.Tool{
		Name:        "get_forecast",
		Title:       "Weather Forecast",
		Description: "Get multi-day weather forecast for a location",
		InputSchema: schema,
	}
}

func bound(s *jsonschema.Schema, min, max float64) {
	if s == nil {
		panic("server: schema property missing")
	}
	s.Minimum = &min
	s.Maximum = &max
}

func (s *Server) handleCurrentWeather(ctx context.Context, _ *mcp.CallToolRequest, in CurrentWeatherInput) (*mcp.CallToolResult, openmeteo.CurrentWeather, error) {
	obs, err := s.gateway.CurrentWeather(ctx, in.Latitude, in.Longitude)
	if err != nil {
		s.logger.Warn("get_current_weather failed",
			"latitude", in.Latitude,
			"longitude", in.Longitude,
			"error", err)
		return nil, openmeteo.CurrentWeather{}, err
	}
	return nil, *obs, nil
}

func (s *Server) handleForecast(ctx context.Context, _ *mcp.CallToolRequest, in ForecastInput) (*mcp.CallToolResult, openmeteo.Forecast, error) {
	days := in.Days
	if days == 0 {
		days = defaultForecastDays
	}

	fc, err := s.gateway.Forecast(ctx, in.Latitude, in.Longitude, days)
	if err != nil {
		s.logger.Warn("get_forecast failed",
			"latitude", in.Latitude,
			"longitude", in.Longitude,
			"days", days,
			"error", err)
		return nil, openmeteo.Forecast{}, err
	}
	return nil, *fc, nil
}
