// Copyright 2025 The Weather MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

// Package openmeteo is the outbound weather gateway. It issues one HTTPS GET
// per call to the Open-Meteo forecast API and reshapes the response into
// typed result records. There is deliberately no retry, caching, or
// rate-limiting layer; errors propagate to the caller.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	// DefaultBaseURL is the public Open-Meteo API root.
	DefaultBaseURL = "https://api.open-meteo.com/v1"

	// DefaultTimeout bounds the outbound call when no custom http.Client is
	// supplied.
	DefaultTimeout = 30 * time.Second

	userAgent = "weather-mcp/1.0"

	// Field lists requested from the provider. Units are Open-Meteo metric
	// defaults (°C, km/h, mm, hPa).
	currentFields = "temperature_2m,apparent_temperature,relative_humidity_2m," +
		"precipitation,rain,showers,snowfall,cloud_cover,pressure_msl," +
		"wind_speed_10m,wind_direction_10m,wind_gusts_10m,is_day,weather_code"
	dailyFields = "temperature_2m_max,temperature_2m_min,precipitation_sum," +
		"precipitation_probability_max,wind_speed_10m_max,wind_gusts_10m_max," +
		"weather_code"

	// MinForecastDays and MaxForecastDays bound the days argument of
	// Forecast, matching the provider's forecast horizon.
	MinForecastDays = 1
	MaxForecastDays = 16

	// upstream error bodies are truncated to keep tool failures readable.
	maxErrorBody = 2048
)

// CurrentWeather is the reshaped current-conditions record. Fields the
// gateway requires from the provider are plain values; the rest are
// pass-through and omitted when the provider leaves them out.
type CurrentWeather struct {
	ObservationTime     string   `json:"observation_time" jsonschema:"observation timestamp, ISO-8601"`
	Temperature         float64  `json:"temperature" jsonschema:"air temperature at 2m, °C"`
	WindSpeed           float64  `json:"wind_speed" jsonschema:"wind speed at 10m, km/h"`
	WindDirection       float64  `json:"wind_direction" jsonschema:"wind direction at 10m, degrees"`
	WeatherCode         int      `json:"weather_code" jsonschema:"WMO weather interpretation code"`
	ApparentTemperature *float64 `json:"apparent_temperature,omitempty" jsonschema:"feels-like temperature, °C"`
	RelativeHumidity    *float64 `json:"relative_humidity,omitempty" jsonschema:"relative humidity at 2m, %"`
	Precipitation       *float64 `json:"precipitation,omitempty" jsonschema:"current precipitation, mm"`
	Rain                *float64 `json:"rain,omitempty" jsonschema:"current rain, mm"`
	Showers             *float64 `json:"showers,omitempty" jsonschema:"current showers, mm"`
	Snowfall            *float64 `json:"snowfall,omitempty" jsonschema:"current snowfall, cm"`
	CloudCover          *float64 `json:"cloud_cover,omitempty" jsonschema:"total cloud cover, %"`
	PressureMSL         *float64 `json:"pressure_msl,omitempty" jsonschema:"sea-level pressure, hPa"`
	WindGusts           *float64 `json:"wind_gusts,omitempty" jsonschema:"wind gusts at 10m, km/h"`
	IsDay               *int     `json:"is_day,omitempty" jsonschema:"1 if daytime, 0 if night"`
}

// ForecastDay is one daily record of a multi-day forecast.
type ForecastDay struct {
	Date                     string   `json:"date" jsonschema:"forecast date, YYYY-MM-DD"`
	TemperatureMax           float64  `json:"temperature_max" jsonschema:"daily maximum temperature, °C"`
	TemperatureMin           float64  `json:"temperature_min" jsonschema:"daily minimum temperature, °C"`
	Precipitation            float64  `json:"precipitation" jsonschema:"daily precipitation sum, mm"`
	WeatherCode              int      `json:"weather_code" jsonschema:"WMO weather interpretation code"`
	PrecipitationProbability *float64 `json:"precipitation_probability,omitempty" jsonschema:"maximum precipitation probability, %"`
	WindSpeedMax             *float64 `json:"wind_speed_max,omitempty" jsonschema:"daily maximum wind speed, km/h"`
	WindGustsMax             *float64 `json:"wind_gusts_max,omitempty" jsonschema:"daily maximum wind gusts, km/h"`
}

// Forecast is a chronologically ascending sequence of daily records. Its
// length always equals the requested day count.
type Forecast struct {
	Days []ForecastDay `json:"days" jsonschema:"daily forecast records, ascending by date"`
}

// Client calls the Open-Meteo forecast API. It holds no mutable state and is
// safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	validate   *validator.Validate
}

// NewClient returns a Client against the given base URL. Empty baseURL means
// the public API; nil httpClient means a default client with DefaultTimeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		validate:   validator.New(),
	}
}

type coordinate struct {
	Latitude  float64 `validate:"gte=-90,lte=90"`
	Longitude float64 `validate:"gte=-180,lte=180"`
}

type dayCount struct {
	Days int `validate:"gte=1,lte=16"`
}

func (c *Client) validateCoordinate(lat, lon float64) error {
	err := c.validate.Struct(coordinate{Latitude: lat, Longitude: lon})
	if err == nil {
		return nil
	}
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		switch verrs[0].Field() {
		case "Latitude":
			return &ValidationError{Field: "latitude", Reason: "must be between -90 and 90"}
		case "Longitude":
			return &ValidationError{Field: "longitude", Reason: "must be between -180 and 180"}
		}
	}
	return &ValidationError{Field: "coordinate", Reason: err.Error()}
}

func (c *Client) validateDays(days int) error {
	if err := c.validate.Struct(dayCount{Days: days}); err != nil {
		return &ValidationError{
			Field: "days",
			Reason: fmt.Sprintf("must be between %d and %d",
				MinForecastDays, MaxForecastDays),
		}
	}
	return nil
}

// CurrentWeather fetches current conditions for the coordinate. Out-of-range
// coordinates fail with *ValidationError before any network traffic.
func (c *Client) CurrentWeather(ctx context.Context, lat, lon float64) (*CurrentWeather, error) {
	if err := c.validateCoordinate(lat, lon); err != nil {
		return nil, err
	}

	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	values.Set("current", currentFields)

	body, err := c.get(ctx, fmt.Sprintf("%s/forecast?%s", c.baseURL, values.Encode()))
	if err != nil {
		return nil, err
	}

	var payload struct {
		Current struct {
			Time                *string  `json:"time"`
			Temperature2m       *float64 `json:"temperature_2m"`
			ApparentTemperature *float64 `json:"apparent_temperature"`
			RelativeHumidity2m  *float64 `json:"relative_humidity_2m"`
			Precipitation       *float64 `json:"precipitation"`
			Rain                *float64 `json:"rain"`
			Showers             *float64 `json:"showers"`
			Snowfall            *float64 `json:"snowfall"`
			CloudCover          *float64 `json:"cloud_cover"`
			PressureMSL         *float64 `json:"pressure_msl"`
			WindSpeed10m        *float64 `json:"wind_speed_10m"`
			WindDirection10m    *float64 `json:"wind_direction_10m"`
			WindGusts10m        *float64 `json:"wind_gusts_10m"`
			IsDay               *int     `json:"is_day"`
			WeatherCode         *int     `json:"weather_code"`
		} `json:"current"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &MalformedResponseError{Reason: fmt.Sprintf("decoding body: %v", err)}
	}

	cur := payload.Current
	switch {
	case cur.Time == nil:
		return nil, &MalformedResponseError{Reason: "missing current.time"}
	case cur.Temperature2m == nil:
		return nil, &MalformedResponseError{Reason: "missing current.temperature_2m"}
	case cur.WindSpeed10m == nil:
		return nil, &MalformedResponseError{Reason: "missing current.wind_speed_10m"}
	case cur.WindDirection10m == nil:
		return nil, &MalformedResponseError{Reason: "missing current.wind_direction_10m"}
	case cur.WeatherCode == nil:
		return nil, &MalformedResponseError{Reason: "missing current.weather_code"}
	}

	return &CurrentWeather{
		ObservationTime:     *cur.Time,
		Temperature:         *cur.Temperature2m,
		WindSpeed:           *cur.WindSpeed10m,
		WindDirection:       *cur.WindDirection10m,
		WeatherCode:         *cur.WeatherCode,
		ApparentTemperature: cur.ApparentTemperature,
		RelativeHumidity:    cur.RelativeHumidity2m,
		Precipitation:       cur.Precipitation,
		Rain:                cur.Rain,
		Showers:             cur.Showers,
		Snowfall:            cur.Snowfall,
		CloudCover:          cur.CloudCover,
		PressureMSL:         cur.PressureMSL,
		WindGusts:           cur.WindGusts10m,
		IsDay:               cur.IsDay,
	}, nil
}

// Forecast fetches a daily forecast of exactly days records. Out-of-range
// arguments fail with *ValidationError before any network traffic; a
// provider response whose daily series does not cover the requested range is
// a *MalformedResponseError.
func (c *Client) Forecast(ctx context.Context, lat, lon float64, days int) (*Forecast, error) {
	if err := c.validateCoordinate(lat, lon); err != nil {
		return nil, err
	}
	if err := c.validateDays(days); err != nil {
		return nil, err
	}

	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	values.Set("daily", dailyFields)
	values.Set("forecast_days", strconv.Itoa(days))
	values.Set("timezone", "auto")

	body, err := c.get(ctx, fmt.Sprintf("%s/forecast?%s", c.baseURL, values.Encode()))
	if err != nil {
		return nil, err
	}

	var payload struct {
		Daily struct {
			Time                        []string  `json:"time"`
			Temperature2mMax            []float64 `json:"temperature_2m_max"`
			Temperature2mMin            []float64 `json:"temperature_2m_min"`
			PrecipitationSum            []float64 `json:"precipitation_sum"`
			PrecipitationProbabilityMax []float64 `json:"precipitation_probability_max"`
			WindSpeed10mMax             []float64 `json:"wind_speed_10m_max"`
			WindGusts10mMax             []float64 `json:"wind_gusts_10m_max"`
			WeatherCode                 []int     `json:"weather_code"`
		} `json:"daily"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &MalformedResponseError{Reason: fmt.Sprintf("decoding body: %v", err)}
	}

	daily := payload.Daily
	// The daily series are parallel arrays; every required one must cover
	// exactly the requested range.
	for name, got := range map[string]int{
		"daily.time":               len(daily.Time),
		"daily.temperature_2m_max": len(daily.Temperature2mMax),
		"daily.temperature_2m_min": len(daily.Temperature2mMin),
		"daily.precipitation_sum":  len(daily.PrecipitationSum),
		"daily.weather_code":       len(daily.WeatherCode),
	} {
		if got != days {
			return nil, &MalformedResponseError{
				Reason: fmt.Sprintf("%s has %d entries, want %d", name, got, days),
			}
		}
	}

	fc := &Forecast{Days: make([]ForecastDay, 0, days)}
	for i := 0; i < days; i++ {
		day := ForecastDay{
			Date:           daily.Time[i],
			TemperatureMax: daily.Temperature2mMax[i],
			TemperatureMin: daily.Temperature2mMin[i],
			Precipitation:  daily.PrecipitationSum[i],
			WeatherCode:    daily.WeatherCode[i],
		}
		// Optional series are passed through only when the provider returned
		// a full-length array.
		if len(daily.PrecipitationProbabilityMax) == days {
			day.PrecipitationProbability = &daily.PrecipitationProbabilityMax[i]
		}
		if len(daily.WindSpeed10mMax) == days {
			day.WindSpeedMax = &daily.WindSpeed10mMax[i]
		}
		if len(daily.WindGusts10mMax) == days {
			day.WindGustsMax = &daily.WindGusts10mMax[i]
		}
		fc.Days = append(fc.Days, day)
	}
	return fc, nil
}

// get performs a single GET and returns the response body. Transport
// failures map to *UpstreamUnavailableError, non-2xx statuses to
// *UpstreamError.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamUnavailableError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       string(excerpt),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamUnavailableError{Err: err}
	}
	return body, nil
}
