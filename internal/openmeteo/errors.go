// Copyright 2025 The Weather MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package openmeteo

import "fmt"

// ValidationError reports a caller-supplied argument outside its allowed
// domain. It is always returned before any outbound request is made.
type ValidationError struct {
	// Field is the offending argument name as it appears in the tool schema
	// ("latitude", "longitude", "days").
	Field string

	// Reason describes the allowed domain.
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// UpstreamUnavailableError reports that the provider could not be reached at
// all: connection failure, timeout, or cancellation of the inbound call.
type UpstreamUnavailableError struct {
	Err error
}

func (e *UpstreamUnavailableError) Error() string {
	return fmt.Sprintf("upstream unavailable: %v", e.Err)
}

func (e *UpstreamUnavailableError) Unwrap() error { return e.Err }

// UpstreamError reports a non-2xx response from the provider. StatusCode and
// Body are surfaced so callers can distinguish provider-side failures from
// transport failures.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream error: status %d: %s", e.StatusCode, e.Body)
}

// MalformedResponseError reports a 2xx provider response that does not match
// the expected schema: undecodable JSON, a missing required field, or a daily
// series whose length differs from the requested day count. Kept distinct
// from UpstreamError so "provider is down" and "provider changed its
// contract" remain distinguishable.
type MalformedResponseError struct {
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response: %s", e.Reason)
}
