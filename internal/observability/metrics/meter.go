// Copyright 2026 The Quire Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Meter wraps the OpenTelemetry meter. Disabled mode hands out a meter
// from the default (no-op) provider so callers never nil-check.
type Meter struct {
	meter metric.Meter
}

// New creates a new meter instance
func New(serviceName string, enabled bool) *Meter {
	if !enabled {
		return &Meter{meter: otel.Meter("noop")}
	}
	return &Meter{meter: otel.Meter(serviceName)}
}

// AuthMetrics counts authentication traffic at the HTTP boundary.
type AuthMetrics struct {
	requests metric.Int64Counter
	issued   metric.Int64Counter
}

// Outcome labels for auth requests
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeExpired  = "expired"
	OutcomeGuest    = "guest"
)

// NewAuthMetrics registers the authentication counters
func (m *Meter) NewAuthMetrics() (*AuthMetrics, error) {
	requests, err := m.meter.Int64Counter(
		"quire_auth_requests_total",
		metric.WithDescription("Token verifications at the HTTP boundary, by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth request counter: %w", err)
	}

	issued, err := m.meter.Int64Counter(
		"quire_tokens_issued_total",
		metric.WithDescription("Session tokens issued at login"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create issued token counter: %w", err)
	}

	return &AuthMetrics{requests: requests, issued: issued}, nil
}

// Request records one verification outcome
func (a *AuthMetrics) Request(ctx context.Context, outcome string) {
	if a == nil {
		return
	}
	a.requests.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// Issued records one freshly issued token
func (a *AuthMetrics) Issued(ctx context.Context) {
	if a == nil {
		return
	}
	a.issued.Add(ctx, 1)
}
