// Package instrumentation records OpenTelemetry metrics for the token
// endpoint, device pairing and housekeeping. Without a configured
// MeterProvider the instruments are no-ops.
package instrumentation

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/manorfm/cpa-auth"

// Metrics holds all metric instruments of the server
type Metrics struct {
	TokensIssued      metric.Int64Counter
	GrantFailures     metric.Int64Counter
	ArtifactReuse     metric.Int64Counter
	ClientRegistered  metric.Int64Counter
	DeviceDecisions   metric.Int64Counter
	RateLimitExceeded metric.Int64Counter
	ArtifactsPurged   metric.Int64Counter
}

// NewMetrics creates the instruments on the global MeterProvider
func NewMetrics() (*Metrics, error) {
	return NewMetricsWithMeter(otel.Meter(meterName))
}

// NewMetricsWithMeter creates the instruments on the given meter
func NewMetricsWithMeter(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	counters := []struct {
		target      *metric.Int64Counter
		name        string
		description string
		unit        string
	}{
		{&m.TokensIssued, "cpa.token.issued", "Number of access tokens issued", "{token}"},
		{&m.GrantFailures, "cpa.grant.failed", "Number of rejected token requests", "{request}"},
		{&m.ArtifactReuse, "cpa.artifact.reuse", "Number of attempts to redeem a consumed code or token", "{attempt}"},
		{&m.ClientRegistered, "cpa.client.registered", "Number of dynamically registered clients", "{client}"},
		{&m.DeviceDecisions, "cpa.device.decision", "Number of device pairing decisions", "{decision}"},
		{&m.RateLimitExceeded, "cpa.rate_limit.exceeded", "Number of rate limit violations", "{violation}"},
		{&m.ArtifactsPurged, "cpa.cleanup.purged", "Number of expired artifacts purged", "{artifact}"},
	}

	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name,
			metric.WithDescription(c.description),
			metric.WithUnit(c.unit),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s counter: %w", c.name, err)
		}
		*c.target = counter
	}

	return m, nil
}

func (m *Metrics) RecordTokenIssued(ctx context.Context, grantType string) {
	if m == nil {
		return
	}
	m.TokensIssued.Add(ctx, 1, metric.WithAttributes(attribute.String("grant_type", grantType)))
}

func (m *Metrics) RecordGrantFailure(ctx context.Context, grantType, code string) {
	if m == nil {
		return
	}
	m.GrantFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("grant_type", grantType),
		attribute.String("error", code),
	))
}

// RecordArtifactReuse counts failed claims of one-time artifacts such as
// authorization codes and refresh tokens.
func (m *Metrics) RecordArtifactReuse(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.ArtifactReuse.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func (m *Metrics) RecordClientRegistered(ctx context.Context) {
	if m == nil {
		return
	}
	m.ClientRegistered.Add(ctx, 1)
}

func (m *Metrics) RecordDeviceDecision(ctx context.Context, decision string) {
	if m == nil {
		return
	}
	m.DeviceDecisions.Add(ctx, 1, metric.WithAttributes(attribute.String("decision", decision)))
}

func (m *Metrics) RecordRateLimitExceeded(ctx context.Context) {
	if m == nil {
		return
	}
	m.RateLimitExceeded.Add(ctx, 1)
}

func (m *Metrics) RecordPurged(ctx context.Context, kind string, n int64) {
	if m == nil || n == 0 {
		return
	}
	m.ArtifactsPurged.Add(ctx, n, metric.WithAttributes(attribute.String("kind", kind)))
}
