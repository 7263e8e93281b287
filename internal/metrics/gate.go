package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/allisson/gatekeeper/internal/policy"
)

// GateMetrics implements policy.Observer. Each gated request increments a decision
// counter labelled by route, final state and the capability kind that failed.
type GateMetrics struct {
	decisions metric.Int64Counter
	durations metric.Float64Histogram
}

var _ policy.Observer = (*GateMetrics)(nil)

// NewGateMetrics creates the gate decision instruments.
func NewGateMetrics(meterProvider metric.MeterProvider, namespace string) (*GateMetrics, error) {
	meter := meterProvider.Meter(namespace)

	decisions, err := meter.Int64Counter(
		namespace+"_gate_decisions_total",
		metric.WithDescription("Policy chain outcomes by route, state and failed capability"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gate decision counter: %w", err)
	}

	durations, err := meter.Float64Histogram(
		namespace+"_gate_duration_seconds",
		metric.WithDescription("Policy chain execution time in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gate duration histogram: %w", err)
	}

	return &GateMetrics{decisions: decisions, durations: durations}, nil
}

// ObserveGate records one chain execution.
func (g *GateMetrics) ObserveGate(
	ctx context.Context,
	route string,
	state policy.State,
	failedAt policy.Kind,
	duration time.Duration,
) {
	capability := string(failedAt)
	if capability == "" {
		capability = "none"
	}

	g.decisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("route", routeLabel(route)),
		attribute.String("state", state.String()),
		attribute.String("capability", capability),
	))
	g.durations.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("route", routeLabel(route)),
		attribute.String("state", state.String()),
	))
}
