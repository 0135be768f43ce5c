// Package metrics instruments the three webhook handlers with OpenTelemetry
// counters, grounded on the OTLP gRPC exporter wiring pattern other
// kubewarden-controller trees use (internal/metrics/metrics.go there).
package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	metricsdk "go.opentelemetry.io/otel/sdk/metric"
)

const (
	meterName = "cedar-authorizer"

	authorizeCounterName = "cedar_authorizer_authorize_decisions_total"
	admitCounterName     = "cedar_authorizer_admit_decisions_total"
	validateCounterName  = "cedar_authorizer_validate_decisions_total"

	timeBetweenExports = 2 * time.Second
)

// New starts the OTLP gRPC metric exporter (configured entirely by the
// standard OTEL_EXPORTER_OTLP_* environment variables) and installs it as
// the global MeterProvider. The returned func flushes and stops the
// exporter; callers should invoke it during graceful shutdown.
func New(ctx context.Context) (func(context.Context) error, error) {
	exporter, err := otlpmetricgrpc.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("metrics: starting otlp exporter: %w", err)
	}

	provider := metricsdk.NewMeterProvider(metricsdk.WithReader(
		metricsdk.NewPeriodicReader(exporter, metricsdk.WithInterval(timeBetweenExports)),
	))
	otel.SetMeterProvider(provider)

	return provider.Shutdown, nil
}

// Recorder records webhook decision outcomes. The zero value is usable and
// records nothing but also returns no errors, so handlers can hold one
// unconditionally whether or not metrics.New was called.
type Recorder struct {
	enabled bool
}

// NewRecorder returns a Recorder backed by the currently installed global
// MeterProvider. Call it after New so counters attach to the real exporter.
func NewRecorder() Recorder {
	return Recorder{enabled: true}
}

func (r Recorder) meter() metric.Meter {
	return otel.Meter(meterName)
}

// RecordAuthorize counts one /authorize decision (spec.md §4.7).
func (r Recorder) RecordAuthorize(ctx context.Context, decision string, silent bool) {
	if !r.enabled {
		return
	}
	counter, err := r.meter().Int64Counter(authorizeCounterName)
	if err != nil {
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("decision", decision),
		attribute.Bool("silent", silent),
	))
}

// RecordAdmit counts one /admit decision (spec.md §4.3).
func (r Recorder) RecordAdmit(ctx context.Context, allowed bool) {
	if !r.enabled {
		return
	}
	counter, err := r.meter().Int64Counter(admitCounterName)
	if err != nil {
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(attribute.Bool("allowed", allowed)))
}

// RecordValidate counts one /validate decision (spec.md §4.8).
func (r Recorder) RecordValidate(ctx context.Context, denied bool, warningCount int) {
	if !r.enabled {
		return
	}
	counter, err := r.meter().Int64Counter(validateCounterName)
	if err != nil {
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("denied", denied),
		attribute.Bool("has_warnings", warningCount > 0),
	))
}
