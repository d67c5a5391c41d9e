package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// newTracerProvider builds the TracerProvider Manager installs as the
// process-global default (teacher's InitGlobalTracer), sampling at
// cfg.SamplingRate. Disabled configs get a noop.TracerProvider so every
// GetTracer(...).Start call downstream stays a cheap no-op rather than
// needing its own enabled check.
func newTracerProvider(ctx context.Context, cfg Config) (trace.TracerProvider, func(context.Context) error, error) {
	if !cfg.Enabled {
		return noop.NewTracerProvider(), func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", cfg.ServiceName),
	))
	if err != nil {
		return nil, nil, fmt.Errorf("telemetry: building resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SamplingRate)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp, tp.Shutdown, nil
}

// tracerName is the instrumentation scope every span in this package
// is recorded under.
const tracerName = "github.com/parruda/swarm-sub004/pkg/telemetry"

// span starts a child span named name under ctx's existing trace (if
// any) and returns the derived context plus an end func the caller
// defers, passing the operation's error (nil on success) so the span
// status reflects it.
func (m *Manager) span(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	if m == nil {
		return ctx, func(error) {}
	}
	ctx, sp := m.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			sp.RecordError(err)
			sp.SetStatus(codes.Error, err.Error())
		}
		sp.End()
	}
}
