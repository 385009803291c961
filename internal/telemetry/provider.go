// Package telemetry wraps OpenTelemetry tracing for one indexing or update
// run: a process-wide TracerProvider stood up at the start of the
// operation and torn down on return, with one span around each Index or
// Update call (spec §4.11 / Design Notes §9).
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Config controls whether tracing is active and how it identifies itself.
type Config struct {
	Enabled     bool
	ServiceName string
}

// DefaultConfig returns tracing enabled under the indexer's own service
// name.
func DefaultConfig() Config {
	return Config{Enabled: true, ServiceName: "lsif-indexer"}
}

// Provider owns the process-wide TracerProvider for one run. A disabled
// Provider (Config.Enabled == false) hands out a no-op tracer so callers
// never need to branch on whether tracing is on.
type Provider struct {
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
}

// NewProvider builds and installs a TracerProvider backed by a
// logSpanExporter, per cfg.
func NewProvider(cfg Config) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{}, nil
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(serviceNameAttr(cfg.ServiceName)))
	if err != nil {
		return nil, fmt.Errorf("telemetry: build resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(newLogSpanExporter()),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)

	return &Provider{
		tracerProvider: tp,
		tracer:         tp.Tracer(cfg.ServiceName),
	}, nil
}

// Tracer returns the run's tracer, or a no-op tracer if telemetry is
// disabled.
func (p *Provider) Tracer() trace.Tracer {
	if p.tracer == nil {
		return otel.GetTracerProvider().Tracer("noop")
	}
	return p.tracer
}

// Shutdown flushes and closes the tracer provider. Safe to call on a
// disabled Provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tracerProvider == nil {
		return nil
	}
	if err := p.tracerProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("telemetry: shutdown: %w", err)
	}
	return nil
}
