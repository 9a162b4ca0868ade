// Package tracing bootstraps OpenTelemetry tracing for the research-agent
// server. Grounded on the teacher pack's OTEL setup
// (itsneelabh-gomind/pkg/telemetry/otel.go's "endpoint present -> real
// exporter, else no-op provider" shape), adapted to the OTLP/HTTP exporter
// already in go.mod rather than the gRPC one that repo uses.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/codeready-toolchain/research-agent/pkg/config"
)

// Shutdown flushes and stops the tracer provider installed by Setup.
type Shutdown func(ctx context.Context) error

// Setup installs a global TracerProvider. With no OTLPEndpoint configured
// it installs a no-op provider so every otelgin/otel.Tracer call in the
// server remains cheap and side-effect free.
func Setup(ctx context.Context, cfg config.TracingConfig) (Shutdown, error) {
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "research-agent"
	}

	res, err := resource.New(ctx, resource.WithAttributes(attribute.String("service.name", serviceName)))
	if err != nil {
		return nil, fmt.Errorf("build otel resource: %w", err)
	}

	if cfg.OTLPEndpoint == "" {
		provider := sdktrace.NewTracerProvider(sdktrace.WithResource(res))
		otel.SetTracerProvider(provider)
		otel.SetTextMapPropagator(propagation.TraceContext{})
		return provider.Shutdown, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(cfg.OTLPEndpoint), otlptracehttp.WithInsecure())
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	return provider.Shutdown, nil
}
