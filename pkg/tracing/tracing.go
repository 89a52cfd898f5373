// Package tracing installs the process-wide OpenTelemetry tracer provider and
// W3C propagators used by the otelhttp server handler.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/bayancosmetic/storefront/pkg/config"
)

// NewProvider builds a tracer provider sampling cfg.SampleRatio of new
// traces. Incoming sampled parents are always honoured.
func NewProvider(cfg config.TracingConfig, serviceName, environment string) *sdktrace.TracerProvider {
	ratio := min(max(cfg.SampleRatio, 0), 1)
	return sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", serviceName),
			attribute.String("deployment.environment", environment),
		)),
	)
}

// Install registers the provider and the traceparent/baggage propagators
// globally. The returned func flushes and stops the provider.
func Install(cfg config.TracingConfig, serviceName, environment string) func(context.Context) error {
	if !cfg.Enabled {
		otel.SetTextMapPropagator(propagation.TraceContext{})
		return func(context.Context) error { return nil }
	}
	tp := NewProvider(cfg, serviceName, environment)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp.Shutdown
}
