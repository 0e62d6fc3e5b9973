// Package telemetry wires OpenTelemetry tracing and the Prometheus metrics
// registry used by the pipeline orchestrator (C7) and the persistence layer
// (C10).
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
)

// Tracer is the package-wide tracer used by the repositories (catalog
// Postgres adapter, orders store); it is always non-nil (a NoOp provider
// until Init runs).
var Tracer trace.Tracer = otel.Tracer("dialogbrain")

// Init installs an in-process tracer provider and a Prometheus metric
// reader. There is no OTLP collector dependency in this deployment shape:
// spans are recorded but not exported anywhere beyond the SDK's in-memory
// provider.
func Init(serviceName string) (func(context.Context) error, error) {
	res := resource.NewSchemaless(
		attribute.String("service.name", serviceName),
		attribute.String("service.version", "1.0.0"),
	)

	tp := sdktrace.NewTracerProvider(sdktrace.WithResource(res))
	otel.SetTracerProvider(tp)
	Tracer = tp.Tracer("dialogbrain")

	promExporter, err := promexporter.New()
	if err != nil {
		return nil, err
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(promExporter),
	)
	otel.SetMeterProvider(mp)

	shutdown := func(ctx context.Context) error {
		if err := mp.Shutdown(ctx); err != nil {
			return err
		}
		return tp.Shutdown(ctx)
	}
	return shutdown, nil
}
