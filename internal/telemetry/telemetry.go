// Package telemetry configures OpenTelemetry tracing.
package telemetry

import (
	"context"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/polkiloo/orderpay/internal/config"
)

// ServiceName is reported as service.name on every span.
const ServiceName = "orderpay"

// Module wires the tracer provider via fx.
var Module = fx.Provide(NewTracerProvider)

// NewTracerProvider installs the global tracer provider. With tracing disabled
// spans are dropped; otherwise they are written to stdout.
func NewTracerProvider(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (trace.TracerProvider, error) {
	if !cfg.TracingEnabled {
		tp := noop.NewTracerProvider()
		otel.SetTracerProvider(tp)
		return tp, nil
	}

	tp, err := newSDKProvider(os.Stdout)
	if err != nil {
		return nil, err
	}
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("shutting down tracer provider")
			return tp.Shutdown(ctx)
		},
	})
	logger.Info("tracing enabled", zap.String("exporter", "stdout"))
	return tp, nil
}

func newSDKProvider(w io.Writer) (*sdktrace.TracerProvider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, err
	}
	res := resource.NewWithAttributes("",
		attribute.String("service.name", ServiceName),
	)
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	), nil
}
