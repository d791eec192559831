// Package trace owns the process-wide OpenTelemetry tracer. The simulator
// opens one span per tick and the agent wrappers open one per order or
// batch decision, so a tick span groups every decision made during it.
// When tracing is off StartSpan hands back the caller's span and costs
// nothing beyond a context lookup.
package trace

import (
	"context"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultServiceName    = "agentsim"
	DefaultServiceVersion = "0.3.0"
)

var (
	tracer         trace.Tracer
	tracerProvider *sdktrace.TracerProvider
	enabled        bool
)

// Config selects whether spans are exported and where. Spans are written as
// indented JSON, by default to stderr so they never mix with tick results.
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Writer         io.Writer
}

func (c Config) withDefaults() Config {
	if c.ServiceName == "" {
		c.ServiceName = DefaultServiceName
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = DefaultServiceVersion
	}
	if c.Writer == nil {
		c.Writer = os.Stderr
	}
	return c
}

// Init installs the global tracer provider. A disabled config turns
// tracing off without touching a provider that is already installed.
func Init(cfg Config) error {
	enabled = false
	if !cfg.Enabled {
		return nil
	}
	cfg = cfg.withDefaults()

	tp, err := newProvider(cfg)
	if err != nil {
		return err
	}
	tracerProvider = tp
	otel.SetTracerProvider(tp)
	tracer = tp.Tracer(cfg.ServiceName)
	enabled = true
	return nil
}

func newProvider(cfg Config) (*sdktrace.TracerProvider, error) {
	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(cfg.Writer),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	), nil
}

// Shutdown flushes pending spans. Safe to call when Init never ran.
func Shutdown(ctx context.Context) error {
	if tracerProvider == nil {
		return nil
	}
	return tracerProvider.Shutdown(ctx)
}

// StartSpan opens a child span of whatever ctx carries.
func StartSpan(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if !enabled {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, spanName, opts...)
}

func Enabled() bool { return enabled }

// GetTraceFields returns the ids the logger attaches to each record.
func GetTraceFields(ctx context.Context) (traceID, spanID string, ok bool) {
	if !enabled {
		return "", "", false
	}
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return "", "", false
	}
	return sc.TraceID().String(), sc.SpanID().String(), true
}
