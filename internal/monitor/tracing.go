package monitor

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"hybrid/internal/evo"
)

const tracerName = "hybrid/evo"

type TracingOptions struct {
	// Endpoint is the OTLP gRPC endpoint, e.g. "localhost:4317".
	Endpoint    string
	ServiceName string
	Insecure    bool
	// ConnectTimeout bounds exporter setup (default: 10s).
	ConnectTimeout time.Duration
}

// NewTracerProvider builds a batching provider exporting over OTLP gRPC and
// installs it as the global provider.
func NewTracerProvider(ctx context.Context, opts TracingOptions) (*sdktrace.TracerProvider, error) {
	if opts.ServiceName == "" {
		opts.ServiceName = "hybrid"
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 10 * time.Second
	}

	exporterOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(opts.Endpoint)}
	if opts.Insecure {
		exporterOpts = append(exporterOpts, otlptracegrpc.WithInsecure())
	}

	ctx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()
	exporter, err := otlptracegrpc.New(ctx, exporterOpts...)
	if err != nil {
		return nil, err
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(opts.ServiceName),
	)
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(provider)
	return provider, nil
}

// Tracer returns the package tracer from provider, or from the global
// provider when provider is nil.
func Tracer(provider trace.TracerProvider) trace.Tracer {
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	return provider.Tracer(tracerName)
}

// AttachTracer opens one span per generation under ctx. Each span ends when
// the next generation starts or when the returned Detach runs.
func AttachTracer[T any](ctx context.Context, e *evo.Engine[T], tracer trace.Tracer) Detach {
	subs := watch(e)
	var span trace.Span

	end := func() {
		if span != nil {
			span.End()
			span = nil
		}
	}

	subs.onEngine(evo.EventNewGeneration, func(stats *evo.Statistics[T], _ any) {
		end()
		_, span = tracer.Start(ctx, "generation", trace.WithAttributes(
			attribute.Int("evo.generation", stats.Generation),
			attribute.Int("evo.population_size", stats.Size),
		))
	})
	subs.onPopulation(evo.EventReplaceGeneration, func(stats *evo.Statistics[T], _ any) {
		if span == nil {
			return
		}
		summary := summarize(stats)
		span.AddEvent("replace", trace.WithAttributes(
			attribute.Int("evo.breed_size", len(stats.Breed)),
			attribute.Float64("evo.best_fitness", summary.Best),
		))
	})

	return func() {
		subs.detach()
		end()
	}
}
