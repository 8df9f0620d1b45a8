package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const scopeName = "github.com/marovet/roundsync"

// Metrics holds the sync-pipeline and HTTP instruments
type Metrics struct {
	SyncPassCount      metric.Int64Counter
	SyncPassDuration   metric.Float64Histogram
	PatientsImported   metric.Int64Counter
	ExtractionFailures metric.Int64Counter
	FieldsPreserved    metric.Int64Counter
	RequestCount       metric.Int64Counter
	RequestDuration    metric.Float64Histogram
}

// Setup initializes OpenTelemetry trace and metric providers with OTLP gRPC
// exporters. The returned shutdown function flushes both.
func Setup(ctx context.Context, serviceName, serviceVersion, endpoint string) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(meterProvider)

	shutdown := func(ctx context.Context) error {
		if err := tracerProvider.Shutdown(ctx); err != nil {
			return err
		}
		return meterProvider.Shutdown(ctx)
	}

	return shutdown, nil
}

// InitMetrics initializes the sync-pipeline metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter(scopeName)

	syncPassCount, err := meter.Int64Counter(
		"sync.pass.count",
		metric.WithDescription("Number of sync passes against the provider system"),
	)
	if err != nil {
		return nil, err
	}

	syncPassDuration, err := meter.Float64Histogram(
		"sync.pass.duration",
		metric.WithDescription("Sync pass duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	patientsImported, err := meter.Int64Counter(
		"sync.patients.imported",
		metric.WithDescription("Number of patient records recovered from the provider list view"),
	)
	if err != nil {
		return nil, err
	}

	extractionFailures, err := meter.Int64Counter(
		"sync.extraction.failures",
		metric.WithDescription("Number of extraction passes that recovered zero patient blocks"),
	)
	if err != nil {
		return nil, err
	}

	fieldsPreserved, err := meter.Int64Counter(
		"sync.merge.fields_preserved",
		metric.WithDescription("Number of locally entered fields the merge policy kept over scraped values"),
	)
	if err != nil {
		return nil, err
	}

	requestCount, err := meter.Int64Counter(
		"http.request.count",
		metric.WithDescription("Number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		SyncPassCount:      syncPassCount,
		SyncPassDuration:   syncPassDuration,
		PatientsImported:   patientsImported,
		ExtractionFailures: extractionFailures,
		FieldsPreserved:    fieldsPreserved,
		RequestCount:       requestCount,
		RequestDuration:    requestDuration,
	}, nil
}

// StartSpan starts a new trace span
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	tracer := otel.Tracer(scopeName)
	return tracer.Start(ctx, spanName)
}

// SetSpanAttributes sets attributes on a span
func SetSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
}

// RecordRequestMetric records one HTTP request
func RecordRequestMetric(ctx context.Context, metrics *Metrics, method, route string, statusCode int, duration time.Duration) {
	if metrics == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", statusCode),
	}
	metrics.RequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	metrics.RequestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordError records an error in the current span
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
}

// RecordSyncPass records the outcome of one sync pass
func RecordSyncPass(ctx context.Context, metrics *Metrics, kind string, patientCount int, duration time.Duration, err error) {
	if metrics == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("sync.kind", kind),
		attribute.Bool("sync.failed", err != nil),
	}
	metrics.SyncPassCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	metrics.SyncPassDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	if patientCount > 0 {
		metrics.PatientsImported.Add(ctx, int64(patientCount), metric.WithAttributes(attrs...))
	}
}

// RecordExtractionFailure records an empty-result extraction pass
func RecordExtractionFailure(ctx context.Context, metrics *Metrics, category string) {
	if metrics == nil {
		return
	}
	metrics.ExtractionFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("sync.category", category),
	))
}

// RecordFieldsPreserved records how many seed-only/preserve-only fields the
// merge kept from the stored record during one reconcile
func RecordFieldsPreserved(ctx context.Context, metrics *Metrics, count int) {
	if metrics == nil || count == 0 {
		return
	}
	metrics.FieldsPreserved.Add(ctx, int64(count))
}
