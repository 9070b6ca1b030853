package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"mlprep/internal/config"
	"mlprep/pkg/contracts"
)

// MeterName is the instrumentation scope for every tracer and meter.
const MeterName = "mlprep"

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// InitializeOTel sets up tracing and metrics from the telemetry section.
// Disabled signals fall back to no-op implementations so callers never
// need nil checks on Tracer or Meter.
func InitializeOTel(cfg config.TelemetryConfig, logger *slog.Logger) (*OTelProviders, error) {
	if logger == nil {
		logger = GetLogger()
	}
	ctx := context.Background()

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(contracts.Version),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", generateInstanceID()),
	)

	providers := &OTelProviders{
		Logger: logger,
		Tracer: tracenoop.NewTracerProvider().Tracer(MeterName),
		Meter:  metricnoop.NewMeterProvider().Meter(MeterName),
	}

	if cfg.EnableTracing && cfg.TraceExporter == "stdout" {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
		)
		providers.TracerProvider = tp
		providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(contracts.Version))
		otel.SetTracerProvider(tp)
	}

	if cfg.EnableMetrics {
		// InitializeOTel may run more than once per process.
		registry := promclient.NewRegistry()
		exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
		if err != nil {
			return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)
		providers.MeterProvider = mp
		providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(contracts.Version))
		providers.PrometheusHTTP = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
		otel.SetMeterProvider(mp)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.InfoContext(ctx, "otel_initialized",
		slog.String("service", cfg.ServiceName),
		slog.String("environment", cfg.Environment),
		slog.Bool("tracing_enabled", providers.TracerProvider != nil),
		slog.Bool("metrics_enabled", providers.MeterProvider != nil))

	return providers, nil
}

// BusinessMetrics holds the preprocessing metrics
type BusinessMetrics struct {
	RunsTotal       metric.Int64Counter
	RunDuration     metric.Float64Histogram
	ActiveRuns      metric.Int64UpDownCounter
	StepsTotal      metric.Int64Counter
	StepDuration    metric.Float64Histogram
	RowsLoaded      metric.Int64Counter
	RowsDropped     metric.Int64Counter
	HTTPRequests    metric.Int64Counter
	HTTPReqDuration metric.Float64Histogram
}

// CreateBusinessMetrics registers the preprocessing instruments on meter.
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	var (
		m    BusinessMetrics
		err  error
		errs []error
	)

	m.RunsTotal, err = meter.Int64Counter("mlprep_runs_total",
		metric.WithDescription("Preprocessing runs by project and status"))
	errs = append(errs, err)

	m.RunDuration, err = meter.Float64Histogram("mlprep_run_duration_seconds",
		metric.WithDescription("Wall time of a preprocessing run"),
		metric.WithUnit("s"))
	errs = append(errs, err)

	m.ActiveRuns, err = meter.Int64UpDownCounter("mlprep_active_runs",
		metric.WithDescription("Runs currently executing"))
	errs = append(errs, err)

	m.StepsTotal, err = meter.Int64Counter("mlprep_steps_total",
		metric.WithDescription("Pipeline steps executed"))
	errs = append(errs, err)

	m.StepDuration, err = meter.Float64Histogram("mlprep_step_duration_seconds",
		metric.WithDescription("Pipeline step duration"),
		metric.WithUnit("s"))
	errs = append(errs, err)

	m.RowsLoaded, err = meter.Int64Counter("mlprep_rows_loaded_total",
		metric.WithDescription("Raw rows read from inputs"))
	errs = append(errs, err)

	m.RowsDropped, err = meter.Int64Counter("mlprep_rows_dropped_total",
		metric.WithDescription("Rows removed by cleaning rules"))
	errs = append(errs, err)

	m.HTTPRequests, err = meter.Int64Counter("http_requests_total",
		metric.WithDescription("Total number of HTTP requests"))
	errs = append(errs, err)

	m.HTTPReqDuration, err = meter.Float64Histogram("http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"))
	errs = append(errs, err)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordRunMetrics records the outcome of one project run.
func RecordRunMetrics(ctx context.Context, m *BusinessMetrics, project string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	attrs := metric.WithAttributes(
		attribute.String("project", project),
		attribute.String("status", status),
	)
	m.RunsTotal.Add(ctx, 1, attrs)
	m.RunDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordStepMetrics records one pipeline step execution.
func RecordStepMetrics(ctx context.Context, m *BusinessMetrics, project, stepID string, duration time.Duration, success bool) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "failure"
	}
	attrs := metric.WithAttributes(
		attribute.String("project", project),
		attribute.String("step.id", stepID),
		attribute.String("status", status),
	)
	m.StepsTotal.Add(ctx, 1, attrs)
	m.StepDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordRowCounts records rows read and rows removed for a project.
func RecordRowCounts(ctx context.Context, m *BusinessMetrics, project string, loaded, dropped int) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("project", project))
	if loaded > 0 {
		m.RowsLoaded.Add(ctx, int64(loaded), attrs)
	}
	if dropped > 0 {
		m.RowsDropped.Add(ctx, int64(dropped), attrs)
	}
}

// RecordActiveRunChange adjusts the active run gauge.
func RecordActiveRunChange(ctx context.Context, m *BusinessMetrics, delta int64, project string) {
	if m == nil {
		return
	}
	m.ActiveRuns.Add(ctx, delta, metric.WithAttributes(attribute.String("project", project)))
}

// Shutdown gracefully shuts down OpenTelemetry providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	return errors.Join(errs...)
}

// generateInstanceID generates a unique instance identifier
func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
