package operations

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"mlprep/internal/infrastructure"
)

// RunTracer instruments runs and steps. A nil *RunTracer is valid and
// records nothing.
type RunTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.BusinessMetrics
}

// NewRunTracer builds a tracer from initialised providers.
func NewRunTracer(providers *infrastructure.OTelProviders) (*RunTracer, error) {
	if providers == nil {
		return nil, fmt.Errorf("otel providers are required")
	}
	metrics, err := infrastructure.CreateBusinessMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}
	return &RunTracer{tracer: providers.Tracer, metrics: metrics}, nil
}

// Metrics exposes the instruments for recording row counts.
func (t *RunTracer) Metrics() *infrastructure.BusinessMetrics {
	if t == nil {
		return nil
	}
	return t.metrics
}

// StartRun opens the run span.
func (t *RunTracer) StartRun(ctx context.Context, state *RunState) (context.Context, trace.Span) {
	if t == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	ctx, span := t.tracer.Start(ctx, "run."+state.Project,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", state.ID),
			attribute.String("run.project", state.Project),
		),
	)
	infrastructure.RecordActiveRunChange(ctx, t.metrics, 1, state.Project)
	return ctx, span
}

// EndRun records the outcome and closes the run span.
func (t *RunTracer) EndRun(ctx context.Context, span trace.Span, state *RunState, err error) {
	if t == nil {
		return
	}
	defer span.End()

	infrastructure.RecordActiveRunChange(ctx, t.metrics, -1, state.Project)
	infrastructure.RecordRunMetrics(ctx, t.metrics, state.Project, state.Duration(), err)

	span.SetAttributes(
		attribute.String("run.status", string(state.GetStatus())),
		attribute.Float64("run.duration_seconds", state.Duration().Seconds()),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "run completed")
}

// StartStep opens a step span under the run span.
func (t *RunTracer) StartStep(ctx context.Context, state *RunState, stepID string) (context.Context, trace.Span) {
	if t == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return t.tracer.Start(ctx, "step."+stepID,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", state.ID),
			attribute.String("step.id", stepID),
		),
	)
}

// EndStep records step metrics and closes its span.
func (t *RunTracer) EndStep(ctx context.Context, span trace.Span, project, stepID string, duration time.Duration, err error) {
	if t == nil {
		return
	}
	defer span.End()

	infrastructure.RecordStepMetrics(ctx, t.metrics, project, stepID, duration, err == nil)
	span.SetAttributes(attribute.Float64("step.duration_seconds", duration.Seconds()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "step completed")
}
