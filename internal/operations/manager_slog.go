package operations

import (
	"context"
	"log/slog"
	"time"
)

func (m *Manager) logRunStart(ctx context.Context, state *RunState, steps int) {
	m.logger.InfoContext(ctx, "run_start",
		slog.String("run_id", state.ID),
		slog.String("project", state.Project),
		slog.Int("step_count", steps))
}

func (m *Manager) logRunComplete(ctx context.Context, state *RunState, err error) {
	attrs := []any{
		slog.String("run_id", state.ID),
		slog.String("project", state.Project),
		slog.String("status", string(state.GetStatus())),
		slog.Duration("duration", state.Duration()),
	}
	if err != nil {
		m.logger.ErrorContext(ctx, "run_complete", append(attrs, slog.String("error", err.Error()))...)
		return
	}
	m.logger.InfoContext(ctx, "run_complete", attrs...)
}

func (m *Manager) logStepStart(ctx context.Context, runID, stepID string, attempt int) {
	m.logger.InfoContext(ctx, "step_start",
		slog.String("run_id", runID),
		slog.String("step", stepID),
		slog.Int("attempt", attempt))
}

func (m *Manager) logStepComplete(ctx context.Context, runID, stepID string, duration time.Duration) {
	m.logger.InfoContext(ctx, "step_complete",
		slog.String("run_id", runID),
		slog.String("step", stepID),
		slog.Duration("duration", duration))
}

func (m *Manager) logStepError(ctx context.Context, runID, stepID string, err error) {
	errorMsg := "unknown error"
	if err != nil {
		errorMsg = err.Error()
	}
	m.logger.ErrorContext(ctx, "step_error",
		slog.String("run_id", runID),
		slog.String("step", stepID),
		slog.String("error", errorMsg))
}
