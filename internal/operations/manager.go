package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager runs project pipelines.
type Manager struct {
	config *Config
	tracer *RunTracer
	logger *slog.Logger

	mu        sync.RWMutex
	pipelines map[string]*Registry
	runs      map[string]*activeRun
}

type activeRun struct {
	state  *RunState
	cancel context.CancelFunc
}

// NewManager creates a manager. A nil tracer disables tracing and metrics.
func NewManager(config *Config, tracer *RunTracer, logger *slog.Logger) *Manager {
	if config == nil {
		config = NewConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		config:    config,
		tracer:    tracer,
		logger:    logger.With(slog.String("component", "operations")),
		pipelines: make(map[string]*Registry),
		runs:      make(map[string]*activeRun),
	}
}

// RegisterPipeline binds a project name to its steps.
func (m *Manager) RegisterPipeline(project string, registry *Registry) error {
	if project == "" || registry == nil {
		return fmt.Errorf("pipeline needs a project name and a registry")
	}
	if _, err := registry.GetDependencyOrder(); err != nil {
		return fmt.Errorf("pipeline %s: %w", project, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.pipelines[project]; exists {
		return fmt.Errorf("pipeline %s already registered", project)
	}
	m.pipelines[project] = registry
	return nil
}

// Pipelines lists registered projects in name order.
func (m *Manager) Pipelines() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.pipelines))
	for name := range m.pipelines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Pipeline returns the registry of a project.
func (m *Manager) Pipeline(project string) (*Registry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.pipelines[project]
	return r, ok
}

// GetConfig returns the current configuration
func (m *Manager) GetConfig() *Config {
	return m.config
}

// Execute runs the pipeline of req.Project to completion. The returned state
// is always non-nil, also on error.
func (m *Manager) Execute(ctx context.Context, req RunRequest) (*RunState, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	state := NewRunState(req.ID, req.Project)
	state.SetConfig(ConfigKeyProject, req.Project)
	for k, v := range req.Parameters {
		state.SetConfig(k, v)
	}

	registry, ok := m.Pipeline(req.Project)
	if !ok {
		err := &OperationError{Type: ErrorTypeNotFound, Message: fmt.Sprintf("no pipeline for project %q", req.Project)}
		state.Fail(err)
		return state, err
	}
	steps, err := registry.GetDependencyOrder()
	if err != nil {
		state.Fail(err)
		return state, err
	}
	for _, step := range steps {
		state.SetStep(step.ID(), NewStepState(step.ID(), step.Name()))
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	m.storeRun(state, cancel)
	defer m.removeRun(state.ID)

	runCtx, span := m.tracer.StartRun(runCtx, state)
	m.logRunStart(runCtx, state, len(steps))

	state.Start()
	err = m.executeSequential(runCtx, state, steps)

	switch {
	case err == nil:
		state.Complete()
	case errors.Is(runCtx.Err(), context.Canceled):
		state.Cancel()
		state.mu.Lock()
		state.Error = err
		state.mu.Unlock()
	default:
		state.Fail(err)
	}

	m.tracer.EndRun(runCtx, span, state, err)
	m.logRunComplete(runCtx, state, err)
	return state, err
}

// executeSequential runs steps in dependency order.
func (m *Manager) executeSequential(ctx context.Context, state *RunState, steps []Step) error {
	var firstErr error
	for i, step := range steps {
		stepState := state.GetStep(step.ID())

		if err := ctx.Err(); err != nil {
			m.logger.WarnContext(ctx, "run_cancelled",
				slog.String("run_id", state.ID),
				slog.String("step", step.ID()))
			return NewCancellationError(step.ID())
		}

		if stepState.GetStatus() == StepStatusSkipped {
			continue
		}

		m.logger.DebugContext(ctx, "executing_step",
			slog.String("run_id", state.ID),
			slog.String("step", step.ID()),
			slog.Int("step_number", i+1),
			slog.Int("total_steps", len(steps)))

		if err := m.executeStep(ctx, state, step); err != nil {
			m.logStepError(ctx, state.ID, step.ID(), err)
			m.skipDependentSteps(state, steps, step.ID())
			if !m.config.ContinueOnError {
				return err
			}
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// executeStep runs one step with timeout and retries.
func (m *Manager) executeStep(ctx context.Context, state *RunState, step Step) error {
	stepState := state.GetStep(step.ID())
	if stepState == nil {
		return NewFatalError("step state not found", nil)
	}

	if err := m.checkDependencies(state, step); err != nil {
		stepState.Skip(fmt.Sprintf("dependencies not met: %v", err))
		return err
	}

	if err := step.Validate(state); err != nil {
		vErr := NewValidationError(step.ID(), err.Error())
		stepState.Fail(vErr)
		return vErr
	}

	timeout := m.config.GetStepTimeout(step.ID())
	retry := m.config.RetryConfig
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= retry.MaxAttempts; attempt++ {
		stepState.Start()
		m.logStepStart(ctx, state.ID, step.ID(), attempt)

		stepCtx, cancel := context.WithTimeout(ctx, timeout)
		stepCtx, span := m.tracer.StartStep(stepCtx, state, step.ID())
		start := time.Now()
		err := step.Execute(stepCtx, state)
		duration := time.Since(start)
		timedOut := errors.Is(stepCtx.Err(), context.DeadlineExceeded)
		m.tracer.EndStep(stepCtx, span, state.Project, step.ID(), duration, err)
		cancel()

		if err == nil {
			stepState.Complete()
			m.logStepComplete(ctx, state.ID, step.ID(), duration)
			return nil
		}

		if timedOut {
			tErr := NewTimeoutError(step.ID(), timeout.String())
			tErr.Cause = err
			err = tErr
		}
		lastErr = err

		if !IsRetryable(err) || attempt >= retry.MaxAttempts || ctx.Err() != nil {
			break
		}

		delay := calculateRetryDelay(attempt, retry)
		m.logger.WarnContext(ctx, "step_retry",
			slog.String("run_id", state.ID),
			slog.String("step", step.ID()),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", retry.MaxAttempts),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			lastErr = NewCancellationError(step.ID())
			stepState.Fail(lastErr)
			return lastErr
		}
	}

	wrapped := WrapError(lastErr, step.ID(), "step execution failed")
	stepState.Fail(wrapped)
	return wrapped
}

// skipDependentSteps marks every pending step downstream of failedID as skipped.
func (m *Manager) skipDependentSteps(state *RunState, steps []Step, failedID string) {
	for _, step := range steps {
		for _, dep := range step.GetDependencies() {
			if dep != failedID {
				continue
			}
			stepState := state.GetStep(step.ID())
			if stepState != nil && stepState.GetStatus() == StepStatusPending {
				stepState.Skip(fmt.Sprintf("dependency %s did not complete", failedID))
				m.skipDependentSteps(state, steps, step.ID())
			}
			break
		}
	}
}

// checkDependencies verifies that all dependencies completed.
func (m *Manager) checkDependencies(state *RunState, step Step) error {
	for _, dep := range step.GetDependencies() {
		depState := state.GetStep(dep)
		if depState == nil {
			return NewDependencyError(step.ID(), dep, fmt.Sprintf("dependency %s not found", dep))
		}
		if status := depState.GetStatus(); status != StepStatusCompleted {
			return NewDependencyError(step.ID(), dep, fmt.Sprintf("dependency %s not completed (status: %s)", dep, status))
		}
	}
	return nil
}

// calculateRetryDelay grows InitialDelay by Multiplier per attempt, capped at MaxDelay.
func calculateRetryDelay(attempt int, config RetryConfig) time.Duration {
	mult := config.Multiplier
	if mult < 1 {
		mult = 1
	}
	delay := time.Duration(float64(config.InitialDelay) * math.Pow(mult, float64(attempt-1)))
	if config.MaxDelay > 0 && delay > config.MaxDelay {
		delay = config.MaxDelay
	}
	return delay
}

// GetRun returns a snapshot of an active run.
func (m *Manager) GetRun(id string) (*RunState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	run, exists := m.runs[id]
	if !exists {
		return nil, ErrRunNotFound
	}
	return run.state.Clone(), nil
}

// ListRuns returns snapshots of all active runs.
func (m *Manager) ListRuns() []*RunState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	runs := make([]*RunState, 0, len(m.runs))
	for _, run := range m.runs {
		runs = append(runs, run.state.Clone())
	}
	return runs
}

// CancelRun cancels an active run.
func (m *Manager) CancelRun(id string) error {
	m.mu.RLock()
	run, exists := m.runs[id]
	m.mu.RUnlock()
	if !exists {
		return ErrRunNotFound
	}

	run.cancel()
	m.logger.Info("run_cancel_requested", slog.String("run_id", id))
	return nil
}

func (m *Manager) storeRun(state *RunState, cancel context.CancelFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[state.ID] = &activeRun{state: state, cancel: cancel}
}

func (m *Manager) removeRun(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.runs, id)
}
