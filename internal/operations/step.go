package operations

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Step is a single unit of work in a project pipeline.
type Step interface {
	ID() string
	Name() string

	// Execute runs the step against the shared run state.
	Execute(ctx context.Context, state *RunState) error

	// Validate checks the step can run with the current state.
	Validate(state *RunState) error

	// GetDependencies returns the IDs of steps that must complete first.
	GetDependencies() []string
}

// StepStatus represents the current status of a Step
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusActive    StepStatus = "active"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// StepState represents the runtime state of a Step
type StepState struct {
	mu        sync.RWMutex
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Status    StepStatus             `json:"status"`
	StartTime *time.Time             `json:"start_time,omitempty"`
	EndTime   *time.Time             `json:"end_time,omitempty"`
	Attempts  int                    `json:"attempts"`
	Message   string                 `json:"message,omitempty"`
	Error     error                  `json:"-"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewStepState creates a pending step state.
func NewStepState(id, name string) *StepState {
	return &StepState{
		ID:       id,
		Name:     name,
		Status:   StepStatusPending,
		Metadata: make(map[string]interface{}),
	}
}

// Start marks the Step as active and sets the start time
func (s *StepState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.StartTime = &now
	s.EndTime = nil
	s.Status = StepStatusActive
	s.Attempts++
}

// Complete marks the Step as completed and sets the end time
func (s *StepState) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = StepStatusCompleted
	s.Error = nil
}

// Fail marks the Step as failed with the given error
func (s *StepState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = StepStatusFailed
	s.Error = err
	if err != nil {
		s.Message = err.Error()
	}
}

// Skip marks the Step as skipped with the given reason
func (s *StepState) Skip(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = StepStatusSkipped
	s.Message = reason
}

// SetMetadata records a value reported by the step.
func (s *StepState) SetMetadata(key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Metadata[key] = value
}

// GetStatus returns the current status.
func (s *StepState) GetStatus() StepStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// Duration returns the duration of the Step execution
func (s *StepState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.StartTime == nil {
		return 0
	}
	if s.EndTime != nil {
		return s.EndTime.Sub(*s.StartTime)
	}
	return time.Since(*s.StartTime)
}

// BaseStep provides common functionality for Step implementations
type BaseStep struct {
	id           string
	name         string
	dependencies []string
}

// NewBaseStep creates a new base Step
func NewBaseStep(id, name string, dependencies ...string) BaseStep {
	if dependencies == nil {
		dependencies = []string{}
	}
	return BaseStep{
		id:           id,
		name:         name,
		dependencies: dependencies,
	}
}

// ID returns the Step ID
func (b *BaseStep) ID() string {
	if b == nil {
		return ""
	}
	return b.id
}

// Name returns the Step name
func (b *BaseStep) Name() string {
	if b == nil {
		return ""
	}
	return b.name
}

// GetDependencies returns the Step dependencies
func (b *BaseStep) GetDependencies() []string {
	if b == nil {
		return nil
	}
	return b.dependencies
}

// Validate provides a default validation that always passes
func (b *BaseStep) Validate(state *RunState) error {
	if b == nil {
		return fmt.Errorf("BaseStep is nil")
	}
	return nil
}

// StepFunc is the body of a FuncStep.
type StepFunc func(ctx context.Context, state *RunState) error

// FuncStep adapts a function to the Step interface. It requires every
// context key in Needs to be present before running.
type FuncStep struct {
	BaseStep
	Needs []string
	fn    StepFunc
}

// NewFuncStep builds a step from fn.
func NewFuncStep(id, name string, fn StepFunc, dependencies ...string) *FuncStep {
	return &FuncStep{BaseStep: NewBaseStep(id, name, dependencies...), fn: fn}
}

// Requires declares context keys the step reads.
func (s *FuncStep) Requires(keys ...string) *FuncStep {
	s.Needs = append(s.Needs, keys...)
	return s
}

// Execute runs the wrapped function.
func (s *FuncStep) Execute(ctx context.Context, state *RunState) error {
	if s.fn == nil {
		return NewFatalError(fmt.Sprintf("step %s has no body", s.ID()), nil)
	}
	return s.fn(ctx, state)
}

// Validate checks the declared context keys are present.
func (s *FuncStep) Validate(state *RunState) error {
	for _, key := range s.Needs {
		if _, ok := state.GetContext(key); !ok {
			return fmt.Errorf("missing %q in run context", key)
		}
	}
	return nil
}
