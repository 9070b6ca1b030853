package operations_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlprep/internal/operations"
)

func TestNewStepState(t *testing.T) {
	state := operations.NewStepState("load", "Load")

	assert.Equal(t, "load", state.ID)
	assert.Equal(t, operations.StepStatusPending, state.GetStatus())
	assert.NotNil(t, state.Metadata)
	assert.Nil(t, state.StartTime)
	assert.Zero(t, state.Duration())
}

func TestStepStateTransitions(t *testing.T) {
	tests := []struct {
		name       string
		transition func(*operations.StepState)
		wantStatus operations.StepStatus
		check      func(t *testing.T, s *operations.StepState)
	}{
		{
			name:       "start",
			transition: func(s *operations.StepState) { s.Start() },
			wantStatus: operations.StepStatusActive,
			check: func(t *testing.T, s *operations.StepState) {
				assert.NotNil(t, s.StartTime)
				assert.Nil(t, s.EndTime)
				assert.Equal(t, 1, s.Attempts)
			},
		},
		{
			name:       "complete",
			transition: func(s *operations.StepState) { s.Start(); s.Complete() },
			wantStatus: operations.StepStatusCompleted,
			check: func(t *testing.T, s *operations.StepState) {
				assert.NotNil(t, s.EndTime)
			},
		},
		{
			name:       "fail",
			transition: func(s *operations.StepState) { s.Fail(errors.New("boom")) },
			wantStatus: operations.StepStatusFailed,
			check: func(t *testing.T, s *operations.StepState) {
				assert.EqualError(t, s.Error, "boom")
				assert.Equal(t, "boom", s.Message)
			},
		},
		{
			name:       "skip",
			transition: func(s *operations.StepState) { s.Skip("dependency failed") },
			wantStatus: operations.StepStatusSkipped,
			check: func(t *testing.T, s *operations.StepState) {
				assert.Equal(t, "dependency failed", s.Message)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := operations.NewStepState("x", "X")
			tt.transition(s)
			assert.Equal(t, tt.wantStatus, s.GetStatus())
			tt.check(t, s)
		})
	}
}

func TestFuncStep_ValidateRequiresContext(t *testing.T) {
	step := operations.NewFuncStep("split", "Split", func(ctx context.Context, s *operations.RunState) error {
		return nil
	}, "clean").Requires(operations.ContextKeyFrame)

	state := operations.NewRunState("r1", "demo")
	err := step.Validate(state)
	require.Error(t, err)
	assert.Contains(t, err.Error(), operations.ContextKeyFrame)

	state.SetContext(operations.ContextKeyFrame, 1)
	assert.NoError(t, step.Validate(state))
	assert.Equal(t, []string{"clean"}, step.GetDependencies())
}

func TestFuncStep_NilBody(t *testing.T) {
	step := operations.NewFuncStep("x", "X", nil)
	err := step.Execute(context.Background(), operations.NewRunState("r", "p"))
	assert.Equal(t, operations.ErrorTypeFatal, operations.GetErrorType(err))
}

func TestRunState_Clone(t *testing.T) {
	state := operations.NewRunState("r1", "oilwell")
	step := operations.NewStepState("load", "Load")
	step.SetMetadata("rows", 10)
	state.SetStep("load", step)
	state.SetConfig(operations.ConfigKeySeed, int64(7))
	state.Complete()

	clone := state.Clone()
	step.SetMetadata("rows", 99)

	assert.Equal(t, operations.RunStatusCompleted, clone.Status)
	assert.Equal(t, 10, clone.GetStep("load").Metadata["rows"])
	assert.NotNil(t, clone.EndTime)
	v, ok := clone.GetConfig(operations.ConfigKeySeed)
	assert.True(t, ok)
	assert.Equal(t, int64(7), v)
}

func TestRunState_ConfigString(t *testing.T) {
	state := operations.NewRunState("r1", "p")
	state.SetConfig("a", "x")
	state.SetConfig("b", 3)

	assert.Equal(t, "x", state.ConfigString("a"))
	assert.Equal(t, "", state.ConfigString("b"))
	assert.Equal(t, "", state.ConfigString("missing"))
}
