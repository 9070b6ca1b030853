package operations

import (
	"time"
)

// Pipeline step identifiers shared by every project.
const (
	StepIDLoad     = "load"
	StepIDClean    = "clean"
	StepIDFeatures = "features"
	StepIDSplit    = "split"
	StepIDExport   = "export"
)

// Step names
const (
	StepNameLoad     = "Load Raw Data"
	StepNameClean    = "Clean"
	StepNameFeatures = "Derive Features"
	StepNameSplit    = "Split Features and Target"
	StepNameExport   = "Export Artifacts"
)

// Context keys for data passed between steps.
const (
	ContextKeyFrame     = "frame"
	ContextKeyFeatures  = "features"
	ContextKeyReport    = "report"
	ContextKeyArtifacts = "artifacts"
)

// Config keys set from the run request.
const (
	ConfigKeyProject   = "project"
	ConfigKeySeed      = "seed"
	ConfigKeyInputPath = "input_path"
	ConfigKeyOutputDir = "output_dir"
	ConfigKeyFormat    = "format"
)

// DefaultStepTimeout applies when a step has no explicit timeout.
const DefaultStepTimeout = 10 * time.Minute

// RetryConfig defines retry behavior for steps
type RetryConfig struct {
	MaxAttempts  int           `json:"max_attempts"`
	InitialDelay time.Duration `json:"initial_delay"`
	MaxDelay     time.Duration `json:"max_delay"`
	Multiplier   float64       `json:"multiplier"`
}

// NewRetryConfig returns the default retry configuration
func NewRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  2,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	}
}

// RunRequest asks the manager to run one project pipeline.
type RunRequest struct {
	ID         string                 `json:"id"`
	Project    string                 `json:"project"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// RunResponse is the externally visible result of a run.
type RunResponse struct {
	ID       string                `json:"id"`
	Project  string                `json:"project"`
	Status   RunStatus             `json:"status"`
	Duration time.Duration         `json:"duration"`
	Steps    map[string]*StepState `json:"steps"`
	Error    string                `json:"error,omitempty"`
}

// NewRunResponse snapshots state.
func NewRunResponse(state *RunState) *RunResponse {
	snapshot := state.Clone()
	resp := &RunResponse{
		ID:       snapshot.ID,
		Project:  snapshot.Project,
		Status:   snapshot.Status,
		Duration: snapshot.Duration(),
		Steps:    snapshot.Steps,
	}
	if snapshot.Error != nil {
		resp.Error = snapshot.Error.Error()
	}
	return resp
}
