package domain

import (
	"time"
)

// Project identifiers.
const (
	ProjectMobility     = "mobility"
	ProjectGamingMarket = "gaming-market"
	ProjectGoldRecovery = "gold-recovery"
	ProjectOilWell      = "oilwell"
)

// ExportFormat selects how a dataset is written.
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatXLSX ExportFormat = "xlsx"
)

// RunStatus mirrors the terminal states of a preprocessing run.
type RunStatus string

const (
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// RunRecord is the persisted result of one preprocessing run.
type RunRecord struct {
	ID          string          `json:"id" db:"id" validate:"required"`
	Project     string          `json:"project" db:"project" validate:"required"`
	Status      RunStatus       `json:"status" db:"status"`
	InputPath   string          `json:"input_path" db:"input_path"`
	OutputDir   string          `json:"output_dir" db:"output_dir"`
	Format      ExportFormat    `json:"format" db:"format"`
	Seed        int64           `json:"seed" db:"seed"`
	StartedAt   time.Time       `json:"started_at" db:"started_at"`
	CompletedAt time.Time       `json:"completed_at" db:"completed_at"`
	Steps       []StepRecord    `json:"steps,omitempty" db:"-"`
	Summary     *DatasetSummary `json:"summary,omitempty" db:"-"`
	Artifacts   []ArtifactInfo  `json:"artifacts,omitempty" db:"-"`
	Error       string          `json:"error,omitempty" db:"error"`
}

// Duration is the wall time of the run.
func (r RunRecord) Duration() time.Duration {
	if r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// Succeeded reports whether the run completed.
func (r RunRecord) Succeeded() bool {
	return r.Status == RunStatusCompleted
}

// StepRecord is the outcome of one pipeline step.
type StepRecord struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	Attempts   int    `json:"attempts"`
	DurationMS int64  `json:"duration_ms"`
	Message    string `json:"message,omitempty"`
}

// DatasetSummary describes the X/y hand-off produced by a run.
type DatasetSummary struct {
	RowsIn      int                `json:"rows_in"`
	RowsOut     int                `json:"rows_out"`
	RowsDropped int                `json:"rows_dropped"`
	Features    []string           `json:"features"`
	Target      string             `json:"target"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
}

// ArtifactInfo describes a file written by a run.
type ArtifactInfo struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Rows int    `json:"rows"`
}

// ProjectInfo describes a registered preprocessing project.
type ProjectInfo struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Target      string   `json:"target"`
	InputPath   string   `json:"input_path"`
	Steps       []string `json:"steps"`
}
