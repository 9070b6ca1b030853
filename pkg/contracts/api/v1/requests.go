// Package api contains the HTTP contract of the mlprep service.
// Version v1 represents the current stable API version.
package api

import (
	"mlprep/pkg/contracts/domain"
)

// RunCreateRequest starts a preprocessing run for the project in the URL.
// Empty fields fall back to the configured project defaults.
type RunCreateRequest struct {
	InputPath string `json:"input_path,omitempty" validate:"omitempty,safepath"`
	OutputDir string `json:"output_dir,omitempty" validate:"omitempty,safepath"`
	Format    string `json:"format,omitempty" validate:"omitempty,oneof=csv xlsx"`
	Seed      *int64 `json:"seed,omitempty"`
}

// RunListRequest filters the run log.
type RunListRequest struct {
	Project string `json:"project" query:"project"`
	Limit   int    `json:"limit" query:"limit" validate:"omitempty,min=1,max=500"`
}

// ProjectListResponse lists registered projects.
type ProjectListResponse struct {
	Projects []domain.ProjectInfo `json:"projects"`
}

// RunListResponse lists recorded runs, newest first.
type RunListResponse struct {
	Runs  []domain.RunRecord `json:"runs"`
	Count int                `json:"count"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// RunAllRequest runs every project with shared options.
type RunAllRequest struct {
	OutputDir string `json:"output_dir,omitempty" validate:"omitempty,safepath"`
	Format    string `json:"format,omitempty" validate:"omitempty,oneof=csv xlsx"`
	Seed      *int64 `json:"seed,omitempty"`
}

// RunAllResponse reports one record per project. Failed counts runs that
// did not complete.
type RunAllResponse struct {
	Runs   []domain.RunRecord `json:"runs"`
	Failed int                `json:"failed"`
}
