package http

import (
	"context"

	"mlprep/internal/services"
	"mlprep/pkg/contracts/domain"
)

// RunService is the part of services.PreprocessService the API needs.
type RunService interface {
	Projects() []domain.ProjectInfo
	Run(ctx context.Context, project string, opts services.RunOptions) (domain.RunRecord, error)
	RunAll(ctx context.Context, opts services.RunOptions) ([]domain.RunRecord, error)
	GetRun(ctx context.Context, id string) (domain.RunRecord, error)
	ListRuns(ctx context.Context, project string, limit int) ([]domain.RunRecord, error)
	CancelRun(ctx context.Context, id string) error
}

// HealthChecker is implemented by services.HealthService.
type HealthChecker interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) services.HealthStatus
	LivenessCheck(ctx context.Context) services.HealthStatus
}

var (
	_ RunService    = (*services.PreprocessService)(nil)
	_ HealthChecker = (*services.HealthService)(nil)
)
