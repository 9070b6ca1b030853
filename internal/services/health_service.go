package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"mlprep/pkg/contracts"
)

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// RunCounter reports how many runs are executing.
type RunCounter interface {
	ActiveRuns() int
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	runs      RunCounter
	store     RunStore
	startTime time.Time
	logger    *slog.Logger
}

// NewHealthService creates a health service. runs and store may be nil.
func NewHealthService(runs RunCounter, store RunStore, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   contracts.Version,
		runs:      runs,
		store:     store,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
	hs.logger.DebugContext(ctx, "health_check", slog.String("status", status.Status))
	return status
}

// ReadinessCheck probes the run store and reports active runs.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services:  make(map[string]interface{}),
	}

	store := ServiceHealth{Status: "ready"}
	if hs.store == nil {
		store = ServiceHealth{Status: "not_ready", Message: "run store not configured"}
	} else if _, err := hs.store.ListRuns(ctx, "", 1); err != nil {
		store = ServiceHealth{Status: "not_ready", Message: err.Error()}
	}
	status.Services["store"] = store

	if hs.runs != nil {
		status.Services["operations"] = ServiceHealth{Status: "ready"}
		status.Services["active_runs"] = hs.runs.ActiveRuns()
	}

	if store.Status != "ready" {
		status.Status = "not_ready"
		hs.logger.WarnContext(ctx, "readiness_failed", slog.String("reason", store.Message))
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() contracts.VersionInfo {
	return contracts.GetVersionInfo()
}
