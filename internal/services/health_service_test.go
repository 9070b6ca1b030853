package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"mlprep/internal/shared/testutil"
	"mlprep/pkg/contracts"
	"mlprep/pkg/contracts/domain"
)

type fixedRuns int

func (f fixedRuns) ActiveRuns() int { return int(f) }

func TestHealthService_HealthCheck(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hs := NewHealthService(nil, nil, logger)

	status := hs.HealthCheck(context.Background())
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, contracts.Version, status.Version)
}

func TestHealthService_ReadinessCheck(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)

	ok := &mockRunStore{}
	ok.On("ListRuns", mock.Anything, "", 1).Return([]domain.RunRecord{}, nil)
	status := NewHealthService(fixedRuns(2), ok, logger).ReadinessCheck(context.Background())
	assert.Equal(t, "ready", status.Status)
	assert.Equal(t, 2, status.Services["active_runs"])

	broken := &mockRunStore{}
	broken.On("ListRuns", mock.Anything, "", 1).Return(nil, errors.New("database is locked"))
	status = NewHealthService(fixedRuns(0), broken, logger).ReadinessCheck(context.Background())
	assert.Equal(t, "not_ready", status.Status)
	assert.Equal(t, ServiceHealth{Status: "not_ready", Message: "database is locked"}, status.Services["store"])
	assert.True(t, logs.ContainsMessage("readiness_failed"))

	status = NewHealthService(nil, nil, logger).ReadinessCheck(context.Background())
	assert.Equal(t, "not_ready", status.Status)
}

func TestHealthService_Liveness(t *testing.T) {
	hs := NewHealthService(nil, nil, nil)
	status := hs.LivenessCheck(context.Background())
	assert.Equal(t, "alive", status.Status)
	assert.Contains(t, status.Runtime, "goroutines")
	assert.Equal(t, contracts.Version, hs.Version().Version)
}
