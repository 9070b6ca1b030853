package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlprep/internal/config"
	apperrors "mlprep/internal/errors"
	"mlprep/internal/shared/testutil"
	"mlprep/pkg/contracts/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	s, err := Open(config.StoreConfig{Path: filepath.Join(t.TempDir(), "db", "runs.db"), CacheSize: 4}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleRun(id, project string, started time.Time) domain.RunRecord {
	return domain.RunRecord{
		ID:          id,
		Project:     project,
		Status:      domain.RunStatusCompleted,
		InputPath:   "data/" + project + ".csv",
		OutputDir:   "output/" + project + "/" + id,
		Format:      domain.ExportFormatCSV,
		Seed:        42,
		StartedAt:   started,
		CompletedAt: started.Add(2 * time.Second),
		Steps: []domain.StepRecord{
			{ID: "load", Name: "Load", Status: "completed", Attempts: 1, DurationMS: 12},
		},
		Summary: &domain.DatasetSummary{
			RowsIn: 10, RowsOut: 8, RowsDropped: 2,
			Features: []string{"f0", "f1"}, Target: "product",
			Metrics: map[string]float64{"profit_mean": 4.2e8},
		},
		Artifacts: []domain.ArtifactInfo{{Name: "features.csv", Path: "/tmp/features.csv", Rows: 8}},
	}
}

func TestStore_SaveAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	started := time.Date(2024, 5, 1, 9, 30, 0, 123000000, time.UTC)

	want := sampleRun("run-1", domain.ProjectOilWell, started)
	require.NoError(t, s.SaveRun(ctx, want))

	// bypass the cache to exercise the sqlite round trip
	s.cache.Purge()
	got, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)

	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Status, got.Status)
	assert.Equal(t, want.Format, got.Format)
	assert.Equal(t, int64(42), got.Seed)
	assert.True(t, want.StartedAt.Equal(got.StartedAt))
	assert.Equal(t, 2*time.Second, got.Duration())
	assert.Equal(t, want.Steps, got.Steps)
	assert.Equal(t, want.Summary, got.Summary)
	assert.Equal(t, want.Artifacts, got.Artifacts)
	assert.True(t, s.cache.Contains("run-1"))
}

func TestStore_SaveReplaces(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := sampleRun("run-1", domain.ProjectMobility, time.Now())
	require.NoError(t, s.SaveRun(ctx, rec))

	rec.Status = domain.RunStatusFailed
	rec.Error = "missing columns: [start_ts]"
	rec.Summary = nil
	require.NoError(t, s.SaveRun(ctx, rec))

	s.cache.Purge()
	got, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusFailed, got.Status)
	assert.Equal(t, rec.Error, got.Error)
	assert.Nil(t, got.Summary)

	all, err := s.ListRuns(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStore_GetRunNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetRun(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

func TestStore_SaveRunValidation(t *testing.T) {
	s := openTestStore(t)

	err := s.SaveRun(context.Background(), domain.RunRecord{ID: "x"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}

func TestStore_ListRuns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		project := domain.ProjectGamingMarket
		if i%2 == 1 {
			project = domain.ProjectGoldRecovery
		}
		// sub-second offsets check ordering with fractional timestamps
		started := base.Add(time.Duration(i) * 500 * time.Millisecond)
		require.NoError(t, s.SaveRun(ctx, sampleRun(fmt.Sprintf("run-%d", i), project, started)))
	}

	runs, err := s.ListRuns(ctx, "", 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{"run-4", "run-3", "run-2"}, []string{runs[0].ID, runs[1].ID, runs[2].ID})

	gold, err := s.ListRuns(ctx, domain.ProjectGoldRecovery, 0)
	require.NoError(t, err)
	require.Len(t, gold, 2)
	assert.Equal(t, "run-3", gold[0].ID)
	assert.Equal(t, "run-1", gold[1].ID)

	none, err := s.ListRuns(ctx, "unknown", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_CacheEviction(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		require.NoError(t, s.SaveRun(ctx, sampleRun(fmt.Sprintf("run-%d", i), domain.ProjectOilWell, time.Now())))
	}
	assert.Equal(t, 4, s.cache.Len())
	assert.False(t, s.cache.Contains("run-0"))

	got, err := s.GetRun(ctx, "run-0")
	require.NoError(t, err)
	assert.Equal(t, "run-0", got.ID)
	assert.True(t, s.cache.Contains("run-0"))
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(config.StoreConfig{}, nil)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}
