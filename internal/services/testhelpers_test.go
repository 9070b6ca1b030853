package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"mlprep/internal/config"
	"mlprep/internal/operations"
	"mlprep/internal/shared/testutil"
	"mlprep/internal/store"
	"mlprep/pkg/contracts/domain"
)

type mockRunStore struct {
	mock.Mock
}

func (m *mockRunStore) SaveRun(ctx context.Context, rec domain.RunRecord) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *mockRunStore) GetRun(ctx context.Context, id string) (domain.RunRecord, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.RunRecord), args.Error(1)
}

func (m *mockRunStore) ListRuns(ctx context.Context, project string, limit int) ([]domain.RunRecord, error) {
	args := m.Called(ctx, project, limit)
	runs, _ := args.Get(0).([]domain.RunRecord)
	return runs, args.Error(1)
}

// writeFixtures places a small input file per project under dir and points
// cfg at them.
func writeFixtures(t *testing.T, dir string, cfg *config.Config) {
	t.Helper()

	cfg.Projects.Mobility.InputPath = testutil.WriteCSV(t, dir, "rides.csv",
		[]string{"start_ts", "duration_seconds", "weather_conditions"},
		[]string{"2017-11-25 16:00:00", "2410", "Good"},
		[]string{"2017-11-25 14:00:00", "1686", "Bad"},
		[]string{"not-a-time", "100", "Good"},
		[]string{"2017-11-26 10:00:00", "0", "Good"},
	)

	cfg.Projects.Gaming.InputPath = testutil.WriteCSV(t, dir, "games.csv",
		[]string{"Name", "Platform", "Year_of_Release", "Genre", "NA_Sales", "EU_Sales", "JP_Sales", "Other_Sales", "Critic_Score", "User_Score", "Rating"},
		[]string{"Game A", "PS4", "2015", "Action", "3.5", "2.8", "0.3", "1.0", "92", "8.5", "M"},
		[]string{"Game B", "XOne", "2014", "Shooter", "0.1", "0.1", "0.0", "0.1", "NA", "tbd", "T"},
		[]string{"Game C", "PC", "2016", "RPG", "0.5", "0.8", "0.0", "0.2", "88", "8.2", "NA"},
		[]string{"Game D", "PS4", "NA", "Sports", "1.8", "1.2", "0.1", "0.4", "78", "6.5", "E"},
	)

	header := []string{
		"date", "rougher.input.feed_au", "rougher.input.feed_ag", "primary_cleaner.input.sulfate",
		"rougher.output.concentrate_au", "rougher.output.tail_au", "rougher.output.concentrate_ag",
		"primary_cleaner.output.concentrate_au", "primary_cleaner.output.concentrate_ag",
		"final.output.concentrate_au", "final.output.tail_au",
		"rougher.output.recovery", "final.output.recovery",
	}
	cfg.Projects.GoldRecovery.InputPath = testutil.WriteCSV(t, dir, "gold.csv", header,
		[]string{"2016-01-15 02:00:00", "7.5", "8.1", "120", "24", "3.5", "11", "30", "9", "44", "2.5", "62.4", "70"},
		[]string{"2016-01-15 00:00:00", "8", "8.3", "118", "25", "3", "12", "32", "8", "45", "2.4", "71", "72"},
		[]string{"2016-01-15 01:00:00", "7.8", "NA", "121", "26", "3.2", "10", "31", "8.5", "43", "2.6", "NA", "68"},
		[]string{"2016-01-15 03:00:00", "7.2", "8.0", "119", "23", "3.1", "10", "29", "9.5", "42", "2.7", "66", "120"},
	)

	cfg.Projects.OilWell.InputPath = testutil.WriteCSV(t, dir, "geo_data_0.csv",
		[]string{"id", "f0", "f1", "f2", "product"},
		[]string{"a", "0.7", "-0.5", "1.2", "105"},
		[]string{"b", "1.1", "0.2", "3.3", "73"},
		[]string{"a", "0.9", "-0.4", "1.0", "120"},
		[]string{"c", "-0.3", "0.9", "2.2", "NA"},
		[]string{"d", "0.1", "0.3", "4.1", "160"},
		[]string{"e", "0.5", "-0.1", "0.4", "12"},
	)
	cfg.Projects.OilWell.WellsSelected = 2
	cfg.Projects.OilWell.PointsExplored = 4
	cfg.Projects.OilWell.BootstrapSamples = 50
	cfg.Projects.OilWell.Budget = 1e8
}

type testEnv struct {
	service *PreprocessService
	store   *store.Store
	manager *operations.Manager
	paths   *config.Paths
	logs    *testutil.BufferedSlogHandler
}

func newTestEnv(t *testing.T, mutate ...func(*config.Config)) *testEnv {
	t.Helper()
	dir := t.TempDir()
	logger, logs := testutil.NewTestLogger(t)

	cfg := config.Default()
	writeFixtures(t, dir, cfg)
	for _, fn := range mutate {
		fn(cfg)
	}
	paths := &config.Paths{DataDir: dir, OutputDir: filepath.Join(dir, "out")}

	st, err := store.Open(config.StoreConfig{Path: filepath.Join(dir, "runs.db"), CacheSize: 8}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	manager := operations.NewManager(
		operations.NewConfigBuilder().WithRetryConfig(operations.RetryConfig{MaxAttempts: 1}).Build(),
		nil, logger)

	svc, err := NewPreprocessService(cfg, paths, manager, st, nil, logger)
	require.NoError(t, err)

	return &testEnv{service: svc, store: st, manager: manager, paths: paths, logs: logs}
}
