package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlprep/internal/config"
	"mlprep/internal/shared/testutil"
	api "mlprep/pkg/contracts/api/v1"
	"mlprep/pkg/contracts/domain"
)

func newTestApp(t *testing.T) *Application {
	t.Helper()
	dir := t.TempDir()
	logger, _ := testutil.NewTestLogger(t)

	cfg := config.Default()
	cfg.Paths = config.PathsConfig{
		DataDir:   filepath.Join(dir, "data"),
		OutputDir: filepath.Join(dir, "out"),
		LogsDir:   filepath.Join(dir, "logs"),
	}
	cfg.Store.Path = filepath.Join(dir, "data", "runs.db")
	cfg.Server.RateLimit.Enabled = false
	cfg.Projects.Mobility.InputPath = testutil.WriteCSV(t, dir, "rides.csv",
		[]string{"start_ts", "duration_seconds", "weather_conditions"},
		[]string{"2017-11-25 16:00:00", "2410", "Good"},
		[]string{"2017-11-25 14:00:00", "1686", "Bad"},
	)

	a, err := New(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func serve(a *Application, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	return rec
}

func TestApplication_Health(t *testing.T) {
	a := newTestApp(t)

	rec := serve(a, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = serve(a, http.MethodGet, "/api/v1/health/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestApplication_RunLifecycle(t *testing.T) {
	a := newTestApp(t)

	rec := serve(a, http.MethodGet, "/api/v1/projects", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var projects api.ProjectListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &projects))
	assert.Len(t, projects.Projects, 4)

	rec = serve(a, http.MethodPost, "/api/v1/projects/mobility/runs", `{"seed":3}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var run domain.RunRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, domain.RunStatusCompleted, run.Status)
	assert.Equal(t, int64(3), run.Seed)
	assert.True(t, strings.HasPrefix(run.OutputDir, a.Paths.OutputDir))

	rec = serve(a, http.MethodGet, "/api/v1/runs/"+run.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(a, http.MethodGet, "/api/v1/runs?project=mobility", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list api.RunListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)

	rec = serve(a, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mlprep_runs_total")
}

func TestApplication_FailedRunIsRecorded(t *testing.T) {
	a := newTestApp(t)

	rec := serve(a, http.MethodPost, "/api/v1/projects/oilwell/runs",
		`{"input_path":"/definitely/missing.csv"}`)
	require.GreaterOrEqual(t, rec.Code, http.StatusBadRequest)

	var problem map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	runID, ok := problem["run_id"].(string)
	require.True(t, ok, rec.Body.String())

	rec = serve(a, http.MethodGet, "/api/v1/runs/"+runID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var run domain.RunRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, domain.RunStatusFailed, run.Status)
}

func TestApplication_ProblemResponses(t *testing.T) {
	a := newTestApp(t)

	rec := serve(a, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "/errors/not-found")

	rec = serve(a, http.MethodPut, "/api/v1/projects", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = serve(a, http.MethodGet, "/api/v1/runs/unknown-id", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApplication_ServeStopsOnCancel(t *testing.T) {
	a := newTestApp(t)
	a.Server.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)
}
