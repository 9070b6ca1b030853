package infrastructure

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlprep/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestInitializeOTel_MetricsExposed(t *testing.T) {
	cfg := config.Default().Telemetry
	cfg.EnableMetrics = true
	cfg.EnableTracing = false

	providers, err := InitializeOTel(cfg, discardLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	require.NotNil(t, providers.PrometheusHTTP)

	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	RecordRunMetrics(ctx, metrics, "oilwell", 150*time.Millisecond, nil)
	RecordRowCounts(ctx, metrics, "oilwell", 100, 3)

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	assert.Contains(t, body, "mlprep_runs_total")
	assert.Contains(t, body, "mlprep_rows_dropped_total")
	assert.Contains(t, body, `project="oilwell"`)
}

func TestInitializeOTel_Repeatable(t *testing.T) {
	cfg := config.Default().Telemetry
	for i := 0; i < 2; i++ {
		providers, err := InitializeOTel(cfg, discardLogger())
		require.NoError(t, err)
		require.NoError(t, providers.Shutdown(context.Background()))
	}
}

func TestInitializeOTel_Disabled(t *testing.T) {
	cfg := config.TelemetryConfig{ServiceName: "mlprep-test"}

	providers, err := InitializeOTel(cfg, discardLogger())
	require.NoError(t, err)

	assert.Nil(t, providers.MeterProvider)
	assert.Nil(t, providers.TracerProvider)
	assert.NotNil(t, providers.Meter, "noop meter is provided")
	assert.NotNil(t, providers.Tracer, "noop tracer is provided")

	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		RecordStepMetrics(context.Background(), metrics, "gaming-market", "load", time.Second, false)
		RecordActiveRunChange(context.Background(), metrics, 1, "gaming-market")
	})
	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestRecordHelpers_NilMetrics(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordRunMetrics(ctx, nil, "p", time.Second, errors.New("boom"))
		RecordStepMetrics(ctx, nil, "p", "s", time.Second, true)
		RecordRowCounts(ctx, nil, "p", 1, 1)
		RecordActiveRunChange(ctx, nil, 1, "p")
		RecordError(ctx, errors.New("no span"))
	})
}
