package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlprep/internal/config"
	apierrors "mlprep/internal/errors"
	"mlprep/internal/infrastructure"
	"mlprep/internal/shared/testutil"
	api "mlprep/pkg/contracts/api/v1"
)

func TestRequestID(t *testing.T) {
	var seenReqID, seenTrace string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenReqID = chimw.GetReqID(r.Context())
		seenTrace = infrastructure.GetTraceID(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		id := rec.Header().Get(RequestIDHeader)
		require.NotEmpty(t, id)
		assert.Equal(t, id, seenReqID)
		assert.Equal(t, id, seenTrace)
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "req-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))
		assert.Equal(t, "req-123", seenReqID)
	})
}

func TestStructuredLogger(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := StructuredLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("hi"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil))

	assert.True(t, logs.ContainsMessage("request_completed"))
	assert.True(t, logs.ContainsAttr("status", int64(http.StatusTeapot)))
	assert.True(t, logs.ContainsAttr("path", "/api/v1/projects"))
}

func TestRateLimiter(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	rl := NewRateLimiter(0.001, 1, apierrors.NewErrorHandler(logger, false), logger)
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, apierrors.TypeRateLimit, body["type"])
	assert.True(t, logs.ContainsMessage("rate_limit_exceeded"))
}

func TestGetRealIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", GetRealIP(req))

	req.Header.Set("X-Real-IP", "192.168.1.9")
	assert.Equal(t, "192.168.1.9", GetRealIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.2")
	assert.Equal(t, "203.0.113.5", GetRealIP(req))
}

func TestOTelMiddleware_RecordsRoute(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	providers, err := infrastructure.InitializeOTel(config.TelemetryConfig{
		ServiceName:   "mlprep-test",
		EnableMetrics: true,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = providers.Shutdown(context.Background()) })

	metrics, err := infrastructure.CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)
	otelMW, err := NewOTelMiddleware(providers, metrics)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(otelMW.Handler)
	r.Get("/api/v1/runs/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", providers.PrometheusHTTP)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/abc", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
	assert.Contains(t, rec.Body.String(), `route="/api/v1/runs/{id}"`)

	_, err = NewOTelMiddleware(nil, nil)
	assert.Error(t, err)
}

func newValidation(t *testing.T) *ValidationMiddleware {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	return NewValidationMiddleware(logger, apierrors.NewErrorHandler(logger, false))
}

func TestValidationMiddleware_ValidateRequest(t *testing.T) {
	m := newValidation(t)
	called := false
	h := m.ValidateRequest(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusAccepted)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/runs", strings.NewReader(`{"format":`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, called)

	rec = httptest.NewRecorder()
	big := strings.NewReader(`{"input_path":"` + strings.Repeat("a", DefaultMaxBodySize) + `"}`)
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/runs", big))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/runs", strings.NewReader(`{"format":"csv"}`)))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.True(t, called)
}

func TestValidationMiddleware_DecodeAndValidate(t *testing.T) {
	m := newValidation(t)

	t.Run("valid", func(t *testing.T) {
		var req api.RunCreateRequest
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"format":"xlsx","seed":7}`))
		require.NoError(t, m.DecodeAndValidate(r, &req))
		assert.Equal(t, "xlsx", req.Format)
		require.NotNil(t, req.Seed)
		assert.Equal(t, int64(7), *req.Seed)
	})

	t.Run("empty body", func(t *testing.T) {
		var req api.RunCreateRequest
		r := httptest.NewRequest(http.MethodPost, "/", http.NoBody)
		require.NoError(t, m.DecodeAndValidate(r, &req))
		assert.Empty(t, req.Format)
	})

	t.Run("bad format", func(t *testing.T) {
		var req api.RunCreateRequest
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"format":"parquet"}`))
		err := m.DecodeAndValidate(r, &req)

		var apiErr *apierrors.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "VALIDATION_FAILED", apiErr.ErrorCode)
		details, ok := apiErr.Details.([]apierrors.ValidationError)
		require.True(t, ok)
		require.Len(t, details, 1)
		assert.Equal(t, "format", details[0].Field)
		assert.Contains(t, details[0].Message, "csv, xlsx")
	})

	t.Run("path traversal", func(t *testing.T) {
		var req api.RunCreateRequest
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"output_dir":"../../etc"}`))
		err := m.DecodeAndValidate(r, &req)

		var apiErr *apierrors.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	})
}

func TestQueryParamValidator_ValidateInt(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	v := NewQueryParamValidator(logger, apierrors.NewErrorHandler(logger, false))

	tests := []struct {
		query  string
		want   int
		ok     bool
		status int
	}{
		{query: "", want: 50, ok: true},
		{query: "limit=10", want: 10, ok: true},
		{query: "limit=abc", ok: false, status: http.StatusBadRequest},
		{query: "limit=0", ok: false, status: http.StatusBadRequest},
		{query: "limit=501", ok: false, status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := httptest.NewRecorder()
			got, ok := v.ValidateInt(rec, httptest.NewRequest(http.MethodGet, "/runs?"+tt.query, nil), "limit", 1, 500, 50)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
				return
			}
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
