package routing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teilomillet/taskgate/config"
	"github.com/teilomillet/taskgate/errors"
	"github.com/teilomillet/taskgate/server/handlers"
	"github.com/teilomillet/taskgate/server/metrics"
	"github.com/teilomillet/taskgate/server/mocks"
	"github.com/teilomillet/taskgate/server/processing"
	"go.uber.org/zap/zaptest"
)

func newTestRouter(t *testing.T, cfg *config.Config, inference *mocks.MockInference, m *metrics.Metrics) *Router {
	t.Helper()
	logger := zaptest.NewLogger(t)

	proc, err := processing.NewProcessor(cfg.Processing, inference)
	require.NoError(t, err)

	var observer handlers.ErrorObserver
	if m != nil {
		observer = m
	}

	return NewRouter(cfg, Handlers{
		Root:    http.HandlerFunc(handlers.RootHandler),
		Health:  http.HandlerFunc(handlers.HealthHandler),
		Process: handlers.NewProcessHandler(proc, cfg.Server.MaxBodyBytes, logger, observer),
	}, m, logger)
}

func TestRouter_Routes(t *testing.T) {
	router := newTestRouter(t, config.DefaultConfig(), mocks.NewMockInference("x y z"), nil)

	tests := []struct {
		name         string
		method       string
		path         string
		body         string
		expectedCode int
		expectedType errors.ErrorType
	}{
		{name: "root", method: http.MethodGet, path: "/", expectedCode: http.StatusOK},
		{name: "health", method: http.MethodGet, path: "/health", expectedCode: http.StatusOK},
		{name: "process", method: http.MethodPost, path: "/process", body: `{"task":"organize","content":"a b c d"}`, expectedCode: http.StatusOK},
		{name: "unknown route", method: http.MethodGet, path: "/missing", expectedCode: http.StatusNotFound, expectedType: errors.HTTPErrorType},
		{name: "wrong method", method: http.MethodGet, path: "/process", expectedCode: http.StatusMethodNotAllowed, expectedType: errors.HTTPErrorType},
		{name: "metrics disabled", method: http.MethodGet, path: "/metrics", expectedCode: http.StatusNotFound, expectedType: errors.HTTPErrorType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedCode, rec.Code)
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
			assert.NotEmpty(t, rec.Header().Get("X-Response-Time"))

			if tt.expectedType != "" {
				var body errors.ErrorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tt.expectedType, body.Error.Type)
			}
		})
	}
}

func TestRouter_ProcessScenario(t *testing.T) {
	router := newTestRouter(t, config.DefaultConfig(), mocks.NewMockInference("x y z"), nil)

	req := httptest.NewRequest(http.MethodPost, "/process", strings.NewReader(`{"task":"organize","content":"a b c d"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", "client-supplied")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "client-supplied", rec.Header().Get("X-Request-ID"))

	var body handlers.ProcessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "x y z", body.Result)
	assert.Equal(t, "success", body.Status)
	assert.Equal(t, 7, body.Metadata.TokensUsed)
}

func TestRouter_CORSPreflight(t *testing.T) {
	router := newTestRouter(t, config.DefaultConfig(), mocks.NewMockInference("ok"), nil)

	req := httptest.NewRequest(http.MethodOptions, "/process", nil)
	req.Header.Set("Origin", "app://obsidian.md")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "app://obsidian.md", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_MetricsEnabled(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Metrics.Enabled = true
	m := metrics.NewMetrics()
	router := newTestRouter(t, cfg, mocks.NewFailingInference("ServiceUnavailableException: down"), m)

	req := httptest.NewRequest(http.MethodPost, "/process", strings.NewReader(`{"task":"organize","content":"a"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	out := rec.Body.String()
	assert.Contains(t, out, `taskgate_http_requests_total{method="POST",route="/process",status="503"} 1`)
	assert.Contains(t, out, `taskgate_errors_total{type="http_error"} 1`)
}

func TestRouter_RoutingErrorsCounted(t *testing.T) {
	m := metrics.NewMetrics()
	router := newTestRouter(t, config.DefaultConfig(), mocks.NewMockInference("ok"), m)

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/missing", nil),
		httptest.NewRequest(http.MethodGet, "/process", nil),
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.GreaterOrEqual(t, rec.Code, http.StatusBadRequest)
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(m.ErrorsTotal.WithLabelValues(string(errors.HTTPErrorType))))
}
