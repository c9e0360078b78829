package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/GriffinCanCode/FrameLens/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/FrameLens/backend/internal/infrastructure/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "0"
	cfg.RateLimit.Enabled = false
	cfg.Logging.Development = true
	return newServer(cfg, logging.NewNop())
}

func TestRoutes(t *testing.T) {
	srv := testServer(t)
	defer srv.Shutdown(context.Background())

	tests := []struct {
		path   string
		status int
	}{
		{"/", http.StatusOK},
		{"/health", http.StatusOK},
		{"/inspections", http.StatusOK},
		{"/inspections/missing", http.StatusNotFound},
		{"/metrics", http.StatusOK},
		{"/metrics/json", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestMetricsEndpointExposesRequests(t *testing.T) {
	srv := testServer(t)
	defer srv.Shutdown(context.Background())

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), "framelens_http_requests_total")
}

func TestTraceHeader(t *testing.T) {
	srv := testServer(t)
	defer srv.Shutdown(context.Background())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Trace-ID", "trace-1")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, "trace-1", w.Header().Get("X-Trace-ID"))
}

func TestRunAndShutdown(t *testing.T) {
	srv := testServer(t)

	done := make(chan error, 1)
	go func() { done <- srv.Run() }()

	// give ListenAndServe a moment to start
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Shutdown")
	}
}

func TestFetchConfigKeepsDefaultUserAgent(t *testing.T) {
	cfg := config.Default()
	cfg.Fetch.UserAgent = ""
	fc := fetchConfig(cfg.Fetch)
	assert.NotEmpty(t, fc.UserAgent)
	assert.Equal(t, cfg.Fetch.Timeout, fc.Timeout)

	cfg.Fetch.UserAgent = "probe/1"
	assert.Equal(t, "probe/1", fetchConfig(cfg.Fetch).UserAgent)
}
