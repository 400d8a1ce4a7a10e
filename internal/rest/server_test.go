// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of shamir-secret-sharing-app.
//
// shamir-secret-sharing-app is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/virgill-e/shamir-secret-sharing-app/pkg/correlation"
	"github.com/virgill-e/shamir-secret-sharing-app/pkg/health"
	"github.com/virgill-e/shamir-secret-sharing-app/pkg/logging"
	"github.com/virgill-e/shamir-secret-sharing-app/pkg/ratelimit"
	"github.com/virgill-e/shamir-secret-sharing-app/pkg/sharing"
)

type envelope struct {
	Success bool     `json:"success"`
	Shares  []string `json:"shares"`
	Secret  string   `json:"secret"`
	Error   string   `json:"error"`
}

func newTestServer(t *testing.T, mutate func(*Config)) *Server {
	t.Helper()

	svc, err := sharing.NewService(nil)
	require.NoError(t, err)

	cfg := &Config{Service: svc, Version: "1.2.3"}
	if mutate != nil {
		mutate(cfg)
	}

	s, err := NewServer(cfg)
	require.NoError(t, err)
	return s
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestNewServer_Errors(t *testing.T) {
	_, err := NewServer(nil)
	assert.Error(t, err)

	_, err = NewServer(&Config{})
	assert.Error(t, err)

	svc, err := sharing.NewService(nil)
	require.NoError(t, err)
	_, err = NewServer(&Config{Service: svc, MaxBodyBytes: -1})
	assert.Error(t, err)
}

func TestNewServer_Defaults(t *testing.T) {
	s := newTestServer(t, nil)
	assert.Equal(t, "127.0.0.1:8080", s.Addr())
	assert.Equal(t, int64(DefaultMaxBodyBytes), s.handlers.maxBodyBytes)
	assert.Equal(t, 15*time.Second, s.server.ReadTimeout)
	assert.Equal(t, 60*time.Second, s.server.IdleTimeout)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.NotEmpty(t, rec.Header().Get(correlation.CorrelationIDHeader))
}

func TestReadiness(t *testing.T) {
	checker := health.NewChecker()
	checker.RegisterCheck("self_test", func(context.Context) health.CheckResult {
		return health.CheckResult{Status: health.StatusHealthy}
	})
	s := newTestServer(t, func(c *Config) { c.Health = checker })

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	checker.MarkStarted()
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ProbeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, health.StatusHealthy, resp.Status)
	require.Len(t, resp.Checks, 1)
	assert.Equal(t, "self_test", resp.Checks[0].Name)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSplitThenCombine(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	rec, env := do(t, h, http.MethodPost, "/api/v1/split",
		`{"secret":"correct horse battery staple","shares":5,"threshold":3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, env.Success)
	require.Len(t, env.Shares, 5)
	assert.Empty(t, env.Error)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	body, err := json.Marshal(CombineRequest{Shares: []string{env.Shares[4], env.Shares[1], env.Shares[2]}})
	require.NoError(t, err)

	rec, env = do(t, h, http.MethodPost, "/api/v1/combine", string(body))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "correct horse battery staple", env.Secret)
}

func TestSplit_FailureEnvelope(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	tests := []struct {
		name string
		body string
		code int
	}{
		{"threshold above total", `{"secret":"x","shares":2,"threshold":3}`, http.StatusBadRequest},
		{"too many shares", `{"secret":"x","shares":256,"threshold":2}`, http.StatusBadRequest},
		{"empty secret", `{"secret":"","shares":3,"threshold":2}`, http.StatusBadRequest},
		{"malformed json", `{"secret":`, http.StatusBadRequest},
		{"wrong type", `{"secret":"x","shares":"five","threshold":2}`, http.StatusBadRequest},
		{"unknown field", `{"secret":"x","shares":3,"threshold":2,"bits":16}`, http.StatusBadRequest},
		{"trailing data", `{"secret":"x","shares":3,"threshold":2}{}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := do(t, h, http.MethodPost, "/api/v1/split", tt.body)
			assert.Equal(t, tt.code, rec.Code)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Error)
			assert.Empty(t, env.Shares)
		})
	}
}

func TestCombine_FailureEnvelope(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	tests := []struct {
		name string
		body string
	}{
		{"no shares", `{"shares":[]}`},
		{"one share", `{"shares":["8010000000001"]}`},
		{"garbage", `{"shares":["zz","yy"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := do(t, h, http.MethodPost, "/api/v1/combine", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Error)
			assert.Empty(t, env.Secret)
		})
	}
}

func TestRequestTooLarge(t *testing.T) {
	h := newTestServer(t, func(c *Config) { c.MaxBodyBytes = 64 }).Handler()

	body := `{"secret":"` + strings.Repeat("a", 128) + `","shares":3,"threshold":2}`
	rec, env := do(t, h, http.MethodPost, "/api/v1/split", body)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, ErrRequestTooLarge.Error())
}

func TestRateLimit(t *testing.T) {
	limiter := ratelimit.New(&ratelimit.Config{Enabled: true, RequestsPerMinute: 1, Burst: 1})
	defer limiter.Stop()
	h := newTestServer(t, func(c *Config) { c.Limiter = limiter }).Handler()

	body := `{"secret":"x","shares":3,"threshold":2}`
	rec, _ := do(t, h, http.MethodPost, "/api/v1/split", body)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env := do(t, h, http.MethodPost, "/api/v1/split", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, ErrRateLimited.Error(), env.Error)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	// Health endpoints are not limited.
	rec, _ = do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t, func(c *Config) { c.MetricsEnabled = true }).Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	h = newTestServer(t, nil).Handler()
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	rec, env := do(t, h, http.MethodGet, "/api/v1/nothing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)

	rec, env = do(t, h, http.MethodGet, "/api/v1/split", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.False(t, env.Success)
}

func TestRecoveryMiddleware(t *testing.T) {
	s := newTestServer(t, nil)
	router := s.setupRouter()
	router.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

	rec, env := do(t, router, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, ErrInternalError.Error(), env.Error)
}

func TestCorrelationMiddleware_PropagatesHeader(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewSlogAdapter(&logging.SlogConfig{
		Level:  logging.LevelDebug,
		Format: logging.FormatJSON,
		Output: &buf,
	})
	h := newTestServer(t, func(c *Config) { c.Logger = log }).Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/split",
		strings.NewReader(`{"secret":"do not log me","shares":3,"threshold":2}`))
	req.Header.Set(correlation.RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-42", rec.Header().Get(correlation.CorrelationIDHeader))
	assert.Contains(t, buf.String(), `"correlation_id":"req-42"`)
	assert.NotContains(t, buf.String(), "do not log me")
}

func TestServeAndStop(t *testing.T) {
	s := newTestServer(t, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(ln) }()

	url := "http://" + ln.Addr().String() + "/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.NoError(t, <-errCh)
}
