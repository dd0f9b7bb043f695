package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edwinbf09/daily-activities/internal/activity"
	"github.com/edwinbf09/daily-activities/internal/apitest"
	"github.com/edwinbf09/daily-activities/internal/auth"
	"github.com/edwinbf09/daily-activities/internal/config"
	httpServer "github.com/edwinbf09/daily-activities/internal/http"
	"github.com/edwinbf09/daily-activities/internal/httputil"
	"github.com/edwinbf09/daily-activities/internal/logging"
	"github.com/edwinbf09/daily-activities/internal/report"
)

func get(t *testing.T, url, token string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	srv := apitest.New(t)

	resp := get(t, srv.URL+"/health", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body httpServer.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, map[string]string{"database": "ok", "redis": "ok"}, body.Dependencies)

	srv.Redis.SetError("LOADING")
	resp = get(t, srv.URL+"/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	body = httpServer.HealthResponse{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "unavailable", body.Dependencies["redis"])
	assert.Equal(t, "ok", body.Dependencies["database"])
}

func TestProtectedRoutes(t *testing.T) {
	srv := apitest.New(t)

	for _, path := range []string{"/activities", "/reports", "/reports/health", "/auth/me"} {
		resp := get(t, srv.URL+path, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)

		var body httputil.ErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, httputil.CodeMissingAuth, body.Code, path)
	}

	session, err := srv.Auth.Register(context.Background(), "ana@example.com", "secret123", "Ana")
	require.NoError(t, err)

	resp := get(t, srv.URL+"/activities", session.Token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
}

func TestRegisterThroughRouter(t *testing.T) {
	srv := apitest.New(t)

	resp, err := http.Post(srv.URL+"/auth/register", "application/json",
		strings.NewReader(`{"email":"ana@example.com","password":"secret123","name":"Ana"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body auth.SessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body.Token)
}

// emptyHandlers mounts every route without backing services, for tests
// that never reach a handler.
func emptyHandlers() httpServer.Handlers {
	return httpServer.Handlers{
		Auth:       auth.NewHandler(nil, nil),
		Middleware: auth.NewMiddleware(nil),
		Activities: activity.NewHandler(nil),
		Reports:    report.NewHandler(nil, nil),
	}
}

func TestSwaggerOnlyInDevelopment(t *testing.T) {
	for env, want := range map[string]int{"dev": http.StatusOK, "prod": http.StatusNotFound} {
		t.Run(env, func(t *testing.T) {
			cfg := &config.Config{Server: config.ServerConfig{Env: env}}
			router := httpServer.NewRouter(cfg, emptyHandlers(), logging.NewNop(), nil)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
			assert.Equal(t, want, rec.Code)
		})
	}
}

func TestCORS(t *testing.T) {
	cfg := &config.Config{Server: config.ServerConfig{Env: "prod", TrustedOrigins: []string{"http://localhost:3000"}}}
	router := httpServer.NewRouter(cfg, emptyHandlers(), logging.NewNop(), nil)

	req := httptest.NewRequest(http.MethodOptions, "/activities", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)
}

func TestHealthFailingDependency(t *testing.T) {
	cfg := &config.Config{Server: config.ServerConfig{Env: "prod"}}
	router := httpServer.NewRouter(cfg, emptyHandlers(), logging.NewNop(), map[string]httpServer.Pinger{
		"database": httpServer.PingFunc(func(context.Context) error { return errors.New("down") }),
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
