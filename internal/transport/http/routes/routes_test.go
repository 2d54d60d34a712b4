package routes_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/infra/config"
	httproutes "github.com/UsmanFarooq46/e-commerce-backend/internal/transport/http/routes"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type cacheProbe struct{ err error }

func (c cacheProbe) HealthCheck(context.Context) error { return c.err }

func newEngine(t *testing.T, deps httproutes.Dependencies) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if deps.Config == nil {
		deps.Config = &config.AppConfig{App: config.AppSettings{Env: "test"}}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	r, err := httproutes.Register(deps)
	require.NoError(t, err)
	return r
}

func serve(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestHealthEndpoint(t *testing.T) {
	r := newEngine(t, httproutes.Dependencies{})

	w := serve(r, http.MethodGet, "/healthz")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestReadiness(t *testing.T) {
	t.Run("all dependencies up", func(t *testing.T) {
		r := newEngine(t, httproutes.Dependencies{Database: pinger{}, Cache: cacheProbe{}})

		w := serve(r, http.MethodGet, "/readyz")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"database":"ok"`)
		assert.Contains(t, w.Body.String(), `"redis":"ok"`)
	})

	t.Run("database down", func(t *testing.T) {
		r := newEngine(t, httproutes.Dependencies{Database: pinger{err: errors.New("connection refused")}})

		w := serve(r, http.MethodGet, "/readyz")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), `"database":"unavailable"`)
		assert.NotContains(t, w.Body.String(), "connection refused")
	})
}

func TestMetricsEndpoint(t *testing.T) {
	r := newEngine(t, httproutes.Dependencies{})

	w := serve(r, http.MethodGet, "/metrics")

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAccountRoutesAbsentWithoutServices(t *testing.T) {
	r := newEngine(t, httproutes.Dependencies{})

	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodPost, "/api/auth/login").Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodPatch, "/users/abc/disable").Code)
}

func TestCORSPreflight(t *testing.T) {
	r := newEngine(t, httproutes.Dependencies{Config: &config.AppConfig{
		App:  config.AppSettings{Env: "test"},
		CORS: config.CORSSettings{AllowedOrigins: []string{"https://shop.example.com"}},
	}})

	req := httptest.NewRequest(http.MethodOptions, "/healthz", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "https://shop.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}
