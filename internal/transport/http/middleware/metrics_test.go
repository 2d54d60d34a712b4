package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func serve(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(method, path, nil))
	return rr
}

func TestHTTPMetricsHandlerRecordsMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)

	registry := prometheus.NewRegistry()
	metrics, err := NewHTTPMetrics(HTTPMetricsOptions{Registerer: registry})
	if err != nil {
		t.Fatalf("failed to create http metrics: %v", err)
	}

	router := gin.New()
	router.Use(metrics.Handler())
	router.POST("/api/cart/items", func(c *gin.Context) { c.Status(http.StatusCreated) })
	router.POST("/api/auction/auth/login", func(c *gin.Context) { c.Status(http.StatusOK) })

	if rr := serve(router, http.MethodPost, "/api/cart/items"); rr.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, rr.Code)
	}
	serve(router, http.MethodPost, "/api/auction/auth/login")
	serve(router, http.MethodGet, "/users/0b6c/profile")

	cases := []prometheus.Labels{
		{"surface": "api", "method": http.MethodPost, "route": "/api/cart/items", "status": "201"},
		{"surface": "auction", "method": http.MethodPost, "route": "/api/auction/auth/login", "status": "200"},
		{"surface": "ops", "method": http.MethodGet, "route": unmatchedRoute, "status": "404"},
	}
	for _, labels := range cases {
		if got := testutil.ToFloat64(metrics.Requests.With(labels)); got != 1 {
			t.Fatalf("expected request counter 1 for %v, got %f", labels, got)
		}
	}

	if got := testutil.ToFloat64(metrics.InFlight); got != 0 {
		t.Fatalf("expected in-flight gauge to return to 0, got %f", got)
	}
	if samples := testutil.CollectAndCount(metrics.Duration); samples != 3 {
		t.Fatalf("expected 3 histogram series, got %d", samples)
	}
}

func TestHTTPMetricsReusesRegisteredCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()

	first, err := NewHTTPMetrics(HTTPMetricsOptions{Registerer: registry})
	if err != nil {
		t.Fatalf("first registration: %v", err)
	}
	second, err := NewHTTPMetrics(HTTPMetricsOptions{Registerer: registry})
	if err != nil {
		t.Fatalf("second registration: %v", err)
	}
	if first.Requests != second.Requests || first.InFlight != second.InFlight {
		t.Fatalf("expected collectors to be shared")
	}
}

func TestHTTPMetricsHandlerNoopWhenNil(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use((*HTTPMetrics)(nil).Handler())
	router.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	if rr := serve(router, http.MethodGet, "/ping"); rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
}
