package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestInit(t *testing.T) {
	m := Init(true)
	assert.NotNil(t, m)

	metrics, ok := m.(*Metrics)
	assert.True(t, ok, "Init(true) should return *Metrics")
	assert.NotNil(t, metrics.AuthAttemptsTotal)
	assert.NotNil(t, metrics.HTTPRequestsTotal)
}

func TestInitNoop(t *testing.T) {
	m := Init(false)
	_, ok := m.(*NoopMetrics)
	assert.True(t, ok, "Init(false) should return *NoopMetrics")

	// Must not panic
	m.RecordAuthAttempt("basic", true, time.Millisecond)
	m.RecordGuardDecision("missing")
	m.RecordLogin("local", false)
	m.RecordExternalAPICall("http_api", time.Millisecond)
	m.RecordExternalAPIError("http_api", "unreachable")
	m.RecordDatabaseQueryError("update_last_login")
}

func TestGetMetrics(t *testing.T) {
	m1 := GetMetrics()
	m2 := GetMetrics()
	assert.Same(t, m1, m2, "GetMetrics should return the same instance")
}

func TestRecordAuthAttempt(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordAuthAttempt("basic", true, 10*time.Millisecond)
	m.RecordAuthAttempt("basic", false, 10*time.Millisecond)
	m.RecordAuthAttempt("basic", false, 10*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthAttemptsTotal.WithLabelValues("basic", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.AuthAttemptsTotal.WithLabelValues("basic", "failure")))
}

func TestRecordExternalAPIError(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordExternalAPIError("http_api", "unreachable")
	m.RecordExternalAPIError("http_api", "unreachable")
	m.RecordExternalAPIError("http_api", "bad_response")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AuthExternalAPIErrors.WithLabelValues("http_api", "unreachable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthExternalAPIErrors.WithLabelValues("http_api", "bad_response")))
}

func TestRecordGuardDecision(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordGuardDecision("missing")
	m.RecordGuardDecision("missing")
	m.RecordGuardDecision("allowed")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.GuardDecisionsTotal.WithLabelValues("missing")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GuardDecisionsTotal.WithLabelValues("allowed")))
}

func TestRecordLogin(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordLogin("http_api", true)
	m.RecordDatabaseQueryError("get_user")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthLoginTotal.WithLabelValues("http_api", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DatabaseQueryErrTotal.WithLabelValues("get_user")))
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New(prometheus.NewRegistry())

	r := gin.New()
	r.Use(HTTPMetricsMiddleware(m))
	r.GET("/api/v1/user", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "/api/v1/user", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/user", "200"),
	))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.HTTPRequestsInFlight))
}

func TestHTTPMetricsMiddleware_Noop(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(HTTPMetricsMiddleware(NewNoopMetrics()))
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, "pong", w.Body.String())
}
