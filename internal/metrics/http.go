package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

// HTTPMetricsMiddleware creates a Gin middleware that records HTTP metrics
func HTTPMetricsMiddleware(m Recorder) gin.HandlerFunc {
	metrics, ok := m.(*Metrics)
	if !ok {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		// Skip metrics endpoint to avoid self-recording
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		c.Next()

		path := normalizePath(c.FullPath()) // route pattern, not raw path
		metrics.HTTPRequestsTotal.
			WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).
			Inc()
		metrics.HTTPRequestDuration.
			WithLabelValues(c.Request.Method, path).
			Observe(time.Since(start).Seconds())
	}
}

func normalizePath(fullPath string) string {
	if fullPath == "" {
		return "unknown"
	}
	return fullPath
}

func result(success bool) string {
	if success {
		return resultSuccess
	}
	return resultFailure
}

// RecordAuthAttempt records a guard decision outcome and its latency
func (m *Metrics) RecordAuthAttempt(method string, success bool, duration time.Duration) {
	m.AuthAttemptsTotal.WithLabelValues(method, result(success)).Inc()
	m.AuthDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordGuardDecision counts guard decisions by reason
func (m *Metrics) RecordGuardDecision(reason string) {
	m.GuardDecisionsTotal.WithLabelValues(reason).Inc()
}

// RecordLogin records a directory login by auth source
func (m *Metrics) RecordLogin(authSource string, success bool) {
	m.AuthLoginTotal.WithLabelValues(authSource, result(success)).Inc()
}

// RecordExternalAPICall records external directory latency
func (m *Metrics) RecordExternalAPICall(provider string, duration time.Duration) {
	m.AuthExternalAPICalls.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordExternalAPIError counts external directory failures by kind
func (m *Metrics) RecordExternalAPIError(provider, kind string) {
	m.AuthExternalAPIErrors.WithLabelValues(provider, kind).Inc()
}

// RecordDatabaseQueryError counts failed queries by operation
func (m *Metrics) RecordDatabaseQueryError(operation string) {
	m.DatabaseQueryErrTotal.WithLabelValues(operation).Inc()
}
