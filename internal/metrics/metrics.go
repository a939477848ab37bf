package metrics

import (
	"sync"

	"github.com/go-authgate/basicgate/internal/core"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder is the metrics interface consumed by the rest of the application.
type Recorder = core.Recorder

var _ Recorder = (*Metrics)(nil)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Guard Metrics
	AuthAttemptsTotal     *prometheus.CounterVec
	AuthDuration          *prometheus.HistogramVec
	GuardDecisionsTotal   *prometheus.CounterVec
	AuthLoginTotal        *prometheus.CounterVec
	AuthExternalAPICalls  *prometheus.HistogramVec
	AuthExternalAPIErrors *prometheus.CounterVec
	DatabaseQueryErrTotal *prometheus.CounterVec

	// HTTP Request Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init returns Prometheus-backed metrics registered on the default registry
// when enabled, or a NoopMetrics otherwise. Registration happens only once.
func Init(enabled bool) Recorder {
	if !enabled {
		return NewNoopMetrics()
	}
	return GetMetrics()
}

// GetMetrics returns the process-wide Prometheus metrics.
func GetMetrics() *Metrics {
	once.Do(func() {
		defaultMetrics = New(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// New creates metrics registered on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		AuthAttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_attempts_total",
				Help: "Total number of Basic authentication attempts seen by the guard",
			},
			[]string{"method", "result"}, // method: basic; result: success, failure
		),
		AuthDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "auth_duration_seconds",
				Help:    "Time taken by the guard to reach a decision",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		GuardDecisionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_guard_decisions_total",
				Help: "Guard decisions by reason",
			},
			[]string{"reason"}, // allowed, missing, empty_username, invalid, directory_error
		),
		AuthLoginTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_login_total",
				Help: "Total number of directory logins",
			},
			[]string{"auth_source", "result"}, // auth_source: local, http_api
		),
		AuthExternalAPICalls: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "auth_external_api_duration_seconds",
				Help:    "Time taken for external directory calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		AuthExternalAPIErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_external_api_errors_total",
				Help: "External directory calls that ended without a verdict",
			},
			[]string{"provider", "kind"}, // kind: unreachable, bad_response, other
		),
		DatabaseQueryErrTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "database_query_errors_total",
				Help: "Total number of failed database queries",
			},
			[]string{"operation"},
		),

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of HTTP requests being processed",
			},
		),
	}
}
