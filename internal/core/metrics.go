package core

import "time"

// Recorder defines the interface for recording application metrics.
// Implementations include Metrics (Prometheus-based) and NoopMetrics (no-op).
type Recorder interface {
	// Guard
	RecordAuthAttempt(method string, success bool, duration time.Duration)
	RecordGuardDecision(reason string)

	// Directory
	RecordLogin(authSource string, success bool)
	RecordExternalAPICall(provider string, duration time.Duration)
	RecordExternalAPIError(provider, kind string)

	// Database Operations
	RecordDatabaseQueryError(operation string)
}
