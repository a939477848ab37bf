package metrics

import "time"

// NoopMetrics discards everything; used when metrics are disabled.
type NoopMetrics struct{}

var _ Recorder = (*NoopMetrics)(nil)

// NewNoopMetrics creates a new no-operation metrics recorder
func NewNoopMetrics() Recorder {
	return &NoopMetrics{}
}

func (n *NoopMetrics) RecordAuthAttempt(method string, success bool, duration time.Duration) {}
func (n *NoopMetrics) RecordGuardDecision(reason string)                                     {}
func (n *NoopMetrics) RecordLogin(authSource string, success bool)                           {}
func (n *NoopMetrics) RecordExternalAPICall(provider string, duration time.Duration)         {}
func (n *NoopMetrics) RecordExternalAPIError(provider, kind string)                          {}
func (n *NoopMetrics) RecordDatabaseQueryError(operation string)                             {}
