package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncLogin(string)                    {}
func (n *NoopRecorder) ObserveLoginDuration(time.Duration) {}
func (n *NoopRecorder) IncRegistration()                   {}
func (n *NoopRecorder) IncTokenValidation(string)          {}
func (n *NoopRecorder) IncAccessDenied()                   {}
func (n *NoopRecorder) IncHoldingRejected()                {}
func (n *NoopRecorder) IncAuditEventPublished(string)      {}
