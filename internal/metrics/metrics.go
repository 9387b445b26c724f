// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Login outcomes.
const (
	LoginSuccess            = "success"
	LoginInvalidCredentials = "invalid_credentials"
	LoginRateLimited        = "rate_limited"
)

// Token validation outcomes.
const (
	TokenValid          = "valid"
	TokenInvalid        = "invalid"
	TokenRevoked        = "revoked"
	TokenUnknownSubject = "unknown_subject"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Authentication metrics
	IncLogin(outcome string)
	ObserveLoginDuration(duration time.Duration)
	IncRegistration()
	IncTokenValidation(outcome string)

	// Authorization metrics
	IncAccessDenied()
	IncHoldingRejected()

	// Audit stream metrics
	IncAuditEventPublished(status string) // status: "success" or "dropped"
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
