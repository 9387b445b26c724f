package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	LoginsSucceeded      uint64
	LoginsFailed         uint64
	LoginsRateLimited    uint64
	LoginDurationCount   uint64
	LoginDurationTotalNs int64
	Registrations        uint64
	TokensValid          uint64
	TokensInvalid        uint64
	TokensRevoked        uint64
	TokensUnknownSubject uint64
	AccessDenied         uint64
	HoldingsRejected     uint64
	AuditEventsPublished uint64
	AuditEventsDropped   uint64
}

// InMemoryRecorder stores metrics in memory using atomic counters.
type InMemoryRecorder struct {
	loginsSucceeded      atomic.Uint64
	loginsFailed         atomic.Uint64
	loginsRateLimited    atomic.Uint64
	loginDurationCount   atomic.Uint64
	loginDurationTotalNs atomic.Int64
	registrations        atomic.Uint64
	tokensValid          atomic.Uint64
	tokensInvalid        atomic.Uint64
	tokensRevoked        atomic.Uint64
	tokensUnknownSubject atomic.Uint64
	accessDenied         atomic.Uint64
	holdingsRejected     atomic.Uint64
	auditPublished       atomic.Uint64
	auditDropped         atomic.Uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		LoginsSucceeded:      m.loginsSucceeded.Load(),
		LoginsFailed:         m.loginsFailed.Load(),
		LoginsRateLimited:    m.loginsRateLimited.Load(),
		LoginDurationCount:   m.loginDurationCount.Load(),
		LoginDurationTotalNs: m.loginDurationTotalNs.Load(),
		Registrations:        m.registrations.Load(),
		TokensValid:          m.tokensValid.Load(),
		TokensInvalid:        m.tokensInvalid.Load(),
		TokensRevoked:        m.tokensRevoked.Load(),
		TokensUnknownSubject: m.tokensUnknownSubject.Load(),
		AccessDenied:         m.accessDenied.Load(),
		HoldingsRejected:     m.holdingsRejected.Load(),
		AuditEventsPublished: m.auditPublished.Load(),
		AuditEventsDropped:   m.auditDropped.Load(),
	}
}

// IncLogin increments the counter for a login outcome.
func (m *InMemoryRecorder) IncLogin(outcome string) {
	switch outcome {
	case LoginSuccess:
		m.loginsSucceeded.Add(1)
	case LoginRateLimited:
		m.loginsRateLimited.Add(1)
	default:
		m.loginsFailed.Add(1)
	}
}

// ObserveLoginDuration records how long credential checks took.
func (m *InMemoryRecorder) ObserveLoginDuration(duration time.Duration) {
	m.loginDurationCount.Add(1)
	m.loginDurationTotalNs.Add(duration.Nanoseconds())
}

// IncRegistration increments the registration counter.
func (m *InMemoryRecorder) IncRegistration() {
	m.registrations.Add(1)
}

// IncTokenValidation increments the counter for a token validation outcome.
func (m *InMemoryRecorder) IncTokenValidation(outcome string) {
	switch outcome {
	case TokenValid:
		m.tokensValid.Add(1)
	case TokenRevoked:
		m.tokensRevoked.Add(1)
	case TokenUnknownSubject:
		m.tokensUnknownSubject.Add(1)
	default:
		m.tokensInvalid.Add(1)
	}
}

// IncAccessDenied counts ownership denials.
func (m *InMemoryRecorder) IncAccessDenied() {
	m.accessDenied.Add(1)
}

// IncHoldingRejected counts holdings refused by validation.
func (m *InMemoryRecorder) IncHoldingRejected() {
	m.holdingsRejected.Add(1)
}

// IncAuditEventPublished counts audit stream publishes by status.
func (m *InMemoryRecorder) IncAuditEventPublished(status string) {
	if status == "success" {
		m.auditPublished.Add(1)
		return
	}
	m.auditDropped.Add(1)
}
