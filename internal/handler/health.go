package handler

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker defines an interface for checking service health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// SymbolCounter reports the size of the loaded symbol set.
type SymbolCounter interface {
	Len() int
}

// HealthHandler manages health check endpoints.
type HealthHandler struct {
	db      HealthChecker
	cache   HealthChecker
	symbols SymbolCounter
}

// NewHealthHandler creates a new HealthHandler.
// Pass nil for cache when Redis is not configured.
func NewHealthHandler(db, cache HealthChecker, symbols SymbolCounter) *HealthHandler {
	return &HealthHandler{
		db:      db,
		cache:   cache,
		symbols: symbols,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz is a liveness probe endpoint.
// It returns 200 if the server is running. No dependency checks.
//
// GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readyz is a readiness probe endpoint. The service is ready when the
// database answers, Redis answers if configured, and symbols are loaded.
//
// GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := map[string]string{
		"database": ping(ctx, h.db),
		"redis":    ping(ctx, h.cache),
		"symbols":  symbolState(h.symbols),
	}

	// An absent Redis only disables the denylist and the login limit.
	ready := checks["database"] == stateOK &&
		checks["symbols"] == stateOK &&
		(checks["redis"] == stateOK || checks["redis"] == stateNotConfigured)

	if !ready {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unhealthy", Checks: checks})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Checks: checks})
}

const (
	readinessTimeout   = 5 * time.Second
	stateOK            = "ok"
	stateNotConfigured = "not configured"
)

func ping(ctx context.Context, c HealthChecker) string {
	if c == nil {
		return stateNotConfigured
	}
	if err := c.Ping(ctx); err != nil {
		return "error: " + err.Error()
	}
	return stateOK
}

func symbolState(s SymbolCounter) string {
	if s == nil || s.Len() == 0 {
		return "empty"
	}
	return stateOK
}
