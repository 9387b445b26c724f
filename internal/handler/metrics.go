package handler

import (
	"fmt"
	"net/http"

	"github.com/optiwealth/optiwealth/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "optiwealth_logins_total{outcome=\"success\"} %d\n", snap.LoginsSucceeded)
	writeMetric(w, "optiwealth_logins_total{outcome=\"invalid_credentials\"} %d\n", snap.LoginsFailed)
	writeMetric(w, "optiwealth_logins_total{outcome=\"rate_limited\"} %d\n", snap.LoginsRateLimited)
	writeMetric(w, "optiwealth_login_duration_seconds_count %d\n", snap.LoginDurationCount)
	writeMetric(w, "optiwealth_login_duration_seconds_sum %.6f\n", float64(snap.LoginDurationTotalNs)/1e9)
	writeMetric(w, "optiwealth_registrations_total %d\n", snap.Registrations)

	writeMetric(w, "optiwealth_token_validations_total{outcome=\"valid\"} %d\n", snap.TokensValid)
	writeMetric(w, "optiwealth_token_validations_total{outcome=\"invalid\"} %d\n", snap.TokensInvalid)
	writeMetric(w, "optiwealth_token_validations_total{outcome=\"revoked\"} %d\n", snap.TokensRevoked)
	writeMetric(w, "optiwealth_token_validations_total{outcome=\"unknown_subject\"} %d\n", snap.TokensUnknownSubject)

	writeMetric(w, "optiwealth_access_denied_total %d\n", snap.AccessDenied)
	writeMetric(w, "optiwealth_holdings_rejected_total %d\n", snap.HoldingsRejected)

	writeMetric(w, "optiwealth_audit_events_published_total{status=\"success\"} %d\n", snap.AuditEventsPublished)
	writeMetric(w, "optiwealth_audit_events_published_total{status=\"dropped\"} %d\n", snap.AuditEventsDropped)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
