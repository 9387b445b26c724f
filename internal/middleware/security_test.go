package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSecurity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		isDev       bool
		header      string
		wantPresent bool
		wantValue   string
	}{
		{"nosniff", false, "X-Content-Type-Options", true, "nosniff"},
		{"frame options", false, "X-Frame-Options", true, "DENY"},
		{"referrer policy", false, "Referrer-Policy", true, "no-referrer"},
		{"csp", false, "Content-Security-Policy", true, "default-src 'none'; frame-ancestors 'none'"},
		{"no-store", false, "Cache-Control", true, "no-store"},
		{"hsts in production", false, "Strict-Transport-Security", true, "max-age=31536000; includeSubDomains"},
		{"no hsts in development", true, "Strict-Transport-Security", false, ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := Security(SecurityConfig{IsDevelopment: tt.isDev})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/portfolios", nil))

			got := rec.Header().Get(tt.header)
			if tt.wantPresent && got != tt.wantValue {
				t.Errorf("%s = %q, want %q", tt.header, got, tt.wantValue)
			}
			if !tt.wantPresent && got != "" {
				t.Errorf("%s should be absent, got %q", tt.header, got)
			}
		})
	}
}

func TestMaxBodySize(t *testing.T) {
	t.Parallel()

	handler := MaxBodySize(16)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 64)
		if _, err := r.Body.Read(buf); err != nil && err.Error() == "http: request body too large" {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	small := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"a":1}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, small)
	if rec.Code != http.StatusOK {
		t.Errorf("small body: status = %d, want 200", rec.Code)
	}

	large := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(strings.Repeat("x", 100)))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, large)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("large body: status = %d, want 413", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "PAYLOAD_TOO_LARGE") {
		t.Errorf("body = %s", rec.Body.String())
	}
}
