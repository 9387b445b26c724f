package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/optiwealth/optiwealth/internal/cache"
)

type fakeLimiter struct {
	result *cache.RateLimitResult
	err    error
	lastIP string
}

func (f *fakeLimiter) CheckLoginRateLimit(_ context.Context, ip string, _ int) (*cache.RateLimitResult, error) {
	f.lastIP = ip
	return f.result, f.err
}

func TestRateLimitLogin(t *testing.T) {
	t.Parallel()

	reset := time.Now().Add(30 * time.Second)

	tests := []struct {
		name       string
		enabled    bool
		limiter    *fakeLimiter
		wantStatus int
	}{
		{"disabled", false, &fakeLimiter{result: &cache.RateLimitResult{Allowed: false}}, http.StatusOK},
		{"allowed", true, &fakeLimiter{result: &cache.RateLimitResult{Allowed: true, Remaining: 4, ResetAt: reset}}, http.StatusOK},
		{"limited", true, &fakeLimiter{result: &cache.RateLimitResult{Allowed: false, ResetAt: reset, RetryAfter: 30 * time.Second}}, http.StatusTooManyRequests},
		{"limiter error fails open", true, &fakeLimiter{result: &cache.RateLimitResult{Allowed: true}, err: errors.New("redis down")}, http.StatusOK},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := RateLimitLogin(RateLimitConfig{
				Logger:         discardLogger,
				Limiter:        tt.limiter,
				Enabled:        tt.enabled,
				LimitPerMinute: 5,
			})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
			req.RemoteAddr = "203.0.113.7:51234"
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusTooManyRequests && w.Header().Get("Retry-After") != "30" {
				t.Errorf("Retry-After = %q, want 30", w.Header().Get("Retry-After"))
			}
			if tt.enabled && tt.limiter.lastIP != "203.0.113.7" {
				t.Errorf("limiter saw ip %q, want 203.0.113.7", tt.limiter.lastIP)
			}
		})
	}
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		remote string
		want   string
	}{
		{"198.51.100.2:4000", "198.51.100.2"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"198.51.100.2", "198.51.100.2"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tt.remote
		if got := ClientIP(req); got != tt.want {
			t.Errorf("ClientIP(%q) = %q, want %q", tt.remote, got, tt.want)
		}
	}
}
