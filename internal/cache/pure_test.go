package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestHashIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ip   string
	}{
		{"IPv4", "192.168.1.1"},
		{"IPv6 localhost", "::1"},
		{"IPv6 full", "2001:0db8:85a3:0000:0000:8a2e:0370:7334"},
		{"empty", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			hash := hashIP(tt.ip)
			if len(hash) != 16 {
				t.Errorf("hashIP(%q) length = %d, want 16", tt.ip, len(hash))
			}
			if hash != hashIP(tt.ip) {
				t.Error("hashIP should be deterministic")
			}
		})
	}

	if hashIP("10.0.0.1") == hashIP("10.0.0.2") {
		t.Error("Different IPs should produce different hashes")
	}
}

func TestLoginRateLimitKey(t *testing.T) {
	t.Parallel()

	window := time.Date(2026, 5, 1, 10, 30, 0, 0, time.UTC)
	key := loginRateLimitKey("203.0.113.9", window)

	if !strings.HasPrefix(key, loginRateLimitPrefix) {
		t.Errorf("key %q missing prefix", key)
	}
	if strings.Contains(key, "203.0.113.9") {
		t.Error("raw IP must not appear in the key")
	}
	if key == loginRateLimitKey("203.0.113.9", window.Add(time.Minute)) {
		t.Error("different windows should use different keys")
	}
}

func TestEvaluateWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 1, 10, 30, 15, 0, time.UTC)
	resetAt := time.Date(2026, 5, 1, 10, 31, 0, 0, time.UTC)

	tests := []struct {
		name          string
		count         int64
		limit         int
		wantAllowed   bool
		wantRemaining int64
	}{
		{"first attempt", 1, 5, true, 4},
		{"at limit", 5, 5, true, 0},
		{"over limit", 6, 5, false, 0},
		{"far over", 100, 5, false, 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := evaluateWindow(tt.count, tt.limit, now, resetAt)
			if r.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", r.Allowed, tt.wantAllowed)
			}
			if r.Remaining != tt.wantRemaining {
				t.Errorf("Remaining = %d, want %d", r.Remaining, tt.wantRemaining)
			}
			if !r.Allowed && r.RetryAfter != 45*time.Second {
				t.Errorf("RetryAfter = %v, want 45s", r.RetryAfter)
			}
		})
	}
}

func TestRevokeToken_NoRedisNeeded(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	c := &Cache{now: func() time.Time { return now }}

	if err := c.RevokeToken(context.Background(), "", now.Add(time.Hour)); !errors.Is(err, ErrEmptyTokenID) {
		t.Errorf("empty id: err = %v, want ErrEmptyTokenID", err)
	}
	if err := c.RevokeToken(context.Background(), "01JTOKEN", now.Add(-time.Second)); err != nil {
		t.Errorf("expired token should be a no-op, err = %v", err)
	}
	revoked, err := c.IsTokenRevoked(context.Background(), "")
	if err != nil || revoked {
		t.Errorf("IsTokenRevoked(\"\") = %v, %v", revoked, err)
	}
}
