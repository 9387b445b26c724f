//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/optiwealth/optiwealth/internal/testutil"
)

func newTestCache(t *testing.T) (context.Context, *Cache) {
	t.Helper()
	ctx := context.Background()
	redisURL := testutil.RequireEnv(t, "REDIS_URL")

	c, err := New(ctx, redisURL)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if err := testutil.FlushRedis(ctx, c.Client()); err != nil {
		t.Fatalf("FlushRedis failed: %v", err)
	}
	return ctx, c
}

func TestIntegrationRevocation(t *testing.T) {
	ctx, c := newTestCache(t)

	revoked, err := c.IsTokenRevoked(ctx, "01JTOKENA")
	if err != nil || revoked {
		t.Fatalf("fresh token revoked = %v, err = %v", revoked, err)
	}

	if err := c.RevokeToken(ctx, "01JTOKENA", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("RevokeToken failed: %v", err)
	}

	revoked, err = c.IsTokenRevoked(ctx, "01JTOKENA")
	if err != nil || !revoked {
		t.Fatalf("revoked = %v, err = %v; want true", revoked, err)
	}

	ttl, err := c.Client().TTL(ctx, revokedTokenKey("01JTOKENA")).Result()
	if err != nil {
		t.Fatalf("TTL failed: %v", err)
	}
	if ttl <= 59*time.Minute || ttl > time.Hour+time.Second {
		t.Errorf("TTL = %v, want about one hour", ttl)
	}
}

func TestIntegrationLoginRateLimit(t *testing.T) {
	ctx, c := newTestCache(t)
	// Pin the clock inside a window so the test cannot straddle a boundary.
	fixed := time.Now().Truncate(time.Minute).Add(10 * time.Second)
	c.now = func() time.Time { return fixed }

	for i := 1; i <= 3; i++ {
		r, err := c.CheckLoginRateLimit(ctx, "198.51.100.4", 3)
		if err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
		if !r.Allowed {
			t.Fatalf("attempt %d should be allowed", i)
		}
	}

	r, err := c.CheckLoginRateLimit(ctx, "198.51.100.4", 3)
	if err != nil {
		t.Fatalf("CheckLoginRateLimit failed: %v", err)
	}
	if r.Allowed {
		t.Error("fourth attempt should be limited")
	}
	if r.RetryAfter != 50*time.Second {
		t.Errorf("RetryAfter = %v, want 50s", r.RetryAfter)
	}

	other, _ := c.CheckLoginRateLimit(ctx, "198.51.100.5", 3)
	if !other.Allowed {
		t.Error("a different IP has its own window")
	}
}
