package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

const (
	// loginRateLimitPrefix is the Redis key prefix for login attempt counters.
	loginRateLimitPrefix = "ratelimit:login:"
	loginWindow          = time.Minute
)

// RateLimitResult contains the result of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// CheckLoginRateLimit counts a login attempt from ip in the current
// one-minute window and reports whether it is within limitPerMinute.
// Redis errors fail open.
func (c *Cache) CheckLoginRateLimit(ctx context.Context, ip string, limitPerMinute int) (*RateLimitResult, error) {
	now := c.now()
	windowStart := now.Truncate(loginWindow)
	resetAt := windowStart.Add(loginWindow)

	if limitPerMinute <= 0 {
		return &RateLimitResult{Allowed: true, ResetAt: resetAt}, nil
	}

	key := loginRateLimitKey(ip, windowStart)

	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, loginWindow+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return &RateLimitResult{
			Allowed:   true,
			Remaining: int64(limitPerMinute),
			ResetAt:   resetAt,
		}, fmt.Errorf("login rate limit: %w", err)
	}

	return evaluateWindow(incr.Val(), limitPerMinute, now, resetAt), nil
}

func evaluateWindow(count int64, limit int, now, resetAt time.Time) *RateLimitResult {
	remaining := int64(limit) - count
	if remaining < 0 {
		remaining = 0
	}

	result := &RateLimitResult{
		Allowed:   count <= int64(limit),
		Remaining: remaining,
		ResetAt:   resetAt,
	}
	if !result.Allowed {
		result.RetryAfter = resetAt.Sub(now)
	}
	return result
}

func loginRateLimitKey(ip string, windowStart time.Time) string {
	return loginRateLimitPrefix + hashIP(ip) + ":" + strconv.FormatInt(windowStart.Unix(), 10)
}

// hashIP creates a truncated SHA256 hash of an IP address.
// This provides privacy while maintaining uniqueness.
func hashIP(ip string) string {
	hash := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(hash[:8]) // 16 hex chars
}
