// Package cache provides Redis-backed login throttling and token revocation.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache holds the Redis client behind the denylist and the login limiter.
type Cache struct {
	client *redis.Client
	now    func() time.Time
}

// New dials redisURL and verifies the connection with a ping.
func New(ctx context.Context, redisURL string) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	tuneForRequestPath(opt)

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return NewWithClient(client), nil
}

// tuneForRequestPath bounds every call: an authenticated request may wait
// on one denylist lookup, and a slow Redis must not stall it for long.
func tuneForRequestPath(opt *redis.Options) {
	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.PoolTimeout = time.Second
	opt.DialTimeout = 2 * time.Second
	opt.ReadTimeout = 500 * time.Millisecond
	opt.WriteTimeout = 500 * time.Millisecond
	opt.ConnMaxIdleTime = 5 * time.Minute
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client) *Cache {
	return &Cache{client: client, now: time.Now}
}

// Ping checks Redis connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Client exposes the connection for the audit stream publisher.
func (c *Cache) Client() *redis.Client {
	return c.client
}
