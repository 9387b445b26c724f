package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const revokedTokenPrefix = "auth:revoked:"

// ErrEmptyTokenID indicates a token without a jti cannot be revoked.
var ErrEmptyTokenID = errors.New("token id is empty")

// RevokeToken denylists tokenID until expiresAt. Tokens already expired are
// not stored since validation rejects them anyway.
func (c *Cache) RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return ErrEmptyTokenID
	}

	ttl := expiresAt.Sub(c.now())
	if ttl <= 0 {
		return nil
	}
	// Round up so the entry never expires before the token does.
	ttl = ttl.Truncate(time.Second) + time.Second

	if err := c.client.Set(ctx, revokedTokenKey(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsTokenRevoked reports whether tokenID has been denylisted.
func (c *Cache) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}

	n, err := c.client.Exists(ctx, revokedTokenKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return n > 0, nil
}

func revokedTokenKey(tokenID string) string {
	return revokedTokenPrefix + tokenID
}
