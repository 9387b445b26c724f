// Package testutil holds shared helpers and factories for tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/optiwealth/optiwealth/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// DropSchema applies every down migration in reverse order and forgets the
// applied-migration records, leaving an empty database for Migrate.
func DropSchema(ctx context.Context, pool *pgxpool.Pool) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}

	dir := filepath.Join(root, "internal", "repository", "migrations")
	downFiles, err := filepath.Glob(filepath.Join(dir, "*.down.sql"))
	if err != nil {
		return fmt.Errorf("list down migrations: %w", err)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(downFiles)))

	for _, path := range downFiles {
		downSQL, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read down migration %s: %w", filepath.Base(path), err)
		}
		if _, err := pool.Exec(ctx, string(downSQL)); err != nil {
			return fmt.Errorf("apply down migration %s: %w", filepath.Base(path), err)
		}
	}

	if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS schema_migrations"); err != nil {
		return fmt.Errorf("drop schema_migrations: %w", err)
	}
	return nil
}

func projectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(filename), "..", "..")), nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestUser creates a user with a placeholder password hash.
func NewTestUser(t testing.TB, email string) *model.User {
	t.Helper()
	return &model.User{
		ID:           ulid.Make().String(),
		Username:     strings.SplitN(email, "@", 2)[0],
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0$placeholder",
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

// NewTestPortfolio creates a portfolio owned by ownerID.
func NewTestPortfolio(t testing.TB, ownerID, name string) *model.Portfolio {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &model.Portfolio{
		ID:        ulid.Make().String(),
		OwnerID:   ownerID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestHolding creates a holding in portfolioID. quantity and avgCost are decimal strings.
func NewTestHolding(t testing.TB, portfolioID, symbol, quantity, avgCost string) *model.Holding {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &model.Holding{
		ID:          ulid.Make().String(),
		PortfolioID: portfolioID,
		Symbol:      symbol,
		Quantity:    decimal.RequireFromString(quantity),
		AvgCost:     decimal.RequireFromString(avgCost),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// UniqueEmail generates a unique email address for tests.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, time.Now().UnixNano())
}
