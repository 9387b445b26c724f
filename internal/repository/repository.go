// Package repository is the PostgreSQL store for users, portfolios and
// holdings.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements the service store interfaces on a pgx pool.
type Repository struct {
	pool *pgxpool.Pool
}

// New opens a pool for databaseURL and pings it.
func New(ctx context.Context, databaseURL string) (*Repository, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	// Identity lookups run on every authenticated request.
	params := config.ConnConfig.RuntimeParams
	if _, ok := params["application_name"]; !ok {
		params["application_name"] = "optiwealth-api"
	}
	if _, ok := params["statement_timeout"]; !ok {
		params["statement_timeout"] = "5000"
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{pool: pool}, nil
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the connection pool.
func (r *Repository) Close() {
	r.pool.Close()
}

// Pool returns the underlying pool for test fixtures.
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isUniqueViolation reports SQLSTATE 23505.
func isUniqueViolation(err error) bool { return pgErrorCode(err) == "23505" }

// isForeignKeyViolation reports SQLSTATE 23503.
func isForeignKeyViolation(err error) bool { return pgErrorCode(err) == "23503" }
