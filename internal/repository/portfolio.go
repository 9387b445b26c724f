package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/optiwealth/optiwealth/internal/model"
)

// ErrPortfolioNotFound indicates no portfolio exists with the given ID.
var ErrPortfolioNotFound = errors.New("portfolio not found")

const portfolioColumns = `id, owner_id, name, created_at, updated_at`

// CreatePortfolio inserts a new portfolio.
func (r *Repository) CreatePortfolio(ctx context.Context, p *model.Portfolio) error {
	query := `
		INSERT INTO portfolios (id, owner_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query, p.ID, p.OwnerID, p.Name, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to create portfolio: %w", err)
	}
	return nil
}

// GetPortfolioByID retrieves a portfolio without its holdings.
func (r *Repository) GetPortfolioByID(ctx context.Context, id string) (*model.Portfolio, error) {
	query := `SELECT ` + portfolioColumns + ` FROM portfolios WHERE id = $1`

	p, err := scanPortfolio(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPortfolioNotFound
		}
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}
	return p, nil
}

// ListPortfoliosByOwner returns the owner's portfolios, oldest first, with holdings loaded.
func (r *Repository) ListPortfoliosByOwner(ctx context.Context, ownerID string) ([]*model.Portfolio, error) {
	query := `SELECT ` + portfolioColumns + ` FROM portfolios WHERE owner_id = $1 ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}
	defer rows.Close()

	var portfolios []*model.Portfolio
	for rows.Next() {
		p, err := scanPortfolio(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		portfolios = append(portfolios, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate portfolios: %w", err)
	}

	if len(portfolios) == 0 {
		return portfolios, nil
	}

	ids := make([]string, len(portfolios))
	for i, p := range portfolios {
		ids[i] = p.ID
	}
	byPortfolio, err := r.ListHoldingsByPortfolios(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range portfolios {
		p.Holdings = byPortfolio[p.ID]
	}

	return portfolios, nil
}

// UpdatePortfolio persists the portfolio name. Ownership is never changed.
func (r *Repository) UpdatePortfolio(ctx context.Context, p *model.Portfolio) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE portfolios SET name = $2, updated_at = $3 WHERE id = $1`,
		p.ID, p.Name, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update portfolio: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPortfolioNotFound
	}
	return nil
}

// DeletePortfolio removes a portfolio and, by cascade, its holdings.
func (r *Repository) DeletePortfolio(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM portfolios WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete portfolio: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPortfolioNotFound
	}
	return nil
}

func scanPortfolio(row pgx.Row) (*model.Portfolio, error) {
	var p model.Portfolio
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
