package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
	"github.com/optiwealth/optiwealth/internal/model"
)

// ErrHoldingNotFound indicates no holding exists with the given ID.
var ErrHoldingNotFound = errors.New("holding not found")

const holdingColumns = `id, portfolio_id, symbol, quantity, avg_cost, created_at, updated_at`

// CreateHolding inserts a holding into its portfolio.
func (r *Repository) CreateHolding(ctx context.Context, h *model.Holding) error {
	query := `
		INSERT INTO holdings (id, portfolio_id, symbol, quantity, avg_cost, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		h.ID,
		h.PortfolioID,
		h.Symbol,
		h.Quantity.String(),
		h.AvgCost.String(),
		h.CreatedAt,
		h.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrPortfolioNotFound
		}
		return fmt.Errorf("failed to create holding: %w", err)
	}
	return nil
}

// GetHoldingByID retrieves a single holding.
func (r *Repository) GetHoldingByID(ctx context.Context, id string) (*model.Holding, error) {
	query := `SELECT ` + holdingColumns + ` FROM holdings WHERE id = $1`

	h, err := scanHolding(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrHoldingNotFound
		}
		return nil, fmt.Errorf("failed to get holding: %w", err)
	}
	return h, nil
}

// ListHoldingsByPortfolio returns a portfolio's holdings ordered by symbol.
func (r *Repository) ListHoldingsByPortfolio(ctx context.Context, portfolioID string) ([]*model.Holding, error) {
	byPortfolio, err := r.ListHoldingsByPortfolios(ctx, []string{portfolioID})
	if err != nil {
		return nil, err
	}
	return byPortfolio[portfolioID], nil
}

// ListHoldingsByPortfolios loads the holdings of several portfolios in one query.
func (r *Repository) ListHoldingsByPortfolios(ctx context.Context, portfolioIDs []string) (map[string][]*model.Holding, error) {
	query := `
		SELECT ` + holdingColumns + `
		FROM holdings
		WHERE portfolio_id = ANY($1)
		ORDER BY symbol, created_at
	`

	rows, err := r.pool.Query(ctx, query, pq.Array(portfolioIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]*model.Holding, len(portfolioIDs))
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		result[h.PortfolioID] = append(result[h.PortfolioID], h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate holdings: %w", err)
	}

	return result, nil
}

// UpdateHolding persists quantity and average cost. The portfolio link is immutable.
func (r *Repository) UpdateHolding(ctx context.Context, h *model.Holding) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE holdings SET quantity = $2, avg_cost = $3, updated_at = $4 WHERE id = $1`,
		h.ID, h.Quantity.String(), h.AvgCost.String(), h.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update holding: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrHoldingNotFound
	}
	return nil
}

// DeleteHolding removes a holding.
func (r *Repository) DeleteHolding(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM holdings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete holding: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrHoldingNotFound
	}
	return nil
}

func scanHolding(row pgx.Row) (*model.Holding, error) {
	var h model.Holding
	err := row.Scan(
		&h.ID,
		&h.PortfolioID,
		&h.Symbol,
		&h.Quantity,
		&h.AvgCost,
		&h.CreatedAt,
		&h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &h, nil
}
