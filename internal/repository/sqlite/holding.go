package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/optiwealth/optiwealth/internal/model"
	"github.com/optiwealth/optiwealth/internal/repository"
)

const holdingColumns = `id, portfolio_id, symbol, quantity, avg_cost, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

// CreateHolding inserts a holding into its portfolio.
func (s *Store) CreateHolding(ctx context.Context, h *model.Holding) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO holdings (`+holdingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.PortfolioID, h.Symbol, h.Quantity.String(), h.AvgCost.String(), h.CreatedAt, h.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyError(err) {
			return repository.ErrPortfolioNotFound
		}
		return fmt.Errorf("insert holding: %w", err)
	}
	return nil
}

// GetHoldingByID retrieves a single holding.
func (s *Store) GetHoldingByID(ctx context.Context, id string) (*model.Holding, error) {
	h, err := scanHolding(s.db.QueryRowContext(ctx, `SELECT `+holdingColumns+` FROM holdings WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrHoldingNotFound
		}
		return nil, fmt.Errorf("query holding: %w", err)
	}
	return h, nil
}

// ListHoldingsByPortfolio returns a portfolio's holdings ordered by symbol.
func (s *Store) ListHoldingsByPortfolio(ctx context.Context, portfolioID string) ([]*model.Holding, error) {
	byPortfolio, err := s.ListHoldingsByPortfolios(ctx, []string{portfolioID})
	if err != nil {
		return nil, err
	}
	return byPortfolio[portfolioID], nil
}

// ListHoldingsByPortfolios loads the holdings of several portfolios in one query.
func (s *Store) ListHoldingsByPortfolios(ctx context.Context, portfolioIDs []string) (map[string][]*model.Holding, error) {
	result := make(map[string][]*model.Holding, len(portfolioIDs))
	if len(portfolioIDs) == 0 {
		return result, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(portfolioIDs)), ",")
	args := make([]any, len(portfolioIDs))
	for i, id := range portfolioIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+holdingColumns+` FROM holdings WHERE portfolio_id IN (`+placeholders+`) ORDER BY symbol, created_at`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("query holdings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, fmt.Errorf("scan holding: %w", err)
		}
		result[h.PortfolioID] = append(result[h.PortfolioID], h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate holdings: %w", err)
	}
	return result, nil
}

// UpdateHolding persists quantity and average cost.
func (s *Store) UpdateHolding(ctx context.Context, h *model.Holding) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE holdings SET quantity = ?, avg_cost = ?, updated_at = ? WHERE id = ?`,
		h.Quantity.String(), h.AvgCost.String(), h.UpdatedAt, h.ID)
	if err != nil {
		return fmt.Errorf("update holding: %w", err)
	}
	return requireRow(res, repository.ErrHoldingNotFound)
}

// DeleteHolding removes a holding.
func (s *Store) DeleteHolding(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM holdings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete holding: %w", err)
	}
	return requireRow(res, repository.ErrHoldingNotFound)
}

func scanHolding(row scanner) (*model.Holding, error) {
	var h model.Holding
	if err := row.Scan(&h.ID, &h.PortfolioID, &h.Symbol, &h.Quantity, &h.AvgCost, &h.CreatedAt, &h.UpdatedAt); err != nil {
		return nil, err
	}
	return &h, nil
}
