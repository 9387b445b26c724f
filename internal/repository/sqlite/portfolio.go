package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/optiwealth/optiwealth/internal/model"
	"github.com/optiwealth/optiwealth/internal/repository"
)

const portfolioColumns = `id, owner_id, name, created_at, updated_at`

// CreatePortfolio inserts a new portfolio.
func (s *Store) CreatePortfolio(ctx context.Context, p *model.Portfolio) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO portfolios (id, owner_id, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.OwnerID, p.Name, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyError(err) {
			return repository.ErrUserNotFound
		}
		return fmt.Errorf("insert portfolio: %w", err)
	}
	return nil
}

// GetPortfolioByID retrieves a portfolio without its holdings.
func (s *Store) GetPortfolioByID(ctx context.Context, id string) (*model.Portfolio, error) {
	var p model.Portfolio
	err := s.db.QueryRowContext(ctx, `SELECT `+portfolioColumns+` FROM portfolios WHERE id = ?`, id).
		Scan(&p.ID, &p.OwnerID, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrPortfolioNotFound
		}
		return nil, fmt.Errorf("query portfolio: %w", err)
	}
	return &p, nil
}

// ListPortfoliosByOwner returns the owner's portfolios, oldest first, with holdings loaded.
func (s *Store) ListPortfoliosByOwner(ctx context.Context, ownerID string) ([]*model.Portfolio, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+portfolioColumns+` FROM portfolios WHERE owner_id = ? ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query portfolios: %w", err)
	}

	var portfolios []*model.Portfolio
	for rows.Next() {
		var p model.Portfolio
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan portfolio: %w", err)
		}
		portfolios = append(portfolios, &p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate portfolios: %w", err)
	}
	// Release the single connection before loading holdings.
	rows.Close()

	ids := make([]string, len(portfolios))
	for i, p := range portfolios {
		ids[i] = p.ID
	}
	byPortfolio, err := s.ListHoldingsByPortfolios(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range portfolios {
		p.Holdings = byPortfolio[p.ID]
	}

	return portfolios, nil
}

// UpdatePortfolio persists the portfolio name.
func (s *Store) UpdatePortfolio(ctx context.Context, p *model.Portfolio) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE portfolios SET name = ?, updated_at = ? WHERE id = ?`, p.Name, p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("update portfolio: %w", err)
	}
	return requireRow(res, repository.ErrPortfolioNotFound)
}

// DeletePortfolio removes a portfolio and its holdings.
func (s *Store) DeletePortfolio(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM portfolios WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete portfolio: %w", err)
	}
	return requireRow(res, repository.ErrPortfolioNotFound)
}
