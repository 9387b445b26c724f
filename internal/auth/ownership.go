package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/optiwealth/optiwealth/internal/model"
	"github.com/optiwealth/optiwealth/internal/repository"
)

// Authorization errors.
var (
	ErrUnauthenticated  = errors.New("authentication required")
	ErrForbidden        = errors.New("access to resource denied")
	ErrResourceNotFound = errors.New("resource not found")
)

// PortfolioFinder loads portfolios by ID.
type PortfolioFinder interface {
	GetPortfolioByID(ctx context.Context, id string) (*model.Portfolio, error)
}

// Authorizer decides whether an identity may act on a portfolio or holding.
type Authorizer struct {
	portfolios PortfolioFinder
}

// NewAuthorizer creates an Authorizer.
func NewAuthorizer(portfolios PortfolioFinder) *Authorizer {
	return &Authorizer{portfolios: portfolios}
}

// AssertOwnsPortfolio returns nil iff identity owns portfolio.
func (a *Authorizer) AssertOwnsPortfolio(identity *model.Identity, portfolio *model.Portfolio) error {
	if identity == nil {
		return ErrUnauthenticated
	}
	if portfolio == nil {
		return ErrResourceNotFound
	}
	if !portfolio.OwnedBy(identity.UserID) {
		return ErrForbidden
	}
	return nil
}

// AssertOwnsHolding returns nil iff identity owns the portfolio holding belongs to.
func (a *Authorizer) AssertOwnsHolding(ctx context.Context, identity *model.Identity, holding *model.Holding) error {
	if identity == nil {
		return ErrUnauthenticated
	}
	if holding == nil {
		return ErrResourceNotFound
	}

	portfolio, err := a.portfolios.GetPortfolioByID(ctx, holding.PortfolioID)
	if err != nil {
		if errors.Is(err, repository.ErrPortfolioNotFound) {
			return ErrResourceNotFound
		}
		return fmt.Errorf("load holding portfolio: %w", err)
	}

	return a.AssertOwnsPortfolio(identity, portfolio)
}
