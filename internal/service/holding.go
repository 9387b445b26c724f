package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/optiwealth/optiwealth/internal/audit"
	"github.com/optiwealth/optiwealth/internal/auth"
	"github.com/optiwealth/optiwealth/internal/metrics"
	"github.com/optiwealth/optiwealth/internal/model"
	"github.com/optiwealth/optiwealth/internal/repository"
	"github.com/optiwealth/optiwealth/internal/symbols"
)

// HoldingService handles holdings. Every holding is reached through its
// portfolio, so each operation asserts portfolio ownership first.
type HoldingService struct {
	store      portfolioHoldingStore
	portfolios *PortfolioService
	authz      *auth.Authorizer
	symbols    SymbolChecker
	audit      audit.Publisher
	metrics    metrics.Recorder
	now        func() time.Time
}

// NewHoldingService creates a new HoldingService.
func NewHoldingService(portfolios *PortfolioService, checker SymbolChecker) *HoldingService {
	return &HoldingService{
		store:      portfolios.store,
		portfolios: portfolios,
		authz:      portfolios.authz,
		symbols:    checker,
		audit:      portfolios.audit,
		metrics:    portfolios.metrics,
		now:        time.Now,
	}
}

// HoldingInput defines the mutable fields of a holding.
type HoldingInput struct {
	Symbol   string
	Quantity decimal.Decimal
	AvgCost  decimal.Decimal
}

// Add creates a holding in a portfolio the caller owns.
func (s *HoldingService) Add(ctx context.Context, portfolioID string, input HoldingInput) (*model.Holding, error) {
	p, err := s.portfolios.owned(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	symbol := symbols.Normalize(input.Symbol)
	if !s.symbols.IsValid(symbol) {
		s.metrics.IncHoldingRejected()
		return nil, ErrUnknownSymbol
	}
	if err := validateAmounts(input.Quantity, input.AvgCost); err != nil {
		s.metrics.IncHoldingRejected()
		return nil, err
	}

	now := s.now().UTC()
	h := &model.Holding{
		ID:          ulid.Make().String(),
		PortfolioID: p.ID,
		Symbol:      symbol,
		Quantity:    input.Quantity,
		AvgCost:     input.AvgCost,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateHolding(ctx, h); err != nil {
		// Portfolio deleted between the ownership check and the insert.
		if errors.Is(err, repository.ErrPortfolioNotFound) {
			return nil, ErrPortfolioNotFound
		}
		return nil, fmt.Errorf("failed to create holding: %w", err)
	}
	return h, nil
}

// List returns the holdings of a portfolio the caller owns.
func (s *HoldingService) List(ctx context.Context, portfolioID string) ([]*model.Holding, error) {
	p, err := s.portfolios.owned(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	holdings, err := s.store.ListHoldingsByPortfolio(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}
	if holdings == nil {
		holdings = []*model.Holding{}
	}
	return holdings, nil
}

// Get returns a holding whose portfolio the caller owns.
func (s *HoldingService) Get(ctx context.Context, id string) (*model.Holding, error) {
	return s.owned(ctx, id)
}

// Update replaces quantity and average cost. The symbol and portfolio of a
// holding never change.
func (s *HoldingService) Update(ctx context.Context, id string, quantity, avgCost decimal.Decimal) (*model.Holding, error) {
	h, err := s.owned(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := validateAmounts(quantity, avgCost); err != nil {
		s.metrics.IncHoldingRejected()
		return nil, err
	}

	h.Quantity = quantity
	h.AvgCost = avgCost
	h.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateHolding(ctx, h); err != nil {
		if errors.Is(err, repository.ErrHoldingNotFound) {
			return nil, ErrHoldingNotFound
		}
		return nil, fmt.Errorf("failed to update holding: %w", err)
	}
	return h, nil
}

// Delete removes a holding whose portfolio the caller owns.
func (s *HoldingService) Delete(ctx context.Context, id string) error {
	h, err := s.owned(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteHolding(ctx, h.ID); err != nil {
		if errors.Is(err, repository.ErrHoldingNotFound) {
			return ErrHoldingNotFound
		}
		return fmt.Errorf("failed to delete holding: %w", err)
	}
	return nil
}

// owned loads a holding and asserts the caller owns its portfolio.
func (s *HoldingService) owned(ctx context.Context, id string) (*model.Holding, error) {
	identity := auth.IdentityFromContext(ctx)
	if identity == nil {
		return nil, auth.ErrUnauthenticated
	}

	h, err := s.store.GetHoldingByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrHoldingNotFound) {
			return nil, ErrHoldingNotFound
		}
		return nil, fmt.Errorf("failed to get holding: %w", err)
	}

	if err := s.authz.AssertOwnsHolding(ctx, identity, h); err != nil {
		return nil, denied(s.audit, s.metrics, identity, "holding:"+h.ID, err)
	}
	return h, nil
}

// Amounts are stored as NUMERIC(24, 8).
const (
	maxAmountScale  = 8
	maxAmountDigits = 16
)

var amountCeiling = decimal.New(1, maxAmountDigits)

func validateAmounts(quantity, avgCost decimal.Decimal) error {
	if !quantity.IsPositive() {
		return ErrInvalidQuantity
	}
	if avgCost.IsNegative() {
		return ErrInvalidAvgCost
	}
	if !fitsColumn(quantity) || !fitsColumn(avgCost) {
		return ErrAmountPrecision
	}
	return nil
}

func fitsColumn(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(maxAmountScale)) && d.Abs().LessThan(amountCeiling)
}
