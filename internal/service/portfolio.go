package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"

	"github.com/optiwealth/optiwealth/internal/audit"
	"github.com/optiwealth/optiwealth/internal/auth"
	"github.com/optiwealth/optiwealth/internal/metrics"
	"github.com/optiwealth/optiwealth/internal/model"
	"github.com/optiwealth/optiwealth/internal/repository"
)

const maxPortfolioNameLength = 100

// portfolioHoldingStore is the persistence the portfolio and holding services share.
type portfolioHoldingStore interface {
	PortfolioStore
	HoldingStore
}

// PortfolioService handles owner-scoped portfolio operations. The caller's
// identity is read from the context.
type PortfolioService struct {
	store   portfolioHoldingStore
	authz   *auth.Authorizer
	audit   audit.Publisher
	metrics metrics.Recorder
	now     func() time.Time
}

// NewPortfolioService creates a new PortfolioService.
func NewPortfolioService(store portfolioHoldingStore, authz *auth.Authorizer, publisher audit.Publisher, recorder metrics.Recorder) *PortfolioService {
	if publisher == nil {
		publisher = audit.NoopPublisher{}
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &PortfolioService{
		store:   store,
		authz:   authz,
		audit:   publisher,
		metrics: recorder,
		now:     time.Now,
	}
}

// Create creates a portfolio owned by the caller.
func (s *PortfolioService) Create(ctx context.Context, name string) (*model.Portfolio, error) {
	identity := auth.IdentityFromContext(ctx)
	if identity == nil {
		return nil, auth.ErrUnauthenticated
	}

	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p := &model.Portfolio{
		ID:        ulid.Make().String(),
		OwnerID:   identity.UserID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreatePortfolio(ctx, p); err != nil {
		// The owner row disappeared after authentication.
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, auth.ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to create portfolio: %w", err)
	}
	return p, nil
}

// List returns the caller's portfolios with their holdings.
func (s *PortfolioService) List(ctx context.Context) ([]*model.Portfolio, error) {
	identity := auth.IdentityFromContext(ctx)
	if identity == nil {
		return nil, auth.ErrUnauthenticated
	}

	portfolios, err := s.store.ListPortfoliosByOwner(ctx, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}
	if portfolios == nil {
		portfolios = []*model.Portfolio{}
	}
	return portfolios, nil
}

// Get returns a portfolio the caller owns, with holdings.
func (s *PortfolioService) Get(ctx context.Context, id string) (*model.Portfolio, error) {
	p, err := s.owned(ctx, id)
	if err != nil {
		return nil, err
	}

	holdings, err := s.store.ListHoldingsByPortfolio(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}
	p.Holdings = holdings
	return p, nil
}

// Rename changes the name of a portfolio the caller owns.
func (s *PortfolioService) Rename(ctx context.Context, id, name string) (*model.Portfolio, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}

	p, err := s.owned(ctx, id)
	if err != nil {
		return nil, err
	}

	p.Name = name
	p.UpdatedAt = s.now().UTC()
	if err := s.store.UpdatePortfolio(ctx, p); err != nil {
		if errors.Is(err, repository.ErrPortfolioNotFound) {
			return nil, ErrPortfolioNotFound
		}
		return nil, fmt.Errorf("failed to update portfolio: %w", err)
	}
	return p, nil
}

// Delete removes a portfolio the caller owns, along with its holdings.
func (s *PortfolioService) Delete(ctx context.Context, id string) error {
	p, err := s.owned(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.DeletePortfolio(ctx, p.ID); err != nil {
		if errors.Is(err, repository.ErrPortfolioNotFound) {
			return ErrPortfolioNotFound
		}
		return fmt.Errorf("failed to delete portfolio: %w", err)
	}
	return nil
}

// owned loads a portfolio and asserts the caller owns it.
func (s *PortfolioService) owned(ctx context.Context, id string) (*model.Portfolio, error) {
	identity := auth.IdentityFromContext(ctx)
	if identity == nil {
		return nil, auth.ErrUnauthenticated
	}

	p, err := s.store.GetPortfolioByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPortfolioNotFound) {
			return nil, ErrPortfolioNotFound
		}
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}

	if err := s.authz.AssertOwnsPortfolio(identity, p); err != nil {
		return nil, denied(s.audit, s.metrics, identity, "portfolio:"+p.ID, err)
	}
	return p, nil
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n == 0 || n > maxPortfolioNameLength {
		return "", ErrInvalidName
	}
	return name, nil
}

// denied records a failed ownership check and maps the authorizer's
// not-found error to the caller's resource type.
func denied(publisher audit.Publisher, recorder metrics.Recorder, identity *model.Identity, resource string, err error) error {
	switch {
	case errors.Is(err, auth.ErrForbidden):
		recorder.IncAccessDenied()
		publisher.PublishAsync(audit.Event{
			Type:     audit.EventAccessDenied,
			UserID:   identity.UserID,
			Resource: resource,
		})
		return auth.ErrForbidden
	case errors.Is(err, auth.ErrResourceNotFound):
		if strings.HasPrefix(resource, "holding:") {
			return ErrHoldingNotFound
		}
		return ErrPortfolioNotFound
	case errors.Is(err, auth.ErrUnauthenticated):
		return auth.ErrUnauthenticated
	default:
		return fmt.Errorf("failed to authorize %s: %w", resource, err)
	}
}
