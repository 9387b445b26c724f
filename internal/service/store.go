package service

import (
	"context"
	"time"

	"github.com/optiwealth/optiwealth/internal/model"
)

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdatePasswordHash(ctx context.Context, userID, hash string) error
}

// PortfolioStore persists portfolios.
type PortfolioStore interface {
	CreatePortfolio(ctx context.Context, p *model.Portfolio) error
	GetPortfolioByID(ctx context.Context, id string) (*model.Portfolio, error)
	ListPortfoliosByOwner(ctx context.Context, ownerID string) ([]*model.Portfolio, error)
	UpdatePortfolio(ctx context.Context, p *model.Portfolio) error
	DeletePortfolio(ctx context.Context, id string) error
}

// HoldingStore persists holdings.
type HoldingStore interface {
	CreateHolding(ctx context.Context, h *model.Holding) error
	GetHoldingByID(ctx context.Context, id string) (*model.Holding, error)
	ListHoldingsByPortfolio(ctx context.Context, portfolioID string) ([]*model.Holding, error)
	UpdateHolding(ctx context.Context, h *model.Holding) error
	DeleteHolding(ctx context.Context, id string) error
}

// Store is the full persistence surface. Both the Postgres repository and
// the SQLite store implement it.
type Store interface {
	UserStore
	PortfolioStore
	HoldingStore
	Ping(ctx context.Context) error
	Close()
}

// TokenRevoker records revoked token IDs until the token would expire anyway.
type TokenRevoker interface {
	RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error
}

// SymbolChecker reports whether a ticker symbol is tradable.
type SymbolChecker interface {
	IsValid(symbol string) bool
}
