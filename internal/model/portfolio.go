package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Portfolio is a named collection of holdings owned by exactly one user.
type Portfolio struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"owner_id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Holdings  []*Holding `json:"holdings,omitempty"`
}

// OwnedBy reports whether userID owns the portfolio.
func (p *Portfolio) OwnedBy(userID string) bool {
	return p != nil && userID != "" && p.OwnerID == userID
}

// Holding is a position in a single symbol. It has no owner of its own:
// ownership is answered by the portfolio identified by PortfolioID, which
// is fixed when the holding is created.
type Holding struct {
	ID          string          `json:"id"`
	PortfolioID string          `json:"portfolio_id"`
	Symbol      string          `json:"symbol"`
	Quantity    decimal.Decimal `json:"quantity"`
	AvgCost     decimal.Decimal `json:"avg_cost"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CostBasis returns Quantity * AvgCost.
func (h *Holding) CostBasis() decimal.Decimal {
	return h.Quantity.Mul(h.AvgCost)
}
