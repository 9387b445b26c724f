// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/optiwealth/optiwealth/internal/auth"
	"github.com/optiwealth/optiwealth/internal/model"
)

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the public view of a user. It never carries the password hash.
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// LogoutResponse reports whether the presented token was revoked.
type LogoutResponse struct {
	Revoked bool `json:"revoked"`
}

// MeResponse describes the authenticated caller.
type MeResponse struct {
	UserID      string     `json:"user_id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// PortfolioRequest is the body for creating or renaming a portfolio.
type PortfolioRequest struct {
	Name string `json:"name"`
}

// CreateHoldingRequest is the body for adding a holding.
type CreateHoldingRequest struct {
	Symbol   string          `json:"symbol"`
	Quantity decimal.Decimal `json:"quantity"`
	AvgCost  decimal.Decimal `json:"avg_cost"`
}

// UpdateHoldingRequest is the body for replacing a holding's amounts.
type UpdateHoldingRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
	AvgCost  decimal.Decimal `json:"avg_cost"`
}

// HoldingResponse represents a holding in API responses.
type HoldingResponse struct {
	ID          string          `json:"id"`
	PortfolioID string          `json:"portfolio_id"`
	Symbol      string          `json:"symbol"`
	Quantity    decimal.Decimal `json:"quantity"`
	AvgCost     decimal.Decimal `json:"avg_cost"`
	CostBasis   decimal.Decimal `json:"cost_basis"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// PortfolioResponse represents a portfolio in API responses.
type PortfolioResponse struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Holdings  []HoldingResponse `json:"holdings"`
	CostBasis decimal.Decimal   `json:"cost_basis"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// ListResponse wraps a collection.
type ListResponse[T any] struct {
	Data []T `json:"data"`
}

// SymbolResponse reports whether a symbol is tradable.
type SymbolResponse struct {
	Symbol string `json:"symbol"`
	Valid  bool   `json:"valid"`
}

// SymbolSearchResponse lists symbols matching a prefix.
type SymbolSearchResponse struct {
	Prefix  string   `json:"prefix"`
	Symbols []string `json:"symbols"`
}

// ToUserResponse converts a model.User to a UserResponse.
func ToUserResponse(u *model.User) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username, Email: u.Email}
}

// ToLoginResponse builds a LoginResponse.
func ToLoginResponse(u *model.User, token *auth.Token) LoginResponse {
	return LoginResponse{
		User:      ToUserResponse(u),
		Token:     token.Value,
		TokenType: "Bearer",
		ExpiresAt: token.ExpiresAt,
	}
}

// ToHoldingResponse converts a model.Holding to a HoldingResponse.
func ToHoldingResponse(h *model.Holding) HoldingResponse {
	return HoldingResponse{
		ID:          h.ID,
		PortfolioID: h.PortfolioID,
		Symbol:      h.Symbol,
		Quantity:    h.Quantity,
		AvgCost:     h.AvgCost,
		CostBasis:   h.CostBasis(),
		CreatedAt:   h.CreatedAt,
		UpdatedAt:   h.UpdatedAt,
	}
}

// ToHoldingResponses converts a slice of holdings.
func ToHoldingResponses(holdings []*model.Holding) []HoldingResponse {
	out := make([]HoldingResponse, 0, len(holdings))
	for _, h := range holdings {
		out = append(out, ToHoldingResponse(h))
	}
	return out
}

// ToPortfolioResponse converts a model.Portfolio to a PortfolioResponse.
func ToPortfolioResponse(p *model.Portfolio) PortfolioResponse {
	holdings := ToHoldingResponses(p.Holdings)
	total := decimal.Zero
	for _, h := range holdings {
		total = total.Add(h.CostBasis)
	}
	return PortfolioResponse{
		ID:        p.ID,
		Name:      p.Name,
		Holdings:  holdings,
		CostBasis: total,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// ToPortfolioResponses converts a slice of portfolios.
func ToPortfolioResponses(portfolios []*model.Portfolio) []PortfolioResponse {
	out := make([]PortfolioResponse, 0, len(portfolios))
	for _, p := range portfolios {
		out = append(out, ToPortfolioResponse(p))
	}
	return out
}
