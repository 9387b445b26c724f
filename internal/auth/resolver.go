package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/optiwealth/optiwealth/internal/model"
	"github.com/optiwealth/optiwealth/internal/repository"
)

// ErrIdentityNotFound indicates no user exists for a token subject.
var ErrIdentityNotFound = errors.New("identity not found")

// UserFinder looks up users by email.
type UserFinder interface {
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// IdentityResolver maps a token subject to the current Identity.
// It performs one lookup per call and caches nothing, so deleted users
// stop authenticating immediately.
type IdentityResolver struct {
	users UserFinder
}

// NewIdentityResolver creates an IdentityResolver.
func NewIdentityResolver(users UserFinder) *IdentityResolver {
	return &IdentityResolver{users: users}
}

// Resolve returns the identity for email, or ErrIdentityNotFound.
func (r *IdentityResolver) Resolve(ctx context.Context, email string) (*model.Identity, error) {
	if email == "" {
		return nil, ErrIdentityNotFound
	}

	user, err := r.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrIdentityNotFound
		}
		return nil, fmt.Errorf("resolve identity: %w", err)
	}

	return user.Identity(), nil
}
