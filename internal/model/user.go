// Package model defines domain entities for the application.
package model

import "time"

// User is a registered account. Email is the login identifier and the
// subject of issued tokens.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity is the authenticated principal attached to a request.
// It is built from a User row and never mutated afterwards.
type Identity struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// Identity returns the request principal for u.
func (u *User) Identity() *Identity {
	return &Identity{
		UserID:      u.ID,
		Email:       u.Email,
		DisplayName: u.Username,
	}
}
