// Package service provides business logic for the application.
package service

import (
	"errors"
	"fmt"
)

// Service errors.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrPortfolioNotFound  = errors.New("portfolio not found")
	ErrHoldingNotFound    = errors.New("holding not found")
)

// ErrValidation is wrapped by every input validation failure.
var ErrValidation = errors.New("validation failed")

// Field validation errors. errors.Is(err, ErrValidation) holds for each.
var (
	ErrInvalidUsername = fmt.Errorf("%w: username must be 3-50 characters", ErrValidation)
	ErrInvalidEmail    = fmt.Errorf("%w: email is not a valid address", ErrValidation)
	ErrInvalidPassword = fmt.Errorf("%w: password must be 8-128 characters", ErrValidation)
	ErrInvalidName     = fmt.Errorf("%w: name must be 1-100 characters", ErrValidation)
	ErrUnknownSymbol   = fmt.Errorf("%w: unknown symbol", ErrValidation)
	ErrInvalidQuantity = fmt.Errorf("%w: quantity must be greater than zero", ErrValidation)
	ErrInvalidAvgCost  = fmt.Errorf("%w: avg_cost must not be negative", ErrValidation)
	ErrAmountPrecision = fmt.Errorf("%w: amounts allow at most 16 integer digits and 8 decimal places", ErrValidation)
)
