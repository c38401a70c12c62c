// Package common defines shared constants and sentinel errors used across
// profilekeeper layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Storage-level errors.
	ErrNotFound = errors.New("not found")

	// Directory errors surfaced to the user.
	ErrDuplicateEmail     = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")

	// Input errors.
	ErrValidation = errors.New("validation error")
)
