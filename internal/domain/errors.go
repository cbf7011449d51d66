package domain

import "errors"

var (
	// ErrNotFound is returned when a record does not exist, or, for the Claim
	// operations, when it exists but cannot be claimed
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a unique value is already taken
	ErrConflict = errors.New("record already exists")

	// ErrInvalidCredentials is returned when a login attempt fails
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidUserCode is returned when a user code cannot be approved or denied
	ErrInvalidUserCode = errors.New("invalid or expired user code")
)
