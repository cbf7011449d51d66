package domain

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// ULID represents a Universally Unique Lexicographically Sortable Identifier
type ULID = ulid.ULID

// User is a resource owner able to log in, approve devices and grant consent.
type User struct {
	ID           string    `json:"id"`
	ProviderUID  string    `json:"provider_uid"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewUser creates a new user instance with a fresh identifier
func NewUser(providerUID, displayName, passwordHash string) *User {
	return &User{
		ID:           NewID(),
		ProviderUID:  providerUID,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id string) (*User, error)

	// FindByProviderUID finds a user by login name
	FindByProviderUID(ctx context.Context, providerUID string) (*User, error)
}
