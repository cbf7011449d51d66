package domain

import (
	"context"
	"time"
)

// OAuth2Repository defines the interface for OAuth2 data access.
//
// The Claim* methods are conditional updates: they succeed for exactly one
// caller per artifact and return ErrNotFound to everybody else, which is how
// one-time use holds across concurrent requests and server instances.
type OAuth2Repository interface {
	// WithTx runs fn against a repository bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(repo OAuth2Repository) error) error

	// FindClientByID finds a client by ID
	FindClientByID(ctx context.Context, id string) (*Client, error)

	// CreateClient stores a new client
	CreateClient(ctx context.Context, client *Client) error

	// FindDomainByName finds a domain by its unique name
	FindDomainByName(ctx context.Context, name string) (*Domain, error)

	// FindDomainByID finds a domain by ID
	FindDomainByID(ctx context.Context, id string) (*Domain, error)

	// CreateDomain stores a new domain
	CreateDomain(ctx context.Context, d *Domain) error

	// CreateAuthorizationCode creates a new authorization code
	CreateAuthorizationCode(ctx context.Context, code *AuthorizationCode) error

	// ClaimAuthorizationCode marks an unconsumed, unexpired code bound to the
	// given client and redirect URI as consumed and returns it.
	ClaimAuthorizationCode(ctx context.Context, code, clientID, redirectURI string, now time.Time) (*AuthorizationCode, error)

	// CreateAccessToken stores a new access token
	CreateAccessToken(ctx context.Context, token *AccessToken) error

	// CreateRefreshToken stores a new refresh token
	CreateRefreshToken(ctx context.Context, token *RefreshToken) error

	// ClaimRefreshToken revokes a live refresh token owned by clientID and
	// returns it.
	ClaimRefreshToken(ctx context.Context, token, clientID string, now time.Time) (*RefreshToken, error)

	// CreateDeviceSession stores a new pending device session. It returns
	// ErrConflict when the user code is already taken.
	CreateDeviceSession(ctx context.Context, session *DeviceSession) error

	// FindDeviceSessionByDeviceCode finds a device session by device code
	FindDeviceSessionByDeviceCode(ctx context.Context, deviceCode string) (*DeviceSession, error)

	// FindDeviceSessionByUserCode finds a device session by user code
	FindDeviceSessionByUserCode(ctx context.Context, userCode string) (*DeviceSession, error)

	// DecideDeviceSession moves a pending, unexpired session to approved or
	// denied and binds the deciding user.
	DecideDeviceSession(ctx context.Context, userCode, userID string, status DeviceSessionStatus, now time.Time) (*DeviceSession, error)

	// ClaimDeviceSession moves an approved, unexpired session to consumed and
	// returns it.
	ClaimDeviceSession(ctx context.Context, deviceCode string, now time.Time) (*DeviceSession, error)
}

// MaintenanceRepository purges artifacts that can no longer be redeemed.
type MaintenanceRepository interface {
	// DeleteStaleAuthorizationCodes removes consumed codes and codes that expired before the given time
	DeleteStaleAuthorizationCodes(ctx context.Context, before time.Time) (int64, error)

	// ExpireDeviceSessions marks pending sessions past their expiry as expired
	ExpireDeviceSessions(ctx context.Context, now time.Time) (int64, error)

	// DeleteStaleDeviceSessions removes sessions that expired before the given time
	DeleteStaleDeviceSessions(ctx context.Context, before time.Time) (int64, error)

	// DeleteStaleRefreshTokens removes revoked tokens and tokens that expired before the given time
	DeleteStaleRefreshTokens(ctx context.Context, before time.Time) (int64, error)

	// DeleteExpiredAccessTokens removes access tokens that expired before the given time
	DeleteExpiredAccessTokens(ctx context.Context, before time.Time) (int64, error)
}
