package domain

import "time"

// TokenTypeBearer is the only token type issued by the server.
const TokenTypeBearer = "bearer"

// AccessToken is an opaque bearer token bound to a client and a domain.
// UserID is empty for tokens obtained with the client-credentials grant.
type AccessToken struct {
	Token     string     `json:"-"`
	ClientID  string     `json:"client_id"`
	DomainID  string     `json:"domain_id"`
	UserID    string     `json:"user_id,omitempty"`
	Scope     string     `json:"scope,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// ExpiresIn returns the remaining lifetime in whole seconds, or zero when the
// token does not expire.
func (t *AccessToken) ExpiresIn(now time.Time) int64 {
	if t.ExpiresAt == nil {
		return 0
	}
	remaining := t.ExpiresAt.Sub(now)
	if remaining < 0 {
		return 0
	}
	return int64(remaining.Round(time.Second) / time.Second)
}

// RefreshToken is a single-use credential that rotates into a new token pair.
type RefreshToken struct {
	Token       string     `json:"-"`
	AccessToken string     `json:"-"`
	ClientID    string     `json:"client_id"`
	DomainID    string     `json:"domain_id"`
	UserID      string     `json:"user_id,omitempty"`
	Scope       string     `json:"scope,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
}
