package domain

import (
	"time"
)

// RegistrationType tells how a client came to exist.
type RegistrationType string

const (
	// RegistrationStatic clients are provisioned by an operator and may use the
	// interactive flows.
	RegistrationStatic RegistrationType = "static"
	// RegistrationDynamic clients registered themselves through /register and are
	// restricted to the client-credentials and device flows.
	RegistrationDynamic RegistrationType = "dynamic"
)

// Client represents a registered client application
type Client struct {
	ID               string           `json:"id"`
	Secret           string           `json:"-"`
	Name             string           `json:"name"`
	RedirectURI      string           `json:"redirect_uri,omitempty"`
	RegistrationType RegistrationType `json:"registration_type"`
	SoftwareID       string           `json:"software_id,omitempty"`
	SoftwareVersion  string           `json:"software_version,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// HasRedirectURI reports whether the client registered a redirect URI.
func (c *Client) HasRedirectURI() bool {
	return c.RedirectURI != ""
}

// IsDynamic reports whether the client was dynamically registered.
func (c *Client) IsDynamic() bool {
	return c.RegistrationType == RegistrationDynamic
}

// Domain is the service a token grants access to.
type Domain struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	// AccessToken is a domain-scoped credential used by the service itself; it has
	// nothing to do with the OAuth tokens issued to clients.
	AccessToken string `json:"-"`
}

// AuthorizationCode represents an authorization code issued by the consent flow
type AuthorizationCode struct {
	Code        string     `json:"code"`
	ClientID    string     `json:"client_id"`
	DomainID    string     `json:"domain_id"`
	RedirectURI string     `json:"redirect_uri"`
	UserID      string     `json:"user_id"`
	Scope       string     `json:"scope,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	ConsumedAt  *time.Time `json:"consumed_at,omitempty"`
}

// IsExpired checks if the code is past its expiry at the given instant
func (c *AuthorizationCode) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
