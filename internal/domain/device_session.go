package domain

import "time"

// DeviceSessionStatus represents the state of a device pairing request
type DeviceSessionStatus string

const (
	DeviceSessionPending  DeviceSessionStatus = "pending"
	DeviceSessionApproved DeviceSessionStatus = "approved"
	DeviceSessionDenied   DeviceSessionStatus = "denied"
	DeviceSessionExpired  DeviceSessionStatus = "expired"
	// DeviceSessionConsumed marks an approved session whose device code has
	// already been exchanged for a token.
	DeviceSessionConsumed DeviceSessionStatus = "consumed"
)

// DeviceSession holds the state of one device pairing.
type DeviceSession struct {
	DeviceCode string              `json:"device_code"`
	UserCode   string              `json:"user_code"`
	ClientID   string              `json:"client_id"`
	DomainID   string              `json:"domain_id"`
	UserID     string              `json:"user_id,omitempty"`
	Scope      string              `json:"scope,omitempty"`
	Status     DeviceSessionStatus `json:"status"`
	Interval   int                 `json:"interval"`
	ExpiresAt  time.Time           `json:"expires_at"`
	CreatedAt  time.Time           `json:"created_at"`
}

// IsExpired reports whether the session can no longer be approved or redeemed.
func (s *DeviceSession) IsExpired(now time.Time) bool {
	return s.Status == DeviceSessionExpired || !now.Before(s.ExpiresAt)
}
