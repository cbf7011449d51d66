package jwt

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

const issuer = "cpa-auth"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenRevoked = errors.New("token has been revoked")
)

// Claims carried by a resource owner session cookie
type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// SessionManager signs and validates the session tokens of logged in users.
type SessionManager struct {
	secret   []byte
	duration time.Duration
	logger   *zap.Logger

	mu        sync.RWMutex
	blacklist map[string]time.Time // tokenID -> expiration

	now func() time.Time
}

// NewSessionManager creates a new HS256 session manager
func NewSessionManager(secret string, duration time.Duration, logger *zap.Logger) *SessionManager {
	return &SessionManager{
		secret:    []byte(secret),
		duration:  duration,
		logger:    logger,
		blacklist: make(map[string]time.Time),
		now:       time.Now,
	}
}

// Duration returns the lifetime of issued sessions
func (m *SessionManager) Duration() time.Duration {
	return m.duration
}

// GenerateSessionToken issues a signed session token for the given user
func (m *SessionManager) GenerateSessionToken(userID, name string) (string, error) {
	now := m.now()
	claims := Claims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        ulid.Make().String(),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		m.logger.Error("Failed to sign session token", zap.Error(err))
		return "", err
	}
	return token, nil
}

// ValidateToken validates a session token and returns its claims
func (m *SessionManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		m.logger.Debug("Session token rejected", zap.Error(err))
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	if m.IsTokenBlacklisted(claims.ID) {
		m.logger.Warn("Token is blacklisted", zap.String("token_id", claims.ID))
		return nil, ErrTokenRevoked
	}

	return claims, nil
}

// Revoke blacklists the session until it would have expired anyway
func (m *SessionManager) Revoke(claims *Claims) {
	if claims == nil || claims.ExpiresAt == nil {
		return
	}
	m.BlacklistToken(claims.ID, claims.ExpiresAt.Time)
}

// BlacklistToken adds a token to the blacklist
func (m *SessionManager) BlacklistToken(tokenID string, expiresAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blacklist[tokenID] = expiresAt
}

// IsTokenBlacklisted checks if a token is blacklisted
func (m *SessionManager) IsTokenBlacklisted(tokenID string) bool {
	m.mu.RLock()
	exp, ok := m.blacklist[tokenID]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	if m.now().After(exp) {
		m.mu.Lock()
		delete(m.blacklist, tokenID)
		m.mu.Unlock()
		return false
	}
	return true
}

// PurgeBlacklist drops entries whose tokens have expired. It returns the
// number of entries removed.
func (m *SessionManager) PurgeBlacklist() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, exp := range m.blacklist {
		if now.After(exp) {
			delete(m.blacklist, id)
			removed++
		}
	}
	return removed
}
