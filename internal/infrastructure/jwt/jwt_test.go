package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSessionManager(t *testing.T) {
	manager := NewSessionManager("test-secret", time.Hour, zap.NewNop())

	t.Run("validate valid token", func(t *testing.T) {
		token, err := manager.GenerateSessionToken("user-1", "Alice")
		require.NoError(t, err)

		claims, err := manager.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.Subject)
		assert.Equal(t, "Alice", claims.Name)
		assert.NotEmpty(t, claims.ID)
	})

	t.Run("validate invalid token", func(t *testing.T) {
		_, err := manager.ValidateToken("invalid-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("validate token signed with another secret", func(t *testing.T) {
		other := NewSessionManager("other-secret", time.Hour, zap.NewNop())
		token, err := other.GenerateSessionToken("user-1", "Alice")
		require.NoError(t, err)

		_, err = manager.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("validate expired token", func(t *testing.T) {
		m := NewSessionManager("test-secret", time.Minute, zap.NewNop())
		issued := time.Now()
		m.now = func() time.Time { return issued }
		token, err := m.GenerateSessionToken("user-1", "Alice")
		require.NoError(t, err)

		m.now = func() time.Time { return issued.Add(2 * time.Minute) }
		_, err = m.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("reject unsigned token", func(t *testing.T) {
		claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = manager.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("revoked token", func(t *testing.T) {
		token, err := manager.GenerateSessionToken("user-2", "Bob")
		require.NoError(t, err)
		claims, err := manager.ValidateToken(token)
		require.NoError(t, err)

		manager.Revoke(claims)

		_, err = manager.ValidateToken(token)
		assert.ErrorIs(t, err, ErrTokenRevoked)
	})
}

func TestSessionManager_PurgeBlacklist(t *testing.T) {
	manager := NewSessionManager("test-secret", time.Hour, zap.NewNop())
	now := time.Now()
	manager.now = func() time.Time { return now }

	manager.BlacklistToken("expired", now.Add(-time.Minute))
	manager.BlacklistToken("live", now.Add(time.Minute))

	assert.Equal(t, 1, manager.PurgeBlacklist())
	assert.True(t, manager.IsTokenBlacklisted("live"))
	assert.False(t, manager.IsTokenBlacklisted("expired"))
}
