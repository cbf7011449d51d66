package token

import (
	"strings"
	"testing"

	"github.com/manorfm/cpa-auth/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var _ domain.TokenGenerator = (*Generator)(nil)

func TestGenerator_Tokens(t *testing.T) {
	g := NewGenerator(zap.NewNop())

	tests := []struct {
		name   string
		gen    func() (string, error)
		length int
	}{
		{"authorization code", g.AuthorizationCode, 64},
		{"access token", g.AccessToken, 64},
		{"refresh token", g.RefreshToken, 64},
		{"device code", g.DeviceCode, 64},
		{"client secret", g.ClientSecret, 48},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen := make(map[string]bool)
			for i := 0; i < 50; i++ {
				v, err := tt.gen()
				require.NoError(t, err)
				assert.Len(t, v, tt.length)
				assert.False(t, seen[v], "duplicate value %s", v)
				seen[v] = true
			}
		})
	}
}

func TestGenerator_UserCode(t *testing.T) {
	g := NewGenerator(zap.NewNop())

	for i := 0; i < 100; i++ {
		code, err := g.UserCode()
		require.NoError(t, err)
		assert.Len(t, code, userCodeLength)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(UserCodeAlphabet, r), "unexpected rune %q", r)
		}
	}
}
