package token

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"math/big"

	"go.uber.org/zap"
)

// UserCodeAlphabet excludes vowels so that generated codes never spell words,
// and digits so they cannot be confused with letters.
const UserCodeAlphabet = "BCDFGHJKLMNPQRSTVWXZ"

const (
	tokenBytes     = 32
	secretBytes    = 24
	userCodeLength = 8
)

var ErrRandomSource = errors.New("failed to read random bytes")

// Generator implements domain.TokenGenerator on top of crypto/rand
type Generator struct {
	logger *zap.Logger
}

// NewGenerator creates a new token generator
func NewGenerator(logger *zap.Logger) *Generator {
	return &Generator{logger: logger}
}

func (g *Generator) AuthorizationCode() (string, error) { return g.hex(tokenBytes) }
func (g *Generator) AccessToken() (string, error)       { return g.hex(tokenBytes) }
func (g *Generator) RefreshToken() (string, error)      { return g.hex(tokenBytes) }
func (g *Generator) DeviceCode() (string, error)        { return g.hex(tokenBytes) }
func (g *Generator) ClientSecret() (string, error)      { return g.hex(secretBytes) }

// UserCode returns a short code a person can type on a second screen
func (g *Generator) UserCode() (string, error) {
	max := big.NewInt(int64(len(UserCodeAlphabet)))
	code := make([]byte, userCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			g.logger.Error("failed to generate user code", zap.Error(err))
			return "", ErrRandomSource
		}
		code[i] = UserCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}

func (g *Generator) hex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		g.logger.Error("failed to generate random bytes", zap.Error(err))
		return "", ErrRandomSource
	}
	return hex.EncodeToString(b), nil
}
