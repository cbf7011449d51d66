package application

import (
	"context"
	"fmt"
	"time"

	"github.com/manorfm/cpa-auth/internal/domain"
	"github.com/manorfm/cpa-auth/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Grant describes the tokens to mint for one successful request.
type Grant struct {
	ClientID string
	DomainID string
	UserID   string
	Scope    string
	// Refresh also mints a refresh token bound to the new access token
	Refresh bool
}

// IssuedTokens are the rows created for a grant
type IssuedTokens struct {
	Access  *domain.AccessToken
	Refresh *domain.RefreshToken
}

// TokenIssuer mints access and refresh tokens. It owns the clock shared by the
// grant handlers.
type TokenIssuer struct {
	generator domain.TokenGenerator
	cfg       *config.Config
	logger    *zap.Logger
	now       func() time.Time
}

func NewTokenIssuer(generator domain.TokenGenerator, cfg *config.Config, logger *zap.Logger) *TokenIssuer {
	return &TokenIssuer{
		generator: generator,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Now returns the current time as seen by the issuer
func (i *TokenIssuer) Now() time.Time {
	return i.now()
}

// Issue creates the tokens of g through repo. Callers pass a repository bound
// to the transaction that also claims the artifact being redeemed.
func (i *TokenIssuer) Issue(ctx context.Context, repo domain.OAuth2Repository, g Grant) (*IssuedTokens, error) {
	now := i.now()

	value, err := i.generator.AccessToken()
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	access := &domain.AccessToken{
		Token:     value,
		ClientID:  g.ClientID,
		DomainID:  g.DomainID,
		UserID:    g.UserID,
		Scope:     g.Scope,
		CreatedAt: now,
		ExpiresAt: expiry(now, i.cfg.AccessTokenDuration),
	}
	if err := repo.CreateAccessToken(ctx, access); err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	tokens := &IssuedTokens{Access: access}
	if !g.Refresh {
		return tokens, nil
	}

	value, err = i.generator.RefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	tokens.Refresh = &domain.RefreshToken{
		Token:       value,
		AccessToken: access.Token,
		ClientID:    g.ClientID,
		DomainID:    g.DomainID,
		UserID:      g.UserID,
		Scope:       g.Scope,
		CreatedAt:   now,
		ExpiresAt:   expiry(now, i.cfg.RefreshTokenDuration),
	}
	if err := repo.CreateRefreshToken(ctx, tokens.Refresh); err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}

	return tokens, nil
}

// Response renders issued tokens as the token endpoint body
func (i *TokenIssuer) Response(tokens *IssuedTokens, d *domain.Domain) *domain.TokenResponse {
	resp := &domain.TokenResponse{
		AccessToken:       tokens.Access.Token,
		TokenType:         domain.TokenTypeBearer,
		ExpiresIn:         tokens.Access.ExpiresIn(tokens.Access.CreatedAt),
		Scope:             tokens.Access.Scope,
		Domain:            d.Name,
		DomainDisplayName: d.DisplayName,
	}
	if tokens.Refresh != nil {
		resp.RefreshToken = tokens.Refresh.Token
	}
	return resp
}

// expiry returns nil for a zero lifetime, meaning the token never expires
func expiry(now time.Time, lifetime time.Duration) *time.Time {
	if lifetime <= 0 {
		return nil
	}
	t := now.Add(lifetime)
	return &t
}
