package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/manorfm/cpa-auth/internal/domain"
	apperrors "github.com/manorfm/cpa-auth/internal/domain/errors"
	"github.com/manorfm/cpa-auth/internal/infrastructure/instrumentation"
	"go.uber.org/zap"
)

const invalidRefreshToken = "Invalid refresh token"

type refreshTokenInput struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
	ClientID     string `json:"client_id" validate:"required"`
}

// RefreshTokenGrant rotates a refresh token: the presented token is revoked
// and a new access/refresh pair with the same bindings is issued.
type RefreshTokenGrant struct {
	repo    domain.OAuth2Repository
	issuer  *TokenIssuer
	metrics *instrumentation.Metrics
	logger  *zap.Logger
}

func NewRefreshTokenGrant(repo domain.OAuth2Repository, issuer *TokenIssuer, metrics *instrumentation.Metrics, logger *zap.Logger) *RefreshTokenGrant {
	return &RefreshTokenGrant{repo: repo, issuer: issuer, metrics: metrics, logger: logger}
}

func (g *RefreshTokenGrant) GrantType() string {
	return domain.GrantTypeRefreshToken
}

func (g *RefreshTokenGrant) Handle(ctx context.Context, req *domain.TokenRequest) (*domain.TokenResponse, error) {
	if err := validateInput(refreshTokenInput{RefreshToken: req.RefreshToken, ClientID: req.ClientID}); err != nil {
		return nil, err
	}

	now := g.issuer.Now()

	var (
		tokens *IssuedTokens
		d      *domain.Domain
	)
	err := g.repo.WithTx(ctx, func(tx domain.OAuth2Repository) error {
		old, err := tx.ClaimRefreshToken(ctx, req.RefreshToken, req.ClientID, now)
		if errors.Is(err, domain.ErrNotFound) {
			g.metrics.RecordArtifactReuse(ctx, "refresh_token")
			return apperrors.InvalidGrant(invalidRefreshToken)
		}
		if err != nil {
			return fmt.Errorf("claim refresh token: %w", err)
		}

		if d, err = tx.FindDomainByID(ctx, old.DomainID); err != nil {
			return fmt.Errorf("find domain: %w", err)
		}

		tokens, err = g.issuer.Issue(ctx, tx, Grant{
			ClientID: old.ClientID,
			DomainID: old.DomainID,
			UserID:   old.UserID,
			Scope:    old.Scope,
			Refresh:  true,
		})
		return err
	})
	if err != nil {
		return nil, internalError(g.logger, "Failed to refresh token", err)
	}

	return g.issuer.Response(tokens, d), nil
}
