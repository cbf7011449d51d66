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

const invalidAuthorizationCode = "Invalid authorization code"

type authorizationCodeInput struct {
	Code        string `json:"code" validate:"required"`
	ClientID    string `json:"client_id" validate:"required"`
	RedirectURI string `json:"redirect_uri" validate:"required"`
}

// AuthorizationCodeGrant exchanges a consent-issued code for a token pair.
type AuthorizationCodeGrant struct {
	repo    domain.OAuth2Repository
	issuer  *TokenIssuer
	metrics *instrumentation.Metrics
	logger  *zap.Logger
}

func NewAuthorizationCodeGrant(repo domain.OAuth2Repository, issuer *TokenIssuer, metrics *instrumentation.Metrics, logger *zap.Logger) *AuthorizationCodeGrant {
	return &AuthorizationCodeGrant{repo: repo, issuer: issuer, metrics: metrics, logger: logger}
}

func (g *AuthorizationCodeGrant) GrantType() string {
	return domain.GrantTypeAuthorizationCode
}

func (g *AuthorizationCodeGrant) Handle(ctx context.Context, req *domain.TokenRequest) (*domain.TokenResponse, error) {
	err := validateInput(authorizationCodeInput{
		Code:        req.Code,
		ClientID:    req.ClientID,
		RedirectURI: req.RedirectURI,
	})
	if err != nil {
		return nil, err
	}

	// A confidential client proves itself before the code is burnt
	if req.ClientSecret != "" {
		if _, err := authenticateClient(ctx, g.repo, g.logger, req.ClientID, req.ClientSecret); err != nil {
			return nil, err
		}
	}

	now := g.issuer.Now()

	var (
		tokens *IssuedTokens
		d      *domain.Domain
	)
	err = g.repo.WithTx(ctx, func(tx domain.OAuth2Repository) error {
		code, err := tx.ClaimAuthorizationCode(ctx, req.Code, req.ClientID, req.RedirectURI, now)
		if errors.Is(err, domain.ErrNotFound) {
			g.metrics.RecordArtifactReuse(ctx, "authorization_code")
			return apperrors.InvalidGrant(invalidAuthorizationCode)
		}
		if err != nil {
			return fmt.Errorf("claim authorization code: %w", err)
		}

		if d, err = tx.FindDomainByID(ctx, code.DomainID); err != nil {
			return fmt.Errorf("find domain: %w", err)
		}

		tokens, err = g.issuer.Issue(ctx, tx, Grant{
			ClientID: code.ClientID,
			DomainID: code.DomainID,
			UserID:   code.UserID,
			Scope:    code.Scope,
			Refresh:  true,
		})
		return err
	})
	if err != nil {
		return nil, internalError(g.logger, "Failed to exchange authorization code", err)
	}

	return g.issuer.Response(tokens, d), nil
}
