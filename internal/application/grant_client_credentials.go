package application

import (
	"context"

	"github.com/manorfm/cpa-auth/internal/domain"
	"go.uber.org/zap"
)

type clientCredentialsInput struct {
	ClientID     string `json:"client_id" validate:"required"`
	ClientSecret string `json:"client_secret" validate:"required"`
	Domain       string `json:"domain" validate:"required"`
}

// ClientCredentialsGrant issues tokens to an authenticated client acting on
// its own behalf. No user is bound and no refresh token is issued.
type ClientCredentialsGrant struct {
	repo   domain.OAuth2Repository
	issuer *TokenIssuer
	logger *zap.Logger
}

func NewClientCredentialsGrant(repo domain.OAuth2Repository, issuer *TokenIssuer, logger *zap.Logger) *ClientCredentialsGrant {
	return &ClientCredentialsGrant{repo: repo, issuer: issuer, logger: logger}
}

func (g *ClientCredentialsGrant) GrantType() string {
	return domain.GrantTypeClientCredentials
}

func (g *ClientCredentialsGrant) Handle(ctx context.Context, req *domain.TokenRequest) (*domain.TokenResponse, error) {
	err := validateInput(clientCredentialsInput{
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
		Domain:       req.Domain,
	})
	if err != nil {
		return nil, err
	}

	g.logger.Debug("Client credentials grant", zap.String("client_id", req.ClientID), zap.String("domain", req.Domain))

	client, err := authenticateClient(ctx, g.repo, g.logger, req.ClientID, req.ClientSecret)
	if err != nil {
		return nil, err
	}

	d, err := findDomainByName(ctx, g.repo, g.logger, req.Domain)
	if err != nil {
		return nil, err
	}

	var tokens *IssuedTokens
	err = g.repo.WithTx(ctx, func(tx domain.OAuth2Repository) error {
		var err error
		tokens, err = g.issuer.Issue(ctx, tx, Grant{
			ClientID: client.ID,
			DomainID: d.ID,
			Scope:    req.Scope,
		})
		return err
	})
	if err != nil {
		return nil, internalError(g.logger, "Failed to issue access token", err)
	}

	return g.issuer.Response(tokens, d), nil
}
