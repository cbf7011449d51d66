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

const invalidDeviceCode = "Invalid device code"

type deviceCodeInput struct {
	DeviceCode string `json:"device_code" validate:"required"`
	ClientID   string `json:"client_id" validate:"required"`
}

// DeviceCodeGrant answers device polling. Only an approved session is
// exchanged, exactly once; every other state is reported without mutation.
type DeviceCodeGrant struct {
	repo    domain.OAuth2Repository
	issuer  *TokenIssuer
	metrics *instrumentation.Metrics
	logger  *zap.Logger
}

func NewDeviceCodeGrant(repo domain.OAuth2Repository, issuer *TokenIssuer, metrics *instrumentation.Metrics, logger *zap.Logger) *DeviceCodeGrant {
	return &DeviceCodeGrant{repo: repo, issuer: issuer, metrics: metrics, logger: logger}
}

func (g *DeviceCodeGrant) GrantType() string {
	return domain.GrantTypeDeviceCode
}

func (g *DeviceCodeGrant) Handle(ctx context.Context, req *domain.TokenRequest) (*domain.TokenResponse, error) {
	if err := validateInput(deviceCodeInput{DeviceCode: req.DeviceCode, ClientID: req.ClientID}); err != nil {
		return nil, err
	}

	now := g.issuer.Now()

	session, err := g.repo.FindDeviceSessionByDeviceCode(ctx, req.DeviceCode)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, apperrors.InvalidGrant(invalidDeviceCode)
	}
	if err != nil {
		return nil, internalError(g.logger, "Failed to find device session", err)
	}

	if session.ClientID != req.ClientID {
		g.logger.Debug("Device code presented by another client", zap.String("client_id", req.ClientID))
		return nil, apperrors.InvalidGrant(invalidDeviceCode)
	}

	switch {
	case session.Status == domain.DeviceSessionConsumed:
		g.metrics.RecordArtifactReuse(ctx, "device_code")
		return nil, apperrors.InvalidGrant(invalidDeviceCode)
	case session.Status == domain.DeviceSessionDenied:
		return nil, apperrors.AccessDenied("The user denied the pairing request")
	case session.IsExpired(now):
		return nil, apperrors.ExpiredToken("The device code has expired")
	case session.Status == domain.DeviceSessionPending:
		return nil, apperrors.AuthorizationPending("The user has not yet approved the pairing request")
	case session.Status != domain.DeviceSessionApproved:
		return nil, apperrors.InvalidGrant(invalidDeviceCode)
	}

	var (
		tokens *IssuedTokens
		d      *domain.Domain
	)
	err = g.repo.WithTx(ctx, func(tx domain.OAuth2Repository) error {
		claimed, err := tx.ClaimDeviceSession(ctx, req.DeviceCode, now)
		if errors.Is(err, domain.ErrNotFound) {
			// Another poll won the exchange
			g.metrics.RecordArtifactReuse(ctx, "device_code")
			return apperrors.InvalidGrant(invalidDeviceCode)
		}
		if err != nil {
			return fmt.Errorf("claim device session: %w", err)
		}

		if d, err = tx.FindDomainByID(ctx, claimed.DomainID); err != nil {
			return fmt.Errorf("find domain: %w", err)
		}

		tokens, err = g.issuer.Issue(ctx, tx, Grant{
			ClientID: claimed.ClientID,
			DomainID: claimed.DomainID,
			UserID:   claimed.UserID,
			Scope:    claimed.Scope,
			Refresh:  true,
		})
		return err
	})
	if err != nil {
		return nil, internalError(g.logger, "Failed to exchange device code", err)
	}

	return g.issuer.Response(tokens, d), nil
}
