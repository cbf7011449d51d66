package application

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/manorfm/cpa-auth/internal/domain"
	apperrors "github.com/manorfm/cpa-auth/internal/domain/errors"
	"go.uber.org/zap"
)

const clientAuthenticationFailed = "Client authentication failed"

// authenticateClient looks the client up and compares its secret in constant
// time. Unknown clients and wrong secrets are indistinguishable.
func authenticateClient(ctx context.Context, repo domain.OAuth2Repository, logger *zap.Logger, clientID, secret string) (*domain.Client, error) {
	client, err := repo.FindClientByID(ctx, clientID)
	if errors.Is(err, domain.ErrNotFound) {
		logger.Debug("Unknown client", zap.String("client_id", clientID))
		return nil, apperrors.InvalidClient(clientAuthenticationFailed, http.StatusUnauthorized)
	}
	if err != nil {
		return nil, internalError(logger, "Failed to find client", err)
	}
	if !secretsEqual(client.Secret, secret) {
		logger.Debug("Client secret mismatch", zap.String("client_id", clientID))
		return nil, apperrors.InvalidClient(clientAuthenticationFailed, http.StatusUnauthorized)
	}
	return client, nil
}

func secretsEqual(expected, actual string) bool {
	return subtle.ConstantTimeCompare([]byte(expected), []byte(actual)) == 1
}

func findDomainByName(ctx context.Context, repo domain.OAuth2Repository, logger *zap.Logger, name string) (*domain.Domain, error) {
	d, err := repo.FindDomainByName(ctx, name)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, apperrors.InvalidRequest("Invalid domain")
	}
	if err != nil {
		return nil, internalError(logger, "Failed to find domain", err)
	}
	return d, nil
}

// internalError logs a persistence or generator failure and hides it behind
// server_error. OAuth errors pass through unchanged.
func internalError(logger *zap.Logger, msg string, err error) error {
	if _, ok := apperrors.As(err); ok {
		return err
	}
	logger.Error(msg, zap.Error(err))
	return apperrors.ServerError(msg)
}
