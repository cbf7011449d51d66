package application

import (
	"context"

	"github.com/manorfm/cpa-auth/internal/domain"
	apperrors "github.com/manorfm/cpa-auth/internal/domain/errors"
	"github.com/manorfm/cpa-auth/internal/infrastructure/instrumentation"
	"go.uber.org/zap"
)

// GrantHandler redeems one kind of grant at the token endpoint
type GrantHandler interface {
	// GrantType returns the grant_type URN the handler answers to
	GrantType() string
	Handle(ctx context.Context, req *domain.TokenRequest) (*domain.TokenResponse, error)
}

// GrantDispatcher routes token requests to the handler registered for their
// grant_type. It performs no other validation.
type GrantDispatcher struct {
	handlers map[string]GrantHandler
	metrics  *instrumentation.Metrics
	logger   *zap.Logger
}

func NewGrantDispatcher(metrics *instrumentation.Metrics, logger *zap.Logger, handlers ...GrantHandler) *GrantDispatcher {
	d := &GrantDispatcher{
		handlers: make(map[string]GrantHandler, len(handlers)),
		metrics:  metrics,
		logger:   logger,
	}
	for _, h := range handlers {
		d.handlers[h.GrantType()] = h
	}
	return d
}

// Dispatch hands req to the matching grant handler
func (d *GrantDispatcher) Dispatch(ctx context.Context, req *domain.TokenRequest) (*domain.TokenResponse, error) {
	if req.GrantType == "" {
		return nil, apperrors.InvalidRequest("Missing grant type")
	}

	h, ok := d.handlers[req.GrantType]
	if !ok {
		d.logger.Debug("Unsupported grant type", zap.String("grant_type", req.GrantType))
		return nil, apperrors.InvalidRequest("Unsupported grant type: " + req.GrantType)
	}

	resp, err := h.Handle(ctx, req)
	if err != nil {
		code := apperrors.CodeServerError
		if oauthErr, ok := apperrors.As(err); ok {
			code = oauthErr.Code
		}
		d.metrics.RecordGrantFailure(ctx, req.GrantType, code)
		return nil, err
	}

	d.metrics.RecordTokenIssued(ctx, req.GrantType)
	return resp, nil
}
