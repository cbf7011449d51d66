package handlers

import (
	"context"
	"net/http"
	"net/url"

	"github.com/manorfm/cpa-auth/internal/domain"
	httperrors "github.com/manorfm/cpa-auth/internal/interfaces/http/errors"
	"go.uber.org/zap"
)

type TokenDispatcher interface {
	Dispatch(ctx context.Context, req *domain.TokenRequest) (*domain.TokenResponse, error)
}

type TokenHandler struct {
	dispatcher TokenDispatcher
	logger     *zap.Logger
}

func NewTokenHandler(dispatcher TokenDispatcher, logger *zap.Logger) *TokenHandler {
	return &TokenHandler{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Token godoc
// @Summary Exchange a grant for an access token
// @Description Dispatches on grant_type to the client credentials, device code, authorization code or refresh token grant
// @Tags oauth
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body domain.TokenRequest true "Token request"
// @Success 200 {object} domain.TokenResponse
// @Failure 400 {object} httperrors.ErrorResponse
// @Failure 401 {object} httperrors.ErrorResponse
// @Failure 500 {object} httperrors.ErrorResponse
// @Router /token [post]
func (h *TokenHandler) TokenHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.TokenRequest
	err := decodeBody(r, &req, func(form url.Values) {
		req = domain.TokenRequest{
			GrantType:    form.Get("grant_type"),
			ClientID:     form.Get("client_id"),
			ClientSecret: form.Get("client_secret"),
			Code:         form.Get("code"),
			RedirectURI:  form.Get("redirect_uri"),
			RefreshToken: form.Get("refresh_token"),
			DeviceCode:   form.Get("device_code"),
			Domain:       form.Get("domain"),
			Scope:        form.Get("scope"),
		}
	})
	if err != nil {
		httperrors.RespondWithError(w, h.logger, err)
		return
	}

	h.logger.Debug("Received token request",
		zap.String("grant_type", req.GrantType),
		zap.String("client_id", req.ClientID))

	resp, err := h.dispatcher.Dispatch(r.Context(), &req)
	if err != nil {
		httperrors.RespondWithError(w, h.logger, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	httperrors.RespondWithJSON(w, h.logger, http.StatusOK, resp)
}
