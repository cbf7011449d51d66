package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/manorfm/cpa-auth/internal/application"
	"github.com/manorfm/cpa-auth/internal/domain"
	apperrors "github.com/manorfm/cpa-auth/internal/domain/errors"
	httperrors "github.com/manorfm/cpa-auth/internal/interfaces/http/errors"
	"go.uber.org/zap"
)

type ConsentService interface {
	Prepare(ctx context.Context, params url.Values) (*application.ConsentPrompt, error)
	Decide(ctx context.Context, userID string, form url.Values) (*application.AuthorizeRedirect, error)
}

type AuthorizeHandler struct {
	consent ConsentService
	logger  *zap.Logger
}

func NewAuthorizeHandler(consent ConsentService, logger *zap.Logger) *AuthorizeHandler {
	return &AuthorizeHandler{
		consent: consent,
		logger:  logger,
	}
}

type consentPage struct {
	Prompt *application.ConsentPrompt
	Allow  string
}

// GetAuthorizeHandler renders the consent prompt
func (h *AuthorizeHandler) GetAuthorizeHandler(w http.ResponseWriter, r *http.Request) {
	prompt, err := h.consent.Prepare(r.Context(), r.URL.Query())
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	render(w, h.logger, http.StatusOK, "authorize.html", consentPage{
		Prompt: prompt,
		Allow:  application.AuthorizationAllow,
	})
}

// PostAuthorizeHandler records the resource owner's decision
func (h *AuthorizeHandler) PostAuthorizeHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httperrors.RespondWithError(w, h.logger, apperrors.InvalidRequest("Invalid request body"))
		return
	}

	userID, _ := domain.GetSubject(r.Context())
	redirect, err := h.consent.Decide(r.Context(), userID, r.PostForm)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	httperrors.Redirect(w, r, h.logger, redirect.RedirectURI, redirect.Params, redirect.Fragment)
}

func (h *AuthorizeHandler) respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	var redirectErr *application.RedirectError
	if errors.As(err, &redirectErr) {
		h.logger.Debug("Redirecting authorization error",
			zap.String("redirect_uri", redirectErr.RedirectURI),
			zap.String("error", redirectErr.Err.Code))
		httperrors.Redirect(w, r, h.logger, redirectErr.RedirectURI, redirectErr.Params(), redirectErr.Fragment)
		return
	}
	httperrors.RespondWithError(w, h.logger, err)
}
