package handlers

import (
	"context"
	"net/http"
	"net/url"

	"github.com/manorfm/cpa-auth/internal/application"
	httperrors "github.com/manorfm/cpa-auth/internal/interfaces/http/errors"
	"go.uber.org/zap"
)

type ClientRegistrar interface {
	Register(ctx context.Context, req *application.RegistrationRequest) (*application.RegistrationResponse, error)
}

type RegistrationHandler struct {
	registrar ClientRegistrar
	logger    *zap.Logger
}

func NewRegistrationHandler(registrar ClientRegistrar, logger *zap.Logger) *RegistrationHandler {
	return &RegistrationHandler{
		registrar: registrar,
		logger:    logger,
	}
}

// Register godoc
// @Summary Register a dynamic client
// @Description Registers a device client. Dynamic clients have no redirect URI.
// @Tags clients
// @Accept json
// @Produce json
// @Param request body application.RegistrationRequest true "Client details"
// @Success 201 {object} application.RegistrationResponse
// @Failure 400 {object} httperrors.ErrorResponse
// @Failure 500 {object} httperrors.ErrorResponse
// @Router /register [post]
func (h *RegistrationHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req application.RegistrationRequest
	err := decodeBody(r, &req, func(form url.Values) {
		req = application.RegistrationRequest{
			ClientName:      form.Get("client_name"),
			SoftwareID:      form.Get("software_id"),
			SoftwareVersion: form.Get("software_version"),
		}
	})
	if err != nil {
		httperrors.RespondWithError(w, h.logger, err)
		return
	}

	resp, err := h.registrar.Register(r.Context(), &req)
	if err != nil {
		httperrors.RespondWithError(w, h.logger, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	httperrors.RespondWithJSON(w, h.logger, http.StatusCreated, resp)
}
