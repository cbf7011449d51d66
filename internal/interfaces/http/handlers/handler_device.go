package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/manorfm/cpa-auth/internal/application"
	"github.com/manorfm/cpa-auth/internal/domain"
	httperrors "github.com/manorfm/cpa-auth/internal/interfaces/http/errors"
	"go.uber.org/zap"
)

type DevicePairingService interface {
	Associate(ctx context.Context, clientID, clientSecret, domainName, scope string) (*application.DeviceAuthorization, error)
	Describe(ctx context.Context, userCode string) (*application.DevicePairing, error)
	Decide(ctx context.Context, userID, userCode string, allow bool) (*domain.DeviceSession, error)
}

// AssociateRequest starts a device pairing
type AssociateRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Domain       string `json:"domain"`
	Scope        string `json:"scope"`
}

type DeviceHandler struct {
	pairing DevicePairingService
	logger  *zap.Logger
}

func NewDeviceHandler(pairing DevicePairingService, logger *zap.Logger) *DeviceHandler {
	return &DeviceHandler{
		pairing: pairing,
		logger:  logger,
	}
}

type verifyPage struct {
	UserCode string
	Pairing  *application.DevicePairing
	Allow    string
	Error    string
	Result   string
}

// Associate godoc
// @Summary Start a device pairing
// @Description Authenticates the device's client and returns a device code to poll with and a user code to show
// @Tags device
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body AssociateRequest true "Pairing request"
// @Success 200 {object} application.DeviceAuthorization
// @Failure 400 {object} httperrors.ErrorResponse
// @Failure 401 {object} httperrors.ErrorResponse
// @Router /associate [post]
func (h *DeviceHandler) AssociateHandler(w http.ResponseWriter, r *http.Request) {
	var req AssociateRequest
	err := decodeBody(r, &req, func(form url.Values) {
		req = AssociateRequest{
			ClientID:     form.Get("client_id"),
			ClientSecret: form.Get("client_secret"),
			Domain:       form.Get("domain"),
			Scope:        form.Get("scope"),
		}
	})
	if err != nil {
		httperrors.RespondWithError(w, h.logger, err)
		return
	}

	auth, err := h.pairing.Associate(r.Context(), req.ClientID, req.ClientSecret, req.Domain, req.Scope)
	if err != nil {
		httperrors.RespondWithError(w, h.logger, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	httperrors.RespondWithJSON(w, h.logger, http.StatusOK, auth)
}

// GetVerifyHandler shows the user code form, prefilled and described when a
// user_code is given
func (h *DeviceHandler) GetVerifyHandler(w http.ResponseWriter, r *http.Request) {
	userCode := r.URL.Query().Get("user_code")
	if userCode == "" {
		render(w, h.logger, http.StatusOK, "verify.html", verifyPage{Allow: application.AuthorizationAllow})
		return
	}

	pairing, err := h.pairing.Describe(r.Context(), userCode)
	if err != nil {
		h.renderError(w, userCode, err)
		return
	}

	render(w, h.logger, http.StatusOK, "verify.html", verifyPage{
		UserCode: pairing.UserCode,
		Pairing:  pairing,
		Allow:    application.AuthorizationAllow,
	})
}

// PostVerifyHandler approves or denies the pairing for the logged in user
func (h *DeviceHandler) PostVerifyHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, "", domain.ErrInvalidUserCode)
		return
	}

	userCode := r.PostForm.Get("user_code")
	allow := r.PostForm.Get("authorization") == application.AuthorizationAllow
	userID, _ := domain.GetSubject(r.Context())

	session, err := h.pairing.Decide(r.Context(), userID, userCode, allow)
	if err != nil {
		h.renderError(w, userCode, err)
		return
	}

	result := "approved"
	if session.Status == domain.DeviceSessionDenied {
		result = "denied"
	}
	render(w, h.logger, http.StatusOK, "verify.html", verifyPage{Result: result})
}

func (h *DeviceHandler) renderError(w http.ResponseWriter, userCode string, err error) {
	page := verifyPage{UserCode: userCode, Allow: application.AuthorizationAllow}
	if errors.Is(err, domain.ErrInvalidUserCode) {
		page.Error = "This code is invalid or has expired. Check the code shown on your device."
		render(w, h.logger, http.StatusBadRequest, "verify.html", page)
		return
	}

	h.logger.Error("Failed to verify device pairing", zap.Error(err))
	page.Error = "Something went wrong. Please try again."
	render(w, h.logger, http.StatusInternalServerError, "verify.html", page)
}
