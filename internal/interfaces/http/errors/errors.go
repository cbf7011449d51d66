package errors

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/manorfm/cpa-auth/internal/domain/errors"
	"go.uber.org/zap"
)

// ContentTypeJSON is used for every JSON body written by the server
const ContentTypeJSON = "application/json; charset=utf-8"

// ErrorResponse represents the standard OAuth error body
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// RespondWithError writes err as {"error", "error_description"}. Anything that
// is not an OAuth error is reported as a 500 server_error.
func RespondWithError(w http.ResponseWriter, logger *zap.Logger, err error) {
	oauthErr, ok := apperrors.As(err)
	if !ok {
		logger.Error("Unhandled error", zap.Error(err))
		oauthErr = apperrors.ServerError("")
	}

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	RespondWithJSON(w, logger, oauthErr.Status, ErrorResponse{
		Error:            oauthErr.Code,
		ErrorDescription: oauthErr.Description,
	})
}

// RespondWithJSON writes body with the given status
func RespondWithJSON(w http.ResponseWriter, logger *zap.Logger, status int, body any) {
	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

// BuildRedirect appends params to base, either to its query or as the
// fragment. A fragment already present on base is replaced.
func BuildRedirect(base string, params url.Values, fragment bool) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}

	if fragment {
		u.Fragment = ""
		u.RawFragment = ""
		return strings.TrimSuffix(u.String(), "#") + "#" + params.Encode(), nil
	}

	query := u.Query()
	for key, values := range params {
		for _, v := range values {
			query.Add(key, v)
		}
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// Redirect sends a 302 to base carrying params
func Redirect(w http.ResponseWriter, r *http.Request, logger *zap.Logger, base string, params url.Values, fragment bool) {
	location, err := BuildRedirect(base, params, fragment)
	if err != nil {
		logger.Error("Invalid redirect uri", zap.String("redirect_uri", base), zap.Error(err))
		RespondWithError(w, logger, apperrors.ServerError("Invalid redirect uri"))
		return
	}
	http.Redirect(w, r, location, http.StatusFound)
}
