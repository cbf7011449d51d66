package handlers

import (
	"embed"
	"encoding/json"
	"html/template"
	"mime"
	"net/http"
	"net/url"

	apperrors "github.com/manorfm/cpa-auth/internal/domain/errors"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// render writes an HTML page
func render(w http.ResponseWriter, logger *zap.Logger, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		logger.Error("Failed to render page", zap.String("page", name), zap.Error(err))
	}
}

func isJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

// decodeBody fills dst from a JSON body, or from form values through fromForm
// for any other content type.
func decodeBody(r *http.Request, dst any, fromForm func(url.Values)) error {
	if isJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
			return apperrors.InvalidRequest("Invalid request body")
		}
		return nil
	}

	if err := r.ParseForm(); err != nil {
		return apperrors.InvalidRequest("Invalid request body")
	}
	fromForm(r.PostForm)
	return nil
}
