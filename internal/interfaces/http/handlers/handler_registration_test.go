package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/manorfm/cpa-auth/internal/application"
	apperrors "github.com/manorfm/cpa-auth/internal/domain/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegistrationHandler(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		mockRegistrar := new(MockClientRegistrar)
		mockRegistrar.On("Register", mock.Anything, &application.RegistrationRequest{
			ClientName:      "Radio app",
			SoftwareID:      "radio",
			SoftwareVersion: "1.0",
		}).Return(&application.RegistrationResponse{
			ClientID:              "01HQ",
			ClientSecret:          "s3cr3t",
			RegistrationClientURI: "http://example.com/register",
			ClientName:            "Radio app",
			SoftwareID:            "radio",
			SoftwareVersion:       "1.0",
		}, nil)

		body := `{"client_name":"Radio app","software_id":"radio","software_version":"1.0"}`
		req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		NewRegistrationHandler(mockRegistrar, zap.NewNop()).RegisterHandler(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		var resp application.RegistrationResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "01HQ", resp.ClientID)
		assert.Equal(t, "s3cr3t", resp.ClientSecret)
		assert.Equal(t, "http://example.com/register", resp.RegistrationClientURI)
	})

	t.Run("invalid", func(t *testing.T) {
		mockRegistrar := new(MockClientRegistrar)
		mockRegistrar.On("Register", mock.Anything, mock.Anything).Return(nil, apperrors.InvalidRequest("Missing software_id"))

		req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{"client_name":"Radio app"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		NewRegistrationHandler(mockRegistrar, zap.NewNop()).RegisterHandler(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"invalid_request","error_description":"Missing software_id"}`, w.Body.String())
	})
}
