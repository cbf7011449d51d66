// Package apperrors holds the RFC 6749 error kinds returned by the OAuth endpoints.
package apperrors

import (
	"errors"
	"net/http"
)

// Error identifiers
const (
	CodeInvalidRequest          = "invalid_request"
	CodeInvalidClient           = "invalid_client"
	CodeUnauthorizedClient      = "unauthorized_client"
	CodeAccessDenied            = "access_denied"
	CodeUnsupportedResponseType = "unsupported_response_type"
	CodeInvalidGrant            = "invalid_grant"
	CodeAuthorizationPending    = "authorization_pending"
	CodeExpiredToken            = "expired_token"
	CodeServerError             = "server_error"
	CodeTemporarilyUnavailable  = "temporarily_unavailable"
)

// OAuthError is an error that can be rendered as {"error", "error_description"}
type OAuthError struct {
	Code        string
	Description string
	Status      int
}

// Error returns the error message
func (e *OAuthError) Error() string {
	if e.Description == "" {
		return e.Code
	}
	return e.Code + ": " + e.Description
}

// Is matches any OAuthError carrying the same code, so errors.Is works against
// the sentinels regardless of description.
func (e *OAuthError) Is(target error) bool {
	t, ok := target.(*OAuthError)
	return ok && t.Code == e.Code
}

// WithDescription returns a copy of the error with a different description
func (e *OAuthError) WithDescription(description string) *OAuthError {
	c := *e
	c.Description = description
	return &c
}

// New creates a new OAuth error
func New(code, description string, status int) *OAuthError {
	return &OAuthError{Code: code, Description: description, Status: status}
}

// As extracts an OAuthError from an error chain
func As(err error) (*OAuthError, bool) {
	var oauthErr *OAuthError
	if errors.As(err, &oauthErr) {
		return oauthErr, true
	}
	return nil, false
}

// InvalidRequest creates a new invalid_request error
func InvalidRequest(description string) *OAuthError {
	return New(CodeInvalidRequest, description, http.StatusBadRequest)
}

// InvalidClient creates a new invalid_client error. The consent flow reports it
// with 400, the token endpoint with 401.
func InvalidClient(description string, status int) *OAuthError {
	return New(CodeInvalidClient, description, status)
}

// UnauthorizedClient creates a new unauthorized_client error
func UnauthorizedClient(description string) *OAuthError {
	return New(CodeUnauthorizedClient, description, http.StatusBadRequest)
}

// AccessDenied creates a new access_denied error
func AccessDenied(description string) *OAuthError {
	return New(CodeAccessDenied, description, http.StatusBadRequest)
}

// UnsupportedResponseType creates a new unsupported_response_type error
func UnsupportedResponseType(description string) *OAuthError {
	return New(CodeUnsupportedResponseType, description, http.StatusBadRequest)
}

// InvalidGrant creates a new invalid_grant error
func InvalidGrant(description string) *OAuthError {
	return New(CodeInvalidGrant, description, http.StatusBadRequest)
}

// AuthorizationPending creates a new authorization_pending error
func AuthorizationPending(description string) *OAuthError {
	return New(CodeAuthorizationPending, description, http.StatusBadRequest)
}

// ExpiredToken creates a new expired_token error
func ExpiredToken(description string) *OAuthError {
	return New(CodeExpiredToken, description, http.StatusBadRequest)
}

// ServerError creates a new server_error error
func ServerError(description string) *OAuthError {
	return New(CodeServerError, description, http.StatusInternalServerError)
}

// TemporarilyUnavailable creates a new temporarily_unavailable error
func TemporarilyUnavailable(description string) *OAuthError {
	return New(CodeTemporarilyUnavailable, description, http.StatusTooManyRequests)
}

// IsInvalidGrant checks if the error is an invalid_grant error
func IsInvalidGrant(err error) bool {
	return hasCode(err, CodeInvalidGrant)
}

// IsServerError checks if the error is a server_error error
func IsServerError(err error) bool {
	return hasCode(err, CodeServerError)
}

func hasCode(err error, code string) bool {
	oauthErr, ok := As(err)
	return ok && oauthErr.Code == code
}
