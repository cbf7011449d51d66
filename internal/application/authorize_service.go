package application

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strconv"

	"github.com/manorfm/cpa-auth/internal/domain"
	apperrors "github.com/manorfm/cpa-auth/internal/domain/errors"
	"github.com/manorfm/cpa-auth/internal/infrastructure/config"
	"go.uber.org/zap"
)

// AuthorizationAllow is the consent form value that grants access
const AuthorizationAllow = "Allow"

var (
	consentQueryFields  = []string{"response_type", "client_id", "redirect_uri", "scope", "state", "domain"}
	consentFormFields   = []string{"response_type", "client_id", "redirect_uri", "scope", "state", "domain", "authorization"}
	consentFormRequired = []string{"response_type", "client_id", "redirect_uri", "domain", "authorization"}
)

// ConsentPrompt is what the resource owner is asked to approve
type ConsentPrompt struct {
	ResponseType string
	ClientID     string
	ClientName   string
	RedirectURI  string
	Domain       string
	Scope        string
	State        string
}

// RedirectError is an error delivered to the client's authenticated redirect
// URI instead of being rendered to the user agent.
type RedirectError struct {
	RedirectURI string
	// Fragment selects fragment encoding (implicit flow) over the query
	Fragment bool
	State    string
	Err      *apperrors.OAuthError
}

func (e *RedirectError) Error() string {
	return e.Err.Error()
}

func (e *RedirectError) Unwrap() error {
	return e.Err
}

// Params returns the error parameters to append to the redirect URI
func (e *RedirectError) Params() url.Values {
	params := url.Values{}
	params.Set("error", e.Err.Code)
	if e.Err.Description != "" {
		params.Set("error_description", e.Err.Description)
	}
	if e.State != "" {
		params.Set("state", e.State)
	}
	return params
}

// AuthorizeRedirect is the successful outcome of a consent decision
type AuthorizeRedirect struct {
	RedirectURI string
	Fragment    bool
	Params      url.Values
}

// AuthorizeService drives the interactive consent flow. Validation runs in two
// phases: until the redirect URI is authenticated against a known client every
// error is returned directly, afterwards errors are redirected.
type AuthorizeService struct {
	repo      domain.OAuth2Repository
	issuer    *TokenIssuer
	generator domain.TokenGenerator
	cfg       *config.Config
	logger    *zap.Logger
}

func NewAuthorizeService(repo domain.OAuth2Repository, issuer *TokenIssuer, generator domain.TokenGenerator, cfg *config.Config, logger *zap.Logger) *AuthorizeService {
	return &AuthorizeService{
		repo:      repo,
		issuer:    issuer,
		generator: generator,
		cfg:       cfg,
		logger:    logger,
	}
}

// Prepare validates an authorization request and returns the consent prompt
func (s *AuthorizeService) Prepare(ctx context.Context, params url.Values) (*ConsentPrompt, error) {
	responseType := params.Get("response_type")
	if err := checkResponseType(responseType); err != nil {
		return nil, err
	}
	clientID := params.Get("client_id")
	if clientID == "" {
		return nil, apperrors.InvalidRequest("Missing client_id")
	}
	redirectURI := params.Get("redirect_uri")
	if redirectURI == "" {
		return nil, apperrors.InvalidRequest("Missing redirect_uri")
	}

	client, err := s.validateClient(ctx, responseType, clientID, redirectURI)
	if err != nil {
		return nil, err
	}

	state := params.Get("state")
	if err := checkSchema(params, consentQueryFields); err != nil {
		return nil, &RedirectError{
			RedirectURI: client.RedirectURI,
			Fragment:    responseType == domain.ResponseTypeToken,
			State:       state,
			Err:         err,
		}
	}

	return &ConsentPrompt{
		ResponseType: responseType,
		ClientID:     client.ID,
		ClientName:   client.Name,
		RedirectURI:  client.RedirectURI,
		Domain:       params.Get("domain"),
		Scope:        params.Get("scope"),
		State:        state,
	}, nil
}

// Decide applies the resource owner's answer to a consent form
func (s *AuthorizeService) Decide(ctx context.Context, userID string, form url.Values) (*AuthorizeRedirect, error) {
	responseType := form.Get("response_type")
	if err := checkResponseType(responseType); err != nil {
		return nil, err
	}
	for _, key := range consentFormRequired {
		if form.Get(key) == "" {
			return nil, apperrors.InvalidRequest("Missing " + key)
		}
	}
	if err := checkSchema(form, consentFormFields); err != nil {
		return nil, err
	}

	clientID := form.Get("client_id")
	redirectURI := form.Get("redirect_uri")
	state := form.Get("state")
	fragment := responseType == domain.ResponseTypeToken

	client, err := s.validateClient(ctx, responseType, clientID, redirectURI)
	if err != nil {
		return nil, err
	}

	redirectErr := func(err *apperrors.OAuthError) error {
		return &RedirectError{RedirectURI: client.RedirectURI, Fragment: fragment, State: state, Err: err}
	}

	if form.Get("authorization") != AuthorizationAllow {
		s.logger.Debug("Resource owner denied access", zap.String("client_id", clientID), zap.String("user_id", userID))
		return nil, redirectErr(apperrors.AccessDenied("The resource owner or authorization server denied the request."))
	}

	d, err := s.repo.FindDomainByName(ctx, form.Get("domain"))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, redirectErr(apperrors.InvalidRequest("Invalid domain"))
	}
	if err != nil {
		return nil, internalError(s.logger, "Failed to find domain", err)
	}

	if responseType == domain.ResponseTypeCode {
		return s.issueCode(ctx, client, d, userID, form.Get("scope"), state)
	}
	return s.issueImplicitToken(ctx, client, d, userID, form.Get("scope"), state)
}

func (s *AuthorizeService) issueCode(ctx context.Context, client *domain.Client, d *domain.Domain, userID, scope, state string) (*AuthorizeRedirect, error) {
	value, err := s.generator.AuthorizationCode()
	if err != nil {
		return nil, internalError(s.logger, "Failed to generate authorization code", err)
	}

	now := s.issuer.Now()
	code := &domain.AuthorizationCode{
		Code:        value,
		ClientID:    client.ID,
		DomainID:    d.ID,
		RedirectURI: client.RedirectURI,
		UserID:      userID,
		Scope:       scope,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.cfg.AuthorizationCodeDuration),
	}
	if err := s.repo.CreateAuthorizationCode(ctx, code); err != nil {
		return nil, internalError(s.logger, "Failed to create authorization code", err)
	}

	params := url.Values{}
	params.Set("code", code.Code)
	if state != "" {
		params.Set("state", state)
	}
	return &AuthorizeRedirect{RedirectURI: client.RedirectURI, Params: params}, nil
}

func (s *AuthorizeService) issueImplicitToken(ctx context.Context, client *domain.Client, d *domain.Domain, userID, scope, state string) (*AuthorizeRedirect, error) {
	var tokens *IssuedTokens
	err := s.repo.WithTx(ctx, func(tx domain.OAuth2Repository) error {
		var err error
		tokens, err = s.issuer.Issue(ctx, tx, Grant{
			ClientID: client.ID,
			DomainID: d.ID,
			UserID:   userID,
			Scope:    scope,
		})
		return err
	})
	if err != nil {
		return nil, internalError(s.logger, "Failed to issue access token", err)
	}

	params := url.Values{}
	params.Set("access_token", tokens.Access.Token)
	params.Set("token_type", domain.TokenTypeBearer)
	params.Set("expires_in", "")
	if tokens.Access.ExpiresAt != nil {
		params.Set("expires_in", strconv.FormatInt(tokens.Access.ExpiresIn(tokens.Access.CreatedAt), 10))
	}
	params.Set("domain", d.Name)
	if state != "" {
		params.Set("state", state)
	}
	return &AuthorizeRedirect{RedirectURI: client.RedirectURI, Fragment: true, Params: params}, nil
}

// validateClient authenticates the redirect URI. All of its errors are direct.
func (s *AuthorizeService) validateClient(ctx context.Context, responseType, clientID, redirectURI string) (*domain.Client, error) {
	client, err := s.repo.FindClientByID(ctx, clientID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, apperrors.InvalidClient("Unknown client", http.StatusBadRequest)
	}
	if err != nil {
		return nil, internalError(s.logger, "Failed to find client", err)
	}

	if (responseType == domain.ResponseTypeCode && client.IsDynamic()) ||
		(responseType == domain.ResponseTypeToken && !client.HasRedirectURI()) {
		return nil, apperrors.UnauthorizedClient("The client is not authorized to request an authorization code using this method")
	}

	if client.RedirectURI != redirectURI {
		s.logger.Debug("Redirect URI mismatch", zap.String("client_id", clientID), zap.String("redirect_uri", redirectURI))
		return nil, apperrors.InvalidClient("Unauthorized redirect uri", http.StatusBadRequest)
	}

	return client, nil
}

func checkResponseType(responseType string) error {
	switch responseType {
	case domain.ResponseTypeCode, domain.ResponseTypeToken:
		return nil
	case "":
		return apperrors.InvalidRequest("Missing response_type")
	default:
		return apperrors.InvalidRequest("Invalid response_type")
	}
}

// checkSchema rejects unknown and repeated parameters
func checkSchema(params url.Values, allowed []string) *apperrors.OAuthError {
	for _, key := range slices.Sorted(maps.Keys(params)) {
		if !slices.Contains(allowed, key) {
			return apperrors.InvalidRequest(fmt.Sprintf("Unexpected parameter: %s", key))
		}
		if len(params[key]) > 1 {
			return apperrors.InvalidRequest(fmt.Sprintf("Duplicate parameter: %s", key))
		}
	}
	return nil
}
