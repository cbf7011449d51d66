package auth

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/jwtauth/v5"
	"github.com/manorfm/cpa-auth/internal/domain"
	"github.com/manorfm/cpa-auth/internal/infrastructure/jwt"
	"go.uber.org/zap"
)

// SessionCookie is the cookie holding the resource owner session. jwtauth
// reads the same name.
const SessionCookie = "jwt"

// LoginPath is where unauthenticated users are sent
const LoginPath = "/login"

type claimsKey struct{}

// SessionValidator validates resource owner session tokens
type SessionValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

type AuthMiddleware struct {
	sessions SessionValidator
	logger   *zap.Logger
}

func NewAuthMiddleware(sessions SessionValidator, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions, logger: logger}
}

// Authenticator requires a logged in resource owner. Requests without a valid
// session are redirected to the login page, GET requests carrying their own
// URL as return_to.
func (m *AuthMiddleware) Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := m.authenticate(r)
		if !ok {
			location := LoginPath
			if r.Method == http.MethodGet {
				location += "?" + url.Values{"return_to": {r.URL.RequestURI()}}.Encode()
			}
			http.Redirect(w, r, location, http.StatusFound)
			return
		}

		ctx := domain.WithSubject(r.Context(), claims.Subject)
		ctx = context.WithValue(ctx, claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Session attaches the session claims when present but never rejects
func (m *AuthMiddleware) Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, ok := m.authenticate(r); ok {
			ctx := domain.WithSubject(r.Context(), claims.Subject)
			r = r.WithContext(context.WithValue(ctx, claimsKey{}, claims))
		}
		next.ServeHTTP(w, r)
	})
}

func (m *AuthMiddleware) authenticate(r *http.Request) (*jwt.Claims, bool) {
	token := jwtauth.TokenFromCookie(r)
	if token == "" {
		token = jwtauth.TokenFromHeader(r)
	}
	if token == "" {
		return nil, false
	}

	claims, err := m.sessions.ValidateToken(token)
	if err != nil || claims.Subject == "" {
		m.logger.Debug("Rejected session token", zap.Error(err))
		return nil, false
	}
	return claims, true
}

// ClaimsFromContext returns the session claims stored by the middleware
func ClaimsFromContext(ctx context.Context) (*jwt.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*jwt.Claims)
	return claims, ok
}
