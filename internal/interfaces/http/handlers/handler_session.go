package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/manorfm/cpa-auth/internal/domain"
	"github.com/manorfm/cpa-auth/internal/infrastructure/jwt"
	"github.com/manorfm/cpa-auth/internal/interfaces/http/middleware/auth"
	"go.uber.org/zap"
)

type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, *domain.User, error)
}

type SessionRevoker interface {
	Revoke(claims *jwt.Claims)
}

type SessionHandler struct {
	auth         Authenticator
	sessions     SessionRevoker
	duration     time.Duration
	secureCookie bool
	logger       *zap.Logger
}

func NewSessionHandler(authenticator Authenticator, sessions SessionRevoker, duration time.Duration, secureCookie bool, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		auth:         authenticator,
		sessions:     sessions,
		duration:     duration,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

type loginPage struct {
	Username string
	ReturnTo string
	Error    string
}

type indexPage struct {
	Name string
}

// IndexHandler greets a logged in user or points to the login page
func (h *SessionHandler) IndexHandler(w http.ResponseWriter, r *http.Request) {
	var page indexPage
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		page.Name = claims.Name
	}
	render(w, h.logger, http.StatusOK, "index.html", page)
}

func (h *SessionHandler) GetLoginHandler(w http.ResponseWriter, r *http.Request) {
	render(w, h.logger, http.StatusOK, "login.html", loginPage{
		ReturnTo: safeReturnTo(r.URL.Query().Get("return_to")),
	})
}

// PostLoginHandler checks the credentials, sets the session cookie and sends
// the user back to where they came from
func (h *SessionHandler) PostLoginHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		render(w, h.logger, http.StatusBadRequest, "login.html", loginPage{ReturnTo: "/", Error: "Invalid request"})
		return
	}

	username := strings.TrimSpace(r.PostForm.Get("username"))
	returnTo := safeReturnTo(r.PostForm.Get("return_to"))

	token, user, err := h.auth.Login(r.Context(), username, r.PostForm.Get("password"))
	if err != nil {
		page := loginPage{Username: username, ReturnTo: returnTo}
		if errors.Is(err, domain.ErrInvalidCredentials) {
			page.Error = "Incorrect username or password"
			render(w, h.logger, http.StatusUnauthorized, "login.html", page)
			return
		}
		h.logger.Error("Failed to log in", zap.Error(err))
		page.Error = "Something went wrong. Please try again."
		render(w, h.logger, http.StatusInternalServerError, "login.html", page)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.duration / time.Second),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.Info("User logged in", zap.String("user_id", user.ID))
	http.Redirect(w, r, returnTo, http.StatusFound)
}

// PostLogoutHandler revokes the current session and clears its cookie
func (h *SessionHandler) PostLogoutHandler(w http.ResponseWriter, r *http.Request) {
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		h.sessions.Revoke(claims)
		h.logger.Info("User logged out", zap.String("user_id", claims.Subject))
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, auth.LoginPath, http.StatusFound)
}

// safeReturnTo only lets through paths on this server
func safeReturnTo(returnTo string) string {
	if !strings.HasPrefix(returnTo, "/") || strings.HasPrefix(returnTo, "//") || strings.Contains(returnTo, `\`) {
		return "/"
	}
	u, err := url.Parse(returnTo)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return returnTo
}
