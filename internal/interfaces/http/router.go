package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/manorfm/cpa-auth/internal/application"
	"github.com/manorfm/cpa-auth/internal/infrastructure/config"
	"github.com/manorfm/cpa-auth/internal/infrastructure/database"
	"github.com/manorfm/cpa-auth/internal/infrastructure/instrumentation"
	"github.com/manorfm/cpa-auth/internal/infrastructure/jwt"
	"github.com/manorfm/cpa-auth/internal/infrastructure/repository"
	"github.com/manorfm/cpa-auth/internal/infrastructure/token"
	"github.com/manorfm/cpa-auth/internal/interfaces/http/handlers"
	"github.com/manorfm/cpa-auth/internal/interfaces/http/middleware/auth"
	"github.com/manorfm/cpa-auth/internal/interfaces/http/middleware/ratelimit"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Endpoints called by devices and client scripts rather than the browser
var clientEndpoints = []string{"/token", "/associate", "/register"}

type Router struct {
	router      *chi.Mux
	db          *database.Postgres
	rateLimiter *ratelimit.RateLimiter
}

func NewRouter(
	db *database.Postgres,
	sessions *jwt.SessionManager,
	cfg *config.Config,
	metrics *instrumentation.Metrics,
	logger *zap.Logger,
) *Router {
	oauthRepo := repository.NewOAuth2Repository(db, logger)
	userRepo := repository.NewUserRepository(db, logger)
	generator := token.NewGenerator(logger)
	issuer := application.NewTokenIssuer(generator, cfg, logger)

	dispatcher := application.NewGrantDispatcher(metrics, logger,
		application.NewClientCredentialsGrant(oauthRepo, issuer, logger),
		application.NewDeviceCodeGrant(oauthRepo, issuer, metrics, logger),
		application.NewAuthorizationCodeGrant(oauthRepo, issuer, metrics, logger),
		application.NewRefreshTokenGrant(oauthRepo, issuer, metrics, logger),
	)
	authorizeService := application.NewAuthorizeService(oauthRepo, issuer, generator, cfg, logger)
	deviceService := application.NewDeviceService(oauthRepo, generator, cfg, metrics, logger)
	registrationService := application.NewRegistrationService(oauthRepo, generator, cfg, metrics, logger)
	authService := application.NewAuthService(userRepo, sessions, logger)

	authMiddleware := auth.NewAuthMiddleware(sessions, logger)

	// Initialize handlers
	tokenHandler := handlers.NewTokenHandler(dispatcher, logger)
	authorizeHandler := handlers.NewAuthorizeHandler(authorizeService, logger)
	deviceHandler := handlers.NewDeviceHandler(deviceService, logger)
	registrationHandler := handlers.NewRegistrationHandler(registrationService, logger)
	sessionHandler := handlers.NewSessionHandler(authService, sessions, cfg.SessionDuration, cfg.SessionCookieSecure, logger)

	// Create router with middleware
	router := createRouter()

	rateLimiter := ratelimit.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst, 3*time.Minute, metrics, logger)
	router.Use(rateLimiter.Middleware)

	// Health check endpoints
	router.Group(func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})

		r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
			if err := db.Ping(); err != nil {
				logger.Error("Database health check failed", zap.Error(err))
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte("Database connection failed"))
				return
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("Ready"))
		})

		r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("Alive"))
		})
	})

	// Swagger UI configuration
	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
		httpSwagger.DeepLinking(true),
	))

	router.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, "docs/swagger.json")
	})

	// Client endpoints
	router.Group(func(r chi.Router) {
		if cfg.CORSEnabled {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins: cfg.CORSAllowedOrigins,
				AllowedMethods: []string{"POST", "OPTIONS"},
				AllowedHeaders: []string{"Accept", "Content-Type"},
				MaxAge:         300,
			}))
			for _, path := range clientEndpoints {
				r.Options(path, func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusNoContent)
				})
			}
		}

		r.Post("/token", tokenHandler.TokenHandler)
		r.Post("/associate", deviceHandler.AssociateHandler)
		r.Post("/register", registrationHandler.RegisterHandler)
	})

	// Pages that work with or without a session
	router.Group(func(r chi.Router) {
		r.Use(authMiddleware.Session)
		r.Get("/", sessionHandler.IndexHandler)
		r.Get("/login", sessionHandler.GetLoginHandler)
		r.Post("/login", sessionHandler.PostLoginHandler)
		r.Post("/logout", sessionHandler.PostLogoutHandler)
	})

	// Resource owner pages
	router.Group(func(r chi.Router) {
		r.Use(authMiddleware.Authenticator)
		r.Get("/authorize", authorizeHandler.GetAuthorizeHandler)
		r.Post("/authorize", authorizeHandler.PostAuthorizeHandler)
		r.Get("/verify", deviceHandler.GetVerifyHandler)
		r.Post("/verify", deviceHandler.PostVerifyHandler)
	})

	return &Router{router: router, db: db, rateLimiter: rateLimiter}
}

func createRouter() *chi.Mux {
	router := chi.NewRouter()

	// Add middleware
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Timeout(60 * time.Second))

	return router
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}

// Close releases background resources held by the middleware
func (r *Router) Close() {
	r.rateLimiter.Close()
}
