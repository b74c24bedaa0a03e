package api

import (
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"github.com/sarelsmotors/garage/internal/api/handlers"
	"github.com/sarelsmotors/garage/internal/api/middleware"
	"github.com/sarelsmotors/garage/internal/auth"
	"github.com/sarelsmotors/garage/internal/database/models"
	"github.com/sarelsmotors/garage/pkg/crypto"
	"gorm.io/gorm"
)

type Router struct {
	chi.Router
}

type RouterConfig struct {
	DB          *gorm.DB
	Redis       *redis.Client
	Logger      *slog.Logger
	JWTService  auth.TokenService
	AuthService auth.Authenticator
	// Revocations is nil unless server-side logout is enabled.
	Revocations auth.RevocationStore
	Encryptor   *crypto.Encryptor
	Templates   handlers.TemplateExecutor
	StaticFS    fs.FS
	Purger      handlers.Purger
	CSRF        *middleware.CSRFStore

	AllowedOrigins []string
	// TrustProxy lets chi's RealIP take the client address from forwarding headers.
	TrustProxy    bool
	RateLimitReqs  int
	RateLimitSecs  int

	LoginPath     string
	LandingPath   string
	SecureCookies bool
	SessionTTL    time.Duration
}

func NewRouter(cfg RouterConfig) *Router {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.CSRF == nil {
		cfg.CSRF = middleware.NewCSRFStore()
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	if cfg.LandingPath == "" {
		cfg.LandingPath = "/"
	}

	r := chi.NewRouter()

	if cfg.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(chimw.RequestID)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(middleware.Guard(middleware.GuardConfig{
		Tokens:        cfg.JWTService,
		Revocations:   cfg.Revocations,
		LoginPath:     cfg.LoginPath,
		LandingPath:   cfg.LandingPath,
		SecureCookies: cfg.SecureCookies,
		Logger:        cfg.Logger,
	}))

	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	authHandler := handlers.NewAuthHandler(handlers.AuthHandlerConfig{
		AuthService:   cfg.AuthService,
		Tokens:        cfg.JWTService,
		Revocations:   cfg.Revocations,
		CSRF:          cfg.CSRF,
		SessionTTL:    cfg.SessionTTL,
		SecureCookies: cfg.SecureCookies,
		Logger:        cfg.Logger,
	})
	orgHandler := handlers.NewOrganizationHandler(cfg.DB, cfg.Encryptor, cfg.Purger, cfg.SecureCookies, cfg.Logger)
	dashboardHandler := handlers.NewDashboardHandler(handlers.DashboardConfig{
		DB:            cfg.DB,
		AuthService:   cfg.AuthService,
		Templates:     cfg.Templates,
		CSRF:          cfg.CSRF,
		LoginPath:     cfg.LoginPath,
		LandingPath:   cfg.LandingPath,
		SecureCookies: cfg.SecureCookies,
		Logger:        cfg.Logger,
	})

	// Login is deliberately outside every rate limit: a shared address must
	// never keep valid credentials from signing in. No lockout either.
	r.Post("/api/login", authHandler.Login)

	r.Group(func(r chi.Router) {
		if cfg.RateLimitReqs > 0 {
			r.Use(middleware.RateLimit(cfg.RateLimitReqs, cfg.RateLimitSecs))
		}

		r.Get("/health", healthHandler.Health)
		r.Get("/ready", healthHandler.Ready)

		r.Route("/api", func(r chi.Router) {
			r.With(middleware.CSRF(cfg.CSRF)).Post("/logout", authHandler.Logout)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth(cfg.JWTService, cfg.Revocations, cfg.Logger))
				r.Use(middleware.CSRF(cfg.CSRF))
				if cfg.RateLimitReqs > 0 {
					r.Use(middleware.RateLimitByUser(cfg.RateLimitReqs, cfg.RateLimitSecs))
				}

				r.Get("/me", authHandler.Me)
				r.Get("/dashboard/stats", dashboardHandler.Stats)

				owner := string(models.RoleOwner)
				admin := string(models.RoleAdmin)
				r.Route("/organization", func(r chi.Router) {
					r.With(middleware.RequireRole(owner, admin)).Get("/", orgHandler.Get)
					r.With(middleware.RequireRole(owner)).Put("/banking", orgHandler.UpdateBanking)
					r.With(middleware.RequireRole(owner)).Delete("/", orgHandler.Delete)
				})
			})
		})

		// Pages. The guard has already settled authentication for these.
		r.Group(func(r chi.Router) {
			r.Use(middleware.CSRF(cfg.CSRF))
			r.Get(cfg.LoginPath, dashboardHandler.Login)
			r.Get(cfg.LandingPath, dashboardHandler.Index)
			if cfg.LandingPath != "/dashboard" {
				r.Get("/dashboard", dashboardHandler.Index)
			}
		})

		if cfg.StaticFS != nil {
			fileServer := http.FileServer(http.FS(cfg.StaticFS))
			r.Handle("/static/*", http.StripPrefix("/static/", fileServer))
		}
	})

	return &Router{r}
}
