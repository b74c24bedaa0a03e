package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sarelsmotors/garage/internal/api"
	"github.com/sarelsmotors/garage/internal/api/handlers"
	"github.com/sarelsmotors/garage/internal/api/middleware"
	"github.com/sarelsmotors/garage/internal/auth"
	"github.com/sarelsmotors/garage/internal/database"
	"github.com/sarelsmotors/garage/internal/tasks"
	"github.com/sarelsmotors/garage/internal/web"
	"github.com/sarelsmotors/garage/pkg/config"
	"github.com/sarelsmotors/garage/pkg/crypto"
	"github.com/sarelsmotors/garage/pkg/queue"
	"github.com/sarelsmotors/garage/pkg/util"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := util.NewLogger(cfg.Server.Env)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.JWT.Secret == "" {
		// Not fatal: login answers 500 and every page redirects to the login page.
		logger.Warn("JWT_SECRET is not set, sign-in is disabled")
	}

	logger.Info("starting garage server",
		"env", cfg.Server.Env,
		"addr", cfg.Server.Addr(),
	)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := database.AutoMigrate(db); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Warn("failed to connect to Redis", "error", err)
		redisClient.Close()
		redisClient = nil
	}

	var revocations auth.RevocationStore
	if cfg.Auth.RevocationEnabled {
		if redisClient == nil {
			logger.Error("AUTH_REVOCATION_ENABLED requires Redis")
			os.Exit(1)
		}
		revocations = auth.NewRedisRevocationStore(redisClient)
	}

	var (
		asynqClient *asynq.Client
		audit       auth.AuditRecorder
		purger      handlers.Purger
	)
	if redisClient != nil {
		asynqClient = queue.NewClient(&cfg.Redis)
		dispatcher := tasks.NewDispatcher(asynqClient, logger)
		audit = dispatcher
		purger = dispatcher
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())
	authService := auth.NewService(db, jwtService, audit, logger)

	encryptor, err := crypto.NewEncryptor(cfg.Encryption.Key)
	if err != nil {
		logger.Error("failed to create encryptor", "error", err)
		os.Exit(1)
	}
	if cfg.Encryption.Key == "" {
		logger.Warn("ENCRYPTION_KEY not set, using generated key - banking details will be unreadable after restart")
	}

	templates, err := web.LoadTemplates()
	if err != nil {
		logger.Error("failed to load templates", "error", err)
		os.Exit(1)
	}

	staticFS, err := web.GetStaticFS()
	if err != nil {
		logger.Error("failed to get static fs", "error", err)
		os.Exit(1)
	}

	router := api.NewRouter(api.RouterConfig{
		DB:             db,
		Redis:          redisClient,
		Logger:         logger,
		JWTService:     jwtService,
		AuthService:    authService,
		Revocations:    revocations,
		Encryptor:      encryptor,
		Templates:      templates,
		StaticFS:       staticFS,
		Purger:         purger,
		CSRF:           middleware.NewCSRFStore(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		TrustProxy:     cfg.Server.TrustProxy,
		RateLimitReqs:  cfg.RateLimit.Requests,
		RateLimitSecs:  cfg.RateLimit.WindowSeconds,
		LoginPath:      cfg.Auth.LoginPath,
		LandingPath:    cfg.Auth.LandingPath,
		SecureCookies:  !cfg.Server.IsDevelopment(),
		SessionTTL:     cfg.JWT.Expiry(),
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if asynqClient != nil {
		asynqClient.Close()
	}
	if redisClient != nil {
		redisClient.Close()
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	logger.Info("server stopped")
}
