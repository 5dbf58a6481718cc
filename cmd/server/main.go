package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/redis/go-redis/v9"

	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/cache"
	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/config"
	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/database"
	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/logging"
	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/maintenance"
	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/oauthstate"
	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/repository"
	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/routes"
	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/security"
	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/services"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup("info")
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Sentry error tracking
	sentryEnabled := false
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			sentryEnabled = true
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Structured logging (JSON to stdout, ERROR+ also to Sentry)
	if sentryEnabled {
		logging.Setup(cfg.LogLevel, logging.NewSentryHandler(sentry.CurrentHub()))
	} else {
		logging.Setup(cfg.LogLevel)
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(database.DB); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	healthChecks := map[string]handlers.HealthCheck{
		"db": func(context.Context) error { return database.Ping() },
	}

	// OAuth state and rate limit counters live in Redis when configured so
	// that every instance sees the same values.
	var (
		stateStore     oauthstate.Store = oauthstate.NewMemoryStore()
		limiterStorage fiber.Storage
		redisClient    *redis.Client
	)
	if cfg.RedisURL != "" {
		redisClient, err = cache.Connect(context.Background(), cache.DefaultOptions(cfg.RedisURL))
		if err != nil {
			slog.Error("redis connection failed", "error", err)
			os.Exit(1)
		}
		stateStore = oauthstate.NewRedisStore(redisClient)
		limiterStorage = cache.NewStorage(redisClient, "limiter:")
		healthChecks["redis"] = func(ctx context.Context) error { return cache.Ping(ctx, redisClient) }
		slog.Info("redis connected")
	}

	// Repositories
	userRepo := repository.NewUserRepository(database.DB)
	tokenRepo := repository.NewRefreshTokenRepository(database.DB)
	attemptRepo := repository.NewLoginAttemptRepository(database.DB)
	projectRepo := repository.NewProjectRepository(database.DB)

	// Services
	codec := security.NewTokenCodec(cfg.JWTSecret, cfg.AccessTokenTTL())
	hasher := security.NewHasher(cfg.BcryptCost)
	projectService := services.NewProjectService(projectRepo)
	authService := services.NewAuthService(
		userRepo, tokenRepo, attemptRepo, projectService,
		repository.NewTransactor(database.DB), codec, hasher,
		services.AuthPolicy{
			RefreshTTL:       cfg.RefreshTokenTTL(),
			LockoutThreshold: cfg.LockoutThreshold,
			LockoutWindow:    cfg.LockoutWindow,
		},
		slog.Default(),
	)
	oauthService := services.NewOAuthService(userRepo, tokenRepo, codec, cfg.RefreshTokenTTL(), slog.Default())
	guard := oauthstate.NewGuard(stateStore, cfg.OAuthStateTTL, slog.Default())

	var provider handlers.IdentityProvider
	if cfg.GoogleEnabled() {
		provider = services.NewGoogleProvider(services.GoogleConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURI,
		})
	} else {
		slog.Warn("google sign-in disabled, GOOGLE_CLIENT_ID or GOOGLE_CLIENT_SECRET not set")
	}

	// Retention sweeps
	sweepDone := make(chan struct{})
	maintenance.NewSweeper(attemptRepo, tokenRepo, guard, maintenance.Retention{
		AttemptDays:      cfg.AttemptRetentionDays,
		RefreshTokenDays: cfg.RefreshTokenRetentionDays,
	}, slog.Default()).Start(cfg.SweepInterval, sweepDone)

	// Handlers
	cookies := handlers.CookieSettings{Secure: !cfg.Debug, MaxAge: cfg.RefreshTokenTTL()}
	authHandler := handlers.NewAuthHandler(authService, cookies, codec.AccessTTL())
	oauthHandler := handlers.NewOAuthHandler(oauthService, provider, guard, cookies, cfg.FrontendURL)
	userHandler := handlers.NewUserHandler(authService)
	projectHandler := handlers.NewProjectHandler(projectService)
	healthHandler := handlers.NewHealthHandler(healthChecks)

	// Fiber app
	app := fiber.New(handlers.TrustProxies(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: handlers.ErrorHandler,
	}, cfg.TrustedProxies))

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg.AllowedOrigins))
	app.Use(middleware.SecurityHeaders())

	// Routes
	routes.Setup(app, cfg, limiterStorage, authHandler, oauthHandler, userHandler, projectHandler, healthHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	close(sweepDone)
	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			slog.Error("redis close error", "error", err)
		}
	}

	// Close database connections
	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}
