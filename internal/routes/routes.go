package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/config"
	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// Setup registers every route. storage backs the rate limiters; nil keeps
// the counters in process memory.
func Setup(
	app *fiber.App,
	cfg *config.Config,
	storage fiber.Storage,
	authHandler *handlers.AuthHandler,
	oauthHandler *handlers.OAuthHandler,
	userHandler *handlers.UserHandler,
	projectHandler *handlers.ProjectHandler,
	healthHandler *handlers.HealthHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(rateLimit("api", 60, storage))

	api.Get("/health", healthHandler.Check)

	v1 := api.Group("/v1")
	protected := middleware.JWTProtected(cfg.JWTSecret)

	// Credential endpoints get a stricter limit: 10 req/min per IP
	auth := v1.Group("/auth")
	auth.Use(rateLimit("auth", 10, storage))
	auth.Post("/signup", authHandler.SignUp)
	auth.Post("/signin", authHandler.SignIn)
	auth.Post("/refresh", authHandler.Refresh)
	auth.Post("/signout", authHandler.SignOut)
	auth.Post("/signout-all", protected, authHandler.SignOutEverywhere)
	auth.Get("/sessions", protected, authHandler.Sessions)
	auth.Get("/google/authorize", oauthHandler.Authorize)
	auth.Get("/google/callback", oauthHandler.Callback)

	v1.Get("/users/me", protected, userHandler.Me)
	v1.Get("/projects", protected, projectHandler.List)
}

// rateLimit keys counters by scope and client IP so limiters can share one
// storage.
func rateLimit(scope string, max int, storage fiber.Storage) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return scope + ":" + c.IP() },
		Storage:           storage,
	})
}
