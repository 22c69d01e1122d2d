package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/spec-kit/video-service/internal/api/http/handlers"
	"github.com/spec-kit/video-service/internal/auth"
	"github.com/spec-kit/video-service/internal/domain"
	apperrors "github.com/spec-kit/video-service/pkg/util/errorutil"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	BasePath       string
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Videos         *handlers.VideoHandler
	Metrics        fiber.Handler
	AuthMiddleware *auth.AuthMiddleware
	AuthLimiter    fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	root := app.Group(cfg.BasePath)

	root.Get("/health/live", cfg.Health.Live)
	root.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics)
	}

	authGroup := root.Group("/auth")
	public := []fiber.Handler{}
	if cfg.AuthLimiter != nil {
		public = append(public, cfg.AuthLimiter)
	}
	authGroup.Post("/signup", append(public, cfg.Users.Signup)...)
	authGroup.Post("/login", append(public, cfg.Users.Login)...)

	authGroup.Get("/me", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated(), cfg.Users.Me)
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated(), cfg.Users.Logout)

	elevated := auth.RequireRoles(domain.Elevated.Members()...)
	root.Get("/video/:filename", cfg.AuthMiddleware.Handle, elevated, cfg.Videos.Stream)
	root.Get("/videos", cfg.AuthMiddleware.Handle, elevated, cfg.Videos.List)
}

// NewAuthLimiter caps signup and login attempts per client IP.
func NewAuthLimiter(perMinute int) fiber.Handler {
	if perMinute <= 0 {
		return nil
	}
	return limiter.New(limiter.Config{
		Max:        perMinute,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return apperrors.NewTooManyRequests()
		},
	})
}
