package routes

import (
	"github.com/gofiber/fiber/v2"

	"faceauth/interfaces/api/handlers"
	"faceauth/interfaces/api/middleware"
	"faceauth/pkg/config"
)

// SetupRoutes registers every endpoint on app
func SetupRoutes(app *fiber.App, h *handlers.Handlers, svc *handlers.Services, cfg *config.Config) {
	SetupHealthRoutes(app, h.Health)

	api := app.Group("/api/v1", middleware.RateLimiter(&cfg.RateLimit))

	protected := middleware.Protected(svc.SessionService)

	SetupAuthRoutes(api, h, protected, &cfg.RateLimit)
	SetupIdentityRoutes(api, h, protected)
	SetupLogRoutes(api, h, cfg.AdminToken())

	SetupWebSocketRoutes(app, svc.FaceAuthService, svc.SessionService, &cfg.RateLimit)
}
