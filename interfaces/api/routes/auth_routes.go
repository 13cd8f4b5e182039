package routes

import (
	"github.com/gofiber/fiber/v2"

	"faceauth/interfaces/api/handlers"
	"faceauth/interfaces/api/middleware"
	"faceauth/pkg/config"
)

func SetupAuthRoutes(api fiber.Router, h *handlers.Handlers, protected fiber.Handler, rl *config.RateLimitConfig) {
	auth := api.Group("/auth")

	auth.Post("/face", middleware.AuthRateLimiter(rl), h.Auth.AuthenticateImage)
	auth.Post("/descriptor", middleware.AuthRateLimiter(rl), h.Auth.AuthenticateDescriptor)
	auth.Post("/logout", protected, h.Auth.Logout)
}
