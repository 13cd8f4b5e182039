package routes

import (
	"github.com/gofiber/fiber/v2"

	"faceauth/interfaces/api/handlers"
	"faceauth/interfaces/api/middleware"
)

// SetupLogRoutes sets up log-related routes, protected by the admin token
func SetupLogRoutes(router fiber.Router, h *handlers.Handlers, adminToken string) {
	admin := router.Group("/admin", middleware.AdminOnly(adminToken))

	admin.Get("/logs", h.Log.GetLogs)
	admin.Get("/logs/files", h.Log.GetLogFiles)
	admin.Get("/logs/stats", h.Log.GetLogStats)
}
