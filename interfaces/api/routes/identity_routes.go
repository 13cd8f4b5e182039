package routes

import (
	"github.com/gofiber/fiber/v2"

	"faceauth/interfaces/api/handlers"
)

func SetupIdentityRoutes(api fiber.Router, h *handlers.Handlers, protected fiber.Handler) {
	identities := api.Group("/identities", protected)

	identities.Get("/me", h.Identity.GetMe)
	identities.Patch("/me", h.Identity.UpdateMe)
}
