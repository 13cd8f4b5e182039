package middleware

import (
	"crypto/subtle"
	"errors"

	"github.com/gofiber/fiber/v2"

	"faceauth/domain/services"
	"faceauth/pkg/logger"
	"faceauth/pkg/utils"
)

// Protected validates the session token and stores the identity in
// c.Locals("identity").
func Protected(sessionService services.SessionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return utils.UnauthorizedResponse(c, "Missing authorization header")
		}

		token := utils.ExtractTokenFromHeader(authHeader)
		if token == "" {
			return utils.UnauthorizedResponse(c, "Invalid authorization header format")
		}

		identity, err := sessionService.ValidateToken(c.UserContext(), token)
		if err != nil {
			logger.Debug(logger.CategoryAuth, "token_rejected", "Token validation failed", map[string]interface{}{
				"error": err.Error(),
				"path":  c.Path(),
			})
			switch {
			case errors.Is(err, utils.ErrExpiredToken):
				return utils.UnauthorizedResponse(c, "Token has expired")
			case errors.Is(err, utils.ErrRevokedToken):
				return utils.UnauthorizedResponse(c, "Session has ended")
			case errors.Is(err, utils.ErrMissingToken):
				return utils.UnauthorizedResponse(c, "Missing token")
			default:
				return utils.UnauthorizedResponse(c, "Invalid token")
			}
		}

		c.Locals("identity", identity)
		return c.Next()
	}
}

// AdminOnly checks the X-Admin-Token header against token. An empty token
// denies every request.
func AdminOnly(token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		provided := c.Get("X-Admin-Token")
		if token == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			logger.Warn(logger.CategoryAPI, "admin_denied", "Invalid admin token", map[string]interface{}{
				"ip":   c.IP(),
				"path": c.Path(),
			})
			return utils.UnauthorizedResponse(c, "Invalid admin token")
		}
		return c.Next()
	}
}
