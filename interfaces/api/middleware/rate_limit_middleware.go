package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"faceauth/pkg/config"
	"faceauth/pkg/logger"
	"faceauth/pkg/utils"
)

func passThrough(c *fiber.Ctx) error {
	return c.Next()
}

// RateLimiter returns a general rate limiting middleware
func RateLimiter(cfg *config.RateLimitConfig) fiber.Handler {
	if !cfg.Enabled {
		return passThrough
	}

	return limiter.New(limiter.Config{
		Max:        cfg.MaxRequests,
		Expiration: time.Duration(cfg.WindowSeconds) * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(utils.Response{
				Success: false,
				Message: "Too many requests. Please try again later.",
				Error:   "RATE_LIMIT_EXCEEDED",
			})
		},
	})
}

// AuthRateLimiter throttles face login attempts per client. Every attempt
// can enroll a new identity, so this is stricter than the general limit.
func AuthRateLimiter(cfg *config.RateLimitConfig) fiber.Handler {
	if !cfg.Enabled {
		return passThrough
	}

	return limiter.New(limiter.Config{
		Max:        cfg.AuthMaxRequests,
		Expiration: time.Duration(cfg.AuthWindowSeconds) * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			logger.Warn(logger.CategoryAuth, "rate_limited", "Too many face login attempts", map[string]interface{}{
				"ip": c.IP(),
			})
			return c.Status(fiber.StatusTooManyRequests).JSON(utils.Response{
				Success: false,
				Message: "Too many authentication attempts. Please try again later.",
				Error:   "AUTH_RATE_LIMIT_EXCEEDED",
			})
		},
	})
}
