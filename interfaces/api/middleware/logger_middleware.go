package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"faceauth/pkg/logger"
)

// LoggerMiddleware writes one api log entry per request
func LoggerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		entry := logger.LogEntry{
			Level:    logger.LevelInfo,
			Category: logger.CategoryAPI,
			Action:   "request",
			Message:  c.Method() + " " + c.Path(),
			Duration: time.Since(start).String(),
			Data: map[string]interface{}{
				"status": status,
				"ip":     c.IP(),
			},
		}
		if rid, ok := c.Locals(requestid.ConfigDefault.ContextKey).(string); ok {
			entry.RequestID = rid
		}
		if status >= fiber.StatusInternalServerError {
			entry.Level = logger.LevelError
		} else if status >= fiber.StatusBadRequest {
			entry.Level = logger.LevelWarn
		}
		logger.Default().Log(entry)

		return err
	}
}

// CorsMiddleware allows the browser camera client to call the API
func CorsMiddleware() fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Admin-Token",
		AllowMethods: "GET, POST, PATCH, OPTIONS",
	})
}

// RequestIDMiddleware tags every request with an X-Request-ID
func RequestIDMiddleware() fiber.Handler {
	return requestid.New()
}

// RecoverMiddleware turns handler panics into 500 responses
func RecoverMiddleware() fiber.Handler {
	return recover.New()
}
