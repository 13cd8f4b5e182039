package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"faceauth/domain/services"
	"faceauth/interfaces/api/middleware"
	websocketHandler "faceauth/interfaces/api/websocket"
	"faceauth/pkg/config"
)

func SetupWebSocketRoutes(app *fiber.App, faceAuth services.FaceAuthService, sessions services.SessionService, rl *config.RateLimitConfig) {
	wsHandler := websocketHandler.NewFaceLoginHandler(faceAuth, sessions)

	app.Use("/ws/auth", middleware.AuthRateLimiter(rl), wsHandler.WebSocketUpgrade)
	app.Get("/ws/auth", websocket.New(wsHandler.HandleWebSocket))
}
