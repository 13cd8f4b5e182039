package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"faceauth/domain/dto"
	"faceauth/domain/services"
	"faceauth/interfaces/api/handlers"
	"faceauth/pkg/facematch"
	"faceauth/pkg/logger"
)

// idleTimeout closes a face login stream that stops sending frames
const idleTimeout = 60 * time.Second

// FaceLoginHandler streams camera frames into the authenticate boundary.
// Frames with no face are answered with no_face and the stream continues;
// the first success or hard failure ends it.
type FaceLoginHandler struct {
	faceAuthService services.FaceAuthService
	sessionService  services.SessionService
}

func NewFaceLoginHandler(faceAuthService services.FaceAuthService, sessionService services.SessionService) *FaceLoginHandler {
	return &FaceLoginHandler{
		faceAuthService: faceAuthService,
		sessionService:  sessionService,
	}
}

func (h *FaceLoginHandler) WebSocketUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		c.Locals("mime", c.Query("mime", "image/jpeg"))
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

type frame struct {
	messageType int
	payload     []byte
}

func (h *FaceLoginHandler) HandleWebSocket(c *websocket.Conn) {
	mimeType, _ := c.Locals("mime").(string)
	remote := c.RemoteAddr().String()
	logger.WebSocket("face_stream_opened", "Face login stream opened", map[string]interface{}{"remote": remote})

	// Cancelled as soon as the client goes away, aborting any frame in flight
	ctx, cancel := context.WithCancel(context.Background())
	frames := make(chan frame)
	go readFrames(ctx, cancel, c, remote, frames)

	count := 0
	defer func() {
		cancel()
		c.Close()
		// The conn is recycled once this handler returns, wait for the reader
		for range frames {
		}
		logger.WebSocket("face_stream_closed", "Face login stream closed", map[string]interface{}{
			"remote": remote,
			"frames": count,
		})
	}()

	for f := range frames {
		count++
		reply, done := h.ProcessFrame(ctx, f.messageType, f.payload, mimeType)
		if ctx.Err() != nil {
			return
		}
		if err := c.WriteJSON(reply); err != nil {
			logger.WebSocketError("write_message", "WebSocket write error", err, map[string]interface{}{"remote": remote})
			return
		}
		if done {
			_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, reply.Type))
			return
		}
	}
}

// readFrames forwards incoming messages until the connection fails, goes
// idle or ctx ends. It cancels ctx and closes out on exit.
func readFrames(ctx context.Context, cancel context.CancelFunc, c *websocket.Conn, remote string, out chan<- frame) {
	defer close(out)
	defer cancel()

	for {
		_ = c.SetReadDeadline(time.Now().Add(idleTimeout))
		messageType, payload, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.WebSocketError("read_message", "WebSocket read error", err, map[string]interface{}{"remote": remote})
			}
			return
		}

		select {
		case out <- frame{messageType: messageType, payload: payload}:
		case <-ctx.Done():
			return
		}
	}
}

// ProcessFrame authenticates one frame. Binary frames are images, text
// frames carry a JSON descriptor. done reports whether the stream ends.
func (h *FaceLoginHandler) ProcessFrame(ctx context.Context, messageType int, payload []byte, mimeType string) (dto.FrameMessage, bool) {
	var outcome *services.AuthOutcome

	switch messageType {
	case websocket.BinaryMessage:
		outcome = h.faceAuthService.AuthenticateImage(ctx, payload, mimeType)
	case websocket.TextMessage:
		var req dto.DescriptorAuthRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return dto.FrameMessage{Type: dto.FrameMessageInvalid, Message: "Frame must be an image or a descriptor"}, false
		}
		outcome = h.faceAuthService.Authenticate(ctx, facematch.FeatureVector(req.Descriptor))
	default:
		return dto.FrameMessage{Type: dto.FrameMessageInvalid, Message: "Frame must be an image or a descriptor"}, false
	}

	if outcome.Succeeded() {
		resp, err := handlers.IssueSession(h.sessionService, outcome)
		if err != nil {
			return dto.FrameMessage{Type: dto.FrameMessageFailed, Message: handlers.FailedAuthMessage}, true
		}
		return dto.FrameMessage{Type: dto.FrameMessageSuccess, Result: resp}, true
	}

	if outcome.Reason == services.ReasonNoFaceDetected {
		return dto.FrameMessage{Type: dto.FrameMessageNoFace}, false
	}
	return dto.FrameMessage{Type: dto.FrameMessageFailed, Message: handlers.FailedAuthMessage}, true
}
