package handlers

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"faceauth/domain/dto"
	"faceauth/domain/services"
	"faceauth/pkg/facematch"
	"faceauth/pkg/logger"
	"faceauth/pkg/utils"
)

// FailedAuthMessage is the only thing a user learns about a failed attempt
const FailedAuthMessage = "Face authentication failed. Please try again."

const maxImageSize = 10 * 1024 * 1024

type AuthHandler struct {
	faceAuthService services.FaceAuthService
	sessionService  services.SessionService
}

func NewAuthHandler(faceAuthService services.FaceAuthService, sessionService services.SessionService) *AuthHandler {
	return &AuthHandler{
		faceAuthService: faceAuthService,
		sessionService:  sessionService,
	}
}

// AuthenticateImage logs in or enrolls from an uploaded camera frame
// POST /api/v1/auth/face (multipart field "image")
func (h *AuthHandler) AuthenticateImage(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Image file is required", err)
	}

	if file.Size > maxImageSize {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "File size exceeds 10MB limit", nil)
	}

	contentType := file.Header.Get("Content-Type")
	if !isValidImageType(contentType) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid image type. Allowed: jpeg, png, webp", nil)
	}

	f, err := file.Open()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to read file", err)
	}
	defer f.Close()

	imageData, err := io.ReadAll(f)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to read file", err)
	}

	outcome := h.faceAuthService.AuthenticateImage(c.UserContext(), imageData, contentType)
	return h.respond(c, outcome)
}

// AuthenticateDescriptor logs in or enrolls from a descriptor computed by the client
// POST /api/v1/auth/descriptor
func (h *AuthHandler) AuthenticateDescriptor(c *fiber.Ctx) error {
	var req dto.DescriptorAuthRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	if errs := utils.ValidateStruct(&req); errs != nil {
		return utils.ValidationErrorResponse(c, errs)
	}

	outcome := h.faceAuthService.Authenticate(c.UserContext(), facematch.FeatureVector(req.Descriptor))
	return h.respond(c, outcome)
}

// Logout revokes the bearer token
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	token := utils.ExtractTokenFromHeader(c.Get("Authorization"))
	if err := h.sessionService.Revoke(c.UserContext(), token); err != nil {
		logger.AuthError("logout_failed", "Failed to revoke session", err, nil)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Logout failed", err)
	}
	return utils.SuccessResponse(c, "Logged out", nil)
}

func (h *AuthHandler) respond(c *fiber.Ctx, outcome *services.AuthOutcome) error {
	if !outcome.Succeeded() {
		return utils.ErrorResponse(c, FailureStatusCode(outcome.Reason), FailedAuthMessage, nil)
	}

	resp, err := IssueSession(h.sessionService, outcome)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, FailedAuthMessage, err)
	}

	if outcome.Status == services.AuthStatusEnrolled {
		return utils.CreatedResponse(c, "Welcome! Your face has been registered", resp)
	}
	return utils.SuccessResponse(c, "Welcome back", resp)
}

// IssueSession signs a token for a successful outcome
func IssueSession(sessionService services.SessionService, outcome *services.AuthOutcome) (*dto.AuthResponse, error) {
	token, expiresAt, err := sessionService.IssueToken(outcome.Identity)
	if err != nil {
		logger.AuthError("issue_token_failed", "Failed to sign session token", err, map[string]interface{}{
			"identity_id": outcome.IdentityID().String(),
		})
		return nil, err
	}
	return dto.OutcomeToAuthResponse(outcome, token, expiresAt), nil
}

// FailureStatusCode maps a failure reason to an HTTP status
func FailureStatusCode(reason services.FailureReason) int {
	switch reason {
	case services.ReasonNoFaceDetected:
		return fiber.StatusUnprocessableEntity
	case services.ReasonInvalidInput:
		return fiber.StatusBadRequest
	case services.ReasonExtractorError, services.ReasonStoreRead, services.ReasonStoreWrite:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func isValidImageType(contentType string) bool {
	switch strings.ToLower(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/webp":
		return true
	}
	return false
}
