package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"faceauth/domain/dto"
	"faceauth/domain/services"
	"faceauth/pkg/utils"
)

type IdentityHandler struct {
	faceAuthService services.FaceAuthService
}

func NewIdentityHandler(faceAuthService services.FaceAuthService) *IdentityHandler {
	return &IdentityHandler{
		faceAuthService: faceAuthService,
	}
}

// GetMe returns the identity behind the session token
func (h *IdentityHandler) GetMe(c *fiber.Ctx) error {
	session, err := utils.GetIdentityFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "Not authenticated")
	}

	identity, err := h.faceAuthService.GetIdentity(c.UserContext(), session.ID)
	if err != nil {
		if errors.Is(err, services.ErrIdentityNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Identity not found", err)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load identity", err)
	}

	return utils.SuccessResponse(c, "Identity retrieved", dto.IdentityToResponse(identity))
}

// UpdateMe sets the display name chosen after enrollment
func (h *IdentityHandler) UpdateMe(c *fiber.Ctx) error {
	session, err := utils.GetIdentityFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "Not authenticated")
	}

	var req dto.RenameIdentityRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if errs := utils.ValidateStruct(&req); errs != nil {
		return utils.ValidationErrorResponse(c, errs)
	}

	identity, err := h.faceAuthService.RenameIdentity(c.UserContext(), session.ID, req.DisplayName)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInput):
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Display name must not be empty", err)
		case errors.Is(err, services.ErrIdentityNotFound):
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Identity not found", err)
		default:
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update display name", err)
		}
	}

	return utils.SuccessResponse(c, "Display name updated", dto.IdentityToResponse(identity))
}
