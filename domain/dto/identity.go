package dto

import (
	"time"

	"github.com/google/uuid"
)

type IdentityResponse struct {
	ID              uuid.UUID `json:"id"`
	DisplayName     string    `json:"display_name"`
	IsNewlyEnrolled bool      `json:"is_newly_enrolled"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type RenameIdentityRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=100"`
}

type IdentityListResponse struct {
	Identities []IdentityResponse `json:"identities"`
	Total      int64              `json:"total"`
}
