package dto

import (
	"time"

	"github.com/google/uuid"
)

// DescriptorAuthRequest carries a descriptor computed on the client
type DescriptorAuthRequest struct {
	Descriptor []float32 `json:"descriptor" validate:"required,min=1"`
}

// AuthResponse is returned for LoggedIn and Enrolled outcomes
type AuthResponse struct {
	Status          string    `json:"status"`
	IdentityID      uuid.UUID `json:"identity_id"`
	DisplayName     string    `json:"display_name"`
	IsNewlyEnrolled bool      `json:"is_newly_enrolled"`
	Distance        *float64  `json:"distance,omitempty"`
	Token           string    `json:"token"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// FrameMessage is a server message on the face login websocket
type FrameMessage struct {
	Type    string        `json:"type"`
	Message string        `json:"message,omitempty"`
	Result  *AuthResponse `json:"result,omitempty"`
}

const (
	FrameMessageNoFace  = "no_face"
	FrameMessageSuccess = "success"
	FrameMessageFailed  = "failed"
	FrameMessageInvalid = "invalid_frame"
)
