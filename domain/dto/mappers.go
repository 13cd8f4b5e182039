package dto

import (
	"time"

	"faceauth/domain/models"
	"faceauth/domain/services"
)

func IdentityToResponse(identity *models.Identity) *IdentityResponse {
	if identity == nil {
		return nil
	}
	return &IdentityResponse{
		ID:              identity.ID,
		DisplayName:     identity.Name(),
		IsNewlyEnrolled: identity.IsNewlyEnrolled,
		CreatedAt:       identity.CreatedAt,
		UpdatedAt:       identity.UpdatedAt,
	}
}

func IdentitiesToListResponse(identities []models.Identity, total int64) *IdentityListResponse {
	resp := &IdentityListResponse{
		Identities: make([]IdentityResponse, 0, len(identities)),
		Total:      total,
	}
	for i := range identities {
		resp.Identities = append(resp.Identities, *IdentityToResponse(&identities[i]))
	}
	return resp
}

// OutcomeToAuthResponse maps a successful outcome and its session token.
// Distance is only set for logins.
func OutcomeToAuthResponse(outcome *services.AuthOutcome, token string, expiresAt time.Time) *AuthResponse {
	if outcome == nil || !outcome.Succeeded() {
		return nil
	}
	resp := &AuthResponse{
		Status:          string(outcome.Status),
		IdentityID:      outcome.IdentityID(),
		DisplayName:     outcome.Identity.Name(),
		IsNewlyEnrolled: outcome.Identity.IsNewlyEnrolled,
		Token:           token,
		ExpiresAt:       expiresAt,
	}
	if outcome.Status == services.AuthStatusLoggedIn {
		distance := outcome.Distance
		resp.Distance = &distance
	}
	return resp
}
