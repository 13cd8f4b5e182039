package services

import (
	"context"
	"time"

	"faceauth/domain/models"
	"faceauth/pkg/utils"
)

// SessionService issues and validates the tokens handed out after a face login.
type SessionService interface {
	// IssueToken signs a session token for the identity
	IssueToken(identity *models.Identity) (token string, expiresAt time.Time, err error)

	// ValidateToken checks signature, expiry and revocation
	ValidateToken(ctx context.Context, token string) (*utils.IdentityContext, error)

	// Revoke invalidates a token until it expires (logout)
	Revoke(ctx context.Context, token string) error
}
