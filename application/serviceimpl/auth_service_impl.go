package serviceimpl

import (
	"context"
	"fmt"
	"time"

	"faceauth/domain/models"
	"faceauth/domain/repositories"
	"faceauth/domain/services"
	"faceauth/pkg/logger"
	"faceauth/pkg/utils"
)

type SessionServiceImpl struct {
	revocations repositories.RevocationRepository
	jwtSecret   string
	ttl         time.Duration
}

func NewSessionService(
	revocations repositories.RevocationRepository,
	jwtSecret string,
	ttl time.Duration,
) services.SessionService {
	return &SessionServiceImpl{
		revocations: revocations,
		jwtSecret:   jwtSecret,
		ttl:         ttl,
	}
}

func (s *SessionServiceImpl) IssueToken(identity *models.Identity) (string, time.Time, error) {
	if identity == nil {
		return "", time.Time{}, fmt.Errorf("issue token: %w", services.ErrIdentityNotFound)
	}
	return utils.GenerateToken(identity.ID, s.jwtSecret, s.ttl)
}

func (s *SessionServiceImpl) ValidateToken(ctx context.Context, token string) (*utils.IdentityContext, error) {
	identity, err := utils.ValidateToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	if identity.TokenID != "" {
		revoked, err := s.revocations.IsRevoked(ctx, identity.TokenID)
		if err != nil {
			// Fail closed when the revocation list cannot be consulted
			logger.AuthError("revocation_check_failed", "Failed to check token revocation", err, map[string]interface{}{
				"identity_id": identity.ID.String(),
			})
			return nil, fmt.Errorf("%w: %w", utils.ErrInvalidToken, err)
		}
		if revoked {
			return nil, utils.ErrRevokedToken
		}
	}

	return identity, nil
}

func (s *SessionServiceImpl) Revoke(ctx context.Context, token string) error {
	identity, err := utils.ValidateToken(token, s.jwtSecret)
	if err != nil {
		return err
	}
	if identity.TokenID == "" {
		return utils.ErrInvalidToken
	}

	if err := s.revocations.Revoke(ctx, identity.TokenID, time.Until(identity.ExpiresAt)); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	logger.Auth("logout", "Session revoked", map[string]interface{}{
		"identity_id": identity.ID.String(),
	})
	return nil
}
