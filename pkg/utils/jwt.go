package utils

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"faceauth/pkg/logger"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrMissingToken = errors.New("missing token")
	ErrRevokedToken = errors.New("token has been revoked")
)

type JWTClaims struct {
	IdentityID string `json:"identity_id"`
	jwt.RegisteredClaims
}

type IdentityContext struct {
	ID        uuid.UUID
	TokenID   string
	ExpiresAt time.Time
}

// GenerateToken signs an HS256 token for the identity valid for ttl.
func GenerateToken(identityID uuid.UUID, jwtSecret string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)

	claims := JWTClaims{
		IdentityID: identityID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   identityID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(jwtSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func ValidateToken(tokenString, jwtSecret string) (*IdentityContext, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	// Remove "Bearer " prefix if present
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(jwtSecret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	identityID, err := uuid.Parse(claims.IdentityID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	identityCtx := &IdentityContext{
		ID:      identityID,
		TokenID: claims.ID,
	}
	if claims.ExpiresAt != nil {
		identityCtx.ExpiresAt = claims.ExpiresAt.Time
	}
	return identityCtx, nil
}

func ExtractTokenFromHeader(authHeader string) string {
	if authHeader == "" {
		return ""
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}

	return parts[1]
}

func GetIdentityFromContext(c *fiber.Ctx) (*IdentityContext, error) {
	identity := c.Locals("identity")

	if identity == nil {
		logger.Warn(logger.CategoryAuth, "get_identity_context", "Identity not found in context", nil)
		return nil, errors.New("identity not found in context")
	}

	identityCtx, ok := identity.(*IdentityContext)
	if !ok {
		logger.Warn(logger.CategoryAuth, "get_identity_context", "Invalid identity context type", map[string]interface{}{"type": logger.GetTypeName(identity)})
		return nil, errors.New("invalid identity context type")
	}

	return identityCtx, nil
}
