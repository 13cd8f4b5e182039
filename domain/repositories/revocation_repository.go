package repositories

import (
	"context"
	"time"
)

// RevocationRepository remembers session token IDs that were logged out.
type RevocationRepository interface {
	// Revoke marks the token ID as revoked for ttl
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
