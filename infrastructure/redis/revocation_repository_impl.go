package redis

import (
	"context"
	"time"

	"faceauth/domain/repositories"
)

const revokedKeyPrefix = "session:revoked:"

type RevocationRepositoryImpl struct {
	client *RedisClient
}

func NewRevocationRepository(client *RedisClient) repositories.RevocationRepository {
	return &RevocationRepositoryImpl{client: client}
}

func (r *RevocationRepositoryImpl) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		// Already expired, nothing left to block
		return nil
	}
	return r.client.client.Set(ctx, revokedKeyPrefix+tokenID, "1", ttl).Err()
}

func (r *RevocationRepositoryImpl) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.client.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
