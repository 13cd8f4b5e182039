package repositories

import (
	"context"

	"github.com/google/uuid"

	"faceauth/domain/models"
)

type IdentityRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Identity, error)
	// Rename sets the display name and clears the newly-enrolled flag.
	Rename(ctx context.Context, id uuid.UUID, displayName string) (*models.Identity, error)
	List(ctx context.Context, offset, limit int) ([]models.Identity, int64, error)
	Count(ctx context.Context) (int64, error)
	// CountWithoutDescriptors reports identities that have no enrolled descriptor.
	CountWithoutDescriptors(ctx context.Context) (int64, error)
}
