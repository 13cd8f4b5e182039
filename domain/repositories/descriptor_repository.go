package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"faceauth/domain/models"
)

// ErrNotFound is returned by repositories when a record does not exist.
var ErrNotFound = errors.New("record not found")

type DescriptorRepository interface {
	// ListAll returns every enrolled descriptor, in a stable order.
	ListAll(ctx context.Context) ([]models.FaceDescriptor, error)
	GetByIdentity(ctx context.Context, identityID uuid.UUID) ([]models.FaceDescriptor, error)
	Count(ctx context.Context) (int64, error)

	// Enroll creates the identity and its first descriptor as one unit.
	// Either both rows are committed or neither is.
	Enroll(ctx context.Context, identity *models.Identity, descriptor *models.FaceDescriptor) error
}
