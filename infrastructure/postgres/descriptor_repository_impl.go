package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"faceauth/domain/models"
	"faceauth/domain/repositories"
)

type DescriptorRepositoryImpl struct {
	db *gorm.DB
}

func NewDescriptorRepository(db *gorm.DB) repositories.DescriptorRepository {
	return &DescriptorRepositoryImpl{db: db}
}

// ListAll returns every descriptor ordered by enrollment time so that ties
// in matching resolve the same way on every read.
func (r *DescriptorRepositoryImpl) ListAll(ctx context.Context) ([]models.FaceDescriptor, error) {
	var descriptors []models.FaceDescriptor
	err := r.db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Find(&descriptors).Error
	return descriptors, err
}

func (r *DescriptorRepositoryImpl) GetByIdentity(ctx context.Context, identityID uuid.UUID) ([]models.FaceDescriptor, error) {
	var descriptors []models.FaceDescriptor
	err := r.db.WithContext(ctx).
		Where("identity_id = ?", identityID).
		Order("created_at ASC").
		Find(&descriptors).Error
	return descriptors, err
}

func (r *DescriptorRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.FaceDescriptor{}).Count(&count).Error
	return count, err
}

// Enroll inserts the identity and its descriptor in one transaction
func (r *DescriptorRepositoryImpl) Enroll(ctx context.Context, identity *models.Identity, descriptor *models.FaceDescriptor) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(identity).Error; err != nil {
			return err
		}

		descriptor.IdentityID = identity.ID
		return tx.Create(descriptor).Error
	})
}
