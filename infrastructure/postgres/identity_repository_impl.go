package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"faceauth/domain/models"
	"faceauth/domain/repositories"
)

type IdentityRepositoryImpl struct {
	db *gorm.DB
}

func NewIdentityRepository(db *gorm.DB) repositories.IdentityRepository {
	return &IdentityRepositoryImpl{db: db}
}

func (r *IdentityRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.Identity, error) {
	var identity models.Identity
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&identity).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &identity, nil
}

func (r *IdentityRepositoryImpl) Rename(ctx context.Context, id uuid.UUID, displayName string) (*models.Identity, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Identity{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"display_name":      displayName,
			"is_newly_enrolled": false,
			"updated_at":        time.Now(),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, repositories.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *IdentityRepositoryImpl) List(ctx context.Context, offset, limit int) ([]models.Identity, int64, error) {
	var identities []models.Identity
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Identity{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&identities).Error

	return identities, total, err
}

func (r *IdentityRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Identity{}).Count(&count).Error
	return count, err
}

func (r *IdentityRepositoryImpl) CountWithoutDescriptors(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*)
		FROM identities i
		WHERE NOT EXISTS (
			SELECT 1 FROM face_descriptors d WHERE d.identity_id = i.id
		)
	`).Scan(&count).Error
	return count, err
}
