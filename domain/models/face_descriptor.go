package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

type FaceDescriptor struct {
	ID         uuid.UUID `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	IdentityID uuid.UUID `gorm:"type:uuid;not null;index"`

	// Face descriptor (128 dimensions for the browser extractor).
	// The column is left unsized so corrupted rows surface as dimension
	// mismatches during matching instead of failing the whole read.
	Vector pgvector.Vector `gorm:"type:vector;not null"`

	CreatedAt time.Time
	UpdatedAt time.Time

	// Relations
	Identity *Identity `gorm:"foreignKey:IdentityID"`
}

func (FaceDescriptor) TableName() string {
	return "face_descriptors"
}
