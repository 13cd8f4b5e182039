package models

import (
	"time"

	"github.com/google/uuid"
)

type Identity struct {
	ID uuid.UUID `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`

	// Display name chosen by the person after enrollment
	DisplayName *string

	// Set on enrollment, cleared by the first rename
	IsNewlyEnrolled bool `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time

	// Relations
	Descriptors []FaceDescriptor `gorm:"foreignKey:IdentityID;constraint:OnDelete:CASCADE"`
}

func (Identity) TableName() string {
	return "identities"
}

// Name returns the display name or an empty string when none is set.
func (i *Identity) Name() string {
	if i == nil || i.DisplayName == nil {
		return ""
	}
	return *i.DisplayName
}
