package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/integration"
)

// MediaModel is the persistence model for an image attached to a product or term
type MediaModel struct {
	ID         uuid.UUID              `gorm:"type:uuid;primary_key"`
	OwnerID    uuid.UUID              `gorm:"type:uuid;not null;index:idx_media_owner_position,priority:1"`
	OwnerKind  integration.MediaOwner `gorm:"type:varchar(20);not null"`
	FileName   string                 `gorm:"column:file_name;type:varchar(255);not null"`
	StorageKey string                 `gorm:"column:storage_key;type:varchar(500);not null;uniqueIndex"`
	MimeType   string                 `gorm:"column:mime_type;type:varchar(100);not null"`
	Position   int                    `gorm:"not null;default:0;index:idx_media_owner_position,priority:2"`
	CreatedAt  time.Time              `gorm:"not null"`
}

// TableName returns the table name for GORM
func (MediaModel) TableName() string {
	return "media"
}

// ToDomain converts the persistence model to a domain Media record
func (m *MediaModel) ToDomain() *integration.Media {
	return &integration.Media{
		ID:         m.ID,
		OwnerID:    m.OwnerID,
		OwnerKind:  m.OwnerKind,
		Filename:   m.FileName,
		StorageKey: m.StorageKey,
		MimeType:   m.MimeType,
		Position:   m.Position,
		CreatedAt:  m.CreatedAt,
	}
}

// MediaModelFromDomain creates a new persistence model from a domain Media record
func MediaModelFromDomain(media *integration.Media) *MediaModel {
	return &MediaModel{
		ID:         media.ID,
		OwnerID:    media.OwnerID,
		OwnerKind:  media.OwnerKind,
		FileName:   media.Filename,
		StorageKey: media.StorageKey,
		MimeType:   media.MimeType,
		Position:   media.Position,
		CreatedAt:  media.CreatedAt,
	}
}
