package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/integration"
	"github.com/storesync/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormMediaStore implements integration.MediaStore using GORM
type GormMediaStore struct {
	db  *gorm.DB
	now func() time.Time
}

var _ integration.MediaStore = (*GormMediaStore)(nil)

// NewGormMediaStore creates a new GormMediaStore
func NewGormMediaStore(db *gorm.DB) *GormMediaStore {
	return &GormMediaStore{db: db, now: time.Now}
}

// ListMedia returns the media attached to owner ordered by position
func (s *GormMediaStore) ListMedia(ctx context.Context, ownerID uuid.UUID) ([]*integration.Media, error) {
	var mediaModels []models.MediaModel
	if err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("position ASC").
		Order("created_at ASC").
		Find(&mediaModels).Error; err != nil {
		return nil, err
	}

	media := make([]*integration.Media, len(mediaModels))
	for i := range mediaModels {
		media[i] = mediaModels[i].ToDomain()
	}
	return media, nil
}

// GetMedia returns a media record
func (s *GormMediaStore) GetMedia(ctx context.Context, id uuid.UUID) (*integration.Media, error) {
	var model models.MediaModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// SaveMedia creates a media record
func (s *GormMediaStore) SaveMedia(ctx context.Context, media *integration.Media) error {
	if media.CreatedAt.IsZero() {
		media.CreatedAt = s.now()
	}
	return s.db.WithContext(ctx).Create(models.MediaModelFromDomain(media)).Error
}

// DeleteMedia removes a single media record
func (s *GormMediaStore) DeleteMedia(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Delete(&models.MediaModel{}, "id = ?", id).Error
}

// DeleteMediaForOwner removes every media record of owner and returns them so
// the caller can delete the stored binaries
func (s *GormMediaStore) DeleteMediaForOwner(ctx context.Context, ownerID uuid.UUID) ([]*integration.Media, error) {
	var removed []models.MediaModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("owner_id = ?", ownerID).
			Order("position ASC").
			Find(&removed).Error; err != nil {
			return err
		}
		if len(removed) == 0 {
			return nil
		}
		return tx.Where("owner_id = ?", ownerID).Delete(&models.MediaModel{}).Error
	})
	if err != nil {
		return nil, err
	}

	media := make([]*integration.Media, len(removed))
	for i := range removed {
		media[i] = removed[i].ToDomain()
	}
	return media, nil
}
