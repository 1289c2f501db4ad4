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

// GormTermStore implements integration.TermStore using GORM
type GormTermStore struct {
	db  *gorm.DB
	now func() time.Time
}

var _ integration.TermStore = (*GormTermStore)(nil)

// NewGormTermStore creates a new GormTermStore
func NewGormTermStore(db *gorm.DB) *GormTermStore {
	return &GormTermStore{db: db, now: time.Now}
}

// ---------------------------------------------------------------------------
// Attributes
// ---------------------------------------------------------------------------

// FindAttribute returns the attribute with the given slug
func (s *GormTermStore) FindAttribute(ctx context.Context, slug string) (*integration.Attribute, error) {
	var model models.AttributeModel
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// SaveAttribute creates or updates an attribute
func (s *GormTermStore) SaveAttribute(ctx context.Context, attribute *integration.Attribute) error {
	now := s.now()
	if attribute.CreatedAt.IsZero() {
		attribute.CreatedAt = now
	}
	attribute.UpdatedAt = now
	return s.db.WithContext(ctx).Save(models.AttributeModelFromDomain(attribute)).Error
}

// ---------------------------------------------------------------------------
// Terms
// ---------------------------------------------------------------------------

func (s *GormTermStore) findTerm(ctx context.Context, query string, args ...any) (*integration.Term, error) {
	var model models.TermModel
	if err := s.db.WithContext(ctx).Where(query, args...).Order("created_at ASC").First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrNotFound
		}
		return nil, err
	}
	terms, err := s.withMeta(ctx, []models.TermModel{model})
	if err != nil {
		return nil, err
	}
	return terms[0], nil
}

// FindTermBySlug returns the term with the given slug in a taxonomy
func (s *GormTermStore) FindTermBySlug(ctx context.Context, taxonomy, slug string) (*integration.Term, error) {
	return s.findTerm(ctx, "taxonomy = ? AND slug = ?", taxonomy, slug)
}

// FindTermByName returns the first term with the given display name
func (s *GormTermStore) FindTermByName(ctx context.Context, taxonomy, name string) (*integration.Term, error) {
	return s.findTerm(ctx, "taxonomy = ? AND name = ?", taxonomy, name)
}

// ListTerms returns every term in a taxonomy with its meta
func (s *GormTermStore) ListTerms(ctx context.Context, taxonomy string) ([]*integration.Term, error) {
	var termModels []models.TermModel
	if err := s.db.WithContext(ctx).
		Where("taxonomy = ?", taxonomy).
		Order("name ASC").
		Find(&termModels).Error; err != nil {
		return nil, err
	}
	return s.withMeta(ctx, termModels)
}

// withMeta converts term models and loads their meta in one query
func (s *GormTermStore) withMeta(ctx context.Context, termModels []models.TermModel) ([]*integration.Term, error) {
	terms := make([]*integration.Term, len(termModels))
	if len(termModels) == 0 {
		return terms, nil
	}

	byID := make(map[uuid.UUID]*integration.Term, len(termModels))
	ids := make([]uuid.UUID, len(termModels))
	for i := range termModels {
		terms[i] = termModels[i].ToDomain()
		byID[terms[i].ID] = terms[i]
		ids[i] = terms[i].ID
	}

	for start := 0; start < len(ids); start += maxInParams {
		end := min(start+maxInParams, len(ids))
		var metas []models.TermMetaModel
		if err := s.db.WithContext(ctx).Where("term_id IN ?", ids[start:end]).Find(&metas).Error; err != nil {
			return nil, err
		}
		for _, m := range metas {
			if t, ok := byID[m.TermID]; ok {
				t.Meta[m.MetaKey] = m.MetaValue
			}
		}
	}
	return terms, nil
}

// SaveTerm creates or updates a term and writes its meta. A slug already
// used by another term of the taxonomy fails on the unique index.
func (s *GormTermStore) SaveTerm(ctx context.Context, term *integration.Term) error {
	now := s.now()
	if term.CreatedAt.IsZero() {
		term.CreatedAt = now
	}
	term.UpdatedAt = now

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(models.TermModelFromDomain(term)).Error; err != nil {
			return err
		}
		for key, value := range term.Meta {
			if err := upsertMeta(tx, term.ID, key, value, now); err != nil {
				return err
			}
		}
		return nil
	})
}

// SetTermParent links a term to its parent
func (s *GormTermStore) SetTermParent(ctx context.Context, termID uuid.UUID, parentID *uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Model(&models.TermModel{}).
		Where("id = ?", termID).
		Updates(map[string]any{
			"parent_id":  parentID,
			"updated_at": s.now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return integration.ErrNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// Term meta
// ---------------------------------------------------------------------------

func upsertMeta(tx *gorm.DB, termID uuid.UUID, key, value string, now time.Time) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "term_id"}, {Name: "meta_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"meta_value", "updated_at"}),
	}).Create(&models.TermMetaModel{
		TermID:    termID,
		MetaKey:   key,
		MetaValue: value,
		UpdatedAt: now,
	}).Error
}

// ReplaceTermMeta stores value as the only value of key
func (s *GormTermStore) ReplaceTermMeta(ctx context.Context, termID uuid.UUID, key, value string) error {
	return upsertMeta(s.db.WithContext(ctx), termID, key, value, s.now())
}

// DeleteTermMeta removes key from the term
func (s *GormTermStore) DeleteTermMeta(ctx context.Context, termID uuid.UUID, key string) error {
	return s.db.WithContext(ctx).
		Where("term_id = ? AND meta_key = ?", termID, key).
		Delete(&models.TermMetaModel{}).Error
}

// GetTermMeta returns the value for key, or "" when absent
func (s *GormTermStore) GetTermMeta(ctx context.Context, termID uuid.UUID, key string) (string, error) {
	var meta models.TermMetaModel
	err := s.db.WithContext(ctx).
		Where("term_id = ? AND meta_key = ?", termID, key).
		Take(&meta).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return meta.MetaValue, nil
}
