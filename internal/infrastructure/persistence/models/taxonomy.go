package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/integration"
)

// AttributeModel is the persistence model for a registered attribute taxonomy
type AttributeModel struct {
	BaseModel
	Slug    string `gorm:"type:varchar(100);not null;uniqueIndex"`
	Name    string `gorm:"type:varchar(255);not null"`
	Type    string `gorm:"type:varchar(20);not null;default:'select'"`
	OrderBy string `gorm:"type:varchar(20);not null;default:'menu_order'"`
}

// TableName returns the table name for GORM
func (AttributeModel) TableName() string {
	return "attributes"
}

// ToDomain converts the persistence model to a domain Attribute
func (m *AttributeModel) ToDomain() *integration.Attribute {
	return &integration.Attribute{
		ID:        m.ID,
		Slug:      m.Slug,
		Name:      m.Name,
		Type:      m.Type,
		OrderBy:   m.OrderBy,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// AttributeModelFromDomain creates a new persistence model from a domain Attribute
func AttributeModelFromDomain(a *integration.Attribute) *AttributeModel {
	m := &AttributeModel{
		Slug:    a.Slug,
		Name:    a.Name,
		Type:    a.Type,
		OrderBy: a.OrderBy,
	}
	m.fromDomain(a.ID, a.CreatedAt, a.UpdatedAt)
	return m
}

// TermModel is the persistence model for a taxonomy term
type TermModel struct {
	BaseModel
	Taxonomy    string     `gorm:"type:varchar(100);not null;uniqueIndex:idx_terms_taxonomy_slug,priority:1;index:idx_terms_taxonomy_name,priority:1"`
	Slug        string     `gorm:"type:varchar(200);not null;uniqueIndex:idx_terms_taxonomy_slug,priority:2"`
	Name        string     `gorm:"type:varchar(255);not null;index:idx_terms_taxonomy_name,priority:2"`
	Description string     `gorm:"type:text"`
	ParentID    *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (TermModel) TableName() string {
	return "terms"
}

// ToDomain converts the persistence model to a domain Term. Meta is loaded
// separately.
func (m *TermModel) ToDomain() *integration.Term {
	return &integration.Term{
		ID:          m.ID,
		Taxonomy:    m.Taxonomy,
		Slug:        m.Slug,
		Name:        m.Name,
		Description: m.Description,
		ParentID:    m.ParentID,
		Meta:        make(map[string]string),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// TermModelFromDomain creates a new persistence model from a domain Term
func TermModelFromDomain(t *integration.Term) *TermModel {
	m := &TermModel{
		Taxonomy:    t.Taxonomy,
		Slug:        t.Slug,
		Name:        t.Name,
		Description: t.Description,
		ParentID:    t.ParentID,
	}
	m.fromDomain(t.ID, t.CreatedAt, t.UpdatedAt)
	return m
}

// TermMetaModel stores one meta value of a term
type TermMetaModel struct {
	TermID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	MetaKey   string    `gorm:"type:varchar(100);primaryKey"`
	MetaValue string    `gorm:"type:text"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TermMetaModel) TableName() string {
	return "term_meta"
}
