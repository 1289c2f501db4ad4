package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// BaseModel provides common persistence fields for all models.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// fromDomain populates BaseModel from entity identity and timestamps
func (m *BaseModel) fromDomain(id uuid.UUID, createdAt, updatedAt time.Time) {
	m.ID = id
	m.CreatedAt = createdAt
	m.UpdatedAt = updatedAt
}

// toJSON encodes v for a JSON column. Columns are never SQL NULL; a nil slice
// or map is stored as the JSON literal null.
func toJSON(v any) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(data)
}

// fromJSON decodes a JSON column into out, leaving out untouched when empty
// or malformed.
func fromJSON(data datatypes.JSON, out any) {
	if len(data) == 0 {
		return
	}
	_ = json.Unmarshal(data, out)
}
