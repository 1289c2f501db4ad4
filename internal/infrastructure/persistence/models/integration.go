package models

import (
	"time"

	"github.com/storesync/backend/internal/domain/integration"
)

// SyncStateModel is the persistence model for the bookkeeping of one sync type
type SyncStateModel struct {
	SyncType     integration.SyncType `gorm:"type:varchar(20);primaryKey"`
	LastSyncAt   *time.Time
	LastDuration int64     `gorm:"column:last_duration_ms;not null;default:0"`
	LastCount    int       `gorm:"not null;default:0"`
	LastError    string    `gorm:"type:text"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SyncStateModel) TableName() string {
	return "sync_states"
}

// ToDomain converts the persistence model to a domain SyncState
func (m *SyncStateModel) ToDomain() *integration.SyncState {
	return &integration.SyncState{
		Type:         m.SyncType,
		LastSyncAt:   m.LastSyncAt,
		LastDuration: time.Duration(m.LastDuration) * time.Millisecond,
		LastCount:    m.LastCount,
		LastError:    m.LastError,
		UpdatedAt:    m.UpdatedAt,
	}
}

// SyncStateModelFromDomain creates a new persistence model from a domain SyncState
func SyncStateModelFromDomain(s *integration.SyncState) *SyncStateModel {
	return &SyncStateModel{
		SyncType:     s.Type,
		LastSyncAt:   s.LastSyncAt,
		LastDuration: s.LastDuration.Milliseconds(),
		LastCount:    s.LastCount,
		LastError:    s.LastError,
		UpdatedAt:    s.UpdatedAt,
	}
}
