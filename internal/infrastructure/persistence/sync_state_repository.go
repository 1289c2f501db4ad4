package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/storesync/backend/internal/domain/integration"
	"github.com/storesync/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSyncStateRepository implements integration.SyncStateRepository using GORM
type GormSyncStateRepository struct {
	db  *gorm.DB
	now func() time.Time
}

var _ integration.SyncStateRepository = (*GormSyncStateRepository)(nil)

// NewGormSyncStateRepository creates a new GormSyncStateRepository
func NewGormSyncStateRepository(db *gorm.DB) *GormSyncStateRepository {
	return &GormSyncStateRepository{db: db, now: time.Now}
}

// Get returns the state of a sync type
func (r *GormSyncStateRepository) Get(ctx context.Context, syncType integration.SyncType) (*integration.SyncState, error) {
	var model models.SyncStateModel
	if err := r.db.WithContext(ctx).First(&model, "sync_type = ?", syncType).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List returns the state of every sync type that has run
func (r *GormSyncStateRepository) List(ctx context.Context) ([]*integration.SyncState, error) {
	var stateModels []models.SyncStateModel
	if err := r.db.WithContext(ctx).Order("sync_type ASC").Find(&stateModels).Error; err != nil {
		return nil, err
	}

	states := make([]*integration.SyncState, len(stateModels))
	for i := range stateModels {
		states[i] = stateModels[i].ToDomain()
	}
	return states, nil
}

// Save creates or replaces the state
func (r *GormSyncStateRepository) Save(ctx context.Context, state *integration.SyncState) error {
	state.UpdatedAt = r.now()
	return r.db.WithContext(ctx).Save(models.SyncStateModelFromDomain(state)).Error
}
