package integration

import (
	"context"
	"time"
)

// ---------------------------------------------------------------------------
// Sync types and state
// ---------------------------------------------------------------------------

// SyncType identifies a sync operation with its own change window and stats
type SyncType string

const (
	SyncTypeProducts    SyncType = "products"
	SyncTypeStock       SyncType = "stock"
	SyncTypeGrids       SyncType = "grids"
	SyncTypeDepartments SyncType = "departments"
	SyncTypeGroupings   SyncType = "groupings"
	SyncTypeSuppliers   SyncType = "suppliers"
	SyncTypePromotions  SyncType = "promotions"
	SyncTypeDisabled    SyncType = "disabled"
)

// AllSyncTypes lists sync types in dependency order: taxonomy before
// products, products before stock and promotions.
var AllSyncTypes = []SyncType{
	SyncTypeDepartments,
	SyncTypeGrids,
	SyncTypeGroupings,
	SyncTypeSuppliers,
	SyncTypeProducts,
	SyncTypeDisabled,
	SyncTypeStock,
	SyncTypePromotions,
}

// IsValid returns true if the sync type is valid
func (t SyncType) IsValid() bool {
	for _, v := range AllSyncTypes {
		if v == t {
			return true
		}
	}
	return false
}

// String returns the string representation of SyncType
func (t SyncType) String() string {
	return string(t)
}

// SyncState is the persisted bookkeeping of one sync type
type SyncState struct {
	// Type is the sync type
	Type SyncType
	// LastSyncAt is the start of the last successful run, nil before the first
	LastSyncAt *time.Time
	// LastDuration is how long the last run took
	LastDuration time.Duration
	// LastCount is the number of items the last run processed
	LastCount int
	// LastError is the terminal error of the last failed run
	LastError string
	// UpdatedAt is when the state was last written
	UpdatedAt time.Time
}

// SyncStateRepository persists sync state per sync type
type SyncStateRepository interface {
	// Get returns the state, or ErrNotFound before the first run
	Get(ctx context.Context, syncType SyncType) (*SyncState, error)
	// List returns the state of every sync type that has run
	List(ctx context.Context) ([]*SyncState, error)
	// Save creates or replaces the state
	Save(ctx context.Context, state *SyncState) error
}

// ---------------------------------------------------------------------------
// Sync results
// ---------------------------------------------------------------------------

// SyncStatus represents the outcome of a sync run
type SyncStatus string

const (
	SyncStatusSuccess SyncStatus = "SUCCESS"
	SyncStatusPartial SyncStatus = "PARTIAL"
	SyncStatusFailed  SyncStatus = "FAILED"
)

// SyncFailure represents a single failed item in a sync run
type SyncFailure struct {
	// ItemID is the remote id (or code) of the failed item
	ItemID string
	// ErrorCode is the machine-readable code from ErrorCode
	ErrorCode string
	// ErrorMessage is the error text
	ErrorMessage string
	// Soft marks failures that only demoted the item
	Soft bool
	// Err is the original error for errors.Is checks
	Err error `json:"-"`
}

// SyncResult represents the result of a sync run
type SyncResult struct {
	// Type is the sync type
	Type SyncType
	// Status is the overall status
	Status SyncStatus
	// TotalCount is the number of items processed
	TotalCount int
	// SuccessCount is the number of items processed without error
	SuccessCount int
	// FailedItems lists the items that failed
	FailedItems []SyncFailure
	// StartedAt is when the run began
	StartedAt time.Time
	// Duration is how long the run took
	Duration time.Duration
}

// NewSyncResult starts a result for a run.
func NewSyncResult(syncType SyncType, startedAt time.Time) *SyncResult {
	return &SyncResult{
		Type:        syncType,
		Status:      SyncStatusSuccess,
		StartedAt:   startedAt,
		FailedItems: make([]SyncFailure, 0),
	}
}

// RecordSuccess counts a processed item.
func (r *SyncResult) RecordSuccess() {
	r.TotalCount++
	r.SuccessCount++
}

// RecordFailure counts a failed item.
func (r *SyncResult) RecordFailure(itemID string, err error) {
	r.TotalCount++
	r.FailedItems = append(r.FailedItems, SyncFailure{
		ItemID:       itemID,
		ErrorCode:    ErrorCode(err),
		ErrorMessage: err.Error(),
		Soft:         IsSoft(err),
		Err:          err,
	})
}

// Finish computes the status and duration.
func (r *SyncResult) Finish(now time.Time) {
	r.Duration = now.Sub(r.StartedAt)
	switch {
	case len(r.FailedItems) == 0:
		r.Status = SyncStatusSuccess
	case r.SuccessCount == 0:
		r.Status = SyncStatusFailed
	default:
		r.Status = SyncStatusPartial
	}
}

// FailedCount returns the number of failed items.
func (r *SyncResult) FailedCount() int {
	return len(r.FailedItems)
}
