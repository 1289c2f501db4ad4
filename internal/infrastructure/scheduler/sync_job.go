package scheduler

import (
	"time"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/integration"
)

// SyncJobStatus represents the status of a sync job
type SyncJobStatus string

const (
	SyncJobStatusPending SyncJobStatus = "PENDING"
	SyncJobStatusRunning SyncJobStatus = "RUNNING"
	SyncJobStatusSuccess SyncJobStatus = "SUCCESS"
	SyncJobStatusPartial SyncJobStatus = "PARTIAL"
	SyncJobStatusFailed  SyncJobStatus = "FAILED"
	SyncJobStatusSkipped SyncJobStatus = "SKIPPED"
)

// SyncTrigger records what started a job
type SyncTrigger string

const (
	TriggerStartup  SyncTrigger = "startup"
	TriggerInterval SyncTrigger = "interval"
	TriggerStock    SyncTrigger = "stock"
	TriggerManual   SyncTrigger = "manual"
)

// SyncJob is one scheduled execution of one or more sync types
type SyncJob struct {
	ID      uuid.UUID
	Trigger SyncTrigger
	// Types to run; empty means every sync type in dependency order
	Types       []integration.SyncType
	Full        bool
	Status      SyncJobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time

	// Sync results
	Results      []*integration.SyncResult
	TotalItems   int
	FailedItems  int
	SuccessItems int
}

// NewSyncJob creates a pending job
func NewSyncJob(trigger SyncTrigger, types []integration.SyncType, full bool) *SyncJob {
	return &SyncJob{
		ID:      uuid.New(),
		Trigger: trigger,
		Types:   types,
		Full:    full,
		Status:  SyncJobStatusPending,
	}
}

// AllTypes reports whether the job runs the full cycle
func (j *SyncJob) AllTypes() bool {
	return len(j.Types) == 0
}

// Start marks the job as running
func (j *SyncJob) Start() {
	now := time.Now()
	j.Status = SyncJobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete records the results. Item failures make the job PARTIAL.
func (j *SyncJob) Complete(results []*integration.SyncResult) {
	now := time.Now()
	j.CompletedAt = &now
	j.Results = results
	j.Status = SyncJobStatusSuccess

	for _, r := range results {
		if r == nil {
			continue
		}
		j.TotalItems += r.TotalCount
		j.SuccessItems += r.SuccessCount
		j.FailedItems += len(r.FailedItems)
		if r.Status != integration.SyncStatusSuccess {
			j.Status = SyncJobStatusPartial
		}
	}
}

// Fail marks the job as failed, keeping the results of completed stages
func (j *SyncJob) Fail(results []*integration.SyncResult, err string) {
	j.Complete(results)
	j.Status = SyncJobStatusFailed
	j.Error = err
}

// Skip marks a job that did not run because another sync held the lock
func (j *SyncJob) Skip(reason string) {
	now := time.Now()
	j.Status = SyncJobStatusSkipped
	j.CompletedAt = &now
	j.Error = reason
}

// Duration returns how long the job ran
func (j *SyncJob) Duration() time.Duration {
	if j.StartedAt == nil || j.CompletedAt == nil {
		return 0
	}
	return j.CompletedAt.Sub(*j.StartedAt)
}
