package scheduler

import (
	"context"
	"errors"

	appintegration "github.com/storesync/backend/internal/application/integration"
	"github.com/storesync/backend/internal/domain/integration"
)

// SyncExecutor executes sync jobs
type SyncExecutor interface {
	Execute(ctx context.Context, job *SyncJob) ([]*integration.SyncResult, error)
}

// SyncRunner is the part of the sync service the scheduler drives
type SyncRunner interface {
	Run(ctx context.Context, syncType integration.SyncType, opts appintegration.SyncOptions) (*integration.SyncResult, error)
	RunAll(ctx context.Context, opts appintegration.SyncOptions) ([]*integration.SyncResult, error)
}

// SyncServiceExecutor runs jobs through a SyncRunner
type SyncServiceExecutor struct {
	runner SyncRunner
}

// NewSyncServiceExecutor creates a new executor
func NewSyncServiceExecutor(runner SyncRunner) *SyncServiceExecutor {
	return &SyncServiceExecutor{runner: runner}
}

// Execute runs the job's sync types. Every listed type is attempted; the
// errors of failed types are joined. A held sync lock maps to ErrSyncInProgress.
func (e *SyncServiceExecutor) Execute(ctx context.Context, job *SyncJob) ([]*integration.SyncResult, error) {
	opts := appintegration.SyncOptions{Full: job.Full}

	if job.AllTypes() {
		results, err := e.runner.RunAll(ctx, opts)
		return results, mapRunError(err)
	}

	results := make([]*integration.SyncResult, 0, len(job.Types))
	var errs []error
	for _, syncType := range job.Types {
		result, err := e.runner.Run(ctx, syncType, opts)
		if err != nil {
			if errors.Is(err, appintegration.ErrSyncRunning) {
				return results, ErrSyncInProgress
			}
			errs = append(errs, err)
			continue
		}
		results = append(results, result)
	}
	return results, errors.Join(errs...)
}

func mapRunError(err error) error {
	if errors.Is(err, appintegration.ErrSyncRunning) {
		return ErrSyncInProgress
	}
	return err
}

var _ SyncExecutor = (*SyncServiceExecutor)(nil)
