package integration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/storesync/backend/internal/domain/integration"
)

// WindowTracker persists the last successful run per sync type and derives
// the skew compensated start of the next change window.
type WindowTracker struct {
	remote integration.RemoteCatalog
	states integration.SyncStateRepository
	now    func() time.Time
}

// NewWindowTracker creates a new WindowTracker
func NewWindowTracker(remote integration.RemoteCatalog, states integration.SyncStateRepository) *WindowTracker {
	return &WindowTracker{
		remote: remote,
		states: states,
		now:    time.Now,
	}
}

// GetWindow returns the timestamp to request changes since. A sync type that
// never completed, or a forced full sync, starts at FullSyncEpoch.
func (w *WindowTracker) GetWindow(ctx context.Context, syncType integration.SyncType, forceFull bool) (time.Time, error) {
	if forceFull {
		return integration.FullSyncEpoch, nil
	}

	state, err := w.states.Get(ctx, syncType)
	if err != nil {
		if errors.Is(err, integration.ErrNotFound) {
			return integration.FullSyncEpoch, nil
		}
		return time.Time{}, fmt.Errorf("load sync state: %w", err)
	}
	if state.LastSyncAt == nil {
		return integration.FullSyncEpoch, nil
	}

	serverTime, err := w.remote.GetServerTime(ctx)
	if err != nil {
		if errors.Is(err, integration.ErrRemoteTimeUnavailable) {
			return time.Time{}, err
		}
		return time.Time{}, fmt.Errorf("%w: %v", integration.ErrRemoteTimeUnavailable, err)
	}
	if serverTime == nil {
		return time.Time{}, integration.ErrRemoteTimeUnavailable
	}

	return SkewWindow(*state.LastSyncAt, serverTime.UtcOffset), nil
}

// SkewWindow converts the last sync time to the remote wall clock, less one
// hour of margin. The result is a UTC labelled time carrying remote local
// wall time, whatever location last was in.
func SkewWindow(last time.Time, utcOffset int) time.Time {
	return last.UTC().Add(time.Duration(utcOffset-60) * time.Minute)
}

// Complete records a finished run. The run start becomes the basis of the
// next window.
func (w *WindowTracker) Complete(ctx context.Context, syncType integration.SyncType, startedAt time.Time, count int, duration time.Duration) error {
	started := startedAt.UTC()
	return w.states.Save(ctx, &integration.SyncState{
		Type:         syncType,
		LastSyncAt:   &started,
		LastDuration: duration,
		LastCount:    count,
		UpdatedAt:    w.now(),
	})
}

// Fail records the terminal error of a run without moving the window.
func (w *WindowTracker) Fail(ctx context.Context, syncType integration.SyncType, cause error) error {
	state, err := w.states.Get(ctx, syncType)
	if err != nil {
		if !errors.Is(err, integration.ErrNotFound) {
			return fmt.Errorf("load sync state: %w", err)
		}
		state = &integration.SyncState{Type: syncType}
	}
	state.LastError = cause.Error()
	state.UpdatedAt = w.now()
	return w.states.Save(ctx, state)
}

// States returns the stored state of every sync type.
func (w *WindowTracker) States(ctx context.Context) ([]*integration.SyncState, error) {
	return w.states.List(ctx)
}
