package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/storesync/backend/internal/domain/integration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSkewWindow(t *testing.T) {
	last := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		offset int
		want   time.Time
	}{
		{"eastern standard", -300, last.Add(-360 * time.Minute)},
		{"utc", 0, last.Add(-60 * time.Minute)},
		{"one hour ahead", 60, last},
		{"two hours ahead", 120, last.Add(60 * time.Minute)},
		{"half hour ahead keeps the margin", 30, last.Add(-30 * time.Minute)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SkewWindow(last, tt.offset))
		})
	}
}

func TestSkewWindow_IgnoresLocation(t *testing.T) {
	last := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	east := last.In(time.FixedZone("east", 5*60*60))
	west := last.In(time.FixedZone("west", -8*60*60))

	for _, offset := range []int{-300, 0, 30, 120} {
		want := SkewWindow(last, offset)
		assert.Equal(t, want, SkewWindow(east, offset))
		assert.Equal(t, want, SkewWindow(west, offset))
		assert.Equal(t, time.UTC, SkewWindow(east, offset).Location())
	}
	assert.Equal(t, "2024-03-01T06:00:00", SkewWindow(east, -300).Format(integration.RemoteTimeLayout))
}

func TestWindowTracker_GetWindow(t *testing.T) {
	ctx := context.Background()
	last := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("no state starts at the epoch", func(t *testing.T) {
		remote := new(MockRemoteCatalog)
		w := NewWindowTracker(remote, newMemStates())

		since, err := w.GetWindow(ctx, integration.SyncTypeProducts, false)
		require.NoError(t, err)
		assert.Equal(t, integration.FullSyncEpoch, since)
		remote.AssertNotCalled(t, "GetServerTime", mock.Anything)
	})

	t.Run("forced full sync ignores state", func(t *testing.T) {
		states := newMemStates()
		require.NoError(t, states.Save(ctx, &integration.SyncState{Type: integration.SyncTypeStock, LastSyncAt: &last}))
		w := NewWindowTracker(new(MockRemoteCatalog), states)

		since, err := w.GetWindow(ctx, integration.SyncTypeStock, true)
		require.NoError(t, err)
		assert.Equal(t, integration.FullSyncEpoch, since)
	})

	t.Run("skews the last run", func(t *testing.T) {
		states := newMemStates()
		require.NoError(t, states.Save(ctx, &integration.SyncState{Type: integration.SyncTypeStock, LastSyncAt: &last}))
		remote := new(MockRemoteCatalog)
		remote.On("GetServerTime", mock.Anything).Return(&integration.ServerTime{UtcOffset: -300}, nil)
		w := NewWindowTracker(remote, states)

		since, err := w.GetWindow(ctx, integration.SyncTypeStock, false)
		require.NoError(t, err)
		assert.Equal(t, last.Add(-6*time.Hour), since)
	})

	t.Run("stored time in a non utc location", func(t *testing.T) {
		local := last.In(time.FixedZone("east", 5*60*60))
		states := newMemStates()
		require.NoError(t, states.Save(ctx, &integration.SyncState{Type: integration.SyncTypeStock, LastSyncAt: &local}))
		remote := new(MockRemoteCatalog)
		remote.On("GetServerTime", mock.Anything).Return(&integration.ServerTime{UtcOffset: -300}, nil)
		w := NewWindowTracker(remote, states)

		since, err := w.GetWindow(ctx, integration.SyncTypeStock, false)
		require.NoError(t, err)
		assert.Equal(t, "2024-03-01T06:00:00", since.Format(integration.RemoteTimeLayout))
	})

	t.Run("server time failure aborts", func(t *testing.T) {
		states := newMemStates()
		require.NoError(t, states.Save(ctx, &integration.SyncState{Type: integration.SyncTypeStock, LastSyncAt: &last}))
		remote := new(MockRemoteCatalog)
		remote.On("GetServerTime", mock.Anything).Return(nil, errors.New("connection refused"))
		w := NewWindowTracker(remote, states)

		_, err := w.GetWindow(ctx, integration.SyncTypeStock, false)
		assert.ErrorIs(t, err, integration.ErrRemoteTimeUnavailable)
	})
}

func TestWindowTracker_CompleteAndFail(t *testing.T) {
	ctx := context.Background()
	states := newMemStates()
	w := NewWindowTracker(new(MockRemoteCatalog), states)
	started := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, w.Complete(ctx, integration.SyncTypeProducts, started.In(time.FixedZone("east", 5*60*60)), 42, 3*time.Second))
	require.NoError(t, w.Fail(ctx, integration.SyncTypeProducts, errors.New("boom")))

	state, err := states.Get(ctx, integration.SyncTypeProducts)
	require.NoError(t, err)
	require.NotNil(t, state.LastSyncAt)
	assert.Equal(t, started, *state.LastSyncAt)
	assert.Equal(t, 42, state.LastCount)
	assert.Equal(t, 3*time.Second, state.LastDuration)
	assert.Equal(t, "boom", state.LastError)

	require.NoError(t, w.Fail(ctx, integration.SyncTypeGrids, errors.New("down")))
	grids, err := states.Get(ctx, integration.SyncTypeGrids)
	require.NoError(t, err)
	assert.Nil(t, grids.LastSyncAt)
}
