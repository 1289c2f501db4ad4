package integration

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/storesync/backend/internal/domain/integration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordedSync struct {
	syncType integration.SyncType
	failed   bool
}

// fakeRecorder collects RecordSync calls
type fakeRecorder struct {
	mu    sync.Mutex
	calls []recordedSync
}

func (r *fakeRecorder) RecordSync(_ context.Context, syncType integration.SyncType, _ *integration.SyncResult, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recordedSync{syncType: syncType, failed: err != nil})
}

type syncFixture struct {
	store    *memStore
	states   *memStates
	remote   *MockRemoteCatalog
	recorder *fakeRecorder
	svc      *SyncService
}

func newSyncFixture() *syncFixture {
	store := newMemStore()
	states := newMemStates()
	remote := new(MockRemoteCatalog)
	recorder := &fakeRecorder{}
	logger := zap.NewNop()
	settings := Settings{ShippingProductCodes: []string{"SHIP"}, GiftCardProductCode: "GIFT"}

	images := NewImageService(remote, store, newMemObjects(), store, store, logger)
	variants := NewVariantService(remote, store, store, nil, logger)

	svc := NewSyncService(SyncServiceDeps{
		Remote:     remote,
		Runs:       NewRunContextBuilder(remote, store, settings, logger),
		Window:     NewWindowTracker(remote, states),
		Taxonomy:   NewTaxonomyService(remote, store, images, logger),
		Products:   NewProductService(store, store, variants, images, nil),
		Stock:      NewStockService(remote, store),
		Promotions: NewPromotionService(remote, store, nil),
		Recorder:   recorder,
		Logger:     logger,
	})
	return &syncFixture{store: store, states: states, remote: remote, recorder: recorder, svc: svc}
}

func TestSyncService_Run_Products(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture()
	f.remote.On("GetProducts", mock.Anything, integration.FullSyncEpoch).Return([]integration.RemoteProduct{
		simpleRemote(100, "ABC", "19.99", 0),
	}, nil)
	f.remote.On("GetImagesForProduct", mock.Anything, mock.Anything, mock.Anything).Return([]integration.RemoteImage{}, nil)

	result, err := f.svc.Run(ctx, integration.SyncTypeProducts, SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, integration.SyncStatusSuccess, result.Status)
	assert.Equal(t, 1, f.store.productCount())

	state, err := f.states.Get(ctx, integration.SyncTypeProducts)
	require.NoError(t, err)
	require.NotNil(t, state.LastSyncAt)
	assert.Equal(t, 1, state.LastCount)
	assert.False(t, f.svc.Running())

	require.Len(t, f.recorder.calls, 1)
	assert.Equal(t, integration.SyncTypeProducts, f.recorder.calls[0].syncType)
}

func TestSyncService_Run_RejectsOverlap(t *testing.T) {
	f := newSyncFixture()
	f.svc.running = true

	_, err := f.svc.Run(context.Background(), integration.SyncTypeGrids, SyncOptions{})
	assert.ErrorIs(t, err, ErrSyncRunning)

	_, err = f.svc.RunAll(context.Background(), SyncOptions{})
	assert.ErrorIs(t, err, ErrSyncRunning)
}

func TestSyncService_Run_UnknownType(t *testing.T) {
	f := newSyncFixture()
	_, err := f.svc.Run(context.Background(), integration.SyncType("bogus"), SyncOptions{})
	assert.Error(t, err)
}

func TestSyncService_Run_StockByIDsKeepsWindow(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture()
	product := seedProduct(t, f.store, 100, integration.ProductStatusPublish)
	f.remote.On("GetProductStockByIDs", mock.Anything, []int{100}).Return([]integration.RemoteStock{
		{ProductID: 100, Available: decimal.NewFromInt(5)},
	}, nil)

	_, err := f.svc.Run(ctx, integration.SyncTypeStock, SyncOptions{ProductIDs: []int{100}})
	require.NoError(t, err)
	assert.Contains(t, f.store.stock, product.ID)

	_, err = f.states.Get(ctx, integration.SyncTypeStock)
	assert.ErrorIs(t, err, integration.ErrNotFound)
}

func TestSyncService_Run_FailureRecordsState(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture()
	f.remote.On("GetGrids", mock.Anything).Return(nil, errors.New("remote down"))

	_, err := f.svc.Run(ctx, integration.SyncTypeGrids, SyncOptions{})
	require.Error(t, err)

	state, err := f.states.Get(ctx, integration.SyncTypeGrids)
	require.NoError(t, err)
	assert.Nil(t, state.LastSyncAt)
	assert.Equal(t, "remote down", state.LastError)
	assert.True(t, f.recorder.calls[0].failed)
}

func TestSyncService_Run_CancelledBatchKeepsWindow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newSyncFixture()
	f.remote.On("GetProducts", mock.Anything, integration.FullSyncEpoch).Return([]integration.RemoteProduct{
		simpleRemote(100, "ABC", "19.99", 0),
		simpleRemote(101, "DEF", "9.99", 0),
	}, nil)
	f.remote.On("GetImagesForProduct", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return([]integration.RemoteImage{}, nil)

	result, err := f.svc.Run(ctx, integration.SyncTypeProducts, SyncOptions{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)
	f.remote.AssertNumberOfCalls(t, "GetImagesForProduct", 1)

	state, err := f.states.Get(context.Background(), integration.SyncTypeProducts)
	require.NoError(t, err)
	assert.Nil(t, state.LastSyncAt)
	assert.Equal(t, context.Canceled.Error(), state.LastError)
	assert.True(t, f.recorder.calls[0].failed)
}

func TestSyncService_RunAll_ContinuesAfterFailedStage(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture()
	f.remote.On("GetDepartments", mock.Anything).Return(nil, errors.New("departments unavailable"))
	f.remote.On("GetGrids", mock.Anything).Return([]integration.RemoteGrid{}, nil)
	f.remote.On("GetGroupings", mock.Anything).Return([]integration.RemoteGrouping{}, nil)
	f.remote.On("GetSuppliers", mock.Anything).Return([]integration.RemoteSupplier{}, nil)
	f.remote.On("GetProducts", mock.Anything, mock.Anything).Return([]integration.RemoteProduct{}, nil)
	f.remote.On("GetDisabledProducts", mock.Anything).Return([]int{}, nil)
	f.remote.On("GetProductStock", mock.Anything, mock.Anything).Return([]integration.RemoteStock{}, nil)
	f.remote.On("GetActivePromotions", mock.Anything).Return([]integration.RemotePromotion{}, nil)

	results, err := f.svc.RunAll(ctx, SyncOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "departments")
	assert.Len(t, results, len(integration.AllSyncTypes)-1)
	assert.Len(t, f.recorder.calls, len(integration.AllSyncTypes))

	for i, call := range f.recorder.calls {
		assert.Equal(t, integration.AllSyncTypes[i], call.syncType)
	}
	f.remote.AssertCalled(t, "GetActivePromotions", mock.Anything)
}

func TestSyncService_Status(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture()
	f.remote.On("GetSuppliers", mock.Anything).Return([]integration.RemoteSupplier{{Id: 1, Code: "A", Name: "A"}}, nil)

	_, err := f.svc.Run(ctx, integration.SyncTypeSuppliers, SyncOptions{})
	require.NoError(t, err)

	states, err := f.svc.Status(ctx)
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, integration.SyncTypeSuppliers, states[0].Type)
}
