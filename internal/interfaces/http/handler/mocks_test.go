package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	appintegration "github.com/storesync/backend/internal/application/integration"
	"github.com/storesync/backend/internal/domain/integration"
	"github.com/storesync/backend/internal/infrastructure/scheduler"
	"github.com/storesync/backend/internal/interfaces/http/dto"
	"github.com/storesync/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// MockSyncRunner implements SyncRunner for testing
type MockSyncRunner struct {
	mock.Mock
}

func (m *MockSyncRunner) Run(ctx context.Context, syncType integration.SyncType, opts appintegration.SyncOptions) (*integration.SyncResult, error) {
	args := m.Called(ctx, syncType, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.SyncResult), args.Error(1)
}

func (m *MockSyncRunner) RunAll(ctx context.Context, opts appintegration.SyncOptions) ([]*integration.SyncResult, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*integration.SyncResult), args.Error(1)
}

func (m *MockSyncRunner) Status(ctx context.Context) ([]*integration.SyncState, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*integration.SyncState), args.Error(1)
}

func (m *MockSyncRunner) Running() bool {
	return m.Called().Bool(0)
}

// MockSyncJobQueue implements SyncJobQueue for testing
type MockSyncJobQueue struct {
	mock.Mock
}

func (m *MockSyncJobQueue) Trigger(types []integration.SyncType, full bool) (*scheduler.SyncJob, error) {
	args := m.Called(types, full)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scheduler.SyncJob), args.Error(1)
}

func (m *MockSyncJobQueue) Current() *scheduler.SyncJob {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*scheduler.SyncJob)
}

func (m *MockSyncJobQueue) GetJobHistory(limit int) []*scheduler.SyncJob {
	args := m.Called(limit)
	return args.Get(0).([]*scheduler.SyncJob)
}

// MockOrderProcessor implements OrderProcessor for testing
type MockOrderProcessor struct {
	mock.Mock
}

func (m *MockOrderProcessor) ProcessOrder(ctx context.Context, orderID int64, justReturn bool) (*integration.OrderPayload, bool, error) {
	args := m.Called(ctx, orderID, justReturn)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*integration.OrderPayload), args.Bool(1), args.Error(2)
}

// MockOrderStore implements OrderStore for testing
type MockOrderStore struct {
	mock.Mock
}

func (m *MockOrderStore) GetOrder(ctx context.Context, id int64) (*integration.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Order), args.Error(1)
}

func (m *MockOrderStore) SaveOrder(ctx context.Context, order *integration.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *MockOrderStore) SetGiftCardNumber(ctx context.Context, orderID, lineID int64, number string) error {
	return m.Called(ctx, orderID, lineID, number).Error(0)
}

// MockCustomerRegistrar implements CustomerRegistrar for testing
type MockCustomerRegistrar struct {
	mock.Mock
}

func (m *MockCustomerRegistrar) ProcessNewCustomer(ctx context.Context, customer *integration.Customer) (*integration.RemoteCustomer, error) {
	args := m.Called(ctx, customer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.RemoteCustomer), args.Error(1)
}

// testResponse is a dto.Response with the data left raw
type testResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
}

func perform(t *testing.T, r *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, testResponse) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewBuffer(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp testResponse
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func decodeData(t *testing.T, resp testResponse, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(resp.Data, v))
}
