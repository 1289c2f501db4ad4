package dto

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	appintegration "github.com/storesync/backend/internal/application/integration"
	"github.com/storesync/backend/internal/domain/integration"
	"github.com/storesync/backend/internal/infrastructure/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodeFor(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"sync running", appintegration.ErrSyncRunning, ErrCodeSyncInProgress, http.StatusConflict},
		{"scheduler busy", fmt.Errorf("trigger: %w", scheduler.ErrSyncInProgress), ErrCodeSyncInProgress, http.StatusConflict},
		{"scheduler stopped", scheduler.ErrSchedulerNotRunning, ErrCodeNotRunning, http.StatusServiceUnavailable},
		{"not found", fmt.Errorf("order 7: %w", integration.ErrNotFound), ErrCodeNotFound, http.StatusNotFound},
		{"refund", integration.ErrOrderNotSubmittable, ErrCodeNotSubmittable, http.StatusUnprocessableEntity},
		{"config", integration.ErrConfigMissing, ErrCodeConfigMissing, http.StatusBadGateway},
		{"remote down", integration.ErrRemoteFetchFailed, ErrCodeRemoteUnavailable, http.StatusBadGateway},
		{"remote clock", integration.ErrRemoteTimeUnavailable, ErrCodeRemoteUnavailable, http.StatusBadGateway},
		{"customer", integration.ErrCustomerResolutionFailed, ErrCodeCustomer, http.StatusBadGateway},
		{"gift card", integration.ErrGiftCardNumberUnresolved, ErrCodeGiftCard, http.StatusBadGateway},
		{"rejected", integration.ErrValidation, ErrCodeRemoteRejected, http.StatusBadGateway},
		{"unknown", fmt.Errorf("boom"), ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := ErrorCodeFor(tt.err)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.status, GetHTTPStatus(code))
		})
	}

	assert.Empty(t, ErrorCodeFor(nil))
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus("ERR_SOMETHING_ELSE"))
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeNotFound, "order not found", "req-123")

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "req-123", resp.Error.RequestID)
	assert.NotZero(t, resp.Error.Timestamp)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"data"`)
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{{Field: "email", Message: "Invalid email format"}}
	resp := NewValidationErrorResponse("Request validation failed", "req-789", details)

	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, details, resp.Error.Details)
}
