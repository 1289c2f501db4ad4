package dto

import (
	"errors"
	"net/http"

	appintegration "github.com/storesync/backend/internal/application/integration"
	"github.com/storesync/backend/internal/domain/integration"
	"github.com/storesync/backend/internal/infrastructure/scheduler"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeInternal   = "ERR_INTERNAL"
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	ErrCodeValidation = "ERR_VALIDATION"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource and state error codes
const (
	ErrCodeNotFound       = "ERR_NOT_FOUND"
	ErrCodeSyncInProgress = "ERR_SYNC_IN_PROGRESS"
	ErrCodeNotRunning     = "ERR_SCHEDULER_NOT_RUNNING"
	ErrCodeNotSubmittable = "ERR_ORDER_NOT_SUBMITTABLE"
)

// Integration error codes
const (
	ErrCodeConfigMissing     = "ERR_CONFIG_MISSING"
	ErrCodeRemoteUnavailable = "ERR_REMOTE_UNAVAILABLE"
	ErrCodeRemoteRejected    = "ERR_REMOTE_REJECTED"
	ErrCodeCustomer          = "ERR_CUSTOMER_RESOLUTION"
	ErrCodeGiftCard          = "ERR_GIFT_CARD_UNRESOLVED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,
	ErrCodeValidation: http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeNotFound:       http.StatusNotFound,
	ErrCodeSyncInProgress: http.StatusConflict,
	ErrCodeNotRunning:     http.StatusServiceUnavailable,
	ErrCodeNotSubmittable: http.StatusUnprocessableEntity,

	// Upstream failures -> 502 Bad Gateway
	ErrCodeConfigMissing:     http.StatusBadGateway,
	ErrCodeRemoteUnavailable: http.StatusBadGateway,
	ErrCodeRemoteRejected:    http.StatusBadGateway,
	ErrCodeCustomer:          http.StatusBadGateway,
	ErrCodeGiftCard:          http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ErrorCodeFor classifies a service error into an API error code
func ErrorCodeFor(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, appintegration.ErrSyncRunning), errors.Is(err, scheduler.ErrSyncInProgress),
		errors.Is(err, scheduler.ErrJobQueueFull):
		return ErrCodeSyncInProgress
	case errors.Is(err, scheduler.ErrSchedulerNotRunning):
		return ErrCodeNotRunning
	case errors.Is(err, integration.ErrNotFound):
		return ErrCodeNotFound
	case errors.Is(err, integration.ErrOrderNotSubmittable):
		return ErrCodeNotSubmittable
	case errors.Is(err, integration.ErrConfigMissing):
		return ErrCodeConfigMissing
	case errors.Is(err, integration.ErrRemoteTimeUnavailable), errors.Is(err, integration.ErrRemoteFetchFailed):
		return ErrCodeRemoteUnavailable
	case errors.Is(err, integration.ErrCustomerResolutionFailed):
		return ErrCodeCustomer
	case errors.Is(err, integration.ErrGiftCardNumberUnresolved):
		return ErrCodeGiftCard
	case errors.Is(err, integration.ErrValidation):
		return ErrCodeRemoteRejected
	default:
		return ErrCodeInternal
	}
}
