package integration

import (
	"errors"
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Sentinel errors
// ---------------------------------------------------------------------------

var (
	// Configuration and remote access
	ErrConfigMissing         = errors.New("integration: required configuration missing")
	ErrRemoteTimeUnavailable = errors.New("integration: remote server time unavailable")
	ErrRemoteFetchFailed     = errors.New("integration: remote request failed")

	// Per-item soft failures. The item is demoted, the run continues.
	ErrDimensionNotEnabled = errors.New("integration: dimension not enabled")
	ErrGroupingNotEnabled  = errors.New("integration: grouping not enabled")

	// Per-item hard failures discovered after prerequisite checks passed
	ErrTaxonomyMissing = errors.New("integration: taxonomy missing")
	ErrTermMissing     = errors.New("integration: taxonomy term missing")

	// Order submission
	ErrCustomerResolutionFailed = errors.New("integration: customer resolution failed")
	ErrGiftCardNumberUnresolved = errors.New("integration: gift card number unresolved")
	ErrOrderNotSubmittable      = errors.New("integration: order is not submittable")

	// Records and lookups
	ErrValidation = errors.New("integration: invalid remote record")
	ErrNotFound   = errors.New("integration: record not found")
)

// DimensionNotEnabledError lists every grid dimension a variable product
// references that is not mirrored locally.
type DimensionNotEnabledError struct {
	Code       string
	Dimensions []string
}

func (e *DimensionNotEnabledError) Error() string {
	return fmt.Sprintf("%s - requires the following grids that are not enabled for ecommerce: %s",
		e.Code, strings.Join(e.Dimensions, ", "))
}

func (e *DimensionNotEnabledError) Unwrap() error { return ErrDimensionNotEnabled }

// GroupingNotEnabledError lists every grouping a product references that is
// not mirrored locally.
type GroupingNotEnabledError struct {
	Code   string
	Groups []string
}

func (e *GroupingNotEnabledError) Error() string {
	return fmt.Sprintf("%s - requires the following groups that are not enabled for ecommerce: %s",
		e.Code, strings.Join(e.Groups, ", "))
}

func (e *GroupingNotEnabledError) Unwrap() error { return ErrGroupingNotEnabled }

// ItemError wraps a failure for a single remote record so that result lists
// keep the record identity next to the cause.
type ItemError struct {
	ItemID string
	Err    error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %s: %v", e.ItemID, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

// IsSoft reports whether err only demotes the affected item.
func IsSoft(err error) bool {
	return errors.Is(err, ErrDimensionNotEnabled) || errors.Is(err, ErrGroupingNotEnabled)
}

// ErrorCode returns a stable machine-readable code for err.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfigMissing):
		return "CONFIG_MISSING"
	case errors.Is(err, ErrRemoteTimeUnavailable):
		return "REMOTE_TIME_UNAVAILABLE"
	case errors.Is(err, ErrRemoteFetchFailed):
		return "REMOTE_FETCH_FAILED"
	case errors.Is(err, ErrDimensionNotEnabled):
		return "DIMENSION_NOT_ENABLED"
	case errors.Is(err, ErrGroupingNotEnabled):
		return "GROUPING_NOT_ENABLED"
	case errors.Is(err, ErrTaxonomyMissing):
		return "TAXONOMY_MISSING"
	case errors.Is(err, ErrTermMissing):
		return "TERM_MISSING"
	case errors.Is(err, ErrCustomerResolutionFailed):
		return "CUSTOMER_RESOLUTION_FAILED"
	case errors.Is(err, ErrGiftCardNumberUnresolved):
		return "GIFT_CARD_NUMBER_UNRESOLVED"
	case errors.Is(err, ErrOrderNotSubmittable):
		return "ORDER_NOT_SUBMITTABLE"
	case errors.Is(err, ErrValidation):
		return "VALIDATION_ERROR"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	default:
		return "INTERNAL_ERROR"
	}
}
