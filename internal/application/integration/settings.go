package integration

import (
	"time"

	"github.com/storesync/backend/internal/domain/integration"
)

// Settings holds the business configuration the sync reads. It is built by
// the caller from the application config and never mutated by a run.
type Settings struct {
	// StoreID is the remote store whose stock is mirrored and that receives orders
	StoreID int
	// TenderCode is the remote tender code used in the card payment method
	TenderCode string
	// BackordersAllowed turns on backorders for out of stock items
	BackordersAllowed bool
	// OrderEnabled turns on order submission
	OrderEnabled bool
	// QuoteMode submits every order as a quote
	QuoteMode bool
	// ReferenceNumberEnabled sends the payment transaction id as auth/reference number
	ReferenceNumberEnabled bool
	// DefaultOrderEmail is the remote username used when an order has no email
	DefaultOrderEmail string
	// ShippingProductCodes overrides the remote shipping placeholder codes when set
	ShippingProductCodes []string
	// GiftCardProductCode overrides the remote gift card code when set
	GiftCardProductCode string
	// LocalPickupMethodID is the storefront shipping method id of in-store pickup
	LocalPickupMethodID string
	// PickupStoreID is the remote store that fulfils local pickup orders
	PickupStoreID int
	// Location is the storefront timezone used for sale end dates
	Location *time.Location
	// GiftCardRetry bounds the polling for provisioned gift card numbers
	GiftCardRetry RetryPolicy
}

// backorderPolicy returns the policy written when stock is managed.
func (s Settings) backorderPolicy() integration.BackorderPolicy {
	if s.BackordersAllowed {
		return integration.BackordersNotify
	}
	return integration.BackordersNo
}

func (s Settings) location() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}
