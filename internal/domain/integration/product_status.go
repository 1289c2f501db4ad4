package integration

// ProductStatus is the publication status of a storefront product
type ProductStatus string

const (
	ProductStatusDraft   ProductStatus = "draft"
	ProductStatusPublish ProductStatus = "publish"
	ProductStatusPrivate ProductStatus = "private"
	ProductStatusTrash   ProductStatus = "trash"
)

// AllProductStatuses lists every status a product lookup may match
var AllProductStatuses = []ProductStatus{
	ProductStatusDraft,
	ProductStatusPublish,
	ProductStatusPrivate,
	ProductStatusTrash,
}

// IsValid returns true if the status is valid
func (s ProductStatus) IsValid() bool {
	switch s {
	case ProductStatusDraft, ProductStatusPublish, ProductStatusPrivate, ProductStatusTrash:
		return true
	default:
		return false
	}
}

// String returns the string representation of ProductStatus
func (s ProductStatus) String() string {
	return string(s)
}

// StatusEvent triggers a product status transition
type StatusEvent string

const (
	// StatusEventCreated fires when a product is first created locally
	StatusEventCreated StatusEvent = "CREATED"
	// StatusEventDimensionInvalid fires when a variable product references grids not mirrored locally
	StatusEventDimensionInvalid StatusEvent = "DIMENSION_INVALID"
	// StatusEventGroupingInvalid fires when a product references groupings not mirrored locally
	StatusEventGroupingInvalid StatusEvent = "GROUPING_INVALID"
	// StatusEventReconciled fires when a product (and its variants) reconciled without soft errors
	StatusEventReconciled StatusEvent = "RECONCILED"
	// StatusEventDisabled fires when the remote reports the product disabled
	StatusEventDisabled StatusEvent = "DISABLED"
)

// NextStatus returns the status a product moves to when event fires.
// Placeholder products (shipping and gift card codes) are kept private
// instead of being published.
func NextStatus(current ProductStatus, event StatusEvent, placeholder bool) ProductStatus {
	published := ProductStatusPublish
	if placeholder {
		published = ProductStatusPrivate
	}

	switch event {
	case StatusEventCreated, StatusEventReconciled:
		return published
	case StatusEventDimensionInvalid, StatusEventGroupingInvalid:
		return ProductStatusDraft
	case StatusEventDisabled:
		return ProductStatusTrash
	default:
		return current
	}
}
