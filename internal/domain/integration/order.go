package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Storefront orders
// ---------------------------------------------------------------------------

// Payment methods with special handling
const (
	PaymentMethodAccountCredit = "account_credit"
	PaymentMethodQuote         = "quote"
)

// ShipViaLocalPickup marks an order collected in store
const ShipViaLocalPickup = "Local Pickup"

// Address is a billing or shipping address of a storefront order
type Address struct {
	FirstName string
	LastName  string
	Company   string
	Address1  string
	Address2  string
	City      string
	State     string
	Country   string
	Postcode  string
	Email     string
	Phone     string
}

// IsZero reports whether no address line was provided
func (a *Address) IsZero() bool {
	return a == nil || (a.FirstName == "" && a.LastName == "" && a.Address1 == "" && a.City == "")
}

// OrderLine is one product line of a storefront order
type OrderLine struct {
	ID        int64
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Name      string
	Quantity  decimal.Decimal
	// Subtotal is the line total before discounts
	Subtotal decimal.Decimal
	// GiftCardAmount is set on gift card purchase lines
	GiftCardAmount *decimal.Decimal
}

// IsGiftCard reports whether the line purchases a gift card
func (l *OrderLine) IsGiftCard() bool {
	return l.GiftCardAmount != nil
}

// Order is a storefront order to be submitted to the remote system
type Order struct {
	// ID is the storefront order number, sent as weborderid
	ID int64
	// CustomerID is the registered storefront customer, nil for guests
	CustomerID *uuid.UUID
	Billing    Address
	Shipping   *Address

	PaymentMethod      string
	PaymentMethodTitle string
	TransactionID      string
	ShippingMethodID   string

	Subtotal      decimal.Decimal
	TotalTax      decimal.Decimal
	ShippingTotal decimal.Decimal
	Total         decimal.Decimal
	// PointsRedeemed is the amount paid with loyalty points
	PointsRedeemed decimal.Decimal
	// GiftCardsRedeemed is the amount paid with gift cards
	GiftCardsRedeemed decimal.Decimal
	Paid              bool
	// IsRefund marks refund documents, which cannot be submitted
	IsRefund bool

	Lines []OrderLine

	SubmittedAt   *time.Time
	SubmitStatus  string
	SubmitMessage string
	CreatedAt     time.Time
}

// ShippingAddress returns the shipping address, defaulting to billing
func (o *Order) ShippingAddress() Address {
	if o.Shipping == nil || o.Shipping.IsZero() {
		return o.Billing
	}
	return *o.Shipping
}

// Customer is a registered storefront customer
type Customer struct {
	ID        uuid.UUID
	Email     string
	FirstName string
	LastName  string
}

// Submission markers recorded on orders
const (
	SubmitStatusSuccess = "SUCCESS"
	SubmitStatusFailed  = "FAILED"
)

// OrderRepository reads storefront orders and records submissions.
type OrderRepository interface {
	// GetOrder returns an order with its lines or ErrNotFound
	GetOrder(ctx context.Context, id int64) (*Order, error)
	// SavePayload stores the submitted payload for audit
	SavePayload(ctx context.Context, orderID int64, payload []byte) error
	// MarkSubmitted records the submission outcome
	MarkSubmitted(ctx context.Context, orderID int64, status, message string) error
	// GiftCardNumber returns the provisioned gift card number of a line, "" while pending
	GiftCardNumber(ctx context.Context, orderID, lineID int64) (string, error)
}

// CustomerCache maps storefront customers to remote customer records.
type CustomerCache interface {
	// Get returns the cached remote customer for a storefront customer, nil when absent
	Get(ctx context.Context, customerID uuid.UUID) (*RemoteCustomer, error)
	// Set caches the remote customer for a storefront customer
	Set(ctx context.Context, customerID uuid.UUID, customer *RemoteCustomer) error
	// Delete removes a cached mapping
	Delete(ctx context.Context, customerID uuid.UUID) error
}

// ProductCacheInvalidator drops derived product caches after catalog writes.
type ProductCacheInvalidator interface {
	// InvalidateProduct drops caches for one product (variant children, prices)
	InvalidateProduct(ctx context.Context, productID uuid.UUID) error
	// InvalidateAll drops product list caches
	InvalidateAll(ctx context.Context) error
}

// ---------------------------------------------------------------------------
// Remote order payload
// ---------------------------------------------------------------------------

// PayloadAddress is an address block of the order payload
type PayloadAddress struct {
	Name          string `json:"name"`
	Surname       string `json:"surname"`
	CompanyName   string `json:"companyName"`
	Address1      string `json:"address1"`
	Address2      string `json:"address2"`
	City          string `json:"city"`
	ProvinceState string `json:"provinceState"`
	Country       string `json:"country"`
	ZipPostalCode string `json:"zipPostalCode"`
}

// PayloadPayment is the payment block of the order payload
type PayloadPayment struct {
	PaymentMethod       string          `json:"paymentMethod"`
	Message             string          `json:"message"`
	AuthorizationNumber string          `json:"AuthorizationNumber,omitempty"`
	ReferenceNumber     string          `json:"ReferenceNumber,omitempty"`
	Status              string          `json:"status"`
	SubTotal            decimal.Decimal `json:"subTotal"`
	Tax                 decimal.Decimal `json:"tax"`
	Shipping            decimal.Decimal `json:"shipping"`
	Total               decimal.Decimal `json:"total"`
	TotalPaid           decimal.Decimal `json:"totalPaid"`
	TotalDue            decimal.Decimal `json:"totalDue"`
	PointsPaid          decimal.Decimal `json:"pointsPaid"`
	GiftCardPaid        decimal.Decimal `json:"giftCardPaid"`
}

// PayloadItem is one line of the order payload
type PayloadItem struct {
	ProductID      int             `json:"productId"`
	Code           string          `json:"code"`
	Price          decimal.Decimal `json:"price"`
	Discount       decimal.Decimal `json:"discount"`
	Quantity       int64           `json:"quantity"`
	Weight         decimal.Decimal `json:"weight"`
	GiftCardNumber string          `json:"giftCardNumber,omitempty"`
	GridID1        *int            `json:"gridId1"`
	GridID2        *int            `json:"gridId2"`
	GridID3        *int            `json:"gridId3"`
	GridID4        *int            `json:"gridId4"`
	DimensionID1   *int            `json:"dimensionId1"`
	DimensionID2   *int            `json:"dimensionId2"`
	DimensionID3   *int            `json:"dimensionId3"`
	DimensionID4   *int            `json:"dimensionId4"`
}

// SetGrids copies the populated grid/dimension pairs of a variant.
func (i *PayloadItem) SetGrids(grids GridAssignment) {
	gridPtrs := []**int{&i.GridID1, &i.GridID2, &i.GridID3, &i.GridID4}
	dimPtrs := []**int{&i.DimensionID1, &i.DimensionID2, &i.DimensionID3, &i.DimensionID4}
	for n, slot := range grids {
		if slot == nil {
			continue
		}
		if slot.GridID != 0 {
			g := slot.GridID
			*gridPtrs[n] = &g
		}
		if slot.DimensionID != 0 {
			d := slot.DimensionID
			*dimPtrs[n] = &d
		}
	}
}

// OrderPayload is the remote sales transaction built from a storefront order
type OrderPayload struct {
	Username        string         `json:"username"`
	StoreID         int            `json:"storeId"`
	Items           []PayloadItem  `json:"items"`
	WebOrderID      int64          `json:"weborderid"`
	ShipVia         string         `json:"shipVia,omitempty"`
	Quote           bool           `json:"quote,omitempty"`
	Payment         PayloadPayment `json:"payment"`
	ShippingAddress PayloadAddress `json:"shippingAddress"`
	BillingAddress  PayloadAddress `json:"billingAddress"`
}

// PayloadHook adjusts an assembled payload before it is transmitted.
type PayloadHook func(ctx context.Context, order *Order, payload *OrderPayload) error
