package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storesync/backend/internal/domain/integration"
)

// AddressRequest is a billing or shipping address
type AddressRequest struct {
	FirstName string `json:"first_name" binding:"max=100"`
	LastName  string `json:"last_name" binding:"max=100"`
	Company   string `json:"company" binding:"max=200"`
	Address1  string `json:"address_1" binding:"max=255"`
	Address2  string `json:"address_2" binding:"max=255"`
	City      string `json:"city" binding:"max=100"`
	State     string `json:"state" binding:"max=100"`
	Country   string `json:"country" binding:"max=100"`
	Postcode  string `json:"postcode" binding:"max=20"`
	Email     string `json:"email" binding:"omitempty,email"`
	Phone     string `json:"phone" binding:"max=50"`
}

func (a AddressRequest) toDomain() integration.Address {
	return integration.Address{
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Company:   a.Company,
		Address1:  a.Address1,
		Address2:  a.Address2,
		City:      a.City,
		State:     a.State,
		Country:   a.Country,
		Postcode:  a.Postcode,
		Email:     a.Email,
		Phone:     a.Phone,
	}
}

// OrderLineRequest is one product line of an ingested order
type OrderLineRequest struct {
	ID             int64            `json:"id" binding:"required,gt=0"`
	ProductID      uuid.UUID        `json:"product_id" binding:"required"`
	VariantID      *uuid.UUID       `json:"variant_id"`
	Name           string           `json:"name" binding:"max=255"`
	Quantity       decimal.Decimal  `json:"quantity"`
	Subtotal       decimal.Decimal  `json:"subtotal"`
	GiftCardAmount *decimal.Decimal `json:"gift_card_amount"`
}

// OrderRequest is a storefront order pushed to the admin API
type OrderRequest struct {
	ID                 int64              `json:"id" binding:"required,gt=0"`
	CustomerID         *uuid.UUID         `json:"customer_id"`
	Billing            AddressRequest     `json:"billing"`
	Shipping           *AddressRequest    `json:"shipping"`
	PaymentMethod      string             `json:"payment_method" binding:"required,max=100"`
	PaymentMethodTitle string             `json:"payment_method_title" binding:"max=255"`
	TransactionID      string             `json:"transaction_id" binding:"max=255"`
	ShippingMethodID   string             `json:"shipping_method_id" binding:"max=100"`
	Subtotal           decimal.Decimal    `json:"subtotal"`
	TotalTax           decimal.Decimal    `json:"total_tax"`
	ShippingTotal      decimal.Decimal    `json:"shipping_total"`
	Total              decimal.Decimal    `json:"total"`
	PointsRedeemed     decimal.Decimal    `json:"points_redeemed"`
	GiftCardsRedeemed  decimal.Decimal    `json:"gift_cards_redeemed"`
	Paid               bool               `json:"paid"`
	IsRefund           bool               `json:"is_refund"`
	Lines              []OrderLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ToDomain converts the request into a storefront order
func (r *OrderRequest) ToDomain() *integration.Order {
	order := &integration.Order{
		ID:                 r.ID,
		CustomerID:         r.CustomerID,
		Billing:            r.Billing.toDomain(),
		PaymentMethod:      r.PaymentMethod,
		PaymentMethodTitle: r.PaymentMethodTitle,
		TransactionID:      r.TransactionID,
		ShippingMethodID:   r.ShippingMethodID,
		Subtotal:           r.Subtotal,
		TotalTax:           r.TotalTax,
		ShippingTotal:      r.ShippingTotal,
		Total:              r.Total,
		PointsRedeemed:     r.PointsRedeemed,
		GiftCardsRedeemed:  r.GiftCardsRedeemed,
		Paid:               r.Paid,
		IsRefund:           r.IsRefund,
		Lines:              make([]integration.OrderLine, 0, len(r.Lines)),
	}
	if r.Shipping != nil {
		shipping := r.Shipping.toDomain()
		order.Shipping = &shipping
	}
	for _, l := range r.Lines {
		order.Lines = append(order.Lines, integration.OrderLine{
			ID:             l.ID,
			ProductID:      l.ProductID,
			VariantID:      l.VariantID,
			Name:           l.Name,
			Quantity:       l.Quantity,
			Subtotal:       l.Subtotal,
			GiftCardAmount: l.GiftCardAmount,
		})
	}
	return order
}

// OrderIDRequest binds the order id path parameter
type OrderIDRequest struct {
	ID int64 `uri:"id" binding:"required,gt=0"`
}

// OrderLineIDRequest binds the order and line id path parameters
type OrderLineIDRequest struct {
	ID     int64 `uri:"id" binding:"required,gt=0"`
	LineID int64 `uri:"line_id" binding:"required,gt=0"`
}

// GiftCardNumberRequest provisions the gift card number of a line
type GiftCardNumberRequest struct {
	Number string `json:"number" binding:"required,max=100"`
}

// OrderSubmitResponse is the outcome of a submission or preview
type OrderSubmitResponse struct {
	OrderID   int64                     `json:"order_id"`
	Submitted bool                      `json:"submitted"`
	Preview   bool                      `json:"preview,omitempty"`
	Payload   *integration.OrderPayload `json:"payload,omitempty"`
}

// OrderStatusResponse reports the submission state of a stored order
type OrderStatusResponse struct {
	OrderID       int64      `json:"order_id"`
	Lines         int        `json:"lines"`
	Refund        bool       `json:"refund"`
	SubmitStatus  string     `json:"submit_status,omitempty"`
	SubmitMessage string     `json:"submit_message,omitempty"`
	SubmittedAt   *time.Time `json:"submitted_at,omitempty"`
}

// ToOrderStatusResponse converts a stored order
func ToOrderStatusResponse(o *integration.Order) OrderStatusResponse {
	return OrderStatusResponse{
		OrderID:       o.ID,
		Lines:         len(o.Lines),
		Refund:        o.IsRefund,
		SubmitStatus:  o.SubmitStatus,
		SubmitMessage: o.SubmitMessage,
		SubmittedAt:   o.SubmittedAt,
	}
}
