package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storesync/backend/internal/domain/integration"
	"gorm.io/datatypes"
)

// OrderModel is the persistence model for a storefront order awaiting
// submission to the POS
type OrderModel struct {
	ID                 int64                                    `gorm:"primaryKey;autoIncrement:false"`
	CustomerID         *uuid.UUID                               `gorm:"type:uuid;index"`
	Billing            datatypes.JSONType[integration.Address]  `gorm:"type:jsonb;not null"`
	Shipping           datatypes.JSONType[*integration.Address] `gorm:"type:jsonb;not null"`
	PaymentMethod      string                                   `gorm:"type:varchar(100)"`
	PaymentMethodTitle string                                   `gorm:"type:varchar(255)"`
	TransactionID      string                                   `gorm:"type:varchar(255)"`
	ShippingMethodID   string                                   `gorm:"type:varchar(100)"`
	Subtotal           decimal.Decimal                          `gorm:"type:decimal(18,4);not null"`
	TotalTax           decimal.Decimal                          `gorm:"type:decimal(18,4);not null"`
	ShippingTotal      decimal.Decimal                          `gorm:"type:decimal(18,4);not null"`
	Total              decimal.Decimal                          `gorm:"type:decimal(18,4);not null"`
	PointsRedeemed     decimal.Decimal                          `gorm:"type:decimal(18,4);not null"`
	GiftCardsRedeemed  decimal.Decimal                          `gorm:"type:decimal(18,4);not null"`
	Paid               bool                                     `gorm:"not null;default:false"`
	IsRefund           bool                                     `gorm:"not null;default:false"`
	SubmittedPayload   datatypes.JSON                           `gorm:"type:jsonb"`
	SubmittedAt        *time.Time
	SubmitStatus       string           `gorm:"type:varchar(20);not null;default:'';index"`
	SubmitMessage      string           `gorm:"type:text;not null;default:''"`
	Lines              []OrderLineModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time        `gorm:"not null"`
	UpdatedAt          time.Time        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order
func (m *OrderModel) ToDomain() *integration.Order {
	o := &integration.Order{
		ID:                 m.ID,
		CustomerID:         m.CustomerID,
		Billing:            m.Billing.Data(),
		Shipping:           m.Shipping.Data(),
		PaymentMethod:      m.PaymentMethod,
		PaymentMethodTitle: m.PaymentMethodTitle,
		TransactionID:      m.TransactionID,
		ShippingMethodID:   m.ShippingMethodID,
		Subtotal:           m.Subtotal,
		TotalTax:           m.TotalTax,
		ShippingTotal:      m.ShippingTotal,
		Total:              m.Total,
		PointsRedeemed:     m.PointsRedeemed,
		GiftCardsRedeemed:  m.GiftCardsRedeemed,
		Paid:               m.Paid,
		IsRefund:           m.IsRefund,
		SubmittedAt:        m.SubmittedAt,
		SubmitStatus:       m.SubmitStatus,
		SubmitMessage:      m.SubmitMessage,
		Lines:              make([]integration.OrderLine, len(m.Lines)),
		CreatedAt:          m.CreatedAt,
	}
	for i := range m.Lines {
		o.Lines[i] = m.Lines[i].ToDomain()
	}
	return o
}

// OrderModelFromDomain creates a new persistence model from a domain Order
func OrderModelFromDomain(o *integration.Order) *OrderModel {
	m := &OrderModel{
		ID:                 o.ID,
		CustomerID:         o.CustomerID,
		Billing:            datatypes.NewJSONType(o.Billing),
		Shipping:           datatypes.NewJSONType(o.Shipping),
		PaymentMethod:      o.PaymentMethod,
		PaymentMethodTitle: o.PaymentMethodTitle,
		TransactionID:      o.TransactionID,
		ShippingMethodID:   o.ShippingMethodID,
		Subtotal:           o.Subtotal,
		TotalTax:           o.TotalTax,
		ShippingTotal:      o.ShippingTotal,
		Total:              o.Total,
		PointsRedeemed:     o.PointsRedeemed,
		GiftCardsRedeemed:  o.GiftCardsRedeemed,
		Paid:               o.Paid,
		IsRefund:           o.IsRefund,
		SubmittedAt:        o.SubmittedAt,
		SubmitStatus:       o.SubmitStatus,
		SubmitMessage:      o.SubmitMessage,
		Lines:              make([]OrderLineModel, len(o.Lines)),
		CreatedAt:          o.CreatedAt,
	}
	for i := range o.Lines {
		m.Lines[i] = OrderLineModelFromDomain(o.ID, &o.Lines[i])
	}
	return m
}

// OrderLineModel is one product line of an order
type OrderLineModel struct {
	ID             int64            `gorm:"primaryKey;autoIncrement:false"`
	OrderID        int64            `gorm:"not null;index"`
	ProductID      uuid.UUID        `gorm:"type:uuid;not null"`
	VariantID      *uuid.UUID       `gorm:"type:uuid"`
	Name           string           `gorm:"type:varchar(255)"`
	Quantity       decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	Subtotal       decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	GiftCardAmount *decimal.Decimal `gorm:"type:decimal(18,4)"`
	GiftCardNumber string           `gorm:"type:varchar(100);not null;default:''"`
}

// TableName returns the table name for GORM
func (OrderLineModel) TableName() string {
	return "order_lines"
}

// ToDomain converts the persistence model to a domain OrderLine
func (m *OrderLineModel) ToDomain() integration.OrderLine {
	return integration.OrderLine{
		ID:             m.ID,
		ProductID:      m.ProductID,
		VariantID:      m.VariantID,
		Name:           m.Name,
		Quantity:       m.Quantity,
		Subtotal:       m.Subtotal,
		GiftCardAmount: m.GiftCardAmount,
	}
}

// OrderLineModelFromDomain creates a new persistence model from a domain OrderLine
func OrderLineModelFromDomain(orderID int64, l *integration.OrderLine) OrderLineModel {
	return OrderLineModel{
		ID:             l.ID,
		OrderID:        orderID,
		ProductID:      l.ProductID,
		VariantID:      l.VariantID,
		Name:           l.Name,
		Quantity:       l.Quantity,
		Subtotal:       l.Subtotal,
		GiftCardAmount: l.GiftCardAmount,
	}
}
