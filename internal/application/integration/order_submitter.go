package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/storesync/backend/internal/domain/integration"
	"github.com/storesync/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Payment statuses sent to the remote system
const (
	paymentStatusPaid  = "1"
	paymentStatusQuote = "quote"
)

// OrderSubmitter turns storefront orders into remote sales transactions.
type OrderSubmitter struct {
	remote    integration.RemoteCatalog
	orders    integration.OrderRepository
	products  integration.ProductStore
	customers *CustomerService
	settings  Settings
	hooks     []integration.PayloadHook
	logger    *zap.Logger
}

// NewOrderSubmitter creates a new OrderSubmitter
func NewOrderSubmitter(
	remote integration.RemoteCatalog,
	orders integration.OrderRepository,
	products integration.ProductStore,
	customers *CustomerService,
	settings Settings,
	logger *zap.Logger,
) *OrderSubmitter {
	return &OrderSubmitter{
		remote:    remote,
		orders:    orders,
		products:  products,
		customers: customers,
		settings:  settings,
		logger:    logger,
	}
}

// WithHook appends a hook run on every assembled payload before it is
// returned or transmitted.
func (s *OrderSubmitter) WithHook(hook integration.PayloadHook) *OrderSubmitter {
	s.hooks = append(s.hooks, hook)
	return s
}

// ProcessOrder builds the payload of an order and, unless justReturn is set,
// submits it. It returns (nil, false, nil) when order submission is turned
// off. A remote submission error is returned unchanged.
func (s *OrderSubmitter) ProcessOrder(ctx context.Context, orderID int64, justReturn bool) (*integration.OrderPayload, bool, error) {
	if !s.settings.OrderEnabled && !justReturn {
		return nil, false, nil
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "orders", "process",
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, orderID),
		telemetry.WithAttribute("order.just_return", justReturn),
	)
	defer span.End()

	payload, submitted, err := s.processOrder(ctx, orderID, justReturn)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, false, err
	}
	telemetry.SetOK(span)
	return payload, submitted, nil
}

func (s *OrderSubmitter) processOrder(ctx context.Context, orderID int64, justReturn bool) (*integration.OrderPayload, bool, error) {

	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, false, err
	}
	if order.IsRefund {
		return nil, false, fmt.Errorf("%w: order %d is a refund", integration.ErrOrderNotSubmittable, orderID)
	}

	log := s.logger.With(zap.Int64("order_id", orderID))

	customer, created, err := s.customers.ResolveForOrder(ctx, order)
	if err != nil {
		return nil, false, err
	}
	if !created && !justReturn {
		if err := s.customers.PushBilling(ctx, customer, order.Billing); err != nil {
			log.Warn("failed to update remote customer", zap.String("username", customer.Username), zap.Error(err))
		}
	}

	payload := &integration.OrderPayload{
		Username:        customer.Username,
		StoreID:         s.settings.StoreID,
		WebOrderID:      order.ID,
		Payment:         s.buildPayment(order),
		BillingAddress:  payloadAddress(order.Billing),
		ShippingAddress: payloadAddress(order.ShippingAddress()),
	}
	if s.isQuote(order) {
		payload.Quote = true
	}
	if s.settings.LocalPickupMethodID != "" && order.ShippingMethodID == s.settings.LocalPickupMethodID {
		if s.settings.PickupStoreID != 0 {
			payload.StoreID = s.settings.PickupStoreID
		}
		payload.ShipVia = integration.ShipViaLocalPickup
	}

	items, err := s.buildItems(ctx, order)
	if err != nil {
		return nil, false, err
	}
	payload.Items = items

	for _, hook := range s.hooks {
		if err := hook(ctx, order, payload); err != nil {
			return nil, false, fmt.Errorf("payload hook: %w", err)
		}
	}

	if justReturn {
		return payload, true, nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, false, fmt.Errorf("encode payload: %w", err)
	}
	if err := s.orders.SavePayload(ctx, order.ID, raw); err != nil {
		return nil, false, err
	}

	if err := s.remote.CreateOrder(ctx, payload); err != nil {
		if merr := s.orders.MarkSubmitted(ctx, order.ID, integration.SubmitStatusFailed, err.Error()); merr != nil {
			log.Error("failed to record submission failure", zap.Error(merr))
		}
		log.Error("order submission failed", zap.Error(err))
		return nil, false, err
	}

	if err := s.orders.MarkSubmitted(ctx, order.ID, integration.SubmitStatusSuccess, ""); err != nil {
		log.Error("failed to record submission", zap.Error(err))
	}
	log.Info("order submitted", zap.Int("items", len(payload.Items)), zap.String("username", payload.Username))
	return payload, true, nil
}

func (s *OrderSubmitter) isQuote(order *integration.Order) bool {
	return s.settings.QuoteMode || order.PaymentMethod == integration.PaymentMethodQuote
}

// buildPayment computes the payment block. Points and gift card redemptions
// are tendered separately and reduce the amount paid by card.
func (s *OrderSubmitter) buildPayment(order *integration.Order) integration.PayloadPayment {
	p := integration.PayloadPayment{
		PaymentMethod: "CC-" + s.settings.TenderCode + "-****************",
		Message:       order.PaymentMethodTitle,
		Status:        paymentStatusPaid,
		SubTotal:      order.Subtotal,
		Tax:           order.TotalTax,
		Shipping:      order.ShippingTotal,
		Total:         order.Total,
		TotalPaid:     decimal.Zero,
		TotalDue:      decimal.Zero,
		PointsPaid:    order.PointsRedeemed,
		GiftCardPaid:  order.GiftCardsRedeemed,
	}

	if s.isQuote(order) {
		p.Status = paymentStatusQuote
		return p
	}

	tendered := order.Total.Sub(order.PointsRedeemed).Sub(order.GiftCardsRedeemed)
	if tendered.IsNegative() {
		tendered = decimal.Zero
	}
	if order.Paid {
		p.TotalPaid = tendered
	} else {
		p.TotalDue = tendered
	}

	if order.PaymentMethod != integration.PaymentMethodAccountCredit &&
		s.settings.ReferenceNumberEnabled && order.TransactionID != "" {
		p.AuthorizationNumber = order.TransactionID
		p.ReferenceNumber = order.TransactionID
	}
	return p
}

func payloadAddress(a integration.Address) integration.PayloadAddress {
	return integration.PayloadAddress{
		Name:          a.FirstName,
		Surname:       a.LastName,
		CompanyName:   a.Company,
		Address1:      a.Address1,
		Address2:      a.Address2,
		City:          a.City,
		ProvinceState: a.State,
		Country:       a.Country,
		ZipPostalCode: a.Postcode,
	}
}

// ---------------------------------------------------------------------------
// Line items
// ---------------------------------------------------------------------------

func (s *OrderSubmitter) buildItems(ctx context.Context, order *integration.Order) ([]integration.PayloadItem, error) {
	items := make([]integration.PayloadItem, 0, len(order.Lines))

	var giftCardCode string
	for i := range order.Lines {
		line := &order.Lines[i]

		product, err := s.products.GetProduct(ctx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line.ID, err)
		}
		item := integration.PayloadItem{
			ProductID: product.ExternalID,
			Code:      product.SKU,
			Discount:  decimal.Zero,
			Weight:    decimal.Zero,
			Quantity:  LineQuantity(line.Quantity),
			Price:     UnitPrice(line.Subtotal, line.Quantity, product.SellByDecimals),
		}

		if line.VariantID != nil {
			variant, err := s.products.GetVariant(ctx, *line.VariantID)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line.ID, err)
			}
			if variant.SKU != "" {
				item.Code = variant.SKU
			}
			item.SetGrids(variant.Grids)
		}

		if line.IsGiftCard() {
			if giftCardCode == "" {
				if giftCardCode, err = s.giftCardCode(ctx); err != nil {
					return nil, err
				}
			}
			item.Code = giftCardCode
			item.Price = line.GiftCardAmount.Round(2)
			number, err := s.giftCardNumber(ctx, order.ID, line.ID)
			if err != nil {
				return nil, err
			}
			item.GiftCardNumber = number
		}

		items = append(items, item)
	}
	return items, nil
}

func (s *OrderSubmitter) giftCardCode(ctx context.Context) (string, error) {
	if s.settings.GiftCardProductCode != "" {
		return s.settings.GiftCardProductCode, nil
	}
	code, err := s.remote.GetSetting(ctx, integration.SettingGiftCardProductCode)
	if err != nil {
		return "", err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return "", fmt.Errorf("%w: gift card product code", integration.ErrConfigMissing)
	}
	return code, nil
}

// giftCardNumber polls for the provisioned card number of a gift card line.
func (s *OrderSubmitter) giftCardNumber(ctx context.Context, orderID, lineID int64) (string, error) {
	var number string
	span := trace.SpanFromContext(ctx)
	err := s.settings.GiftCardRetry.Do(ctx, func(attempt int) error {
		telemetry.AddEvent(span, "gift_card_poll", "attempt", attempt, "order.line_id", lineID)
		n, err := s.orders.GiftCardNumber(ctx, orderID, lineID)
		if err != nil {
			return err
		}
		if n == "" {
			return errRetryPending
		}
		number = n
		return nil
	}, func(err error) bool {
		return errors.Is(err, errRetryPending)
	})
	if errors.Is(err, errRetryPending) {
		return "", fmt.Errorf("%w: order %d line %d", integration.ErrGiftCardNumberUnresolved, orderID, lineID)
	}
	return number, err
}

// LineQuantity rounds a line quantity to an integer of at least one.
func LineQuantity(q decimal.Decimal) int64 {
	n := q.Round(0).IntPart()
	if n < 1 {
		return 1
	}
	return n
}

// UnitPrice returns subtotal per unit rounded to 2 plus the sell-by decimal
// places.
func UnitPrice(subtotal, quantity decimal.Decimal, sellByDecimals int) decimal.Decimal {
	places := int32(2 + sellByDecimals)
	if quantity.IsZero() {
		return subtotal.Round(places)
	}
	return subtotal.Div(quantity).Round(places)
}
