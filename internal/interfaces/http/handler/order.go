package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/storesync/backend/internal/domain/integration"
	"github.com/storesync/backend/internal/infrastructure/logger"
	"github.com/storesync/backend/internal/interfaces/http/dto"
	"github.com/storesync/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// OrderProcessor builds and submits remote order payloads
type OrderProcessor interface {
	ProcessOrder(ctx context.Context, orderID int64, justReturn bool) (*integration.OrderPayload, bool, error)
}

// OrderStore stores ingested storefront orders
type OrderStore interface {
	GetOrder(ctx context.Context, id int64) (*integration.Order, error)
	SaveOrder(ctx context.Context, order *integration.Order) error
	SetGiftCardNumber(ctx context.Context, orderID, lineID int64, number string) error
}

// OrderHandler handles order ingestion and submission
type OrderHandler struct {
	BaseHandler
	processor OrderProcessor
	store     OrderStore
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(processor OrderProcessor, store OrderStore) *OrderHandler {
	return &OrderHandler{processor: processor, store: store}
}

// Ingest stores a storefront order so it can be submitted
//
// POST /orders
func (h *OrderHandler) Ingest(c *gin.Context) {
	var req dto.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	order := req.ToDomain()
	if err := h.store.SaveOrder(c.Request.Context(), order); err != nil {
		h.HandleError(c, err)
		return
	}
	logger.GetGinLogger(c).Info("Order ingested", zap.Int64("order_id", order.ID), zap.Int("lines", len(order.Lines)))
	h.Created(c, dto.ToOrderStatusResponse(order))
}

// Get reports the submission state of an order
//
// GET /orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	var req dto.OrderIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	order, err := h.store.GetOrder(c.Request.Context(), req.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToOrderStatusResponse(order))
}

// Submit builds the payload of an order and sends it to the remote system.
// Submitted is false when order submission is turned off.
//
// POST /orders/:id/submit
func (h *OrderHandler) Submit(c *gin.Context) {
	h.process(c, false)
}

// Preview builds the payload of an order without sending it
//
// GET /orders/:id/preview
func (h *OrderHandler) Preview(c *gin.Context) {
	h.process(c, true)
}

func (h *OrderHandler) process(c *gin.Context, justReturn bool) {
	var req dto.OrderIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	payload, ok, err := h.processor.ProcessOrder(c.Request.Context(), req.ID, justReturn)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.OrderSubmitResponse{
		OrderID:   req.ID,
		Submitted: ok && !justReturn,
		Preview:   justReturn,
		Payload:   payload,
	})
}

// SetGiftCardNumber records the number provisioned for a gift card line
//
// PUT /orders/:id/lines/:line_id/gift-card
func (h *OrderHandler) SetGiftCardNumber(c *gin.Context) {
	var uri dto.OrderLineIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	var req dto.GiftCardNumberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	if err := h.store.SetGiftCardNumber(c.Request.Context(), uri.ID, uri.LineID, req.Number); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
