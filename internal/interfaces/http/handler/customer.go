package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/storesync/backend/internal/domain/integration"
	"github.com/storesync/backend/internal/interfaces/http/dto"
	"github.com/storesync/backend/internal/interfaces/http/middleware"
)

// CustomerRegistrar creates remote customers for new storefront customers
type CustomerRegistrar interface {
	ProcessNewCustomer(ctx context.Context, customer *integration.Customer) (*integration.RemoteCustomer, error)
}

// CustomerHandler handles storefront customer registration
type CustomerHandler struct {
	BaseHandler
	registrar CustomerRegistrar
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(registrar CustomerRegistrar) *CustomerHandler {
	return &CustomerHandler{registrar: registrar}
}

// Register maps a new storefront customer to a remote customer, creating
// the remote record when none exists
//
// POST /customers
func (h *CustomerHandler) Register(c *gin.Context) {
	var req dto.CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	remote, err := h.registrar.ProcessNewCustomer(c.Request.Context(), req.ToDomain())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToCustomerResponse(remote))
}
