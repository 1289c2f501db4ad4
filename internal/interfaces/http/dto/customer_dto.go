package dto

import (
	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/integration"
)

// CustomerRequest registers a new storefront customer remotely
type CustomerRequest struct {
	ID        uuid.UUID `json:"id" binding:"required"`
	Email     string    `json:"email" binding:"required,email,max=255"`
	FirstName string    `json:"first_name" binding:"max=100"`
	LastName  string    `json:"last_name" binding:"max=100"`
}

// ToDomain converts the request into a storefront customer
func (r *CustomerRequest) ToDomain() *integration.Customer {
	return &integration.Customer{
		ID:        r.ID,
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
	}
}

// CustomerResponse is the remote customer a storefront customer maps to
type CustomerResponse struct {
	RemoteID int    `json:"remote_id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Email    string `json:"email,omitempty"`
}

// ToCustomerResponse drops credentials from a remote customer
func ToCustomerResponse(c *integration.RemoteCustomer) CustomerResponse {
	return CustomerResponse{
		RemoteID: c.ID,
		Username: c.Username,
		Name:     c.Name,
		Surname:  c.Surname,
		Email:    c.Email,
	}
}
