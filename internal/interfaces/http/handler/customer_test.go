package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/integration"
	"github.com/storesync/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestCustomerHandler_Register(t *testing.T) {
	registrar := new(MockCustomerRegistrar)
	h := NewCustomerHandler(registrar)
	r := gin.New()
	r.POST("/customers", h.Register)

	id := uuid.New()
	registrar.On("ProcessNewCustomer", mock.Anything, &integration.Customer{
		ID: id, Email: "jane@example.com", FirstName: "Jane",
	}).Return(&integration.RemoteCustomer{
		ID: 88, Username: "jane@example.com", Password: "AralcoWeb", Name: "Jane", Surname: "Unknown",
	}, nil).Once()

	w, resp := perform(t, r, http.MethodPost, "/customers", map[string]any{
		"id": id.String(), "email": "jane@example.com", "first_name": "Jane",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "AralcoWeb")

	var got dto.CustomerResponse
	decodeData(t, resp, &got)
	assert.Equal(t, 88, got.RemoteID)
	assert.Equal(t, "Unknown", got.Surname)
	registrar.AssertExpectations(t)
}

func TestCustomerHandler_RegisterErrors(t *testing.T) {
	registrar := new(MockCustomerRegistrar)
	r := gin.New()
	r.POST("/customers", NewCustomerHandler(registrar).Register)

	w, resp := perform(t, r, http.MethodPost, "/customers", map[string]any{"id": uuid.NewString()})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "email", resp.Error.Details[0].Field)

	registrar.On("ProcessNewCustomer", mock.Anything, mock.Anything).Return(nil, integration.ErrRemoteFetchFailed).Once()
	w, resp = perform(t, r, http.MethodPost, "/customers", map[string]any{"id": uuid.NewString(), "email": "a@b.co"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, dto.ErrCodeRemoteUnavailable, resp.Error.Code)
}
