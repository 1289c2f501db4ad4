package integration

import (
	"context"
	"fmt"
	"strings"

	"github.com/storesync/backend/internal/domain/integration"
	"go.uber.org/zap"
)

// Defaults written for customers registered from the storefront
const (
	defaultCustomerPassword = "AralcoWeb"
	defaultCustomerName     = "Unknown"
	defaultCustomerCompany  = "Web Registration"
	defaultCustomerAddress  = "Unknown"
)

// CustomerService maps storefront customers to remote customer records.
type CustomerService struct {
	remote   integration.RemoteCatalog
	cache    integration.CustomerCache
	settings Settings
	logger   *zap.Logger
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(remote integration.RemoteCatalog, cache integration.CustomerCache, settings Settings, logger *zap.Logger) *CustomerService {
	return &CustomerService{
		remote:   remote,
		cache:    cache,
		settings: settings,
		logger:   logger,
	}
}

// ProcessNewCustomer registers a storefront customer remotely and caches the
// mapping. An existing remote customer with the same username is reused.
func (s *CustomerService) ProcessNewCustomer(ctx context.Context, customer *integration.Customer) (*integration.RemoteCustomer, error) {
	email := strings.TrimSpace(customer.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: customer %s has no email", integration.ErrCustomerResolutionFailed, customer.ID)
	}

	existing, err := s.remote.GetCustomer(ctx, integration.CustomerFieldUsername, email)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		remote := NewRemoteCustomer(email, integration.Address{
			FirstName: customer.FirstName,
			LastName:  customer.LastName,
			Email:     email,
		})
		id, err := s.remote.CreateCustomer(ctx, remote)
		if err != nil {
			return nil, err
		}
		remote.ID = id
		remote.Password = ""
		existing = remote
	}

	s.remember(ctx, customer, existing)
	return existing, nil
}

// ResolveForOrder returns the remote customer of an order and whether it was
// created by this call. Lookup order: cached mapping, remote lookup by email,
// creation from the billing address followed by a read back.
func (s *CustomerService) ResolveForOrder(ctx context.Context, order *integration.Order) (*integration.RemoteCustomer, bool, error) {
	if order.CustomerID != nil && s.cache != nil {
		cached, err := s.cache.Get(ctx, *order.CustomerID)
		if err != nil {
			s.logger.Warn("customer cache read failed", zap.String("customer_id", order.CustomerID.String()), zap.Error(err))
		} else if cached != nil {
			return cached, false, nil
		}
	}

	email := strings.TrimSpace(order.Billing.Email)
	if email == "" {
		email = s.settings.DefaultOrderEmail
	}
	if email == "" {
		return nil, false, fmt.Errorf("%w: order %d has no email", integration.ErrCustomerResolutionFailed, order.ID)
	}

	found, err := s.remote.GetCustomer(ctx, integration.CustomerFieldUsername, email)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", integration.ErrCustomerResolutionFailed, err)
	}
	if found != nil {
		s.rememberOrder(ctx, order, found)
		return found, false, nil
	}

	if _, err := s.remote.CreateCustomer(ctx, NewRemoteCustomer(email, order.Billing)); err != nil {
		return nil, false, fmt.Errorf("%w: create: %v", integration.ErrCustomerResolutionFailed, err)
	}
	created, err := s.remote.GetCustomer(ctx, integration.CustomerFieldUsername, email)
	if err != nil {
		return nil, false, fmt.Errorf("%w: read back: %v", integration.ErrCustomerResolutionFailed, err)
	}
	if created == nil {
		return nil, false, fmt.Errorf("%w: customer %s created but not found", integration.ErrCustomerResolutionFailed, email)
	}

	s.rememberOrder(ctx, order, created)
	return created, true, nil
}

// PushBilling copies the order billing details onto the remote customer.
// The shared default order account is never overwritten.
func (s *CustomerService) PushBilling(ctx context.Context, customer *integration.RemoteCustomer, billing integration.Address) error {
	if s.settings.DefaultOrderEmail != "" && strings.EqualFold(customer.Username, s.settings.DefaultOrderEmail) {
		return nil
	}

	updated := *customer
	updated.Password = ""
	updated.Name = billing.FirstName
	updated.Surname = billing.LastName
	updated.CompanyName = billing.Company
	updated.Address1 = billing.Address1
	updated.Address2 = billing.Address2
	updated.City = billing.City
	updated.ProvinceState = billing.State
	updated.Country = billing.Country
	updated.ZipPostalCode = billing.Postcode
	updated.Phone = billing.Phone
	if billing.Email != "" {
		updated.Email = billing.Email
	}
	return s.remote.UpdateCustomer(ctx, &updated)
}

func (s *CustomerService) rememberOrder(ctx context.Context, order *integration.Order, remote *integration.RemoteCustomer) {
	if order.CustomerID == nil {
		return
	}
	s.remember(ctx, &integration.Customer{ID: *order.CustomerID}, remote)
}

func (s *CustomerService) remember(ctx context.Context, customer *integration.Customer, remote *integration.RemoteCustomer) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, customer.ID, remote); err != nil {
		s.logger.Warn("customer cache write failed", zap.String("customer_id", customer.ID.String()), zap.Error(err))
	}
}

// NewRemoteCustomer builds a remote customer from an address, filling the
// fields the remote system requires with defaults.
func NewRemoteCustomer(username string, addr integration.Address) *integration.RemoteCustomer {
	email := addr.Email
	if email == "" {
		email = username
	}
	return &integration.RemoteCustomer{
		Username:      username,
		Password:      defaultCustomerPassword,
		Name:          orDefault(addr.FirstName, defaultCustomerName),
		Surname:       orDefault(addr.LastName, defaultCustomerName),
		CompanyName:   orDefault(addr.Company, defaultCustomerCompany),
		Address1:      orDefault(addr.Address1, defaultCustomerAddress),
		Address2:      addr.Address2,
		City:          addr.City,
		ProvinceState: orDefault(addr.State, defaultCustomerAddress),
		Country:       orDefault(addr.Country, defaultCustomerAddress),
		ZipPostalCode: addr.Postcode,
		Phone:         addr.Phone,
		Email:         email,
	}
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
