package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/integration"
)

// customerEntry is a cached remote customer with its expiration
type customerEntry struct {
	customer  integration.RemoteCustomer
	expiresAt time.Time
}

// InMemoryCustomerCache implements CustomerCache using an in-memory map.
// Suitable for single-instance deployments and testing.
type InMemoryCustomerCache struct {
	mu        sync.RWMutex
	entries   map[uuid.UUID]customerEntry
	ttl       time.Duration
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryCustomerCache creates a cache whose entries live for ttl.
// It starts a background goroutine to clean up expired entries.
func NewInMemoryCustomerCache(ttl time.Duration) *InMemoryCustomerCache {
	c := &InMemoryCustomerCache{
		entries:  make(map[uuid.UUID]customerEntry),
		ttl:      ttl,
		stopChan: make(chan struct{}),
	}

	c.wg.Add(1)
	go c.cleanupLoop()

	return c
}

// Get returns a copy of the cached customer, nil when absent or expired
func (c *InMemoryCustomerCache) Get(ctx context.Context, customerID uuid.UUID) (*integration.RemoteCustomer, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[customerID]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, nil
	}
	customer := e.customer
	return &customer, nil
}

// Set caches the customer; the password is never kept
func (c *InMemoryCustomerCache) Set(ctx context.Context, customerID uuid.UUID, customer *integration.RemoteCustomer) error {
	if customer == nil {
		return c.Delete(ctx, customerID)
	}
	stored := *customer
	stored.Password = ""

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[customerID] = customerEntry{customer: stored, expiresAt: time.Now().Add(c.ttl)}
	return nil
}

// Delete removes a cached mapping
func (c *InMemoryCustomerCache) Delete(ctx context.Context, customerID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, customerID)
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (c *InMemoryCustomerCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

func (c *InMemoryCustomerCache) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

func (c *InMemoryCustomerCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for id, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, id)
		}
	}
}

// Size returns the number of entries (for testing/monitoring)
func (c *InMemoryCustomerCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// InMemoryProductCache tracks product cache generations in process. Readers
// compare the generation they rendered with against the current one.
type InMemoryProductCache struct {
	mu       sync.RWMutex
	version  int64
	products map[uuid.UUID]int64
}

// NewInMemoryProductCache creates an empty product cache tracker
func NewInMemoryProductCache() *InMemoryProductCache {
	return &InMemoryProductCache{products: make(map[uuid.UUID]int64)}
}

// InvalidateProduct bumps the generation of one product
func (c *InMemoryProductCache) InvalidateProduct(ctx context.Context, productID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[productID]++
	return nil
}

// InvalidateAll bumps the product list generation
func (c *InMemoryProductCache) InvalidateAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.version++
	return nil
}

// Version returns the product list generation
func (c *InMemoryProductCache) Version(ctx context.Context) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version, nil
}

// ProductVersion returns the generation of one product
func (c *InMemoryProductCache) ProductVersion(ctx context.Context, productID uuid.UUID) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.products[productID], nil
}

var (
	_ integration.CustomerCache           = (*InMemoryCustomerCache)(nil)
	_ integration.ProductCacheInvalidator = (*InMemoryProductCache)(nil)
)
