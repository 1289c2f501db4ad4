package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/storesync/backend/internal/domain/integration"
)

const defaultKeyPrefix = "storesync:"

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// RedisCustomerCache implements CustomerCache using Redis so that every
// instance shares the storefront to remote customer mapping.
type RedisCustomerCache struct {
	client    redis.Cmdable
	keyPrefix string
	ttl       time.Duration
}

// NewRedisCustomerCache creates a customer cache on an existing client
func NewRedisCustomerCache(client redis.Cmdable, keyPrefix string, ttl time.Duration) *RedisCustomerCache {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisCustomerCache{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

func (c *RedisCustomerCache) key(customerID uuid.UUID) string {
	return c.keyPrefix + "customer:" + customerID.String()
}

// Get returns the cached customer, nil when absent
func (c *RedisCustomerCache) Get(ctx context.Context, customerID uuid.UUID) (*integration.RemoteCustomer, error) {
	data, err := c.client.Get(ctx, c.key(customerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached customer: %w", err)
	}

	var customer integration.RemoteCustomer
	if err := json.Unmarshal(data, &customer); err != nil {
		// a corrupt entry is treated as a miss and dropped
		_ = c.client.Del(ctx, c.key(customerID)).Err()
		return nil, nil
	}
	return &customer, nil
}

// Set caches the customer; the password is never written
func (c *RedisCustomerCache) Set(ctx context.Context, customerID uuid.UUID, customer *integration.RemoteCustomer) error {
	if customer == nil {
		return c.Delete(ctx, customerID)
	}
	stored := *customer
	stored.Password = ""

	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to encode customer: %w", err)
	}
	if err := c.client.Set(ctx, c.key(customerID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache customer: %w", err)
	}
	return nil
}

// Delete removes a cached mapping
func (c *RedisCustomerCache) Delete(ctx context.Context, customerID uuid.UUID) error {
	if err := c.client.Del(ctx, c.key(customerID)).Err(); err != nil {
		return fmt.Errorf("failed to delete cached customer: %w", err)
	}
	return nil
}

// RedisProductCache implements ProductCacheInvalidator with generation
// counters. Storefront readers include the generation in their cache keys, so
// bumping it retires every derived entry at once.
type RedisProductCache struct {
	client    redis.Cmdable
	keyPrefix string
}

// NewRedisProductCache creates a product cache invalidator on an existing client
func NewRedisProductCache(client redis.Cmdable, keyPrefix string) *RedisProductCache {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisProductCache{client: client, keyPrefix: keyPrefix}
}

func (c *RedisProductCache) listKey() string {
	return c.keyPrefix + "products:version"
}

func (c *RedisProductCache) productKey(productID uuid.UUID) string {
	return c.keyPrefix + "product:" + productID.String() + ":version"
}

// InvalidateProduct bumps the generation of one product
func (c *RedisProductCache) InvalidateProduct(ctx context.Context, productID uuid.UUID) error {
	if err := c.client.Incr(ctx, c.productKey(productID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate product %s: %w", productID, err)
	}
	return nil
}

// InvalidateAll bumps the product list generation
func (c *RedisProductCache) InvalidateAll(ctx context.Context) error {
	if err := c.client.Incr(ctx, c.listKey()).Err(); err != nil {
		return fmt.Errorf("failed to invalidate product list: %w", err)
	}
	return nil
}

// Version returns the product list generation, 0 when never bumped
func (c *RedisProductCache) Version(ctx context.Context) (int64, error) {
	v, err := c.client.Get(ctx, c.listKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read product list version: %w", err)
	}
	return v, nil
}

var (
	_ integration.CustomerCache           = (*RedisCustomerCache)(nil)
	_ integration.ProductCacheInvalidator = (*RedisProductCache)(nil)
)
