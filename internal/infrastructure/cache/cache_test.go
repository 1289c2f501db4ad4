package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/storesync/backend/internal/domain/integration"
	"github.com/storesync/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestInMemoryCustomerCache(t *testing.T) {
	c := NewInMemoryCustomerCache(time.Hour)
	defer c.Close()
	ctx := context.Background()
	id := uuid.New()

	t.Run("miss returns nil", func(t *testing.T) {
		got, err := c.Get(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("set stores a copy without password", func(t *testing.T) {
		customer := &integration.RemoteCustomer{ID: 42, Username: "jane@example.com", Password: "secret"}
		require.NoError(t, c.Set(ctx, id, customer))
		customer.Username = "changed"

		got, err := c.Get(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, 42, got.ID)
		assert.Equal(t, "jane@example.com", got.Username)
		assert.Empty(t, got.Password)
		assert.Equal(t, 1, c.Size())
	})

	t.Run("delete removes mapping", func(t *testing.T) {
		require.NoError(t, c.Delete(ctx, id))
		got, err := c.Get(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("set nil deletes", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, id, &integration.RemoteCustomer{ID: 1}))
		require.NoError(t, c.Set(ctx, id, nil))
		assert.Equal(t, 0, c.Size())
	})
}

func TestInMemoryCustomerCache_Expiration(t *testing.T) {
	c := NewInMemoryCustomerCache(10 * time.Millisecond)
	defer c.Close()
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, c.Set(ctx, id, &integration.RemoteCustomer{ID: 7}))
	time.Sleep(20 * time.Millisecond)

	got, err := c.Get(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)

	c.cleanup()
	assert.Equal(t, 0, c.Size())
}

func TestInMemoryCustomerCache_CloseTwice(t *testing.T) {
	c := NewInMemoryCustomerCache(time.Minute)
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

func TestInMemoryProductCache(t *testing.T) {
	c := NewInMemoryProductCache()
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, c.InvalidateAll(ctx))
	require.NoError(t, c.InvalidateAll(ctx))
	require.NoError(t, c.InvalidateProduct(ctx, id))

	v, err := c.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	pv, err := c.ProductVersion(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pv)

	pv, err = c.ProductVersion(ctx, uuid.New())
	require.NoError(t, err)
	assert.Zero(t, pv)
}

// unreachableClient points at a closed port so every command fails fast
func unreachableClient(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisCaches_WrapErrors(t *testing.T) {
	client := unreachableClient(t)
	ctx := context.Background()

	customers := NewRedisCustomerCache(client, "", time.Hour)
	assert.Equal(t, "storesync:customer:"+uuid.Nil.String(), customers.key(uuid.Nil))

	_, err := customers.Get(ctx, uuid.New())
	assert.ErrorContains(t, err, "failed to read cached customer")
	assert.ErrorContains(t, customers.Set(ctx, uuid.New(), &integration.RemoteCustomer{ID: 1}), "failed to cache customer")

	products := NewRedisProductCache(client, "test:")
	assert.Equal(t, "test:products:version", products.listKey())
	assert.ErrorContains(t, products.InvalidateAll(ctx), "failed to invalidate product list")
	assert.ErrorContains(t, products.InvalidateProduct(ctx, uuid.New()), "failed to invalidate product")
}

func TestFactory_Create(t *testing.T) {
	t.Run("empty host selects memory", func(t *testing.T) {
		caches, err := NewFactory(config.RedisConfig{TTL: time.Hour}, WithLogger(zaptest.NewLogger(t))).Create()
		require.NoError(t, err)
		defer caches.Close()
		assert.Equal(t, "memory", caches.Backend)
		assert.IsType(t, &InMemoryCustomerCache{}, caches.Customers)
	})

	t.Run("unreachable redis falls back", func(t *testing.T) {
		cfg := config.RedisConfig{Host: "127.0.0.1", Port: 1, TTL: time.Hour}
		caches, err := NewFactory(cfg).Create()
		require.NoError(t, err)
		defer caches.Close()
		assert.Equal(t, "memory", caches.Backend)
	})

	t.Run("fallback disabled", func(t *testing.T) {
		cfg := config.RedisConfig{Host: "127.0.0.1", Port: 1}
		_, err := NewFactory(cfg, WithInMemoryFallback(false)).Create()
		assert.ErrorContains(t, err, "Redis required")
	})
}
