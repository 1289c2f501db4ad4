package cache

import (
	"fmt"
	"io"

	"github.com/storesync/backend/internal/domain/integration"
	"github.com/storesync/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Caches bundles the caches used by the sync services
type Caches struct {
	Customers integration.CustomerCache
	Products  integration.ProductCacheInvalidator
	Backend   string
	closers   []io.Closer
}

// Close releases the cache backends
func (c *Caches) Close() error {
	var firstErr error
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory caches when Redis is unavailable
// Default is true (allow fallback)
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// Factory creates caches based on configuration
type Factory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// NewFactory creates a new factory
func NewFactory(cfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateInMemory creates process-local caches.
// WARNING: in-memory caches are not shared between instances.
func (f *Factory) CreateInMemory() *Caches {
	customers := NewInMemoryCustomerCache(f.redisConfig.TTL)
	return &Caches{
		Customers: customers,
		Products:  NewInMemoryProductCache(),
		Backend:   "memory",
		closers:   []io.Closer{customers},
	}
}

// CreateRedis creates Redis-backed caches
func (f *Factory) CreateRedis() (*Caches, error) {
	client, err := NewRedisClient(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err != nil {
		return nil, err
	}
	return &Caches{
		Customers: NewRedisCustomerCache(client, defaultKeyPrefix, f.redisConfig.TTL),
		Products:  NewRedisProductCache(client, defaultKeyPrefix),
		Backend:   "redis",
		closers:   []io.Closer{client},
	}, nil
}

// Create returns Redis caches when Redis is configured and reachable. An empty
// host selects the in-memory caches; an unreachable server falls back to them
// unless fallback is disabled.
func (f *Factory) Create() (*Caches, error) {
	if f.redisConfig.Host == "" {
		f.logger.Info("Redis not configured, using in-memory caches")
		return f.CreateInMemory(), nil
	}

	caches, err := f.CreateRedis()
	if err == nil {
		f.logger.Info("using Redis caches", zap.String("host", f.redisConfig.Host))
		return caches, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for caches but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory caches. "+
		"Customer mappings will not be shared between instances.",
		zap.Error(err),
	)
	return f.CreateInMemory(), nil
}
