// Package bootstrap assembles the sync engine from configuration. Both the
// admin server and the one-shot sync command build on it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	appintegration "github.com/storesync/backend/internal/application/integration"
	"github.com/storesync/backend/internal/infrastructure/aralco"
	"github.com/storesync/backend/internal/infrastructure/cache"
	"github.com/storesync/backend/internal/infrastructure/config"
	"github.com/storesync/backend/internal/infrastructure/logger"
	"github.com/storesync/backend/internal/infrastructure/persistence"
	"github.com/storesync/backend/internal/infrastructure/storage"
	"github.com/storesync/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Container holds the long lived collaborators of the sync engine
type Container struct {
	Config   *config.Config
	Logger   *zap.Logger
	Database *persistence.Database
	Caches   *cache.Caches
	Remote   *aralco.Client

	Orders    *persistence.GormOrderRepository
	Sync      *appintegration.SyncService
	Submitter *appintegration.OrderSubmitter
	Customers *appintegration.CustomerService

	tracer *telemetry.TracerProvider
	meter  *telemetry.MeterProvider
	logs   *telemetry.LoggerProvider
}

// NewLogger creates the process logger from the log section of cfg.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
}

// SettingsFrom maps the remote section of the configuration to the business
// settings read by the sync services.
func SettingsFrom(cfg config.AralcoConfig) appintegration.Settings {
	retry := appintegration.DefaultGiftCardRetry()
	if cfg.GiftCardRetryAttempts > 0 {
		retry.MaxAttempts = cfg.GiftCardRetryAttempts
	}
	if cfg.GiftCardRetryDelay > 0 {
		retry.Delay = cfg.GiftCardRetryDelay
	}

	return appintegration.Settings{
		StoreID:                cfg.StoreID,
		TenderCode:             cfg.TenderCode,
		BackordersAllowed:      cfg.BackordersAllowed,
		OrderEnabled:           cfg.OrderEnabled,
		QuoteMode:              cfg.QuoteMode,
		ReferenceNumberEnabled: cfg.ReferenceNumberEnabled,
		DefaultOrderEmail:      cfg.DefaultOrderEmail,
		ShippingProductCodes:   cfg.ShippingProductCodes,
		GiftCardProductCode:    cfg.GiftCardProductCode,
		LocalPickupMethodID:    cfg.LocalPickupMethodID,
		PickupStoreID:          cfg.PickupStoreID,
		Location:               cfg.Location(),
		GiftCardRetry:          retry,
	}
}

// TracingConfigFrom maps the telemetry section to the tracer settings.
func TracingConfigFrom(cfg *config.Config) telemetry.Config {
	return telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       serviceName(cfg),
		Insecure:          cfg.Telemetry.Insecure,
	}
}

func serviceName(cfg *config.Config) string {
	if cfg.Telemetry.ServiceName != "" {
		return cfg.Telemetry.ServiceName
	}
	return cfg.App.Name
}

// New connects every backend and wires the services. On error whatever was
// already opened is closed again.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: log}
	if err := c.wire(ctx); err != nil {
		_ = c.Close(context.Background())
		return nil, err
	}
	return c, nil
}

func (c *Container) wire(ctx context.Context) (err error) {
	cfg, log := c.Config, c.Logger

	// ----------------------------------------------------------------
	// Telemetry
	// ----------------------------------------------------------------

	if c.tracer, err = telemetry.NewTracerProvider(ctx, TracingConfigFrom(cfg), log); err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	if c.meter, err = telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       serviceName(cfg),
		Insecure:          cfg.Telemetry.Insecure,
	}, log); err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	if c.logs, err = telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       serviceName(cfg),
		Insecure:          cfg.Telemetry.Insecure,
	}, log); err != nil {
		return fmt.Errorf("init log export: %w", err)
	}
	c.Logger = c.logs.Bridge(log, serviceName(cfg))
	log = c.Logger

	metrics, err := telemetry.NewSyncMetrics(c.meter.Meter("storesync/sync"))
	if err != nil {
		return fmt.Errorf("init sync metrics: %w", err)
	}

	// ----------------------------------------------------------------
	// Storage backends
	// ----------------------------------------------------------------

	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	dbTracing.LogFullSQL = cfg.Telemetry.DBLogFullSQL
	if cfg.Telemetry.DBSlowQueryThresh > 0 {
		dbTracing.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
	}
	if c.Database, err = persistence.NewDatabase(&cfg.Database, persistence.DatabaseOptions{
		Logger:   log,
		LogLevel: logger.MapGormLogLevel(cfg.Log.Level),
		Tracing:  dbTracing,
	}); err != nil {
		return err
	}
	log.Info("Database connected successfully")

	if c.Caches, err = cache.NewFactory(cfg.Redis, cache.WithLogger(log)).Create(); err != nil {
		return err
	}

	objects, err := storage.New(ctx, cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("init object storage: %w", err)
	}

	if c.Remote, err = aralco.NewClient(aralco.Config{
		APILocation:       cfg.Aralco.APILocation,
		APIToken:          cfg.Aralco.APIToken,
		Timeout:           cfg.Aralco.Timeout,
		RequestsPerSecond: cfg.Aralco.RequestsPerSecond,
	}, aralco.WithObserver(metrics), aralco.WithLogger(log.Named("aralco"))); err != nil {
		return err
	}

	// ----------------------------------------------------------------
	// Services
	// ----------------------------------------------------------------

	db := c.Database.DB
	products := persistence.NewGormProductStore(db)
	terms := persistence.NewGormTermStore(db)
	media := persistence.NewGormMediaStore(db)
	states := persistence.NewGormSyncStateRepository(db)
	c.Orders = persistence.NewGormOrderRepository(db)

	settings := SettingsFrom(cfg.Aralco)
	productCache := c.Caches.Products

	images := appintegration.NewImageService(c.Remote, media, objects, products, terms, log)
	variants := appintegration.NewVariantService(c.Remote, products, terms, productCache, log)
	c.Sync = appintegration.NewSyncService(appintegration.SyncServiceDeps{
		Remote:     c.Remote,
		Runs:       appintegration.NewRunContextBuilder(c.Remote, terms, settings, log),
		Window:     appintegration.NewWindowTracker(c.Remote, states),
		Taxonomy:   appintegration.NewTaxonomyService(c.Remote, terms, images, log),
		Products:   appintegration.NewProductService(products, terms, variants, images, productCache),
		Stock:      appintegration.NewStockService(c.Remote, products),
		Promotions: appintegration.NewPromotionService(c.Remote, products, productCache),
		Recorder:   metrics,
		Logger:     log,
	})

	c.Customers = appintegration.NewCustomerService(c.Remote, c.Caches.Customers, settings, log)
	c.Submitter = appintegration.NewOrderSubmitter(c.Remote, c.Orders, products, c.Customers, settings, log)

	return nil
}

// Close releases every backend in reverse order of creation.
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	if c.Caches != nil {
		if err := c.Caches.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close caches: %w", err))
		}
	}
	if c.Database != nil {
		if err := c.Database.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	if c.meter != nil {
		if err := c.meter.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if c.tracer != nil {
		if err := c.tracer.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if c.logs != nil {
		if err := c.logs.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
