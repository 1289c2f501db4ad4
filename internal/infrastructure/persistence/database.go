package persistence

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/storesync/backend/internal/infrastructure/config"
	"github.com/storesync/backend/internal/infrastructure/logger"
	"github.com/storesync/backend/internal/infrastructure/persistence/models"
	"github.com/storesync/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database is the local store of mirrored catalog data, orders and sync state
type Database struct {
	DB *gorm.DB
}

// DatabaseOptions configures logging and tracing of a new connection
type DatabaseOptions struct {
	Logger   *zap.Logger
	LogLevel gormlogger.LogLevel
	Tracing  telemetry.DBTracingConfig
}

// NewDatabase connects to PostgreSQL
func NewDatabase(cfg *config.DatabaseConfig, opts DatabaseOptions) (*Database, error) {
	return Open(postgres.Open(cfg.DSN()), cfg, opts)
}

// Open connects through any dialector. Tests pass SQLite here. The pool is
// sized from cfg unless cfg is nil.
func Open(dialector gorm.Dialector, cfg *config.DatabaseConfig, opts DatabaseOptions) (*Database, error) {
	zl := opts.Logger
	if zl == nil {
		zl = zap.NewNop()
	}

	// Stores open their own transactions where a write spans tables.
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.NewGormLogger(zl, opts.LogLevel, logger.WithSlowThreshold(opts.Tracing.SlowQueryThresh)),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := telemetry.NewDBTracingPlugin(opts.Tracing, zl).RegisterOtelGorm(db); err != nil {
		return nil, fmt.Errorf("failed to register database tracing: %w", err)
	}

	d := &Database{DB: db}
	sqlDB, err := d.sqlDB()
	if err != nil {
		return nil, err
	}
	if cfg != nil {
		configurePool(sqlDB, cfg)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return d, nil
}

func configurePool(sqlDB *sql.DB, cfg *config.DatabaseConfig) {
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
}

func (d *Database) sqlDB() (*sql.DB, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB, nil
}

// AllModels lists every persisted model in dependency order
func AllModels() []any {
	return []any{
		&models.ProductModel{},
		&models.VariantModel{},
		&models.AttributeModel{},
		&models.TermModel{},
		&models.TermMetaModel{},
		&models.ProductTermModel{},
		&models.MediaModel{},
		&models.SyncStateModel{},
		&models.OrderModel{},
		&models.OrderLineModel{},
	}
}

// AutoMigrate builds the schema from the models. Deployed databases are
// migrated by cmd/migrate; this serves SQLite tests and local development.
func (d *Database) AutoMigrate() error {
	return d.DB.AutoMigrate(AllModels()...)
}

// Ping backs the database health check
func (d *Database) Ping() error {
	sqlDB, err := d.sqlDB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (d *Database) Close() error {
	sqlDB, err := d.sqlDB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
