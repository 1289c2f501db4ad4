package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/integration"
	"github.com/storesync/backend/internal/infrastructure/config"
	"github.com/storesync/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newMockDatabase creates a Database instance with a mocked SQL connection
func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return &Database{DB: gormDB}, mock, mockDB
}

// newTestDatabase opens an in-memory SQLite database with the full schema
func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := Open(sqlite.Open(":memory:"), nil, DatabaseOptions{
		Logger:   zaptest.NewLogger(t),
		LogLevel: gormlogger.Warn,
	})
	require.NoError(t, err)

	// every connection to :memory: is a separate database
	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpen_SQLite(t *testing.T) {
	db := newTestDatabase(t)

	for _, table := range []string{"products", "product_variants", "terms", "term_meta", "product_terms", "media", "sync_states", "orders", "order_lines"} {
		assert.True(t, db.DB.Migrator().HasTable(table), table)
	}
	require.NoError(t, db.Ping())
}

func TestOpen_WithTracingEnabled(t *testing.T) {
	tp := telemetry.DBTracingConfig{Enabled: true, DBSystem: "sqlite", SlowQueryThresh: time.Second}
	db, err := Open(sqlite.Open(":memory:"), nil, DatabaseOptions{Tracing: tp})
	require.NoError(t, err)
	defer db.Close()

	assert.NoError(t, db.DB.Exec("SELECT 1").Error)
}

func TestOpen_ConfiguresPool(t *testing.T) {
	db, err := Open(sqlite.Open(":memory:"), &config.DatabaseConfig{
		MaxOpenConns:    3,
		MaxIdleConns:    1,
		ConnMaxLifetime: 5,
		ConnMaxIdleTime: 1,
	}, DatabaseOptions{})
	require.NoError(t, err)
	defer db.Close()

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	assert.Equal(t, 3, sqlDB.Stats().MaxOpenConnections)
}

func TestDatabase_Ping(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	mock.ExpectPing()

	assert.NoError(t, db.Ping())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Close(t *testing.T) {
	db, mock, _ := newMockDatabase(t)

	mock.ExpectClose()

	assert.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormProductStore_SetProductStatus_Postgres(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()
	store := NewGormProductStore(db.DB)
	id := uuid.New()

	t.Run("updates status only", func(t *testing.T) {
		mock.ExpectExec(`UPDATE "products" SET "status"=\$1,"updated_at"=\$2 WHERE id = \$3`).
			WithArgs(integration.ProductStatusDraft, sqlmock.AnyArg(), id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, store.SetProductStatus(context.Background(), id, integration.ProductStatusDraft))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown product", func(t *testing.T) {
		mock.ExpectExec(`UPDATE "products"`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := store.SetProductStatus(context.Background(), id, integration.ProductStatusTrash)
		assert.ErrorIs(t, err, integration.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormSyncStateRepository_Get_Postgres(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()
	repo := NewGormSyncStateRepository(db.DB)

	mock.ExpectQuery(`SELECT \* FROM "sync_states" WHERE sync_type = \$1 ORDER BY .* LIMIT .*`).
		WithArgs(integration.SyncTypeStock, 1).
		WillReturnError(gorm.ErrRecordNotFound)

	_, err := repo.Get(context.Background(), integration.SyncTypeStock)
	assert.ErrorIs(t, err, integration.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
