package persistence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/resys/stockledger/internal/domain/inventory"
	"github.com/resys/stockledger/internal/domain/shared"
	"github.com/resys/stockledger/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens an in-memory SQLite database with the stock schema.
// A single connection keeps transactional and plain queries on the same database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.StockLocationModel{},
		&models.StockItemModel{},
		&models.StockMovementModel{},
		&models.ShipmentModel{},
		&models.InventoryUnitModel{},
		&models.ProductVariantModel{},
		&models.OutboxEntryModel{},
	))
	return db
}

func seedLocation(t *testing.T, db *gorm.DB, code string) *inventory.StockLocation {
	t.Helper()
	loc, err := inventory.NewStockLocation(code, "Location "+code)
	require.NoError(t, err)
	require.NoError(t, NewGormStockLocationRepository(db).Create(context.Background(), loc))
	return loc
}

func seedItem(t *testing.T, db *gorm.DB, locationID uuid.UUID, sku string, onHand, reserved int) *inventory.StockItem {
	t.Helper()
	item, _, err := inventory.NewStockItem(inventory.NewStockItemParams{
		VariantID:        uuid.New(),
		StockLocationID:  locationID,
		SKU:              sku,
		QuantityOnHand:   onHand,
		QuantityReserved: reserved,
	})
	require.NoError(t, err)
	require.NoError(t, NewGormStockItemRepository(db).Create(context.Background(), item))
	return item
}

func newMovement(t *testing.T, itemID uuid.UUID, qty int, originator inventory.Originator, at time.Time) *inventory.StockMovement {
	t.Helper()
	m, err := inventory.NewStockMovement(itemID, qty, originator, "test", "")
	require.NoError(t, err)
	m.CreatedAt = at
	return m
}

// recordingOutbox captures events handed to the outbox together with the tx they were written in
type recordingOutbox struct {
	mu     sync.Mutex
	events []shared.DomainEvent
	txs    []any
	err    error
}

func (o *recordingOutbox) SaveEvents(_ context.Context, tx any, events ...shared.DomainEvent) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.txs = append(o.txs, tx)
	o.events = append(o.events, events...)
	return nil
}
