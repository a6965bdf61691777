package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/resys/stockledger/internal/domain/fulfillment"
	"github.com/resys/stockledger/internal/domain/shared"
	"github.com/resys/stockledger/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedShipment(t *testing.T, db *gorm.DB, orderID, locationID uuid.UUID, state fulfillment.ShipmentState, variants ...uuid.UUID) uuid.UUID {
	t.Helper()
	shipment := models.ShipmentModel{
		ID:              uuid.New(),
		OrderID:         orderID,
		StockLocationID: locationID,
		State:           string(state),
	}
	for _, v := range variants {
		shipment.Units = append(shipment.Units, models.InventoryUnitModel{ID: uuid.New(), VariantID: v})
	}
	require.NoError(t, db.Create(&shipment).Error)
	return shipment.ID
}

func TestGormShipmentReader(t *testing.T) {
	db := setupTestDB(t)
	reader := NewGormShipmentReader(db)
	ctx := context.Background()

	orderID, locationID := uuid.New(), uuid.New()
	shirt, socks := uuid.New(), uuid.New()
	first := seedShipment(t, db, orderID, locationID, fulfillment.ShipmentStatePending, shirt, shirt, socks)
	seedShipment(t, db, orderID, locationID, fulfillment.ShipmentStateCanceled, shirt)
	seedShipment(t, db, uuid.New(), locationID, fulfillment.ShipmentStatePending, shirt)

	t.Run("get with units", func(t *testing.T) {
		s, err := reader.GetShipment(ctx, first)
		require.NoError(t, err)
		assert.Equal(t, orderID, s.OrderID)
		assert.Equal(t, fulfillment.ShipmentStatePending, s.State)
		assert.Len(t, s.Units, 3)
		assert.Equal(t, map[uuid.UUID]int{shirt: 2, socks: 1}, s.GroupUnitsByVariant())
	})

	t.Run("missing shipment", func(t *testing.T) {
		_, err := reader.GetShipment(ctx, uuid.New())
		assert.True(t, shared.IsNotFound(err))
	})

	t.Run("by order", func(t *testing.T) {
		shipments, err := reader.ListByOrder(ctx, orderID)
		require.NoError(t, err)
		assert.Len(t, shipments, 2)
		assert.Equal(t, fulfillment.ReservationTarget{Open: 2}, fulfillment.ReservationTargetForVariant(shipments, locationID, shirt))
	})
}

func TestGormVariantCatalog(t *testing.T) {
	db := setupTestDB(t)
	catalog := NewGormVariantCatalog(db)
	known := uuid.New()
	require.NoError(t, db.Create(&models.ProductVariantModel{ID: known, SKU: "SKU-1"}).Error)

	ok, err := catalog.VariantExists(context.Background(), known)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = catalog.VariantExists(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)
}
