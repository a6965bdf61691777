package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	appinv "github.com/resys/stockledger/internal/application/inventory"
	"github.com/resys/stockledger/internal/domain/inventory"
	"github.com/resys/stockledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestStockItemService_OverSQLite drives the service against the real repositories
func TestStockItemService_OverSQLite(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	outbox := &recordingOutbox{}

	svc := appinv.NewStockItemService(
		NewGormTransactionScope(db, outbox),
		NewGormStockItemRepository(db),
		NewGormStockMovementRepository(db),
		nil,
		appinv.DefaultServiceConfig(),
		zap.NewNop(),
	)
	loc := seedLocation(t, db, "WH1")
	variantID := uuid.New()

	created, err := svc.CreateStockItem(ctx, appinv.CreateStockItemRequest{
		VariantID:       variantID,
		StockLocationID: loc.ID,
		SKU:             "TSHIRT-RED-M",
		QuantityOnHand:  10,
	})
	require.NoError(t, err)
	id := created.ID

	orderA, orderB := uuid.New(), uuid.New()
	shipmentID := uuid.New()

	require.NoError(t, svc.ReserveForOrder(ctx, variantID, loc.ID, orderA, 4))
	require.NoError(t, svc.ReserveForOrder(ctx, variantID, loc.ID, orderA, 4), "same total twice is a no-op")
	require.NoError(t, svc.ConfirmShipmentForVariant(ctx, variantID, loc.ID, shipmentID, orderA, 4))
	require.NoError(t, svc.ConfirmShipmentForVariant(ctx, variantID, loc.ID, shipmentID, orderA, 4), "redelivered shipment is skipped")

	_, err = svc.AdjustStock(ctx, id, appinv.AdjustStockRequest{Quantity: -3, Originator: "adjustment", Reason: "damaged"})
	require.NoError(t, err)

	err = svc.ReserveForOrder(ctx, variantID, loc.ID, orderB, 5)
	assert.Equal(t, shared.CodeInsufficientStock, shared.ErrorCode(err))

	got, err := svc.GetStockItem(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3, got.QuantityOnHand)
	assert.Equal(t, 0, got.QuantityReserved)
	assert.Equal(t, 4, got.Version)

	rec, err := svc.ReconcileStockItem(ctx, id)
	require.NoError(t, err)
	assert.True(t, rec.Balanced)
	assert.Equal(t, 4, rec.MovementCount)

	stale := 1
	_, err = svc.AdjustStock(ctx, id, appinv.AdjustStockRequest{Quantity: 1, Originator: "receiving", Version: &stale})
	assert.True(t, shared.IsConcurrencyConflict(err))

	err = svc.DeleteStockItem(ctx, id, nil)
	assert.Equal(t, shared.CodeHasMovementHistory, shared.ErrorCode(err))

	var recorded []string
	for _, e := range outbox.events {
		recorded = append(recorded, e.EventType())
	}
	assert.Contains(t, recorded, inventory.EventTypeStockItemCreated)
	assert.Contains(t, recorded, inventory.EventTypeStockMovementRecorded)
}
