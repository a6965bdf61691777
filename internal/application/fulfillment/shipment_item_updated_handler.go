package fulfillment

import (
	"context"

	"github.com/google/uuid"
	"github.com/resys/stockledger/internal/domain/fulfillment"
	"github.com/resys/stockledger/internal/domain/shared"
	"go.uber.org/zap"
)

// ShipmentItemUpdatedHandler recomputes the reservation of one variant after its
// units in a shipment changed. A variant removed from the shipment releases its units.
type ShipmentItemUpdatedHandler struct {
	sync reservationSync
}

// NewShipmentItemUpdatedHandler creates a new handler for shipment item updated events
func NewShipmentItemUpdatedHandler(shipments fulfillment.ShipmentReader, stock StockReservations, logger *zap.Logger) *ShipmentItemUpdatedHandler {
	return &ShipmentItemUpdatedHandler{sync: reservationSync{shipments: shipments, stock: stock, logger: logger}}
}

// EventTypes returns the event types this handler is interested in
func (h *ShipmentItemUpdatedHandler) EventTypes() []string {
	return []string{fulfillment.EventTypeShipmentItemUpdated}
}

// Handle processes a ShipmentItemUpdatedEvent
func (h *ShipmentItemUpdatedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	updated, ok := event.(*fulfillment.ShipmentItemUpdatedEvent)
	if !ok {
		return unexpectedEvent(h.sync.logger, fulfillment.EventTypeShipmentItemUpdated, event)
	}

	h.sync.logger.Info("processing shipment item updated event",
		zap.String("event_id", updated.EventID().String()),
		zap.String("order_id", updated.OrderID.String()),
		zap.String("shipment_id", updated.ShipmentID.String()),
		zap.String("variant_id", updated.VariantID.String()),
	)

	shipment, err := h.sync.loadShipment(ctx, updated.ShipmentID)
	if err != nil || shipment == nil {
		return err
	}
	return h.sync.syncVariants(ctx, shipment, orderOf(updated.OrderID, shipment), []uuid.UUID{updated.VariantID})
}

var _ shared.EventHandler = (*ShipmentItemUpdatedHandler)(nil)
