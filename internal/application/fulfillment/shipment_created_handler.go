package fulfillment

import (
	"context"

	"github.com/resys/stockledger/internal/domain/fulfillment"
	"github.com/resys/stockledger/internal/domain/shared"
	"go.uber.org/zap"
)

// ShipmentCreatedHandler reserves stock for every variant of a newly planned shipment
type ShipmentCreatedHandler struct {
	sync reservationSync
}

// NewShipmentCreatedHandler creates a new handler for shipment created events
func NewShipmentCreatedHandler(shipments fulfillment.ShipmentReader, stock StockReservations, logger *zap.Logger) *ShipmentCreatedHandler {
	return &ShipmentCreatedHandler{sync: reservationSync{shipments: shipments, stock: stock, logger: logger}}
}

// EventTypes returns the event types this handler is interested in
func (h *ShipmentCreatedHandler) EventTypes() []string {
	return []string{fulfillment.EventTypeShipmentCreated}
}

// Handle processes a ShipmentCreatedEvent
func (h *ShipmentCreatedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	created, ok := event.(*fulfillment.ShipmentCreatedEvent)
	if !ok {
		return unexpectedEvent(h.sync.logger, fulfillment.EventTypeShipmentCreated, event)
	}

	h.sync.logger.Info("processing shipment created event",
		zap.String("event_id", created.EventID().String()),
		zap.String("order_id", created.OrderID.String()),
		zap.String("shipment_id", created.ShipmentID.String()),
	)

	shipment, err := h.sync.loadShipment(ctx, created.ShipmentID)
	if err != nil || shipment == nil {
		return err
	}
	return h.sync.syncVariants(ctx, shipment, orderOf(created.OrderID, shipment), shipment.Variants())
}

var _ shared.EventHandler = (*ShipmentCreatedHandler)(nil)
