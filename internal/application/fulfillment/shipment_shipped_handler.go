package fulfillment

import (
	"context"
	"fmt"

	"github.com/resys/stockledger/internal/domain/fulfillment"
	"github.com/resys/stockledger/internal/domain/shared"
	"go.uber.org/zap"
)

// ShipmentShippedHandler consumes the reserved stock of a shipment that left its location
type ShipmentShippedHandler struct {
	shipments fulfillment.ShipmentReader
	stock     StockReservations
	logger    *zap.Logger
}

// NewShipmentShippedHandler creates a new handler for shipment shipped events
func NewShipmentShippedHandler(shipments fulfillment.ShipmentReader, stock StockReservations, logger *zap.Logger) *ShipmentShippedHandler {
	return &ShipmentShippedHandler{
		shipments: shipments,
		stock:     stock,
		logger:    logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *ShipmentShippedHandler) EventTypes() []string {
	return []string{fulfillment.EventTypeShipmentShipped}
}

// Handle processes a ShipmentShippedEvent by confirming the shipment at every stock item it draws from
func (h *ShipmentShippedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	shipped, ok := event.(*fulfillment.ShipmentShippedEvent)
	if !ok {
		return unexpectedEvent(h.logger, fulfillment.EventTypeShipmentShipped, event)
	}

	h.logger.Info("processing shipment shipped event",
		zap.String("event_id", shipped.EventID().String()),
		zap.String("shipment_id", shipped.ShipmentID.String()),
		zap.String("order_id", shipped.OrderID.String()),
	)

	sync := reservationSync{shipments: h.shipments, stock: h.stock, logger: h.logger}
	shipment, err := sync.loadShipment(ctx, shipped.ShipmentID)
	if err != nil || shipment == nil {
		return err
	}
	orderID := orderOf(shipped.OrderID, shipment)

	var lastErr error
	successCount := 0
	counts := shipment.GroupUnitsByVariant()
	for _, variantID := range shipment.Variants() {
		quantity := counts[variantID]
		err := h.stock.ConfirmShipmentForVariant(ctx, variantID, shipment.StockLocationID, shipment.ID, orderID, quantity)
		if err != nil {
			if shared.IsNotFound(err) {
				h.logger.Warn("no stock item for shipped variant, skipping",
					zap.String("variant_id", variantID.String()),
					zap.String("stock_location_id", shipment.StockLocationID.String()),
				)
				continue
			}
			h.logger.Error("failed to confirm shipment for variant",
				zap.String("shipment_id", shipment.ID.String()),
				zap.String("variant_id", variantID.String()),
				zap.Int("quantity", quantity),
				zap.Error(err),
			)
			lastErr = err
			continue
		}
		successCount++
	}

	h.logger.Info("shipment stock confirmation completed",
		zap.String("shipment_id", shipment.ID.String()),
		zap.Int("variants", len(counts)),
		zap.Int("success_count", successCount),
		zap.Bool("has_errors", lastErr != nil),
	)
	if lastErr != nil {
		return fmt.Errorf("some variants failed to confirm: %w", lastErr)
	}
	return nil
}

var _ shared.EventHandler = (*ShipmentShippedHandler)(nil)
