package fulfillment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/resys/stockledger/internal/domain/fulfillment"
	"github.com/resys/stockledger/internal/domain/shared"
	"go.uber.org/zap"
)

// StockReservations is the part of the stock service the lifecycle handlers drive
type StockReservations interface {
	SyncOrderReservation(ctx context.Context, variantID, locationID, orderID uuid.UUID, target fulfillment.ReservationTarget) error
	ConfirmShipmentForVariant(ctx context.Context, variantID, locationID, shipmentID, orderID uuid.UUID, quantity int) error
}

// reservationSync recomputes reservation totals from the order's shipments
type reservationSync struct {
	shipments fulfillment.ShipmentReader
	stock     StockReservations
	logger    *zap.Logger
}

// loadShipment returns nil without error when the shipment no longer exists
func (r *reservationSync) loadShipment(ctx context.Context, shipmentID uuid.UUID) (*fulfillment.Shipment, error) {
	shipment, err := r.shipments.GetShipment(ctx, shipmentID)
	if err != nil {
		if shared.IsNotFound(err) {
			r.logger.Warn("shipment not found, skipping",
				zap.String("shipment_id", shipmentID.String()),
			)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load shipment: %w", err)
	}
	return shipment, nil
}

// syncVariants sets the order's reservation for each variant at the shipment's location
// to the units across the order's open shipments there, plus shipped shipments not yet
// confirmed at the row. Failures of one variant do not stop the others; the last error is returned.
func (r *reservationSync) syncVariants(ctx context.Context, shipment *fulfillment.Shipment, orderID uuid.UUID, variants []uuid.UUID) error {
	orderShipments, err := r.shipments.ListByOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to list shipments of order: %w", err)
	}

	var lastErr error
	successCount := 0
	for _, variantID := range variants {
		target := fulfillment.ReservationTargetForVariant(orderShipments, shipment.StockLocationID, variantID)
		err := r.stock.SyncOrderReservation(ctx, variantID, shipment.StockLocationID, orderID, target)
		if err != nil {
			if shared.IsNotFound(err) {
				r.logger.Warn("no stock item for variant at location, skipping reservation",
					zap.String("variant_id", variantID.String()),
					zap.String("stock_location_id", shipment.StockLocationID.String()),
				)
				continue
			}
			r.logger.Error("failed to reserve stock for variant",
				zap.String("order_id", orderID.String()),
				zap.String("variant_id", variantID.String()),
				zap.Int("open_units", target.Open),
				zap.Int("shipped_shipments", len(target.Shipped)),
				zap.Error(err),
			)
			lastErr = err
			continue
		}
		successCount++
	}

	r.logger.Info("reservations synchronized",
		zap.String("order_id", orderID.String()),
		zap.String("shipment_id", shipment.ID.String()),
		zap.Int("variants", len(variants)),
		zap.Int("success_count", successCount),
		zap.Bool("has_errors", lastErr != nil),
	)
	if lastErr != nil {
		return fmt.Errorf("some variants failed to reserve: %w", lastErr)
	}
	return nil
}

func orderOf(eventOrderID uuid.UUID, shipment *fulfillment.Shipment) uuid.UUID {
	if eventOrderID != uuid.Nil {
		return eventOrderID
	}
	return shipment.OrderID
}

func unexpectedEvent(logger *zap.Logger, expected string, event shared.DomainEvent) error {
	logger.Error("unexpected event type",
		zap.String("expected", expected),
		zap.String("actual", event.EventType()),
	)
	return fmt.Errorf("unexpected event type: expected %s, got %s", expected, event.EventType())
}
