package event

import (
	"github.com/resys/stockledger/internal/domain/fulfillment"
	"github.com/resys/stockledger/internal/domain/inventory"
)

// RegisterAllEvents registers every event type the service stores or consumes.
// The outbox processor needs the stock events; the Kafka consumer needs the shipment lifecycle events.
func RegisterAllEvents(serializer *EventSerializer) {
	// Stock ledger events (written to the outbox)
	serializer.Register(inventory.EventTypeStockItemCreated, &inventory.StockItemCreatedEvent{})
	serializer.Register(inventory.EventTypeStockItemUpdated, &inventory.StockItemUpdatedEvent{})
	serializer.Register(inventory.EventTypeStockMovementRecorded, &inventory.StockMovementRecordedEvent{})
	serializer.Register(inventory.EventTypeStockItemDeleted, &inventory.StockItemDeletedEvent{})

	// Shipment lifecycle events (published by the order system)
	serializer.Register(fulfillment.EventTypeShipmentCreated, &fulfillment.ShipmentCreatedEvent{})
	serializer.Register(fulfillment.EventTypeShipmentItemUpdated, &fulfillment.ShipmentItemUpdatedEvent{})
	serializer.Register(fulfillment.EventTypeShipmentShipped, &fulfillment.ShipmentShippedEvent{})
}
