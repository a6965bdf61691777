package fulfillment

import (
	"time"

	"github.com/google/uuid"
	"github.com/resys/stockledger/internal/domain/shared"
)

// AggregateTypeShipment is the aggregate type of upstream shipment events
const AggregateTypeShipment = "Shipment"

// Event type constants of the order/shipment lifecycle
const (
	EventTypeShipmentCreated     = "ShipmentCreated"
	EventTypeShipmentItemUpdated = "ShipmentItemUpdated"
	EventTypeShipmentShipped     = "ShipmentShipped"
)

// ShipmentCreatedEvent is published by the order system when a shipment is planned for an order
type ShipmentCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID    uuid.UUID `json:"order_id"`
	ShipmentID uuid.UUID `json:"shipment_id"`
}

// NewShipmentCreatedEvent creates a ShipmentCreatedEvent keeping the producer's event id
func NewShipmentCreatedEvent(eventID, orderID, shipmentID uuid.UUID, occurredAt time.Time) *ShipmentCreatedEvent {
	return &ShipmentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEventWithID(eventID, EventTypeShipmentCreated, AggregateTypeShipment, shipmentID, occurredAt),
		OrderID:         orderID,
		ShipmentID:      shipmentID,
	}
}

// ShipmentItemUpdatedEvent is published when the units of one variant in a shipment change
type ShipmentItemUpdatedEvent struct {
	shared.BaseDomainEvent
	OrderID    uuid.UUID `json:"order_id"`
	ShipmentID uuid.UUID `json:"shipment_id"`
	VariantID  uuid.UUID `json:"variant_id"`
}

// NewShipmentItemUpdatedEvent creates a ShipmentItemUpdatedEvent keeping the producer's event id
func NewShipmentItemUpdatedEvent(eventID, orderID, shipmentID, variantID uuid.UUID, occurredAt time.Time) *ShipmentItemUpdatedEvent {
	return &ShipmentItemUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEventWithID(eventID, EventTypeShipmentItemUpdated, AggregateTypeShipment, shipmentID, occurredAt),
		OrderID:         orderID,
		ShipmentID:      shipmentID,
		VariantID:       variantID,
	}
}

// ShipmentShippedEvent is published when a shipment leaves its stock location
type ShipmentShippedEvent struct {
	shared.BaseDomainEvent
	ShipmentID uuid.UUID `json:"shipment_id"`
	OrderID    uuid.UUID `json:"order_id"`
}

// NewShipmentShippedEvent creates a ShipmentShippedEvent keeping the producer's event id
func NewShipmentShippedEvent(eventID, shipmentID, orderID uuid.UUID, occurredAt time.Time) *ShipmentShippedEvent {
	return &ShipmentShippedEvent{
		BaseDomainEvent: shared.NewBaseDomainEventWithID(eventID, EventTypeShipmentShipped, AggregateTypeShipment, shipmentID, occurredAt),
		ShipmentID:      shipmentID,
		OrderID:         orderID,
	}
}
