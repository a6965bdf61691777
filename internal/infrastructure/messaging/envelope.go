package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/resys/stockledger/internal/domain/fulfillment"
	"github.com/resys/stockledger/internal/domain/shared"
)

// ShipmentEnvelope is the wire format of the shipment-lifecycle topic
type ShipmentEnvelope struct {
	Type       string     `json:"type"`
	EventID    uuid.UUID  `json:"event_id"`
	OrderID    uuid.UUID  `json:"order_id"`
	ShipmentID uuid.UUID  `json:"shipment_id"`
	VariantID  *uuid.UUID `json:"variant_id,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// DecodeShipmentEvent turns a shipment-lifecycle message into a fulfillment event
func DecodeShipmentEvent(data []byte) (shared.DomainEvent, error) {
	var env ShipmentEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("invalid shipment envelope: %w", err)
	}
	if env.EventID == uuid.Nil {
		return nil, fmt.Errorf("shipment envelope without event_id")
	}
	if env.ShipmentID == uuid.Nil {
		return nil, fmt.Errorf("shipment envelope without shipment_id")
	}
	if env.OrderID == uuid.Nil {
		return nil, fmt.Errorf("shipment envelope without order_id")
	}
	occurredAt := env.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	switch env.Type {
	case fulfillment.EventTypeShipmentCreated:
		return fulfillment.NewShipmentCreatedEvent(env.EventID, env.OrderID, env.ShipmentID, occurredAt), nil
	case fulfillment.EventTypeShipmentItemUpdated:
		if env.VariantID == nil || *env.VariantID == uuid.Nil {
			return nil, fmt.Errorf("%s envelope without variant_id", env.Type)
		}
		return fulfillment.NewShipmentItemUpdatedEvent(env.EventID, env.OrderID, env.ShipmentID, *env.VariantID, occurredAt), nil
	case fulfillment.EventTypeShipmentShipped:
		return fulfillment.NewShipmentShippedEvent(env.EventID, env.ShipmentID, env.OrderID, occurredAt), nil
	default:
		return nil, fmt.Errorf("unsupported shipment event type: %q", env.Type)
	}
}
