package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/resys/stockledger/internal/domain/shared"
)

// Event type constants
const (
	EventTypeStockItemCreated      = "StockItemCreated"
	EventTypeStockItemUpdated      = "StockItemUpdated"
	EventTypeStockMovementRecorded = "StockMovementRecorded"
	EventTypeStockItemDeleted      = "StockItemDeleted"
)

// StockItemCreatedEvent is raised when a stock row is created for a variant at a location
type StockItemCreatedEvent struct {
	shared.BaseDomainEvent
	StockItemID      uuid.UUID `json:"stock_item_id"`
	VariantID        uuid.UUID `json:"variant_id"`
	StockLocationID  uuid.UUID `json:"stock_location_id"`
	SKU              string    `json:"sku"`
	QuantityOnHand   int       `json:"quantity_on_hand"`
	QuantityReserved int       `json:"quantity_reserved"`
	Backorderable    bool      `json:"backorderable"`
}

// NewStockItemCreatedEvent creates a new StockItemCreatedEvent
func NewStockItemCreatedEvent(item *StockItem) *StockItemCreatedEvent {
	return &StockItemCreatedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeStockItemCreated, AggregateTypeStockItem, item.ID),
		StockItemID:      item.ID,
		VariantID:        item.VariantID,
		StockLocationID:  item.StockLocationID,
		SKU:              item.SKU,
		QuantityOnHand:   item.QuantityOnHand,
		QuantityReserved: item.QuantityReserved,
		Backorderable:    item.Backorderable,
	}
}

// StockItemUpdatedEvent is raised when attributes or counters of a stock row are overwritten
type StockItemUpdatedEvent struct {
	shared.BaseDomainEvent
	StockItemID      uuid.UUID `json:"stock_item_id"`
	ChangedFields    []string  `json:"changed_fields"`
	QuantityOnHand   int       `json:"quantity_on_hand"`
	QuantityReserved int       `json:"quantity_reserved"`
	Version          int       `json:"version"`
}

// NewStockItemUpdatedEvent creates a new StockItemUpdatedEvent
func NewStockItemUpdatedEvent(item *StockItem, changedFields []string) *StockItemUpdatedEvent {
	return &StockItemUpdatedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeStockItemUpdated, AggregateTypeStockItem, item.ID),
		StockItemID:      item.ID,
		ChangedFields:    changedFields,
		QuantityOnHand:   item.QuantityOnHand,
		QuantityReserved: item.QuantityReserved,
		Version:          item.Version,
	}
}

// StockMovementRecordedEvent carries one ledger entry and the counters after it was applied
type StockMovementRecordedEvent struct {
	shared.BaseDomainEvent
	MovementID       uuid.UUID  `json:"movement_id"`
	StockItemID      uuid.UUID  `json:"stock_item_id"`
	VariantID        uuid.UUID  `json:"variant_id"`
	StockLocationID  uuid.UUID  `json:"stock_location_id"`
	Quantity         int        `json:"quantity"`
	Originator       Originator `json:"originator"`
	Action           string     `json:"action"`
	Reason           string     `json:"reason,omitempty"`
	OrderID          *uuid.UUID `json:"order_id,omitempty"`
	ShipmentID       *uuid.UUID `json:"shipment_id,omitempty"`
	QuantityOnHand   int        `json:"quantity_on_hand"`
	QuantityReserved int        `json:"quantity_reserved"`
	RecordedAt       time.Time  `json:"recorded_at"`
}

// NewStockMovementRecordedEvent creates a new StockMovementRecordedEvent
func NewStockMovementRecordedEvent(item *StockItem, m *StockMovement) *StockMovementRecordedEvent {
	return &StockMovementRecordedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeStockMovementRecorded, AggregateTypeStockItem, item.ID),
		MovementID:       m.ID,
		StockItemID:      item.ID,
		VariantID:        item.VariantID,
		StockLocationID:  item.StockLocationID,
		Quantity:         m.Quantity,
		Originator:       m.Originator,
		Action:           m.Action,
		Reason:           m.Reason,
		OrderID:          m.OrderID,
		ShipmentID:       m.ShipmentID,
		QuantityOnHand:   item.QuantityOnHand,
		QuantityReserved: item.QuantityReserved,
		RecordedAt:       m.CreatedAt,
	}
}

// StockItemDeletedEvent is raised when a stock row without history is removed
type StockItemDeletedEvent struct {
	shared.BaseDomainEvent
	StockItemID     uuid.UUID `json:"stock_item_id"`
	VariantID       uuid.UUID `json:"variant_id"`
	StockLocationID uuid.UUID `json:"stock_location_id"`
	SKU             string    `json:"sku"`
}

// NewStockItemDeletedEvent creates a new StockItemDeletedEvent
func NewStockItemDeletedEvent(item *StockItem) *StockItemDeletedEvent {
	return &StockItemDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockItemDeleted, AggregateTypeStockItem, item.ID),
		StockItemID:     item.ID,
		VariantID:       item.VariantID,
		StockLocationID: item.StockLocationID,
		SKU:             item.SKU,
	}
}
