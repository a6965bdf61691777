package inventory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/resys/stockledger/internal/domain/shared"
)

// Originator classifies the operation that produced a stock movement
type Originator string

const (
	// OriginatorAdjustment is a manual correction of the on-hand count (damage, recount, admin overwrite)
	OriginatorAdjustment Originator = "adjustment"
	// OriginatorReceiving is stock arriving at the location
	OriginatorReceiving Originator = "receiving"
	// OriginatorReservation is stock promised to an order
	OriginatorReservation Originator = "reservation"
	// OriginatorRelease is a promise withdrawn (order cancelled, line removed, shipment re-planned)
	OriginatorRelease Originator = "release"
	// OriginatorShipment is reserved stock leaving the location
	OriginatorShipment Originator = "shipment"
)

// AllOriginators lists every known originator
var AllOriginators = []Originator{
	OriginatorAdjustment,
	OriginatorReceiving,
	OriginatorReservation,
	OriginatorRelease,
	OriginatorShipment,
}

// String returns the string representation of the originator
func (o Originator) String() string {
	return string(o)
}

// IsValid returns true if the originator is known
func (o Originator) IsValid() bool {
	switch o {
	case OriginatorAdjustment,
		OriginatorReceiving,
		OriginatorReservation,
		OriginatorRelease,
		OriginatorShipment:
		return true
	}
	return false
}

// AffectsOnHand reports whether movements of this originator change quantityOnHand
func (o Originator) AffectsOnHand() bool {
	switch o {
	case OriginatorAdjustment, OriginatorReceiving, OriginatorShipment:
		return true
	}
	return false
}

// AffectsReserved reports whether movements of this originator change quantityReserved
func (o Originator) AffectsReserved() bool {
	switch o {
	case OriginatorReservation, OriginatorRelease, OriginatorShipment:
		return true
	}
	return false
}

// IsDirectAdjustment reports whether the originator may be used with Adjust
func (o Originator) IsDirectAdjustment() bool {
	return o == OriginatorAdjustment || o == OriginatorReceiving
}

// ParseOriginator parses a string into an Originator
func ParseOriginator(s string) (Originator, error) {
	o := Originator(s)
	if !o.IsValid() {
		return "", shared.NewDomainError(shared.CodeInvalidOriginator, fmt.Sprintf("unknown movement originator %q", s))
	}
	return o, nil
}

// Movement actions recorded alongside the originator
const (
	ActionInitialStock      = "initial_stock"
	ActionInitialReserved   = "initial_reserved"
	ActionAdjust            = "adjust"
	ActionReserve           = "reserve"
	ActionReservationReduce = "reservation_reduce"
	ActionRelease           = "release"
	ActionConfirmShipment   = "confirm_shipment"
	ActionOnHandOverwrite   = "on_hand_overwrite"
	ActionReservedOverwrite = "reserved_overwrite"
)

// StockMovement is one immutable ledger entry: a signed quantity change applied
// to a stock item and what caused it. Movements are never updated or deleted.
type StockMovement struct {
	ID          uuid.UUID
	StockItemID uuid.UUID
	Quantity    int
	Originator  Originator
	Action      string
	Reason      string
	OrderID     *uuid.UUID
	ShipmentID  *uuid.UUID
	CreatedAt   time.Time
}

// NewStockMovement creates a ledger entry. Quantity must be non-zero.
func NewStockMovement(stockItemID uuid.UUID, quantity int, originator Originator, action, reason string) (*StockMovement, error) {
	if stockItemID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "stock item ID cannot be empty")
	}
	if quantity == 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidQuantity, "movement quantity cannot be zero")
	}
	if !originator.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidOriginator, fmt.Sprintf("unknown movement originator %q", originator))
	}
	return &StockMovement{
		ID:          uuid.New(),
		StockItemID: stockItemID,
		Quantity:    quantity,
		Originator:  originator,
		Action:      action,
		Reason:      reason,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// WithOrder links the movement to an order
func (m *StockMovement) WithOrder(orderID uuid.UUID) *StockMovement {
	if orderID != uuid.Nil {
		m.OrderID = &orderID
	}
	return m
}

// WithShipment links the movement to a shipment
func (m *StockMovement) WithShipment(shipmentID uuid.UUID) *StockMovement {
	if shipmentID != uuid.Nil {
		m.ShipmentID = &shipmentID
	}
	return m
}

// IsIncrease returns true if the movement adds units
func (m *StockMovement) IsIncrease() bool {
	return m.Quantity > 0
}

// IsDecrease returns true if the movement removes units
func (m *StockMovement) IsDecrease() bool {
	return m.Quantity < 0
}

// AffectsOnHand reports whether this movement changed quantityOnHand
func (m *StockMovement) AffectsOnHand() bool {
	return m.Originator.AffectsOnHand()
}

// AffectsReserved reports whether this movement changed quantityReserved
func (m *StockMovement) AffectsReserved() bool {
	return m.Originator.AffectsReserved()
}

// LedgerTotals are counters rebuilt from a sequence of movements
type LedgerTotals struct {
	OnHand   int `json:"on_hand"`
	Reserved int `json:"reserved"`
}

// ReplayLedger folds movements onto a starting point and returns the resulting counters.
// Shipment movements count against both counters.
func ReplayLedger(initial LedgerTotals, movements []StockMovement) LedgerTotals {
	totals := initial
	for i := range movements {
		m := &movements[i]
		if m.AffectsOnHand() {
			totals.OnHand += m.Quantity
		}
		if m.AffectsReserved() {
			totals.Reserved += m.Quantity
		}
	}
	return totals
}

// MovementFilter narrows a movement listing for one stock item
type MovementFilter struct {
	shared.Filter
	Originator *Originator
	OrderID    *uuid.UUID
	ShipmentID *uuid.UUID
	From       *time.Time
	To         *time.Time
}

// MovementSortFields are the columns a movement listing may be ordered by
var MovementSortFields = map[string]bool{
	"created_at": true,
	"quantity":   true,
	"originator": true,
}

// DefaultMovementFilter returns a chronological, newest-first filter
func DefaultMovementFilter() MovementFilter {
	return MovementFilter{Filter: shared.DefaultFilter()}
}
