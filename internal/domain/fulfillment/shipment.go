package fulfillment

import (
	"context"

	"github.com/google/uuid"
)

// ShipmentState is the lifecycle state of a shipment as reported by the order system
type ShipmentState string

const (
	ShipmentStatePending  ShipmentState = "pending"
	ShipmentStateReady    ShipmentState = "ready"
	ShipmentStateShipped  ShipmentState = "shipped"
	ShipmentStateCanceled ShipmentState = "canceled"
)

// Shipment is a read-only view of an upstream shipment. The stock engine never changes it.
type Shipment struct {
	ID              uuid.UUID
	OrderID         uuid.UUID
	StockLocationID uuid.UUID
	State           ShipmentState
	Units           []InventoryUnit
}

// InventoryUnit is one unit of a variant assigned to a shipment
type InventoryUnit struct {
	ID         uuid.UUID
	ShipmentID uuid.UUID
	VariantID  uuid.UUID
}

// IsOpen reports whether the shipment still holds a reservation
func (s *Shipment) IsOpen() bool {
	return s.State != ShipmentStateShipped && s.State != ShipmentStateCanceled
}

// IsShipped reports whether the shipment has left its location
func (s *Shipment) IsShipped() bool {
	return s.State == ShipmentStateShipped
}

// GroupUnitsByVariant counts the shipment's units per variant
func (s *Shipment) GroupUnitsByVariant() map[uuid.UUID]int {
	counts := make(map[uuid.UUID]int)
	for _, u := range s.Units {
		counts[u.VariantID]++
	}
	return counts
}

// Variants returns the distinct variants of the shipment in first-seen order
func (s *Shipment) Variants() []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	var out []uuid.UUID
	for _, u := range s.Units {
		if !seen[u.VariantID] {
			seen[u.VariantID] = true
			out = append(out, u.VariantID)
		}
	}
	return out
}

// ReservationTarget is what an order should hold reserved for one variant at one stock location.
// Units of a shipped shipment stay reserved until its shipment movement is recorded at the row.
type ReservationTarget struct {
	Open    int
	Shipped map[uuid.UUID]int
}

// ReservationTargetForVariant collects the units of a variant across the order's shipments at a location
func ReservationTargetForVariant(shipments []Shipment, locationID, variantID uuid.UUID) ReservationTarget {
	var target ReservationTarget
	for i := range shipments {
		s := &shipments[i]
		if s.StockLocationID != locationID {
			continue
		}
		units := s.GroupUnitsByVariant()[variantID]
		if units == 0 {
			continue
		}
		switch {
		case s.IsOpen():
			target.Open += units
		case s.IsShipped():
			if target.Shipped == nil {
				target.Shipped = make(map[uuid.UUID]int)
			}
			target.Shipped[s.ID] += units
		}
	}
	return target
}

// Total resolves the target. confirmed reports whether a shipped shipment was already consumed from the row.
func (t ReservationTarget) Total(confirmed func(shipmentID uuid.UUID) (bool, error)) (int, error) {
	total := t.Open
	for shipmentID, units := range t.Shipped {
		done, err := confirmed(shipmentID)
		if err != nil {
			return 0, err
		}
		if !done {
			total += units
		}
	}
	return total, nil
}

// ShipmentReader loads shipments from the order system's store
type ShipmentReader interface {
	// GetShipment returns the shipment with its units, or a NOT_FOUND domain error
	GetShipment(ctx context.Context, id uuid.UUID) (*Shipment, error)

	// ListByOrder returns all shipments of an order with their units
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]Shipment, error)
}
