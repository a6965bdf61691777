package inventory

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/resys/stockledger/internal/domain/shared"
)

// AggregateTypeStockItem is the aggregate type recorded on stock item events
const AggregateTypeStockItem = "StockItem"

// Metadata is an opaque key-value bag stored with a stock item. The engine never interprets it.
type Metadata map[string]any

// Clone returns a shallow copy of the metadata
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// StockItem holds the on-hand and reserved counters of one variant at one stock location.
// It is the only place where those counters are changed; every change is explained by
// a StockMovement returned in the operation's Change.
type StockItem struct {
	shared.BaseAggregateRoot
	VariantID        uuid.UUID
	StockLocationID  uuid.UUID
	SKU              string
	QuantityOnHand   int
	QuantityReserved int
	Backorderable    bool
	PublicMetadata   Metadata
	PrivateMetadata  Metadata
}

// Change is the outcome of a successful state-changing operation: the ledger
// entries to append and the events to hand to the outbox. An empty Change means
// the operation was a no-op and nothing needs to be persisted.
type Change struct {
	Movements []*StockMovement
	Events    []shared.DomainEvent
}

// IsEmpty reports whether the operation changed nothing
func (c *Change) IsEmpty() bool {
	return c == nil || (len(c.Movements) == 0 && len(c.Events) == 0)
}

// NewStockItemParams holds the values of a new stock row
type NewStockItemParams struct {
	VariantID        uuid.UUID
	StockLocationID  uuid.UUID
	SKU              string
	QuantityOnHand   int
	QuantityReserved int
	Backorderable    bool
	PublicMetadata   Metadata
	PrivateMetadata  Metadata
	// RecordInitialMovements emits receiving/reservation movements for the initial
	// counters so the ledger explains the row from zero.
	RecordInitialMovements bool
}

// NewStockItem creates a stock item. Existence of the variant and location and
// uniqueness of (sku, location) are checked by the caller.
func NewStockItem(p NewStockItemParams) (*StockItem, *Change, error) {
	if p.VariantID == uuid.Nil {
		return nil, nil, shared.NewDomainError(shared.CodeInvalidInput, "variant ID cannot be empty")
	}
	if p.StockLocationID == uuid.Nil {
		return nil, nil, shared.NewDomainError(shared.CodeInvalidInput, "stock location ID cannot be empty")
	}
	sku, err := normalizeSKU(p.SKU)
	if err != nil {
		return nil, nil, err
	}

	item := &StockItem{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		VariantID:         p.VariantID,
		StockLocationID:   p.StockLocationID,
		SKU:               sku,
		QuantityOnHand:    p.QuantityOnHand,
		QuantityReserved:  p.QuantityReserved,
		Backorderable:     p.Backorderable,
		PublicMetadata:    p.PublicMetadata.Clone(),
		PrivateMetadata:   p.PrivateMetadata.Clone(),
	}
	if err := item.checkInvariants(); err != nil {
		return nil, nil, err
	}

	change := &Change{}
	if p.RecordInitialMovements {
		if item.QuantityOnHand > 0 {
			m, _ := NewStockMovement(item.ID, item.QuantityOnHand, OriginatorReceiving, ActionInitialStock, "")
			change.Movements = append(change.Movements, m)
		}
		if item.QuantityReserved > 0 {
			m, _ := NewStockMovement(item.ID, item.QuantityReserved, OriginatorReservation, ActionInitialReserved, "")
			change.Movements = append(change.Movements, m)
		}
	}
	change.Events = append(change.Events, NewStockItemCreatedEvent(item))
	item.appendMovementEvents(change)
	return item, change, nil
}

// CountAvailable is the quantity that can still be promised. Negative only for backorderable items.
func (s *StockItem) CountAvailable() int {
	return s.QuantityOnHand - s.QuantityReserved
}

// InStock reports whether any units are physically present
func (s *StockItem) InStock() bool {
	return s.QuantityOnHand > 0
}

// StockItemUpdate is a partial update; nil fields are left unchanged
type StockItemUpdate struct {
	SKU              *string
	Backorderable    *bool
	QuantityOnHand   *int
	QuantityReserved *int
	PublicMetadata   *Metadata
	PrivateMetadata  *Metadata
}

// Update applies a partial update. Overwriting a counter records one movement per
// counter changed: an adjustment for on-hand, a reservation or release for reserved.
// A SKU change must already have been checked for uniqueness by the caller.
func (s *StockItem) Update(u StockItemUpdate) (*Change, error) {
	next := *s
	if u.SKU != nil {
		sku, err := normalizeSKU(*u.SKU)
		if err != nil {
			return nil, err
		}
		next.SKU = sku
	}
	if u.Backorderable != nil {
		next.Backorderable = *u.Backorderable
	}
	if u.QuantityOnHand != nil {
		next.QuantityOnHand = *u.QuantityOnHand
	}
	if u.QuantityReserved != nil {
		next.QuantityReserved = *u.QuantityReserved
	}
	if err := next.checkInvariants(); err != nil {
		return nil, err
	}

	change := &Change{}
	if delta := next.QuantityOnHand - s.QuantityOnHand; delta != 0 {
		m, _ := NewStockMovement(s.ID, delta, OriginatorAdjustment, ActionOnHandOverwrite, "")
		change.Movements = append(change.Movements, m)
	}
	if delta := next.QuantityReserved - s.QuantityReserved; delta != 0 {
		originator := OriginatorReservation
		if delta < 0 {
			originator = OriginatorRelease
		}
		m, _ := NewStockMovement(s.ID, delta, originator, ActionReservedOverwrite, "")
		change.Movements = append(change.Movements, m)
	}

	changedFields := s.diffFields(&next, u)
	if len(changedFields) == 0 {
		return &Change{}, nil
	}

	s.SKU = next.SKU
	s.Backorderable = next.Backorderable
	s.QuantityOnHand = next.QuantityOnHand
	s.QuantityReserved = next.QuantityReserved
	if u.PublicMetadata != nil {
		s.PublicMetadata = u.PublicMetadata.Clone()
	}
	if u.PrivateMetadata != nil {
		s.PrivateMetadata = u.PrivateMetadata.Clone()
	}
	s.markChanged()

	change.Events = append(change.Events, NewStockItemUpdatedEvent(s, changedFields))
	s.appendMovementEvents(change)
	return change, nil
}

// Adjust applies a signed delta to the on-hand count
func (s *StockItem) Adjust(quantity int, originator Originator, reason string) (*Change, error) {
	if quantity == 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidQuantity, "adjustment quantity cannot be zero")
	}
	if !originator.IsDirectAdjustment() {
		return nil, shared.NewDomainError(shared.CodeInvalidOriginator,
			fmt.Sprintf("originator %q cannot be used for a direct adjustment", originator))
	}
	newOnHand := s.QuantityOnHand + quantity
	if newOnHand < 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidQuantity,
			fmt.Sprintf("adjustment of %d would make on-hand quantity negative (on hand %d)", quantity, s.QuantityOnHand))
	}
	if !s.Backorderable && newOnHand < s.QuantityReserved {
		return nil, shared.NewDomainError(shared.CodeInsufficientStock,
			fmt.Sprintf("adjustment of %d would leave on-hand %d below reserved %d", quantity, newOnHand, s.QuantityReserved))
	}

	movement, err := NewStockMovement(s.ID, quantity, originator, ActionAdjust, reason)
	if err != nil {
		return nil, err
	}
	s.QuantityOnHand = newOnHand
	s.markChanged()
	return s.changeWith(movement), nil
}

// Reserve sets the total reserved for orderID at this row to target.
// reservedForOrder is what the ledger currently holds for the order; only the
// difference is applied, so repeating the same call is a no-op.
func (s *StockItem) Reserve(target int, orderID uuid.UUID, reservedForOrder int) (*Change, error) {
	if target < 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidQuantity, "reservation total cannot be negative")
	}
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "order ID cannot be empty")
	}

	delta := target - reservedForOrder
	if delta == 0 {
		return &Change{}, nil
	}

	if delta > 0 {
		if !s.Backorderable && s.QuantityReserved+delta > s.QuantityOnHand {
			return nil, shared.NewDomainError(shared.CodeInsufficientStock,
				fmt.Sprintf("cannot reserve %d more: %d available", delta, s.CountAvailable()))
		}
		movement, err := NewStockMovement(s.ID, delta, OriginatorReservation, ActionReserve, "")
		if err != nil {
			return nil, err
		}
		movement.WithOrder(orderID)
		s.QuantityReserved += delta
		s.markChanged()
		return s.changeWith(movement), nil
	}

	if -delta > s.QuantityReserved {
		return nil, shared.NewDomainError(shared.CodeInsufficientReserved,
			fmt.Sprintf("cannot reduce reservation by %d: only %d reserved", -delta, s.QuantityReserved))
	}
	movement, err := NewStockMovement(s.ID, delta, OriginatorRelease, ActionReservationReduce, "")
	if err != nil {
		return nil, err
	}
	movement.WithOrder(orderID)
	s.QuantityReserved += delta
	s.markChanged()
	return s.changeWith(movement), nil
}

// Release withdraws quantity units of reservation. orderID may be uuid.Nil for an
// administrative release not tied to an order.
func (s *StockItem) Release(quantity int, orderID uuid.UUID, reason string) (*Change, error) {
	if quantity <= 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidQuantity, "release quantity must be positive")
	}
	if quantity > s.QuantityReserved {
		return nil, shared.NewDomainError(shared.CodeInsufficientReserved,
			fmt.Sprintf("cannot release %d: only %d reserved", quantity, s.QuantityReserved))
	}

	movement, err := NewStockMovement(s.ID, -quantity, OriginatorRelease, ActionRelease, reason)
	if err != nil {
		return nil, err
	}
	movement.WithOrder(orderID)
	s.QuantityReserved -= quantity
	s.markChanged()
	return s.changeWith(movement), nil
}

// ConfirmShipment consumes quantity reserved units: both on-hand and reserved decrease.
func (s *StockItem) ConfirmShipment(quantity int, shipmentID, orderID uuid.UUID) (*Change, error) {
	if quantity <= 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidQuantity, "shipment quantity must be positive")
	}
	if shipmentID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "shipment ID cannot be empty")
	}
	if quantity > s.QuantityReserved {
		return nil, shared.NewDomainError(shared.CodeInsufficientReserved,
			fmt.Sprintf("cannot ship %d: only %d reserved", quantity, s.QuantityReserved))
	}
	if quantity > s.QuantityOnHand {
		return nil, shared.NewDomainError(shared.CodeInsufficientStock,
			fmt.Sprintf("cannot ship %d: only %d on hand", quantity, s.QuantityOnHand))
	}

	movement, err := NewStockMovement(s.ID, -quantity, OriginatorShipment, ActionConfirmShipment, "")
	if err != nil {
		return nil, err
	}
	movement.WithShipment(shipmentID).WithOrder(orderID)
	s.QuantityOnHand -= quantity
	s.QuantityReserved -= quantity
	s.markChanged()
	return s.changeWith(movement), nil
}

// EnsureDeletable refuses deletion when the row has ledger history
func (s *StockItem) EnsureDeletable(movementCount int64) error {
	if movementCount > 0 {
		return shared.NewDomainError(shared.CodeHasMovementHistory,
			fmt.Sprintf("stock item %s has %d recorded movements and cannot be deleted", s.ID, movementCount))
	}
	return nil
}

// MarkDeleted returns the change describing the removal of this row
func (s *StockItem) MarkDeleted() *Change {
	return &Change{Events: []shared.DomainEvent{NewStockItemDeletedEvent(s)}}
}

// Reconciliation compares the stored counters with what the ledger explains
type Reconciliation struct {
	StockItemID      uuid.UUID `json:"stock_item_id"`
	QuantityOnHand   int       `json:"quantity_on_hand"`
	QuantityReserved int       `json:"quantity_reserved"`
	LedgerOnHand     int       `json:"ledger_on_hand"`
	LedgerReserved   int       `json:"ledger_reserved"`
	OnHandDrift      int       `json:"on_hand_drift"`
	ReservedDrift    int       `json:"reserved_drift"`
	MovementCount    int       `json:"movement_count"`
	Balanced         bool      `json:"balanced"`
}

// Reconcile replays movements from the given baseline and reports drift
func (s *StockItem) Reconcile(baseline LedgerTotals, movements []StockMovement) Reconciliation {
	totals := ReplayLedger(baseline, movements)
	r := Reconciliation{
		StockItemID:      s.ID,
		QuantityOnHand:   s.QuantityOnHand,
		QuantityReserved: s.QuantityReserved,
		LedgerOnHand:     totals.OnHand,
		LedgerReserved:   totals.Reserved,
		OnHandDrift:      s.QuantityOnHand - totals.OnHand,
		ReservedDrift:    s.QuantityReserved - totals.Reserved,
		MovementCount:    len(movements),
	}
	r.Balanced = r.OnHandDrift == 0 && r.ReservedDrift == 0
	return r
}

func (s *StockItem) checkInvariants() error {
	if s.QuantityOnHand < 0 {
		return shared.NewDomainError(shared.CodeInvalidQuantity, "on-hand quantity cannot be negative")
	}
	if s.QuantityReserved < 0 {
		return shared.NewDomainError(shared.CodeInvalidQuantity, "reserved quantity cannot be negative")
	}
	if !s.Backorderable && s.QuantityReserved > s.QuantityOnHand {
		return shared.NewDomainError(shared.CodeInsufficientStock,
			fmt.Sprintf("reserved %d exceeds on-hand %d on a non-backorderable item", s.QuantityReserved, s.QuantityOnHand))
	}
	return nil
}

func (s *StockItem) diffFields(next *StockItem, u StockItemUpdate) []string {
	var fields []string
	if next.SKU != s.SKU {
		fields = append(fields, "sku")
	}
	if next.Backorderable != s.Backorderable {
		fields = append(fields, "backorderable")
	}
	if next.QuantityOnHand != s.QuantityOnHand {
		fields = append(fields, "quantity_on_hand")
	}
	if next.QuantityReserved != s.QuantityReserved {
		fields = append(fields, "quantity_reserved")
	}
	if u.PublicMetadata != nil {
		fields = append(fields, "public_metadata")
	}
	if u.PrivateMetadata != nil {
		fields = append(fields, "private_metadata")
	}
	return fields
}

func (s *StockItem) markChanged() {
	s.Touch()
	s.IncrementVersion()
}

func (s *StockItem) changeWith(movements ...*StockMovement) *Change {
	change := &Change{Movements: movements}
	s.appendMovementEvents(change)
	return change
}

func (s *StockItem) appendMovementEvents(change *Change) {
	for _, m := range change.Movements {
		change.Events = append(change.Events, NewStockMovementRecordedEvent(s, m))
	}
}

func normalizeSKU(sku string) (string, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return "", shared.NewDomainError(shared.CodeInvalidInput, "SKU cannot be empty")
	}
	if len(sku) > 100 {
		return "", shared.NewDomainError(shared.CodeInvalidInput, "SKU cannot exceed 100 characters")
	}
	return sku, nil
}
