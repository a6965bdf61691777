package inventory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/resys/stockledger/internal/domain/inventory"
	"github.com/resys/stockledger/internal/domain/shared"
)

// memStore is an in-memory stand-in for the database. Execute holds the lock for
// the whole transaction and restores a snapshot when the transaction fails.
type memStore struct {
	mu        sync.Mutex
	items     map[uuid.UUID]inventory.StockItem
	locations map[uuid.UUID]inventory.StockLocation
	movements []inventory.StockMovement
	events    []shared.DomainEvent

	// beforeSave runs inside SaveWithLock before the version check
	beforeSave func(stored *inventory.StockItem)
	recordErr  error
}

func newMemStore() *memStore {
	return &memStore{
		items:     make(map[uuid.UUID]inventory.StockItem),
		locations: make(map[uuid.UUID]inventory.StockLocation),
	}
}

type memSnapshot struct {
	items     map[uuid.UUID]inventory.StockItem
	locations map[uuid.UUID]inventory.StockLocation
	movements []inventory.StockMovement
	events    []shared.DomainEvent
}

func (s *memStore) snapshot() memSnapshot {
	snap := memSnapshot{
		items:     make(map[uuid.UUID]inventory.StockItem, len(s.items)),
		locations: make(map[uuid.UUID]inventory.StockLocation, len(s.locations)),
		movements: append([]inventory.StockMovement(nil), s.movements...),
		events:    append([]shared.DomainEvent(nil), s.events...),
	}
	for k, v := range s.items {
		snap.items[k] = v
	}
	for k, v := range s.locations {
		snap.locations[k] = v
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.items = snap.items
	s.locations = snap.locations
	s.movements = snap.movements
	s.events = snap.events
}

// Execute implements TransactionScope
func (s *memStore) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(&memRepos{s: s, inTx: true}); err != nil {
		s.restore(snap)
		return err
	}
	if err := ctx.Err(); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *memStore) repos() *memRepos {
	return &memRepos{s: s}
}

func (s *memStore) addLocation(code string) *inventory.StockLocation {
	loc, err := inventory.NewStockLocation(code, code+" warehouse")
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations[loc.ID] = *loc
	return loc
}

func (s *memStore) item(id uuid.UUID) inventory.StockItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[id]
}

func (s *memStore) movementsFor(id uuid.UUID) []inventory.StockMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []inventory.StockMovement
	for _, m := range s.movements {
		if m.StockItemID == id {
			out = append(out, m)
		}
	}
	return out
}

func (s *memStore) eventTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	for i, e := range s.events {
		out[i] = e.EventType()
	}
	return out
}

// memRepos implements every repository over memStore. Outside a transaction each call takes the lock.
type memRepos struct {
	s    *memStore
	inTx bool
}

func (r *memRepos) lock() func() {
	if r.inTx {
		return func() {}
	}
	r.s.mu.Lock()
	return r.s.mu.Unlock
}

func (r *memRepos) StockItemRepo() inventory.StockItemRepository { return (*memItemRepo)(r) }
func (r *memRepos) MovementRepo() inventory.StockMovementRepository { return (*memMovementRepo)(r) }
func (r *memRepos) LocationRepo() inventory.StockLocationRepository { return (*memLocationRepo)(r) }
func (r *memRepos) Events() shared.EventRecorder { return (*memRecorder)(r) }

type memItemRepo memRepos

func (r *memItemRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.StockItem, error) {
	defer (*memRepos)(r).lock()()
	item, ok := r.s.items[id]
	if !ok {
		return nil, shared.NewDomainError(shared.CodeStockItemNotFound, "Stock item not found")
	}
	return &item, nil
}

func (r *memItemRepo) FindByVariantAndLocation(_ context.Context, variantID, locationID uuid.UUID) (*inventory.StockItem, error) {
	defer (*memRepos)(r).lock()()
	for _, item := range r.s.items {
		if item.VariantID == variantID && item.StockLocationID == locationID {
			return &item, nil
		}
	}
	return nil, shared.NewDomainError(shared.CodeStockItemNotFound, "Stock item not found")
}

func (r *memItemRepo) ExistsBySKU(_ context.Context, locationID uuid.UUID, sku string, excludeID *uuid.UUID) (bool, error) {
	defer (*memRepos)(r).lock()()
	for _, item := range r.s.items {
		if excludeID != nil && item.ID == *excludeID {
			continue
		}
		if item.StockLocationID == locationID && item.SKU == strings.TrimSpace(sku) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memItemRepo) ExistsByVariantAndLocation(_ context.Context, variantID, locationID uuid.UUID) (bool, error) {
	defer (*memRepos)(r).lock()()
	for _, item := range r.s.items {
		if item.VariantID == variantID && item.StockLocationID == locationID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memItemRepo) List(_ context.Context, filter inventory.StockItemFilter) ([]inventory.StockItem, int64, error) {
	defer (*memRepos)(r).lock()()
	var out []inventory.StockItem
	for _, item := range r.s.items {
		if filter.StockLocationID != nil && item.StockLocationID != *filter.StockLocationID {
			continue
		}
		if filter.VariantID != nil && item.VariantID != *filter.VariantID {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, int64(len(out)), nil
}

func (r *memItemRepo) Create(_ context.Context, item *inventory.StockItem) error {
	defer (*memRepos)(r).lock()()
	r.s.items[item.ID] = *item
	return nil
}

func (r *memItemRepo) SaveWithLock(_ context.Context, item *inventory.StockItem) error {
	defer (*memRepos)(r).lock()()
	stored, ok := r.s.items[item.ID]
	if !ok {
		return shared.NewDomainError(shared.CodeStockItemNotFound, "Stock item not found")
	}
	if r.s.beforeSave != nil {
		r.s.beforeSave(&stored)
		r.s.items[item.ID] = stored
	}
	if stored.Version != item.Version-1 {
		return shared.NewDomainError(shared.CodeConcurrencyConflict, "Stock item was modified by another transaction")
	}
	r.s.items[item.ID] = *item
	return nil
}

func (r *memItemRepo) Delete(_ context.Context, id uuid.UUID) error {
	defer (*memRepos)(r).lock()()
	if _, ok := r.s.items[id]; !ok {
		return shared.NewDomainError(shared.CodeStockItemNotFound, "Stock item not found")
	}
	delete(r.s.items, id)
	return nil
}

type memMovementRepo memRepos

func (r *memMovementRepo) Append(_ context.Context, movements ...*inventory.StockMovement) error {
	defer (*memRepos)(r).lock()()
	for _, m := range movements {
		r.s.movements = append(r.s.movements, *m)
	}
	return nil
}

func (r *memMovementRepo) ListByStockItem(_ context.Context, stockItemID uuid.UUID, filter inventory.MovementFilter) ([]inventory.StockMovement, int64, error) {
	defer (*memRepos)(r).lock()()
	var out []inventory.StockMovement
	for _, m := range r.s.movements {
		if m.StockItemID != stockItemID {
			continue
		}
		if filter.Originator != nil && m.Originator != *filter.Originator {
			continue
		}
		if filter.OrderID != nil && (m.OrderID == nil || *m.OrderID != *filter.OrderID) {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

func (r *memMovementRepo) AllForStockItem(_ context.Context, stockItemID uuid.UUID) ([]inventory.StockMovement, error) {
	defer (*memRepos)(r).lock()()
	var out []inventory.StockMovement
	for _, m := range r.s.movements {
		if m.StockItemID == stockItemID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memMovementRepo) CountByStockItem(_ context.Context, stockItemID uuid.UUID) (int64, error) {
	defer (*memRepos)(r).lock()()
	var n int64
	for _, m := range r.s.movements {
		if m.StockItemID == stockItemID {
			n++
		}
	}
	return n, nil
}

func (r *memMovementRepo) SumReservedForOrder(_ context.Context, stockItemID, orderID uuid.UUID) (int, error) {
	defer (*memRepos)(r).lock()()
	total := 0
	for _, m := range r.s.movements {
		if m.StockItemID == stockItemID && m.OrderID != nil && *m.OrderID == orderID && m.AffectsReserved() {
			total += m.Quantity
		}
	}
	return total, nil
}

func (r *memMovementRepo) ExistsForShipment(_ context.Context, stockItemID, shipmentID uuid.UUID) (bool, error) {
	defer (*memRepos)(r).lock()()
	for _, m := range r.s.movements {
		if m.StockItemID == stockItemID && m.Originator == inventory.OriginatorShipment &&
			m.ShipmentID != nil && *m.ShipmentID == shipmentID {
			return true, nil
		}
	}
	return false, nil
}

type memLocationRepo memRepos

func (r *memLocationRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.StockLocation, error) {
	defer (*memRepos)(r).lock()()
	loc, ok := r.s.locations[id]
	if !ok {
		return nil, shared.NewDomainError(shared.CodeStockLocationNotFound, "Stock location not found")
	}
	return &loc, nil
}

func (r *memLocationRepo) FindByCode(_ context.Context, code string) (*inventory.StockLocation, error) {
	defer (*memRepos)(r).lock()()
	for _, loc := range r.s.locations {
		if loc.Code == code {
			return &loc, nil
		}
	}
	return nil, shared.NewDomainError(shared.CodeStockLocationNotFound, "Stock location not found")
}

func (r *memLocationRepo) List(_ context.Context, _ shared.Filter) ([]inventory.StockLocation, int64, error) {
	defer (*memRepos)(r).lock()()
	var out []inventory.StockLocation
	for _, loc := range r.s.locations {
		out = append(out, loc)
	}
	return out, int64(len(out)), nil
}

func (r *memLocationRepo) Create(_ context.Context, location *inventory.StockLocation) error {
	defer (*memRepos)(r).lock()()
	r.s.locations[location.ID] = *location
	return nil
}

func (r *memLocationRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	defer (*memRepos)(r).lock()()
	_, ok := r.s.locations[id]
	return ok, nil
}

func (r *memLocationRepo) ExistsByCode(_ context.Context, code string) (bool, error) {
	defer (*memRepos)(r).lock()()
	for _, loc := range r.s.locations {
		if loc.Code == code {
			return true, nil
		}
	}
	return false, nil
}

type memRecorder memRepos

func (r *memRecorder) Record(_ context.Context, events ...shared.DomainEvent) error {
	defer (*memRepos)(r).lock()()
	if r.s.recordErr != nil {
		return r.s.recordErr
	}
	r.s.events = append(r.s.events, events...)
	return nil
}

type staticCatalog map[uuid.UUID]bool

func (c staticCatalog) VariantExists(_ context.Context, id uuid.UUID) (bool, error) {
	return c[id], nil
}

type countingMetrics struct {
	mu        sync.Mutex
	movements map[inventory.Originator]int
	conflicts map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{
		movements: make(map[inventory.Originator]int),
		conflicts: make(map[string]int),
	}
}

func (m *countingMetrics) RecordMovement(_ context.Context, originator inventory.Originator, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.movements[originator]++
}

func (m *countingMetrics) RecordConflict(_ context.Context, operation string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conflicts[operation]++
}
