package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/resys/stockledger/internal/domain/fulfillment"
	"github.com/resys/stockledger/internal/domain/inventory"
	"github.com/resys/stockledger/internal/domain/shared"
	"github.com/resys/stockledger/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// StockMetrics receives counters about committed stock changes. Implementations must be safe for concurrent use.
type StockMetrics interface {
	RecordMovement(ctx context.Context, originator inventory.Originator, quantity int)
	RecordConflict(ctx context.Context, operation string)
}

// ServiceConfig holds the tunables of StockItemService
type ServiceConfig struct {
	// RecordInitialMovements explains initial counters of new rows with receiving/reservation movements
	RecordInitialMovements bool
	// ConflictRetries is how many times event-driven operations are attempted on CONCURRENCY_CONFLICT
	ConflictRetries int
	// ConflictBackoff is the base delay between attempts; attempt n waits n*ConflictBackoff
	ConflictBackoff time.Duration
}

// DefaultServiceConfig returns the default service configuration
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		RecordInitialMovements: true,
		ConflictRetries:        5,
		ConflictBackoff:        20 * time.Millisecond,
	}
}

// StockItemService runs stock commands: each one loads a row, applies the domain
// operation, saves it with a version check, appends the movements and records the
// events in the outbox, all inside one transaction.
type StockItemService struct {
	txScope      TransactionScope
	itemRepo     inventory.StockItemRepository
	movementRepo inventory.StockMovementRepository
	variants     inventory.VariantCatalog
	metrics      StockMetrics
	config       ServiceConfig
	logger       *zap.Logger
}

// NewStockItemService creates a new StockItemService.
// itemRepo and movementRepo serve the read-only queries outside transactions.
func NewStockItemService(
	txScope TransactionScope,
	itemRepo inventory.StockItemRepository,
	movementRepo inventory.StockMovementRepository,
	variants inventory.VariantCatalog,
	config ServiceConfig,
	logger *zap.Logger,
) *StockItemService {
	if config.ConflictRetries < 1 {
		config.ConflictRetries = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockItemService{
		txScope:      txScope,
		itemRepo:     itemRepo,
		movementRepo: movementRepo,
		variants:     variants,
		config:       config,
		logger:       logger,
	}
}

// SetMetrics sets the metrics sink (optional)
func (s *StockItemService) SetMetrics(metrics StockMetrics) {
	s.metrics = metrics
}

// CreateStockItem creates the stock row of a variant at a location
func (s *StockItemService) CreateStockItem(ctx context.Context, req CreateStockItemRequest) (*StockItemResponse, error) {
	if s.variants != nil {
		exists, err := s.variants.VariantExists(ctx, req.VariantID)
		if err != nil {
			return nil, fmt.Errorf("failed to check variant: %w", err)
		}
		if !exists {
			return nil, shared.NewDomainError(shared.CodeVariantNotFound, "Variant not found")
		}
	}

	var created *inventory.StockItem
	var change *inventory.Change
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		locationExists, err := repos.LocationRepo().Exists(ctx, req.StockLocationID)
		if err != nil {
			return fmt.Errorf("failed to check stock location: %w", err)
		}
		if !locationExists {
			return shared.NewDomainError(shared.CodeStockLocationNotFound, "Stock location not found")
		}

		duplicate, err := repos.StockItemRepo().ExistsByVariantAndLocation(ctx, req.VariantID, req.StockLocationID)
		if err != nil {
			return fmt.Errorf("failed to check stock item uniqueness: %w", err)
		}
		if duplicate {
			return shared.NewDomainError(shared.CodeDuplicateStockItem, "A stock item already exists for this variant at this location")
		}

		skuTaken, err := repos.StockItemRepo().ExistsBySKU(ctx, req.StockLocationID, req.SKU, nil)
		if err != nil {
			return fmt.Errorf("failed to check SKU uniqueness: %w", err)
		}
		if skuTaken {
			return shared.NewDomainError(shared.CodeDuplicateSKU, fmt.Sprintf("SKU %q is already used at this location", req.SKU))
		}

		item, c, err := inventory.NewStockItem(inventory.NewStockItemParams{
			VariantID:              req.VariantID,
			StockLocationID:        req.StockLocationID,
			SKU:                    req.SKU,
			QuantityOnHand:         req.QuantityOnHand,
			QuantityReserved:       req.QuantityReserved,
			Backorderable:          req.Backorderable,
			PublicMetadata:         req.PublicMetadata,
			PrivateMetadata:        req.PrivateMetadata,
			RecordInitialMovements: s.config.RecordInitialMovements,
		})
		if err != nil {
			return err
		}
		if err := repos.StockItemRepo().Create(ctx, item); err != nil {
			return err
		}
		if err := s.appendChange(ctx, repos, c); err != nil {
			return err
		}
		created, change = item, c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, change)
	s.logger.Info("stock item created",
		zap.String("stock_item_id", created.ID.String()),
		zap.String("variant_id", created.VariantID.String()),
		zap.String("stock_location_id", created.StockLocationID.String()),
		zap.Int("quantity_on_hand", created.QuantityOnHand),
	)
	resp := ToStockItemResponse(created)
	return &resp, nil
}

// GetStockItem retrieves a stock item by ID
func (s *StockItemService) GetStockItem(ctx context.Context, id uuid.UUID) (*StockItemResponse, error) {
	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToStockItemResponse(item)
	return &resp, nil
}

// ListStockItems returns a page of stock items and the total count
func (s *StockItemService) ListStockItems(ctx context.Context, filter StockItemListFilter) ([]StockItemResponse, int64, error) {
	items, total, err := s.itemRepo.List(ctx, filter.ToDomain())
	if err != nil {
		return nil, 0, err
	}
	out := make([]StockItemResponse, len(items))
	for i := range items {
		out[i] = ToStockItemResponse(&items[i])
	}
	return out, total, nil
}

// UpdateStockItem applies a partial update to a stock item
func (s *StockItemService) UpdateStockItem(ctx context.Context, id uuid.UUID, req UpdateStockItemRequest) (*StockItemResponse, error) {
	item, err := s.mutate(ctx, s.byID(id), req.Version, func(repos TransactionalRepositories, item *inventory.StockItem) (*inventory.Change, error) {
		if req.SKU != nil && *req.SKU != item.SKU {
			taken, err := repos.StockItemRepo().ExistsBySKU(ctx, item.StockLocationID, *req.SKU, &item.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to check SKU uniqueness: %w", err)
			}
			if taken {
				return nil, shared.NewDomainError(shared.CodeDuplicateSKU, fmt.Sprintf("SKU %q is already used at this location", *req.SKU))
			}
		}
		return item.Update(inventory.StockItemUpdate{
			SKU:              req.SKU,
			Backorderable:    req.Backorderable,
			QuantityOnHand:   req.QuantityOnHand,
			QuantityReserved: req.QuantityReserved,
			PublicMetadata:   req.PublicMetadata,
			PrivateMetadata:  req.PrivateMetadata,
		})
	})
	if err != nil {
		return nil, err
	}
	resp := ToStockItemResponse(item)
	return &resp, nil
}

// AdjustStock applies a signed delta to a stock item's on-hand count
func (s *StockItemService) AdjustStock(ctx context.Context, id uuid.UUID, req AdjustStockRequest) (*StockItemResponse, error) {
	originator, err := inventory.ParseOriginator(req.Originator)
	if err != nil {
		return nil, err
	}
	item, err := s.mutate(ctx, s.byID(id), req.Version, func(_ TransactionalRepositories, item *inventory.StockItem) (*inventory.Change, error) {
		return item.Adjust(req.Quantity, originator, req.Reason)
	})
	if err != nil {
		return nil, err
	}
	resp := ToStockItemResponse(item)
	return &resp, nil
}

// ReserveStock sets the total reserved for an order at a stock item
func (s *StockItemService) ReserveStock(ctx context.Context, id uuid.UUID, req ReserveStockRequest) (*StockItemResponse, error) {
	item, err := s.mutate(ctx, s.byID(id), req.Version, s.reserveOp(ctx, req.OrderID, fulfillment.ReservationTarget{Open: req.Quantity}))
	if err != nil {
		return nil, err
	}
	resp := ToStockItemResponse(item)
	return &resp, nil
}

// ReleaseStock withdraws reserved units from a stock item
func (s *StockItemService) ReleaseStock(ctx context.Context, id uuid.UUID, req ReleaseStockRequest) (*StockItemResponse, error) {
	orderID := uuid.Nil
	if req.OrderID != nil {
		orderID = *req.OrderID
	}
	item, err := s.mutate(ctx, s.byID(id), req.Version, func(_ TransactionalRepositories, item *inventory.StockItem) (*inventory.Change, error) {
		return item.Release(req.Quantity, orderID, req.Reason)
	})
	if err != nil {
		return nil, err
	}
	resp := ToStockItemResponse(item)
	return &resp, nil
}

// ConfirmShipment consumes reserved units of a stock item for a shipment.
// A shipment already confirmed at the row is skipped.
func (s *StockItemService) ConfirmShipment(ctx context.Context, id uuid.UUID, req ConfirmShipmentRequest) (*StockItemResponse, error) {
	orderID := uuid.Nil
	if req.OrderID != nil {
		orderID = *req.OrderID
	}
	item, err := s.mutate(ctx, s.byID(id), req.Version, s.confirmShipmentOp(ctx, req.Quantity, req.ShipmentID, orderID))
	if err != nil {
		return nil, err
	}
	resp := ToStockItemResponse(item)
	return &resp, nil
}

// DeleteStockItem removes a stock item that has no ledger history
func (s *StockItemService) DeleteStockItem(ctx context.Context, id uuid.UUID, expectedVersion *int) error {
	var change *inventory.Change
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		item, err := repos.StockItemRepo().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := item.CheckVersion(expectedVersion); err != nil {
			return err
		}
		count, err := repos.MovementRepo().CountByStockItem(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to count movements: %w", err)
		}
		if err := item.EnsureDeletable(count); err != nil {
			return err
		}
		if err := repos.StockItemRepo().Delete(ctx, id); err != nil {
			return err
		}
		change = item.MarkDeleted()
		return s.appendChange(ctx, repos, change)
	})
	if err != nil {
		return err
	}
	s.afterCommit(ctx, change)
	s.logger.Info("stock item deleted", zap.String("stock_item_id", id.String()))
	return nil
}

// ListMovements returns a page of a stock item's ledger
func (s *StockItemService) ListMovements(ctx context.Context, id uuid.UUID, filter MovementListFilter) ([]MovementResponse, int64, error) {
	domainFilter, err := filter.ToDomain()
	if err != nil {
		return nil, 0, err
	}
	if _, err := s.itemRepo.FindByID(ctx, id); err != nil {
		return nil, 0, err
	}
	movements, total, err := s.movementRepo.ListByStockItem(ctx, id, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]MovementResponse, len(movements))
	for i := range movements {
		out[i] = ToMovementResponse(&movements[i])
	}
	return out, total, nil
}

// ReconcileStockItem replays a stock item's ledger and compares it with the stored counters
func (s *StockItemService) ReconcileStockItem(ctx context.Context, id uuid.UUID) (*inventory.Reconciliation, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock_item", "reconcile", telemetry.SpanAttrStockItemID, id)
	defer span.End()

	var rec inventory.Reconciliation
	var err error
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels("reconcile", nil), func(ctx context.Context) {
		rec, err = s.reconcile(ctx, id)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, "balanced", rec.Balanced)
	return &rec, nil
}

func (s *StockItemService) reconcile(ctx context.Context, id uuid.UUID) (inventory.Reconciliation, error) {
	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return inventory.Reconciliation{}, err
	}
	movements, err := s.movementRepo.AllForStockItem(ctx, id)
	if err != nil {
		return inventory.Reconciliation{}, err
	}
	rec := item.Reconcile(inventory.LedgerTotals{}, movements)
	if !rec.Balanced {
		s.logger.Warn("stock item ledger drift detected",
			zap.String("stock_item_id", id.String()),
			zap.Int("on_hand_drift", rec.OnHandDrift),
			zap.Int("reserved_drift", rec.ReservedDrift),
		)
	}
	return rec, nil
}

// ReconcileSummary reports a reconciliation sweep over every stock item
type ReconcileSummary struct {
	Checked int                        `json:"checked"`
	Drifted []inventory.Reconciliation `json:"drifted"`
}

const reconcileSweepPageSize = 100

// ReconcileAll replays the ledger of every stock item and collects the rows whose
// counters drifted. Rows deleted while the sweep runs are skipped.
func (s *StockItemService) ReconcileAll(ctx context.Context) (*ReconcileSummary, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock_item", "reconcile_all")
	defer span.End()

	summary := &ReconcileSummary{}
	filter := inventory.StockItemFilter{Filter: shared.Filter{
		PageSize: reconcileSweepPageSize,
		OrderBy:  "created_at",
		OrderDir: "asc",
	}}
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		filter.Page = page
		items, total, err := s.itemRepo.List(ctx, filter)
		if err != nil {
			telemetry.RecordError(span, err)
			return summary, fmt.Errorf("failed to list stock items: %w", err)
		}
		for i := range items {
			rec, err := s.reconcile(ctx, items[i].ID)
			if err != nil {
				if shared.IsNotFound(err) {
					continue
				}
				telemetry.RecordError(span, err)
				return summary, fmt.Errorf("failed to reconcile stock item %s: %w", items[i].ID, err)
			}
			summary.Checked++
			if !rec.Balanced {
				summary.Drifted = append(summary.Drifted, rec)
			}
		}
		if len(items) < reconcileSweepPageSize || int64(page*reconcileSweepPageSize) >= total {
			break
		}
	}

	telemetry.SetAttributes(span, "checked", summary.Checked, "drifted", len(summary.Drifted))
	s.logger.Info("reconciliation sweep finished",
		zap.Int("checked", summary.Checked),
		zap.Int("drifted", len(summary.Drifted)),
	)
	return summary, nil
}

// ReserveForOrder sets the reservation of an order for a variant at a location.
// Used by the lifecycle event bridge; retried on concurrency conflicts.
func (s *StockItemService) ReserveForOrder(ctx context.Context, variantID, locationID, orderID uuid.UUID, total int) error {
	return s.SyncOrderReservation(ctx, variantID, locationID, orderID, fulfillment.ReservationTarget{Open: total})
}

// SyncOrderReservation sets the reservation of an order for a variant at a location to the
// resolved target. Shipped shipments are checked against the ledger inside the same transaction,
// so their units stay reserved until ConfirmShipment consumes them.
func (s *StockItemService) SyncOrderReservation(ctx context.Context, variantID, locationID, orderID uuid.UUID, target fulfillment.ReservationTarget) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock_item", "reserve_for_order",
		telemetry.SpanAttrVariantID, variantID,
		telemetry.SpanAttrLocationID, locationID,
		telemetry.SpanAttrOrderID, orderID,
		telemetry.SpanAttrQuantity, target.Open,
	)
	defer span.End()

	err := s.withConflictRetry(ctx, "reserve", func() error {
		_, err := s.mutate(ctx, s.byVariantAndLocation(variantID, locationID), nil, s.reserveOp(ctx, orderID, target))
		return err
	})
	telemetry.RecordError(span, err)
	return err
}

// ConfirmShipmentForVariant consumes the reserved units of a shipped variant at a location.
// Used by the lifecycle event bridge; retried on concurrency conflicts.
func (s *StockItemService) ConfirmShipmentForVariant(ctx context.Context, variantID, locationID, shipmentID, orderID uuid.UUID, quantity int) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock_item", "confirm_shipment_for_variant",
		telemetry.SpanAttrVariantID, variantID,
		telemetry.SpanAttrLocationID, locationID,
		telemetry.SpanAttrShipmentID, shipmentID,
		telemetry.SpanAttrQuantity, quantity,
	)
	defer span.End()

	err := s.withConflictRetry(ctx, "confirm_shipment", func() error {
		_, err := s.mutate(ctx, s.byVariantAndLocation(variantID, locationID), nil, s.confirmShipmentOp(ctx, quantity, shipmentID, orderID))
		return err
	})
	telemetry.RecordError(span, err)
	return err
}

type stockItemLoader func(ctx context.Context, repo inventory.StockItemRepository) (*inventory.StockItem, error)

type stockItemMutation func(repos TransactionalRepositories, item *inventory.StockItem) (*inventory.Change, error)

func (s *StockItemService) byID(id uuid.UUID) stockItemLoader {
	return func(ctx context.Context, repo inventory.StockItemRepository) (*inventory.StockItem, error) {
		return repo.FindByID(ctx, id)
	}
}

func (s *StockItemService) byVariantAndLocation(variantID, locationID uuid.UUID) stockItemLoader {
	return func(ctx context.Context, repo inventory.StockItemRepository) (*inventory.StockItem, error) {
		return repo.FindByVariantAndLocation(ctx, variantID, locationID)
	}
}

func (s *StockItemService) reserveOp(ctx context.Context, orderID uuid.UUID, target fulfillment.ReservationTarget) stockItemMutation {
	return func(repos TransactionalRepositories, item *inventory.StockItem) (*inventory.Change, error) {
		total, err := target.Total(func(shipmentID uuid.UUID) (bool, error) {
			return repos.MovementRepo().ExistsForShipment(ctx, item.ID, shipmentID)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to check shipment movements: %w", err)
		}
		current, err := repos.MovementRepo().SumReservedForOrder(ctx, item.ID, orderID)
		if err != nil {
			return nil, fmt.Errorf("failed to sum reservations for order: %w", err)
		}
		return item.Reserve(total, orderID, current)
	}
}

func (s *StockItemService) confirmShipmentOp(ctx context.Context, quantity int, shipmentID, orderID uuid.UUID) stockItemMutation {
	return func(repos TransactionalRepositories, item *inventory.StockItem) (*inventory.Change, error) {
		done, err := repos.MovementRepo().ExistsForShipment(ctx, item.ID, shipmentID)
		if err != nil {
			return nil, fmt.Errorf("failed to check shipment movements: %w", err)
		}
		if done {
			s.logger.Info("shipment already confirmed for stock item, skipping",
				zap.String("stock_item_id", item.ID.String()),
				zap.String("shipment_id", shipmentID.String()),
			)
			return &inventory.Change{}, nil
		}
		return item.ConfirmShipment(quantity, shipmentID, orderID)
	}
}

// mutate loads a row, checks the expected version, applies op and persists the result in one transaction
func (s *StockItemService) mutate(ctx context.Context, load stockItemLoader, expectedVersion *int, op stockItemMutation) (*inventory.StockItem, error) {
	var item *inventory.StockItem
	var change *inventory.Change
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		loaded, err := load(ctx, repos.StockItemRepo())
		if err != nil {
			return err
		}
		if err := loaded.CheckVersion(expectedVersion); err != nil {
			return err
		}
		c, err := op(repos, loaded)
		if err != nil {
			return err
		}
		if c.IsEmpty() {
			item, change = loaded, c
			return nil
		}
		if err := repos.StockItemRepo().SaveWithLock(ctx, loaded); err != nil {
			return err
		}
		if err := s.appendChange(ctx, repos, c); err != nil {
			return err
		}
		item, change = loaded, c
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.afterCommit(ctx, change)
	return item, nil
}

func (s *StockItemService) appendChange(ctx context.Context, repos TransactionalRepositories, change *inventory.Change) error {
	if len(change.Movements) > 0 {
		if err := repos.MovementRepo().Append(ctx, change.Movements...); err != nil {
			return fmt.Errorf("failed to append stock movements: %w", err)
		}
	}
	if len(change.Events) > 0 {
		if err := repos.Events().Record(ctx, change.Events...); err != nil {
			return fmt.Errorf("failed to record domain events: %w", err)
		}
	}
	return nil
}

func (s *StockItemService) afterCommit(ctx context.Context, change *inventory.Change) {
	if s.metrics == nil || change == nil {
		return
	}
	for _, m := range change.Movements {
		s.metrics.RecordMovement(ctx, m.Originator, m.Quantity)
	}
}

// withConflictRetry re-runs fn while it fails with CONCURRENCY_CONFLICT. fn must re-read state on every attempt.
func (s *StockItemService) withConflictRetry(ctx context.Context, operation string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= s.config.ConflictRetries; attempt++ {
		err = fn()
		if err == nil || !shared.IsConcurrencyConflict(err) {
			return err
		}
		if s.metrics != nil {
			s.metrics.RecordConflict(ctx, operation)
		}
		s.logger.Debug("concurrency conflict, retrying",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
		)
		if attempt == s.config.ConflictRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * s.config.ConflictBackoff):
		}
	}
	return err
}
