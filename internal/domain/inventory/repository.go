package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/resys/stockledger/internal/domain/shared"
)

// StockItemFilter narrows a stock item listing
type StockItemFilter struct {
	shared.Filter
	VariantID       *uuid.UUID
	StockLocationID *uuid.UUID
	InStock         *bool
	Backorderable   *bool
}

// StockItemSortFields are the columns a stock item listing may be ordered by
var StockItemSortFields = map[string]bool{
	"created_at":        true,
	"updated_at":        true,
	"sku":               true,
	"quantity_on_hand":  true,
	"quantity_reserved": true,
}

// StockItemRepository defines the interface for stock item persistence
type StockItemRepository interface {
	// FindByID finds a stock item by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*StockItem, error)

	// FindByVariantAndLocation finds the stock row of a variant at a location
	FindByVariantAndLocation(ctx context.Context, variantID, locationID uuid.UUID) (*StockItem, error)

	// ExistsBySKU checks whether a SKU is already used at the location, ignoring excludeID
	ExistsBySKU(ctx context.Context, locationID uuid.UUID, sku string, excludeID *uuid.UUID) (bool, error)

	// ExistsByVariantAndLocation checks the (variant, location) uniqueness
	ExistsByVariantAndLocation(ctx context.Context, variantID, locationID uuid.UUID) (bool, error)

	// List returns a page of stock items and the total count
	List(ctx context.Context, filter StockItemFilter) ([]StockItem, int64, error)

	// Create inserts a new stock item
	Create(ctx context.Context, item *StockItem) error

	// SaveWithLock persists counters and attributes only if the stored version is item.Version-1.
	// Returns a CONCURRENCY_CONFLICT error otherwise.
	SaveWithLock(ctx context.Context, item *StockItem) error

	// Delete removes a stock item
	Delete(ctx context.Context, id uuid.UUID) error
}

// StockMovementRepository is the append-only ledger store
type StockMovementRepository interface {
	// Append inserts movements; existing movements are never updated
	Append(ctx context.Context, movements ...*StockMovement) error

	// ListByStockItem returns a page of movements of one stock item and the total count
	ListByStockItem(ctx context.Context, stockItemID uuid.UUID, filter MovementFilter) ([]StockMovement, int64, error)

	// AllForStockItem returns every movement of a stock item in chronological order
	AllForStockItem(ctx context.Context, stockItemID uuid.UUID) ([]StockMovement, error)

	// CountByStockItem counts the movements of a stock item
	CountByStockItem(ctx context.Context, stockItemID uuid.UUID) (int64, error)

	// SumReservedForOrder returns the units currently reserved for an order at a stock item,
	// as explained by its reservation, release and shipment movements
	SumReservedForOrder(ctx context.Context, stockItemID, orderID uuid.UUID) (int, error)

	// ExistsForShipment reports whether a shipment movement was already recorded for the shipment
	ExistsForShipment(ctx context.Context, stockItemID, shipmentID uuid.UUID) (bool, error)
}

// StockLocationRepository defines the interface for stock location persistence
type StockLocationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*StockLocation, error)
	FindByCode(ctx context.Context, code string) (*StockLocation, error)
	List(ctx context.Context, filter shared.Filter) ([]StockLocation, int64, error)
	Create(ctx context.Context, location *StockLocation) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
}

// VariantCatalog answers whether a product variant exists. Variants are owned by the catalog.
type VariantCatalog interface {
	VariantExists(ctx context.Context, variantID uuid.UUID) (bool, error)
}
