package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/resys/stockledger/internal/domain/inventory"
	"github.com/resys/stockledger/internal/domain/shared"
	"github.com/resys/stockledger/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormStockItemRepository implements StockItemRepository using GORM
type GormStockItemRepository struct {
	db *gorm.DB
}

// NewGormStockItemRepository creates a new GormStockItemRepository
func NewGormStockItemRepository(db *gorm.DB) *GormStockItemRepository {
	return &GormStockItemRepository{db: db}
}

// FindByID finds a stock item by its ID
func (r *GormStockItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockItem, error) {
	var model models.StockItemModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err, shared.CodeStockItemNotFound, fmt.Sprintf("stock item %s not found", id))
	}
	return model.ToDomain(), nil
}

// FindByVariantAndLocation finds the stock row of a variant at a location
func (r *GormStockItemRepository) FindByVariantAndLocation(ctx context.Context, variantID, locationID uuid.UUID) (*inventory.StockItem, error) {
	var model models.StockItemModel
	err := r.db.WithContext(ctx).
		Where("variant_id = ? AND stock_location_id = ?", variantID, locationID).
		First(&model).Error
	if err != nil {
		return nil, notFound(err, shared.CodeStockItemNotFound,
			fmt.Sprintf("no stock item for variant %s at location %s", variantID, locationID))
	}
	return model.ToDomain(), nil
}

// ExistsBySKU checks whether a SKU is already used at the location, ignoring excludeID
func (r *GormStockItemRepository) ExistsBySKU(ctx context.Context, locationID uuid.UUID, sku string, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.StockItemModel{}).
		Where("stock_location_id = ? AND sku = ?", locationID, sku)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ExistsByVariantAndLocation checks the (variant, location) uniqueness
func (r *GormStockItemRepository) ExistsByVariantAndLocation(ctx context.Context, variantID, locationID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.StockItemModel{}).
		Where("variant_id = ? AND stock_location_id = ?", variantID, locationID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// List returns a page of stock items and the total count
func (r *GormStockItemRepository) List(ctx context.Context, filter inventory.StockItemFilter) ([]inventory.StockItem, int64, error) {
	filter.Filter = filter.Normalize()
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.StockItemModel{}), filter).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.StockItemModel
	err := query.
		Order(orderClause(filter.OrderBy, filter.OrderDir, inventory.StockItemSortFields, "created_at")).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	items := make([]inventory.StockItem, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return items, total, nil
}

// applyFilter applies listing filters without pagination
func (r *GormStockItemRepository) applyFilter(query *gorm.DB, filter inventory.StockItemFilter) *gorm.DB {
	if filter.VariantID != nil {
		query = query.Where("variant_id = ?", *filter.VariantID)
	}
	if filter.StockLocationID != nil {
		query = query.Where("stock_location_id = ?", *filter.StockLocationID)
	}
	if filter.InStock != nil {
		if *filter.InStock {
			query = query.Where("quantity_on_hand - quantity_reserved > 0")
		} else {
			query = query.Where("quantity_on_hand - quantity_reserved <= 0")
		}
	}
	if filter.Backorderable != nil {
		query = query.Where("backorderable = ?", *filter.Backorderable)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		query = query.Where("LOWER(sku) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	return query
}

// Create inserts a new stock item
func (r *GormStockItemRepository) Create(ctx context.Context, item *inventory.StockItem) error {
	err := r.db.WithContext(ctx).Create(models.StockItemModelFromDomain(item)).Error
	return duplicate(err, shared.CodeDuplicateStockItem,
		"a stock item already exists for this variant and location, or the SKU is taken")
}

// SaveWithLock saves with optimistic locking: the row is only updated while its
// stored version is still item.Version-1
func (r *GormStockItemRepository) SaveWithLock(ctx context.Context, item *inventory.StockItem) error {
	result := r.db.WithContext(ctx).
		Model(&models.StockItemModel{}).
		Where("id = ? AND version = ?", item.ID, item.Version-1).
		Updates(map[string]any{
			"sku":               item.SKU,
			"quantity_on_hand":  item.QuantityOnHand,
			"quantity_reserved": item.QuantityReserved,
			"backorderable":     item.Backorderable,
			"public_metadata":   models.JSONMap(item.PublicMetadata),
			"private_metadata":  models.JSONMap(item.PrivateMetadata),
			"version":           item.Version,
			"updated_at":        item.UpdatedAt,
		})

	if result.Error != nil {
		return duplicate(result.Error, shared.CodeDuplicateSKU, "SKU is already used at this location")
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeConcurrencyConflict, "Stock item was modified by another transaction")
	}
	return nil
}

// Delete removes a stock item
func (r *GormStockItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.StockItemModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeStockItemNotFound, fmt.Sprintf("stock item %s not found", id))
	}
	return nil
}

var _ inventory.StockItemRepository = (*GormStockItemRepository)(nil)
