package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/resys/stockledger/internal/domain/inventory"
	"github.com/resys/stockledger/internal/domain/shared"
	"github.com/resys/stockledger/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// reservationOriginators are the movements that move quantityReserved
var reservationOriginators = []string{
	inventory.OriginatorReservation.String(),
	inventory.OriginatorRelease.String(),
	inventory.OriginatorShipment.String(),
}

// GormStockMovementRepository implements the append-only StockMovementRepository using GORM
type GormStockMovementRepository struct {
	db *gorm.DB
}

// NewGormStockMovementRepository creates a new GormStockMovementRepository
func NewGormStockMovementRepository(db *gorm.DB) *GormStockMovementRepository {
	return &GormStockMovementRepository{db: db}
}

// Append inserts movements
func (r *GormStockMovementRepository) Append(ctx context.Context, movements ...*inventory.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}
	rows := make([]*models.StockMovementModel, len(movements))
	for i, m := range movements {
		rows[i] = models.StockMovementModelFromDomain(m)
	}
	err := r.db.WithContext(ctx).Create(&rows).Error
	return duplicate(err, shared.CodeAlreadyExists, "shipment already confirmed for this stock item")
}

// ListByStockItem returns a page of movements of one stock item and the total count
func (r *GormStockMovementRepository) ListByStockItem(ctx context.Context, stockItemID uuid.UUID, filter inventory.MovementFilter) ([]inventory.StockMovement, int64, error) {
	filter.Filter = filter.Normalize()
	query := r.db.WithContext(ctx).Model(&models.StockMovementModel{}).
		Where("stock_item_id = ?", stockItemID)
	if filter.Originator != nil {
		query = query.Where("originator = ?", filter.Originator.String())
	}
	if filter.OrderID != nil {
		query = query.Where("order_id = ?", *filter.OrderID)
	}
	if filter.ShipmentID != nil {
		query = query.Where("shipment_id = ?", *filter.ShipmentID)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.StockMovementModel
	err := query.
		Order(orderClause(filter.OrderBy, filter.OrderDir, inventory.MovementSortFields, "created_at")).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return toDomainMovements(rows), total, nil
}

// AllForStockItem returns every movement of a stock item in chronological order
func (r *GormStockMovementRepository) AllForStockItem(ctx context.Context, stockItemID uuid.UUID) ([]inventory.StockMovement, error) {
	var rows []models.StockMovementModel
	err := r.db.WithContext(ctx).
		Where("stock_item_id = ?", stockItemID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDomainMovements(rows), nil
}

// CountByStockItem counts the movements of a stock item
func (r *GormStockMovementRepository) CountByStockItem(ctx context.Context, stockItemID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.StockMovementModel{}).
		Where("stock_item_id = ?", stockItemID).
		Count(&count).Error
	return count, err
}

// SumReservedForOrder returns the units currently reserved for an order at a stock item
func (r *GormStockMovementRepository) SumReservedForOrder(ctx context.Context, stockItemID, orderID uuid.UUID) (int, error) {
	var sum int
	err := r.db.WithContext(ctx).Model(&models.StockMovementModel{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("stock_item_id = ? AND order_id = ? AND originator IN ?", stockItemID, orderID, reservationOriginators).
		Scan(&sum).Error
	return sum, err
}

// ExistsForShipment reports whether a shipment movement was already recorded for the shipment
func (r *GormStockMovementRepository) ExistsForShipment(ctx context.Context, stockItemID, shipmentID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.StockMovementModel{}).
		Where("stock_item_id = ? AND shipment_id = ? AND originator = ?",
			stockItemID, shipmentID, inventory.OriginatorShipment.String()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func toDomainMovements(rows []models.StockMovementModel) []inventory.StockMovement {
	out := make([]inventory.StockMovement, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

var _ inventory.StockMovementRepository = (*GormStockMovementRepository)(nil)
