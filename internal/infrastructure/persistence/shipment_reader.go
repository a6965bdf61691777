package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/resys/stockledger/internal/domain/fulfillment"
	"github.com/resys/stockledger/internal/domain/shared"
	"github.com/resys/stockledger/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormShipmentReader reads shipments and their inventory units from the order
// system's tables. It never writes.
type GormShipmentReader struct {
	db *gorm.DB
}

// NewGormShipmentReader creates a new GormShipmentReader
func NewGormShipmentReader(db *gorm.DB) *GormShipmentReader {
	return &GormShipmentReader{db: db}
}

// GetShipment returns the shipment with its units
func (r *GormShipmentReader) GetShipment(ctx context.Context, id uuid.UUID) (*fulfillment.Shipment, error) {
	var model models.ShipmentModel
	if err := r.db.WithContext(ctx).Preload("Units").First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err, shared.CodeNotFound, fmt.Sprintf("shipment %s not found", id))
	}
	return model.ToDomain(), nil
}

// ListByOrder returns all shipments of an order with their units
func (r *GormShipmentReader) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]fulfillment.Shipment, error) {
	var rows []models.ShipmentModel
	err := r.db.WithContext(ctx).
		Preload("Units").
		Where("order_id = ?", orderID).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list shipments of order %s: %w", orderID, err)
	}
	out := make([]fulfillment.Shipment, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// GormVariantCatalog answers variant existence from the catalog's product_variants table
type GormVariantCatalog struct {
	db *gorm.DB
}

// NewGormVariantCatalog creates a new GormVariantCatalog
func NewGormVariantCatalog(db *gorm.DB) *GormVariantCatalog {
	return &GormVariantCatalog{db: db}
}

// VariantExists reports whether the variant is known to the catalog
func (c *GormVariantCatalog) VariantExists(ctx context.Context, variantID uuid.UUID) (bool, error) {
	var count int64
	err := c.db.WithContext(ctx).Model(&models.ProductVariantModel{}).Where("id = ?", variantID).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

var _ fulfillment.ShipmentReader = (*GormShipmentReader)(nil)
