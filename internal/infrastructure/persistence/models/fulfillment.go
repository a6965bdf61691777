package models

import (
	"github.com/google/uuid"
	"github.com/resys/stockledger/internal/domain/fulfillment"
)

// ShipmentModel maps the order system's shipments table. The stock service only reads it.
type ShipmentModel struct {
	ID              uuid.UUID            `gorm:"type:uuid;primaryKey"`
	OrderID         uuid.UUID            `gorm:"type:uuid;not null;index"`
	StockLocationID uuid.UUID            `gorm:"type:uuid;not null"`
	State           string               `gorm:"type:varchar(20);not null"`
	Units           []InventoryUnitModel `gorm:"foreignKey:ShipmentID;references:ID"`
}

// TableName returns the table name for GORM
func (ShipmentModel) TableName() string {
	return "shipments"
}

// ToDomain converts the persistence model to a domain Shipment
func (m *ShipmentModel) ToDomain() *fulfillment.Shipment {
	s := &fulfillment.Shipment{
		ID:              m.ID,
		OrderID:         m.OrderID,
		StockLocationID: m.StockLocationID,
		State:           fulfillment.ShipmentState(m.State),
		Units:           make([]fulfillment.InventoryUnit, len(m.Units)),
	}
	for i, u := range m.Units {
		s.Units[i] = fulfillment.InventoryUnit{ID: u.ID, ShipmentID: u.ShipmentID, VariantID: u.VariantID}
	}
	return s
}

// InventoryUnitModel maps the order system's inventory_units table
type InventoryUnitModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	ShipmentID uuid.UUID `gorm:"type:uuid;not null;index"`
	VariantID  uuid.UUID `gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (InventoryUnitModel) TableName() string {
	return "inventory_units"
}

// ProductVariantModel maps the catalog's product_variants table; only existence is read
type ProductVariantModel struct {
	ID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	SKU string    `gorm:"column:sku;type:varchar(100)"`
}

// TableName returns the table name for GORM
func (ProductVariantModel) TableName() string {
	return "product_variants"
}
