package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/resys/stockledger/internal/domain/inventory"
	"github.com/resys/stockledger/internal/domain/shared"
)

// StockItemModel is the persistence model for the StockItem aggregate root.
type StockItemModel struct {
	AggregateModel
	VariantID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stock_items_variant_location,priority:1"`
	StockLocationID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stock_items_variant_location,priority:2;uniqueIndex:idx_stock_items_location_sku,priority:1"`
	SKU              string    `gorm:"column:sku;type:varchar(100);not null;uniqueIndex:idx_stock_items_location_sku,priority:2"`
	QuantityOnHand   int       `gorm:"not null;default:0"`
	QuantityReserved int       `gorm:"not null;default:0"`
	Backorderable    bool      `gorm:"not null;default:false"`
	PublicMetadata   JSONMap   `gorm:"type:jsonb"`
	PrivateMetadata  JSONMap   `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (StockItemModel) TableName() string {
	return "stock_items"
}

// ToDomain converts the persistence model to a domain StockItem
func (m *StockItemModel) ToDomain() *inventory.StockItem {
	return &inventory.StockItem{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		VariantID:         m.VariantID,
		StockLocationID:   m.StockLocationID,
		SKU:               m.SKU,
		QuantityOnHand:    m.QuantityOnHand,
		QuantityReserved:  m.QuantityReserved,
		Backorderable:     m.Backorderable,
		PublicMetadata:    inventory.Metadata(m.PublicMetadata),
		PrivateMetadata:   inventory.Metadata(m.PrivateMetadata),
	}
}

// FromDomain populates the persistence model from a domain StockItem
func (m *StockItemModel) FromDomain(s *inventory.StockItem) {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.VariantID = s.VariantID
	m.StockLocationID = s.StockLocationID
	m.SKU = s.SKU
	m.QuantityOnHand = s.QuantityOnHand
	m.QuantityReserved = s.QuantityReserved
	m.Backorderable = s.Backorderable
	m.PublicMetadata = JSONMap(s.PublicMetadata)
	m.PrivateMetadata = JSONMap(s.PrivateMetadata)
}

// StockItemModelFromDomain creates a new persistence model from a domain StockItem
func StockItemModelFromDomain(s *inventory.StockItem) *StockItemModel {
	m := &StockItemModel{}
	m.FromDomain(s)
	return m
}

// StockMovementModel is the persistence model for ledger entries. Rows are insert-only.
type StockMovementModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	StockItemID uuid.UUID  `gorm:"type:uuid;not null;index:idx_stock_movements_item_created,priority:1"`
	Quantity    int        `gorm:"not null"`
	Originator  string     `gorm:"type:varchar(20);not null"`
	Action      string     `gorm:"type:varchar(50)"`
	Reason      string     `gorm:"type:varchar(255)"`
	OrderID     *uuid.UUID `gorm:"type:uuid;index"`
	ShipmentID  *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt   time.Time  `gorm:"not null;index:idx_stock_movements_item_created,priority:2"`
}

// TableName returns the table name for GORM
func (StockMovementModel) TableName() string {
	return "stock_movements"
}

// ToDomain converts the persistence model to a domain StockMovement
func (m *StockMovementModel) ToDomain() inventory.StockMovement {
	return inventory.StockMovement{
		ID:          m.ID,
		StockItemID: m.StockItemID,
		Quantity:    m.Quantity,
		Originator:  inventory.Originator(m.Originator),
		Action:      m.Action,
		Reason:      m.Reason,
		OrderID:     m.OrderID,
		ShipmentID:  m.ShipmentID,
		CreatedAt:   m.CreatedAt,
	}
}

// StockMovementModelFromDomain creates a new persistence model from a domain StockMovement
func StockMovementModelFromDomain(s *inventory.StockMovement) *StockMovementModel {
	return &StockMovementModel{
		ID:          s.ID,
		StockItemID: s.StockItemID,
		Quantity:    s.Quantity,
		Originator:  s.Originator.String(),
		Action:      s.Action,
		Reason:      s.Reason,
		OrderID:     s.OrderID,
		ShipmentID:  s.ShipmentID,
		CreatedAt:   s.CreatedAt,
	}
}

// StockLocationModel is the persistence model for stock locations
type StockLocationModel struct {
	BaseModel
	Code string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name string `gorm:"type:varchar(200);not null"`
}

// TableName returns the table name for GORM
func (StockLocationModel) TableName() string {
	return "stock_locations"
}

// ToDomain converts the persistence model to a domain StockLocation
func (m *StockLocationModel) ToDomain() *inventory.StockLocation {
	return &inventory.StockLocation{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Code: m.Code,
		Name: m.Name,
	}
}

// StockLocationModelFromDomain creates a new persistence model from a domain StockLocation
func StockLocationModelFromDomain(l *inventory.StockLocation) *StockLocationModel {
	m := &StockLocationModel{Code: l.Code, Name: l.Name}
	m.FromDomainBaseEntity(l.BaseEntity)
	return m
}
