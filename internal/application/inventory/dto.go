package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/resys/stockledger/internal/domain/inventory"
	"github.com/resys/stockledger/internal/domain/shared"
)

// StockItemResponse represents a stock item in API responses
type StockItemResponse struct {
	ID               uuid.UUID          `json:"id"`
	VariantID        uuid.UUID          `json:"variant_id"`
	StockLocationID  uuid.UUID          `json:"stock_location_id"`
	SKU              string             `json:"sku"`
	QuantityOnHand   int                `json:"quantity_on_hand"`
	QuantityReserved int                `json:"quantity_reserved"`
	CountAvailable   int                `json:"count_available"`
	InStock          bool               `json:"in_stock"`
	Backorderable    bool               `json:"backorderable"`
	PublicMetadata   inventory.Metadata `json:"public_metadata,omitempty"`
	PrivateMetadata  inventory.Metadata `json:"private_metadata,omitempty"`
	Version          int                `json:"version"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// ToStockItemResponse converts a domain StockItem to a response
func ToStockItemResponse(item *inventory.StockItem) StockItemResponse {
	return StockItemResponse{
		ID:               item.ID,
		VariantID:        item.VariantID,
		StockLocationID:  item.StockLocationID,
		SKU:              item.SKU,
		QuantityOnHand:   item.QuantityOnHand,
		QuantityReserved: item.QuantityReserved,
		CountAvailable:   item.CountAvailable(),
		InStock:          item.InStock(),
		Backorderable:    item.Backorderable,
		PublicMetadata:   item.PublicMetadata,
		PrivateMetadata:  item.PrivateMetadata,
		Version:          item.Version,
		CreatedAt:        item.CreatedAt,
		UpdatedAt:        item.UpdatedAt,
	}
}

// MovementResponse represents a ledger entry in API responses
type MovementResponse struct {
	ID          uuid.UUID  `json:"id"`
	StockItemID uuid.UUID  `json:"stock_item_id"`
	Quantity    int        `json:"quantity"`
	Originator  string     `json:"originator"`
	Action      string     `json:"action"`
	Reason      string     `json:"reason,omitempty"`
	OrderID     *uuid.UUID `json:"order_id,omitempty"`
	ShipmentID  *uuid.UUID `json:"shipment_id,omitempty"`
	IsIncrease  bool       `json:"is_increase"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ToMovementResponse converts a domain StockMovement to a response
func ToMovementResponse(m *inventory.StockMovement) MovementResponse {
	return MovementResponse{
		ID:          m.ID,
		StockItemID: m.StockItemID,
		Quantity:    m.Quantity,
		Originator:  m.Originator.String(),
		Action:      m.Action,
		Reason:      m.Reason,
		OrderID:     m.OrderID,
		ShipmentID:  m.ShipmentID,
		IsIncrease:  m.IsIncrease(),
		CreatedAt:   m.CreatedAt,
	}
}

// StockLocationResponse represents a stock location in API responses
type StockLocationResponse struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToStockLocationResponse converts a domain StockLocation to a response
func ToStockLocationResponse(l *inventory.StockLocation) StockLocationResponse {
	return StockLocationResponse{
		ID:        l.ID,
		Code:      l.Code,
		Name:      l.Name,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

// CreateStockItemRequest represents a request to create a stock row
type CreateStockItemRequest struct {
	VariantID        uuid.UUID          `json:"variant_id" binding:"required"`
	StockLocationID  uuid.UUID          `json:"stock_location_id" binding:"required"`
	SKU              string             `json:"sku" binding:"required,max=100"`
	QuantityOnHand   int                `json:"quantity_on_hand" binding:"min=0"`
	QuantityReserved int                `json:"quantity_reserved" binding:"min=0"`
	Backorderable    bool               `json:"backorderable"`
	PublicMetadata   inventory.Metadata `json:"public_metadata"`
	PrivateMetadata  inventory.Metadata `json:"private_metadata"`
}

// UpdateStockItemRequest represents a partial update. Version, when set, must match the stored version.
type UpdateStockItemRequest struct {
	SKU              *string             `json:"sku" binding:"omitempty,max=100"`
	Backorderable    *bool               `json:"backorderable"`
	QuantityOnHand   *int                `json:"quantity_on_hand" binding:"omitempty,min=0"`
	QuantityReserved *int                `json:"quantity_reserved" binding:"omitempty,min=0"`
	PublicMetadata   *inventory.Metadata `json:"public_metadata"`
	PrivateMetadata  *inventory.Metadata `json:"private_metadata"`
	Version          *int                `json:"version" binding:"omitempty,min=1"`
}

// AdjustStockRequest represents a signed on-hand adjustment
type AdjustStockRequest struct {
	Quantity   int    `json:"quantity" binding:"required,ne=0"`
	Originator string `json:"originator" binding:"required,originator"`
	Reason     string `json:"reason" binding:"max=255"`
	Version    *int   `json:"version" binding:"omitempty,min=1"`
}

// ReserveStockRequest sets the total reserved for an order at a stock row
type ReserveStockRequest struct {
	OrderID  uuid.UUID `json:"order_id" binding:"required"`
	Quantity int       `json:"quantity" binding:"min=0"`
	Version  *int      `json:"version" binding:"omitempty,min=1"`
}

// ReleaseStockRequest withdraws reserved units
type ReleaseStockRequest struct {
	Quantity int        `json:"quantity" binding:"required,min=1"`
	OrderID  *uuid.UUID `json:"order_id"`
	Reason   string     `json:"reason" binding:"max=255"`
	Version  *int       `json:"version" binding:"omitempty,min=1"`
}

// ConfirmShipmentRequest consumes reserved units for a shipment
type ConfirmShipmentRequest struct {
	Quantity   int        `json:"quantity" binding:"required,min=1"`
	ShipmentID uuid.UUID  `json:"shipment_id" binding:"required"`
	OrderID    *uuid.UUID `json:"order_id"`
	Version    *int       `json:"version" binding:"omitempty,min=1"`
}

// CreateStockLocationRequest represents a request to register a stock location
type CreateStockLocationRequest struct {
	Code string `json:"code" binding:"required,max=50"`
	Name string `json:"name" binding:"required,max=200"`
}

// StockItemListFilter represents filter options for stock item lists
type StockItemListFilter struct {
	Search          string     `form:"search"`
	VariantID       *uuid.UUID `form:"variant_id"`
	StockLocationID *uuid.UUID `form:"stock_location_id"`
	InStock         *bool      `form:"in_stock"`
	Backorderable   *bool      `form:"backorderable"`
	Page            int        `form:"page" binding:"omitempty,min=1"`
	PageSize        int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy         string     `form:"order_by"`
	OrderDir        string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToDomain converts the list filter to the repository filter
func (f StockItemListFilter) ToDomain() inventory.StockItemFilter {
	base := shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		OrderBy:  f.OrderBy,
		OrderDir: f.OrderDir,
		Search:   f.Search,
	}.Normalize()
	if !inventory.StockItemSortFields[base.OrderBy] {
		base.OrderBy = "created_at"
	}
	return inventory.StockItemFilter{
		Filter:          base,
		VariantID:       f.VariantID,
		StockLocationID: f.StockLocationID,
		InStock:         f.InStock,
		Backorderable:   f.Backorderable,
	}
}

// MovementListFilter represents filter options for a stock item's movement history
type MovementListFilter struct {
	Originator string     `form:"originator" binding:"omitempty,originator"`
	OrderID    *uuid.UUID `form:"order_id"`
	ShipmentID *uuid.UUID `form:"shipment_id"`
	From       *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To         *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToDomain converts the list filter to the repository filter
func (f MovementListFilter) ToDomain() (inventory.MovementFilter, error) {
	base := shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		OrderBy:  f.OrderBy,
		OrderDir: f.OrderDir,
	}.Normalize()
	if !inventory.MovementSortFields[base.OrderBy] {
		base.OrderBy = "created_at"
	}
	filter := inventory.MovementFilter{
		Filter:     base,
		OrderID:    f.OrderID,
		ShipmentID: f.ShipmentID,
		From:       f.From,
		To:         f.To,
	}
	if f.Originator != "" {
		o, err := inventory.ParseOriginator(f.Originator)
		if err != nil {
			return filter, err
		}
		filter.Originator = &o
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return filter, shared.NewDomainError(shared.CodeInvalidInput, "'from' must not be after 'to'")
	}
	return filter, nil
}
