package handler

import (
	"github.com/gin-gonic/gin"
	inventoryapp "github.com/resys/stockledger/internal/application/inventory"
	"github.com/resys/stockledger/internal/domain/shared"
)

// StockItemHandler serves the stock item and ledger endpoints
type StockItemHandler struct {
	BaseHandler
	service *inventoryapp.StockItemService
}

// NewStockItemHandler creates a new StockItemHandler
func NewStockItemHandler(service *inventoryapp.StockItemService) *StockItemHandler {
	return &StockItemHandler{service: service}
}

// Create handles POST /stock-items
func (h *StockItemHandler) Create(c *gin.Context) {
	var req inventoryapp.CreateStockItemRequest
	if !h.bindJSON(c, &req) {
		return
	}

	item, err := h.service.CreateStockItem(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// Get handles GET /stock-items/:id
func (h *StockItemHandler) Get(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	item, err := h.service.GetStockItem(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// List handles GET /stock-items
func (h *StockItemHandler) List(c *gin.Context) {
	var filter inventoryapp.StockItemListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	items, total, err := h.service.ListStockItems(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page := filter.ToDomain().Filter
	h.SuccessWithMeta(c, items, total, page.Page, page.PageSize)
}

// Update handles PATCH /stock-items/:id
func (h *StockItemHandler) Update(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req inventoryapp.UpdateStockItemRequest
	if !h.bindJSON(c, &req) {
		return
	}

	item, err := h.service.UpdateStockItem(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Adjust handles POST /stock-items/:id/adjust
func (h *StockItemHandler) Adjust(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req inventoryapp.AdjustStockRequest
	if !h.bindJSON(c, &req) {
		return
	}

	item, err := h.service.AdjustStock(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Reserve handles POST /stock-items/:id/reserve
func (h *StockItemHandler) Reserve(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req inventoryapp.ReserveStockRequest
	if !h.bindJSON(c, &req) {
		return
	}

	item, err := h.service.ReserveStock(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Release handles POST /stock-items/:id/release
func (h *StockItemHandler) Release(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req inventoryapp.ReleaseStockRequest
	if !h.bindJSON(c, &req) {
		return
	}

	item, err := h.service.ReleaseStock(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// ConfirmShipment handles POST /stock-items/:id/ship
func (h *StockItemHandler) ConfirmShipment(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req inventoryapp.ConfirmShipmentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	item, err := h.service.ConfirmShipment(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Delete handles DELETE /stock-items/:id?version=N
func (h *StockItemHandler) Delete(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	version, ok := h.optionalVersion(c)
	if !ok {
		return
	}

	if err := h.service.DeleteStockItem(c.Request.Context(), id, version); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListMovements handles GET /stock-items/:id/movements
func (h *StockItemHandler) ListMovements(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var filter inventoryapp.MovementListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	movements, total, err := h.service.ListMovements(c.Request.Context(), id, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page := shared.Filter{Page: filter.Page, PageSize: filter.PageSize}.Normalize()
	h.SuccessWithMeta(c, movements, total, page.Page, page.PageSize)
}

// Reconcile handles GET /stock-items/:id/reconciliation
func (h *StockItemHandler) Reconcile(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	rec, err := h.service.ReconcileStockItem(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rec)
}
