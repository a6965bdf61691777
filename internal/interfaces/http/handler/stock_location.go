package handler

import (
	"github.com/gin-gonic/gin"
	inventoryapp "github.com/resys/stockledger/internal/application/inventory"
	"github.com/resys/stockledger/internal/domain/shared"
)

// StockLocationHandler serves the stock location registry
type StockLocationHandler struct {
	BaseHandler
	service *inventoryapp.StockLocationService
}

// NewStockLocationHandler creates a new StockLocationHandler
func NewStockLocationHandler(service *inventoryapp.StockLocationService) *StockLocationHandler {
	return &StockLocationHandler{service: service}
}

// locationListQuery is the query string of GET /stock-locations
type locationListQuery struct {
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=code name created_at"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// Create handles POST /stock-locations
func (h *StockLocationHandler) Create(c *gin.Context) {
	var req inventoryapp.CreateStockLocationRequest
	if !h.bindJSON(c, &req) {
		return
	}

	loc, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, loc)
}

// Get handles GET /stock-locations/:id
func (h *StockLocationHandler) Get(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	loc, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, loc)
}

// List handles GET /stock-locations
func (h *StockLocationHandler) List(c *gin.Context) {
	var q locationListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	if q.OrderBy == "" {
		q.OrderBy = "code"
	}
	filter := shared.Filter{
		Search:   q.Search,
		Page:     q.Page,
		PageSize: q.PageSize,
		OrderBy:  q.OrderBy,
		OrderDir: q.OrderDir,
	}.Normalize()

	locations, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, locations, total, filter.Page, filter.PageSize)
}
