package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/resys/stockledger/internal/application/event"
)

// OutboxHandler exposes dead letter inspection and replay
type OutboxHandler struct {
	BaseHandler
	service *event.OutboxService
}

// NewOutboxHandler creates a new OutboxHandler
func NewOutboxHandler(service *event.OutboxService) *OutboxHandler {
	return &OutboxHandler{service: service}
}

// ListDead handles GET /system/outbox/dead
func (h *OutboxHandler) ListDead(c *gin.Context) {
	var filter event.OutboxFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	entries, total, page, err := h.service.ListDead(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, entries, total, page.Page, page.PageSize)
}

// Get handles GET /system/outbox/:id
func (h *OutboxHandler) Get(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	entry, err := h.service.GetEntry(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// Retry handles POST /system/outbox/:id/retry
func (h *OutboxHandler) Retry(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	entry, err := h.service.RetryDead(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// RetryAll handles POST /system/outbox/dead/retry
func (h *OutboxHandler) RetryAll(c *gin.Context) {
	result, err := h.service.RetryAllDead(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Stats handles GET /system/outbox/stats
func (h *OutboxHandler) Stats(c *gin.Context) {
	stats, err := h.service.GetStats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}
