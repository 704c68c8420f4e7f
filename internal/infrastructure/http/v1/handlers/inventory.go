package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/domain/inventory"
	"pharmaledger/internal/infrastructure/http/v1/dto"
)

// InventoryHandler handles /inventory.
type InventoryHandler struct {
	*BaseHandler
	service *inventory.Service
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(base *BaseHandler, service *inventory.Service) *InventoryHandler {
	return &InventoryHandler{
		BaseHandler: base,
		service:     service,
	}
}

// List handles GET /inventory.
func (h *InventoryHandler) List(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	result, err := h.service.List(c.Request.Context(), actor.PharmacyID, q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Get handles GET /inventory/:id.
func (h *InventoryHandler) Get(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	batchID, ok := h.PathID(c)
	if !ok {
		return
	}

	batch, err := h.service.Get(c.Request.Context(), actor.PharmacyID, batchID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, batch)
}

// Delete handles DELETE /inventory/:id.
func (h *InventoryHandler) Delete(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	batchID, ok := h.PathID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), actor.PharmacyID, batchID); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"message": "inventory item deleted"})
}

// Search handles GET /inventory/search?q=&limit=.
func (h *InventoryHandler) Search(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var q dto.SearchQuery
	if !h.BindQuery(c, &q) {
		return
	}

	batches, err := h.service.Search(c.Request.Context(), actor.PharmacyID, q.Q, q.Limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	if batches == nil {
		batches = []inventory.Batch{}
	}
	h.OK(c, dto.InventorySearchResponse{Inventory: batches, Count: len(batches)})
}

// Alerts handles GET /inventory/alerts.
func (h *InventoryHandler) Alerts(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var q dto.AlertsQuery
	if !h.BindQuery(c, &q) {
		return
	}

	alerts, err := h.service.Alerts(c.Request.Context(), actor.PharmacyID, q.ToOptions())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.AlertsResponse{Alerts: alerts, Total: alerts.Total()})
}

// Export handles GET /inventory/export. The workbook is rendered in full
// before any byte is sent so a failure still produces a JSON error.
func (h *InventoryHandler) Export(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	exporter := h.service.Exporter()
	if exporter == nil {
		h.Error(c, apperror.NewBusinessRule(apperror.CodeBusinessRule, "export is not configured"))
		return
	}

	var buf bytes.Buffer
	if err := h.service.Export(c.Request.Context(), actor.PharmacyID, &buf); err != nil {
		h.Error(c, err)
		return
	}

	filename := fmt.Sprintf("inventory-%s.%s", time.Now().UTC().Format("20060102"), exporter.FileExtension())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, exporter.ContentType(), buf.Bytes())
}
