package handlers

import (
	"github.com/gin-gonic/gin"

	"pharmaledger/internal/domain/billing"
	"pharmaledger/internal/infrastructure/http/v1/dto"
)

// BillHandler handles /bills.
type BillHandler struct {
	*BaseHandler
	engine *billing.Engine
}

// NewBillHandler creates a new bill handler.
func NewBillHandler(base *BaseHandler, engine *billing.Engine) *BillHandler {
	return &BillHandler{BaseHandler: base, engine: engine}
}

// Preview handles POST /bills/preview. Nothing is persisted.
func (h *BillHandler) Preview(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req dto.BillRequest
	if !h.BindJSON(c, &req) {
		return
	}

	preview, err := h.engine.Preview(c.Request.Context(), actor, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, preview)
}

// Create handles POST /bills.
func (h *BillHandler) Create(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req dto.BillRequest
	if !h.BindJSON(c, &req) {
		return
	}

	bill, err := h.engine.Commit(c.Request.Context(), actor, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, bill)
}

// List handles GET /bills.
func (h *BillHandler) List(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var q dto.BillListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	result, err := h.engine.List(c.Request.Context(), actor.PharmacyID, q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Get handles GET /bills/:id.
func (h *BillHandler) Get(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	billID, ok := h.PathID(c)
	if !ok {
		return
	}

	bill, err := h.engine.Get(c.Request.Context(), actor.PharmacyID, billID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, bill)
}

// Update handles PUT /bills/:id.
func (h *BillHandler) Update(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	billID, ok := h.PathID(c)
	if !ok {
		return
	}
	var req dto.UpdateBillRequest
	if !h.BindJSON(c, &req) {
		return
	}

	bill, err := h.engine.Update(c.Request.Context(), actor, billID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, bill)
}

// Delete handles DELETE /bills/:id?restore_inventory=.
func (h *BillHandler) Delete(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	billID, ok := h.PathID(c)
	if !ok {
		return
	}
	restore, ok := h.BoolQuery(c, "restore_inventory")
	if !ok {
		return
	}

	res, err := h.engine.Delete(c.Request.Context(), actor, billID, restore)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.BillDeleteResponse{Message: "bill deleted", DeleteResult: res})
}

// MarkPaid handles POST /bills/:id/mark-paid.
func (h *BillHandler) MarkPaid(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	billID, ok := h.PathID(c)
	if !ok {
		return
	}

	bill, err := h.engine.MarkPaid(c.Request.Context(), actor, billID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, bill)
}
