package handlers

import (
	"github.com/gin-gonic/gin"

	"pharmaledger/internal/domain/purchase"
	"pharmaledger/internal/infrastructure/http/v1/dto"
)

// PurchaseHandler handles /purchases.
type PurchaseHandler struct {
	*BaseHandler
	reconciler *purchase.Reconciler
}

// NewPurchaseHandler creates a new purchase handler.
func NewPurchaseHandler(base *BaseHandler, reconciler *purchase.Reconciler) *PurchaseHandler {
	return &PurchaseHandler{BaseHandler: base, reconciler: reconciler}
}

// Create handles POST /purchases. Lines may use either pricing schema.
func (h *PurchaseHandler) Create(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var in purchase.CreateInput
	if !h.BindJSON(c, &in) {
		return
	}

	p, err := h.reconciler.Create(c.Request.Context(), actor, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, p)
}

// List handles GET /purchases.
func (h *PurchaseHandler) List(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	result, err := h.reconciler.List(c.Request.Context(), actor.PharmacyID, q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Get handles GET /purchases/:id.
func (h *PurchaseHandler) Get(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	purchaseID, ok := h.PathID(c)
	if !ok {
		return
	}

	p, err := h.reconciler.Get(c.Request.Context(), actor.PharmacyID, purchaseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// Update handles PUT /purchases/:id?update_inventory=. The ledger follows
// the edit only when update_inventory is true.
func (h *PurchaseHandler) Update(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	purchaseID, ok := h.PathID(c)
	if !ok {
		return
	}
	updateInventory, ok := h.BoolQuery(c, "update_inventory")
	if !ok {
		return
	}
	var in purchase.UpdateInput
	if !h.BindJSON(c, &in) {
		return
	}

	p, err := h.reconciler.Update(c.Request.Context(), actor, purchaseID, in, updateInventory)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// Delete handles DELETE /purchases/:id?delete_inventory=.
func (h *PurchaseHandler) Delete(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	purchaseID, ok := h.PathID(c)
	if !ok {
		return
	}
	deleteInventory, ok := h.BoolQuery(c, "delete_inventory")
	if !ok {
		return
	}

	res, err := h.reconciler.Delete(c.Request.Context(), actor, purchaseID, deleteInventory)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.PurchaseDeleteResponse{Message: "purchase deleted", DeleteResult: res})
}

// PriceHistory handles GET /purchases/price-history?product_name=&limit=.
func (h *PurchaseHandler) PriceHistory(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var q dto.PriceHistoryQuery
	if !h.BindQuery(c, &q) {
		return
	}

	points, err := h.reconciler.PriceHistory(c.Request.Context(), actor.PharmacyID, q.ProductName, q.Limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	if points == nil {
		points = []purchase.PricePoint{}
	}
	h.OK(c, dto.PriceHistoryResponse{ProductName: q.ProductName, History: points, Count: len(points)})
}
