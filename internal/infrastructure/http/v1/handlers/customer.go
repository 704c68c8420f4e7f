package handlers

import (
	"github.com/gin-gonic/gin"

	"pharmaledger/internal/domain/catalogs/customer"
	"pharmaledger/internal/infrastructure/http/v1/dto"
)

// CustomerHandler handles /customers.
type CustomerHandler struct {
	*BaseHandler
	service *customer.Service
}

// NewCustomerHandler creates a new customer handler.
func NewCustomerHandler(base *BaseHandler, service *customer.Service) *CustomerHandler {
	return &CustomerHandler{BaseHandler: base, service: service}
}

// List handles GET /customers.
func (h *CustomerHandler) List(c *gin.Context) {
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

// Search handles GET /customers/search?q=.
func (h *CustomerHandler) Search(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var q dto.SearchQuery
	if !h.BindQuery(c, &q) {
		return
	}

	found, err := h.service.Search(c.Request.Context(), actor.PharmacyID, q.Q, q.Limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	if found == nil {
		found = []customer.Customer{}
	}
	h.OK(c, dto.CustomerSearchResponse{Customers: found, Count: len(found)})
}

// Get handles GET /customers/:id.
func (h *CustomerHandler) Get(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	customerID, ok := h.PathID(c)
	if !ok {
		return
	}

	cust, err := h.service.Get(c.Request.Context(), actor.PharmacyID, customerID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, cust)
}

// Create handles POST /customers.
func (h *CustomerHandler) Create(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req dto.CreateCustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cust, err := h.service.Create(c.Request.Context(), actor, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, cust)
}

// Update handles PUT /customers/:id.
func (h *CustomerHandler) Update(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	customerID, ok := h.PathID(c)
	if !ok {
		return
	}
	var req dto.UpdateCustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cust, err := h.service.Update(c.Request.Context(), actor, customerID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, cust)
}

// Delete handles DELETE /customers/:id.
func (h *CustomerHandler) Delete(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	customerID, ok := h.PathID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), actor, customerID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// ClearDebt handles POST /customers/:id/clear-debt.
func (h *CustomerHandler) ClearDebt(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	customerID, ok := h.PathID(c)
	if !ok {
		return
	}

	cust, err := h.service.ClearDebt(c.Request.Context(), actor, customerID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, cust)
}
