package handlers

import (
	"github.com/gin-gonic/gin"

	appctx "pharmaledger/internal/core/context"
	"pharmaledger/internal/domain/catalogs/product"
	"pharmaledger/internal/infrastructure/http/v1/dto"
)

// ProductHandler handles /products.
type ProductHandler struct {
	*CatalogHandler[*product.Product, dto.CreateProductRequest, dto.UpdateProductRequest]
	service *product.Service
}

// NewProductHandler creates a new product handler.
func NewProductHandler(base *BaseHandler, service *product.Service) *ProductHandler {
	cfg := CatalogHandlerConfig[*product.Product, dto.CreateProductRequest, dto.UpdateProductRequest]{
		Service: service.CatalogService,
		MapCreateDTO: func(req dto.CreateProductRequest, actor appctx.Actor) *product.Product {
			return req.ToEntity(actor.PharmacyID, actor.ActorID)
		},
		MapUpdateDTO: func(req dto.UpdateProductRequest, existing *product.Product, actor appctx.Actor) *product.Product {
			req.ApplyTo(existing)
			existing.Touch(actor.ActorID)
			return existing
		},
	}
	return &ProductHandler{CatalogHandler: NewCatalogHandler(base, cfg), service: service}
}

// Search handles GET /products/search?q=.
func (h *ProductHandler) Search(c *gin.Context) {
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
		found = []product.Product{}
	}
	h.OK(c, dto.ProductSearchResponse{Products: found, Count: len(found)})
}
