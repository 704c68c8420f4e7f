package handlers

import (
	appctx "pharmaledger/internal/core/context"
	"pharmaledger/internal/domain/catalogs/supplier"
	"pharmaledger/internal/infrastructure/http/v1/dto"
)

// SupplierHandler handles /suppliers.
type SupplierHandler struct {
	*CatalogHandler[*supplier.Supplier, dto.CreateSupplierRequest, dto.UpdateSupplierRequest]
}

// NewSupplierHandler creates a new supplier handler.
func NewSupplierHandler(base *BaseHandler, service *supplier.Service) *SupplierHandler {
	cfg := CatalogHandlerConfig[*supplier.Supplier, dto.CreateSupplierRequest, dto.UpdateSupplierRequest]{
		Service: service.CatalogService,
		MapCreateDTO: func(req dto.CreateSupplierRequest, actor appctx.Actor) *supplier.Supplier {
			return req.ToEntity(actor.PharmacyID, actor.ActorID)
		},
		MapUpdateDTO: func(req dto.UpdateSupplierRequest, existing *supplier.Supplier, actor appctx.Actor) *supplier.Supplier {
			req.ApplyTo(existing)
			existing.Touch(actor.ActorID)
			return existing
		},
	}
	return &SupplierHandler{CatalogHandler: NewCatalogHandler(base, cfg)}
}
