package dto

import (
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain/catalogs/product"
)

// CreateProductRequest is the request body for creating a product.
type CreateProductRequest struct {
	Name              string `json:"name" binding:"required,max=200"`
	SaltComposition   string `json:"salt_composition" binding:"max=500"`
	Manufacturer      string `json:"manufacturer" binding:"max=200"`
	Description       string `json:"description" binding:"max=2000"`
	LowStockThreshold *int64 `json:"low_stock_threshold" binding:"omitempty,min=0"`
	ImageURL          string `json:"image_url" binding:"omitempty,url,max=1000"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateProductRequest) ToEntity(pharmacyID, actorID id.ID) *product.Product {
	p := product.NewProduct(pharmacyID, actorID, r.Name)
	p.SaltComposition = r.SaltComposition
	p.Manufacturer = r.Manufacturer
	p.Description = r.Description
	p.ImageURL = r.ImageURL
	if r.LowStockThreshold != nil {
		p.LowStockThreshold = *r.LowStockThreshold
	}
	return p
}

// UpdateProductRequest is the request body for updating a product.
type UpdateProductRequest struct {
	Name              *string `json:"name" binding:"omitempty,min=1,max=200"`
	SaltComposition   *string `json:"salt_composition" binding:"omitempty,max=500"`
	Manufacturer      *string `json:"manufacturer" binding:"omitempty,max=200"`
	Description       *string `json:"description" binding:"omitempty,max=2000"`
	LowStockThreshold *int64  `json:"low_stock_threshold" binding:"omitempty,min=0"`
	ImageURL          *string `json:"image_url" binding:"omitempty,max=1000"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateProductRequest) ApplyTo(p *product.Product) {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.SaltComposition != nil {
		p.SaltComposition = *r.SaltComposition
	}
	if r.Manufacturer != nil {
		p.Manufacturer = *r.Manufacturer
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.LowStockThreshold != nil {
		p.LowStockThreshold = *r.LowStockThreshold
	}
	if r.ImageURL != nil {
		p.ImageURL = *r.ImageURL
	}
}

// ProductSearchResponse is the result of GET /products/search.
type ProductSearchResponse struct {
	Products []product.Product `json:"products"`
	Count    int               `json:"count"`
}
