// Package product is the pharmacy's product master: display names, salt
// composition and the per-product low-stock threshold used by inventory alerts.
// Batches reference products by normalized name, not by id.
package product

import (
	"strings"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/entity"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain/search"
)

// DefaultLowStockThreshold applies when a product is created without one.
const DefaultLowStockThreshold int64 = 10

// Product is one entry of the product master.
type Product struct {
	entity.BaseEntity

	Name              string `db:"name" json:"name"`
	ProductKey        string `db:"product_key" json:"-"`
	SaltComposition   string `db:"salt_composition" json:"salt_composition,omitempty"`
	Manufacturer      string `db:"manufacturer" json:"manufacturer,omitempty"`
	Description       string `db:"description" json:"description,omitempty"`
	LowStockThreshold int64  `db:"low_stock_threshold" json:"low_stock_threshold"`
	ImageURL          string `db:"image_url" json:"image_url,omitempty"`
	DeletionMark      bool   `db:"deletion_mark" json:"deletion_mark"`
}

// NewProduct creates a product owned by pharmacyID.
func NewProduct(pharmacyID, actorID id.ID, name string) *Product {
	return &Product{
		BaseEntity:        entity.NewBaseEntity(pharmacyID, actorID),
		Name:              strings.TrimSpace(name),
		LowStockThreshold: DefaultLowStockThreshold,
	}
}

// Validate trims the name, derives the product key and checks the threshold.
func (p *Product) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return apperror.NewFieldValidation("name", "name is required")
	}
	p.ProductKey = search.Normalize(p.Name)
	p.SaltComposition = strings.TrimSpace(p.SaltComposition)
	if p.LowStockThreshold < 0 {
		return apperror.NewFieldValidation("low_stock_threshold", "low_stock_threshold must not be negative")
	}
	return nil
}
