package purchase

import (
	"context"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain"
)

// Repository persists purchases with their lines embedded.
type Repository interface {
	Create(ctx context.Context, p *Purchase) error
	Update(ctx context.Context, p *Purchase) error
	Delete(ctx context.Context, pharmacyID, purchaseID id.ID) error
	GetByID(ctx context.Context, pharmacyID, purchaseID id.ID) (*Purchase, error)

	// GetForUpdate loads the purchase and locks it until the transaction ends.
	GetForUpdate(ctx context.Context, pharmacyID, purchaseID id.ID) (*Purchase, error)

	List(ctx context.Context, pharmacyID id.ID, filter domain.ListFilter) (domain.ListResult[Purchase], error)

	// PriceHistory lists purchase lines of one product (normalized name), newest first.
	PriceHistory(ctx context.Context, pharmacyID id.ID, productKey string, limit int) ([]PricePoint, error)
}

// SupplierDirectory resolves supplier names for purchase headers.
type SupplierDirectory interface {
	SupplierName(ctx context.Context, pharmacyID, supplierID id.ID) (string, error)
}
