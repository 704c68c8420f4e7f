package product

import (
	"context"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain"
)

// Repository defines product persistence.
type Repository interface {
	domain.CatalogRepository[*Product]

	// ExistsByKey checks for another active product with the same product key.
	ExistsByKey(ctx context.Context, p *Product) (bool, error)

	// SearchCandidates returns active products whose name or composition
	// contains query, best search tier first, then by name and id.
	SearchCandidates(ctx context.Context, pharmacyID id.ID, query string, limit int) ([]Product, error)

	// Thresholds maps the product key of every active product to its
	// low-stock threshold.
	Thresholds(ctx context.Context, pharmacyID id.ID) (map[string]int64, error)
}
