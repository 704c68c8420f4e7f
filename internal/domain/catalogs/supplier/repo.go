package supplier

import (
	"context"

	"pharmaledger/internal/domain"
)

// Repository defines supplier persistence.
type Repository interface {
	domain.CatalogRepository[*Supplier]

	// ExistsByName checks for an active supplier with the same name (case-insensitive).
	ExistsByName(ctx context.Context, s *Supplier) (bool, error)
}
