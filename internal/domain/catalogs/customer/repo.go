package customer

import (
	"context"

	"github.com/shopspring/decimal"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain"
)

// Repository defines customer persistence.
type Repository interface {
	// Upsert inserts c or, when the mobile already exists in the pharmacy,
	// refreshes its name (if non-empty) and last_bill_at. Returns the stored row.
	Upsert(ctx context.Context, c *Customer) (*Customer, error)

	// Create inserts c; a mobile already in the pharmacy is a duplicate.
	Create(ctx context.Context, c *Customer) error

	// Update rewrites name, mobile, email and address.
	Update(ctx context.Context, c *Customer) error

	// Delete removes the customer. Bills keep their copy of name and mobile.
	Delete(ctx context.Context, pharmacyID, customerID id.ID) error

	// AdjustDebt adds delta to total_debt in one statement.
	AdjustDebt(ctx context.Context, pharmacyID, customerID id.ID, delta decimal.Decimal) error

	// ClearDebt sets total_debt to zero and returns the amount cleared.
	ClearDebt(ctx context.Context, pharmacyID, customerID id.ID) (decimal.Decimal, error)

	GetByID(ctx context.Context, pharmacyID, customerID id.ID) (*Customer, error)
	List(ctx context.Context, pharmacyID id.ID, filter domain.ListFilter) (domain.ListResult[Customer], error)

	// SearchCandidates returns customers whose name or mobile contains query.
	SearchCandidates(ctx context.Context, pharmacyID id.ID, query string, limit int) ([]Customer, error)
}
