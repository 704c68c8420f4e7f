package billing

import (
	"context"

	"github.com/shopspring/decimal"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain"
)

// Repository persists bills with their lines embedded.
type Repository interface {
	Create(ctx context.Context, b *Bill) error
	Update(ctx context.Context, b *Bill) error
	Delete(ctx context.Context, pharmacyID, billID id.ID) error
	GetByID(ctx context.Context, pharmacyID, billID id.ID) (*Bill, error)

	// GetForUpdate loads the bill and locks it until the transaction ends.
	GetForUpdate(ctx context.Context, pharmacyID, billID id.ID) (*Bill, error)

	List(ctx context.Context, pharmacyID id.ID, filter ListFilter) (domain.ListResult[Bill], error)
}

// Customers links bills to customer records and their running debt.
type Customers interface {
	// Resolve finds or creates the customer identified by mobile. An empty
	// mobile is a walk-in sale and yields a nil id.
	Resolve(ctx context.Context, pharmacyID id.ID, name, mobile string) (customerID *id.ID, normalizedMobile string, err error)

	// AdjustDebt atomically adds delta (may be negative) to the customer's debt.
	AdjustDebt(ctx context.Context, pharmacyID, customerID id.ID, delta decimal.Decimal) error
}
