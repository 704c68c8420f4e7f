package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain"
	"pharmaledger/internal/domain/billing"
	"pharmaledger/internal/infrastructure/storage/postgres"
)

const billsTable = "bills"

var billOrderColumns = []string{"created_at", "bill_no", "grand_total", "customer_name", "updated_at"}

// BillRepo implements billing.Repository.
type BillRepo struct {
	*postgres.Table[billing.Bill]
}

var _ billing.Repository = (*BillRepo)(nil)

// NewBillRepo creates a new bill repository.
func NewBillRepo(txm *postgres.TxManager) *BillRepo {
	return &BillRepo{Table: postgres.NewTable[billing.Bill](txm, billsTable, "bill")}
}

// Create stores a bill. A taken bill number surfaces as DUPLICATE_ENTRY on bill_no.
func (r *BillRepo) Create(ctx context.Context, b *billing.Bill) error {
	return r.Insert(ctx, b)
}

// Update rewrites the bill.
func (r *BillRepo) Update(ctx context.Context, b *billing.Bill) error {
	return r.Table.Update(ctx, b.PharmacyID, b.ID, b)
}

// Delete removes the bill.
func (r *BillRepo) Delete(ctx context.Context, pharmacyID, billID id.ID) error {
	return r.Table.Delete(ctx, pharmacyID, billID)
}

// GetByID loads one bill.
func (r *BillRepo) GetByID(ctx context.Context, pharmacyID, billID id.ID) (*billing.Bill, error) {
	return r.Table.GetByID(ctx, pharmacyID, billID, false)
}

// GetForUpdate loads the bill with a row lock.
func (r *BillRepo) GetForUpdate(ctx context.Context, pharmacyID, billID id.ID) (*billing.Bill, error) {
	return r.Table.GetByID(ctx, pharmacyID, billID, true)
}

// List returns a page of bills, newest first by default.
func (r *BillRepo) List(ctx context.Context, pharmacyID id.ID, f billing.ListFilter) (domain.ListResult[billing.Bill], error) {
	orderBy, err := postgres.OrderBy(f.OrderBy, "-created_at", billOrderColumns...)
	if err != nil {
		return domain.ListResult[billing.Bill]{}, err
	}

	q := r.Select().Where(squirrel.Eq{"pharmacy_id": pharmacyID})
	if f.Search != "" {
		pattern := postgres.LikePattern(f.Search)
		q = q.Where(squirrel.Or{
			squirrel.ILike{"bill_no": pattern},
			squirrel.ILike{"customer_name": pattern},
			squirrel.ILike{"customer_mobile": pattern},
		})
	}
	if f.IsPaid != nil {
		q = q.Where(squirrel.Eq{"is_paid": *f.IsPaid})
	}
	if f.CustomerID != nil {
		q = q.Where(squirrel.Eq{"customer_id": *f.CustomerID})
	}
	if f.From != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *f.From})
	}
	if f.To != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *f.To})
	}
	return r.Page(ctx, q, f.ListFilter, orderBy)
}
