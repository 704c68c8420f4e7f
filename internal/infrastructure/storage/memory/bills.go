package memory

import (
	"cmp"
	"context"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain"
	"pharmaledger/internal/domain/billing"
)

// Bills implements billing.Repository.
type Bills struct {
	s *Store
}

var _ billing.Repository = (*Bills)(nil)

func cloneBill(b billing.Bill) billing.Bill {
	b.Items = append([]billing.Item(nil), b.Items...)
	return b
}

// Create stores a bill. Bill numbers are unique per pharmacy.
func (r *Bills) Create(ctx context.Context, b *billing.Bill) error {
	defer r.s.lock(ctx)()

	for _, existing := range r.s.state.bills {
		if existing.BelongsTo(b.PharmacyID) && existing.BillNo == b.BillNo {
			return apperror.NewDuplicate("bill", "bill_no", b.BillNo)
		}
	}
	r.s.state.bills[b.ID] = cloneBill(*b)
	return nil
}

// Update replaces a stored bill.
func (r *Bills) Update(ctx context.Context, b *billing.Bill) error {
	defer r.s.lock(ctx)()

	if _, err := r.get(b.PharmacyID, b.ID); err != nil {
		return err
	}
	r.s.state.bills[b.ID] = cloneBill(*b)
	return nil
}

// Delete removes a bill.
func (r *Bills) Delete(ctx context.Context, pharmacyID, billID id.ID) error {
	defer r.s.lock(ctx)()

	if _, err := r.get(pharmacyID, billID); err != nil {
		return err
	}
	delete(r.s.state.bills, billID)
	return nil
}

func (r *Bills) get(pharmacyID, billID id.ID) (*billing.Bill, error) {
	b, ok := r.s.state.bills[billID]
	if !ok || !b.BelongsTo(pharmacyID) {
		return nil, apperror.NewNotFound("bill", billID.String())
	}
	out := cloneBill(b)
	return &out, nil
}

// GetByID returns one bill.
func (r *Bills) GetByID(ctx context.Context, pharmacyID, billID id.ID) (*billing.Bill, error) {
	defer r.s.lock(ctx)()
	return r.get(pharmacyID, billID)
}

// GetForUpdate returns one bill.
func (r *Bills) GetForUpdate(ctx context.Context, pharmacyID, billID id.ID) (*billing.Bill, error) {
	return r.GetByID(ctx, pharmacyID, billID)
}

var billOrder = map[string]comparator[billing.Bill]{
	"created_at":  func(a, b billing.Bill) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"bill_no":     func(a, b billing.Bill) int { return cmp.Compare(a.BillNo, b.BillNo) },
	"grand_total": func(a, b billing.Bill) int { return a.GrandTotal.Cmp(b.GrandTotal) },
}

// List returns a page of bills.
func (r *Bills) List(ctx context.Context, pharmacyID id.ID, f billing.ListFilter) (domain.ListResult[billing.Bill], error) {
	defer r.s.lock(ctx)()

	var items []billing.Bill
	for _, b := range r.s.state.bills {
		if !b.BelongsTo(pharmacyID) || !matchBill(b, f) {
			continue
		}
		items = append(items, cloneBill(b))
	}
	sortBy(items, f.OrderBy, "-created_at", billOrder)
	return paginate(items, f.ListFilter), nil
}

func matchBill(b billing.Bill, f billing.ListFilter) bool {
	if f.IsPaid != nil && b.IsPaid != *f.IsPaid {
		return false
	}
	if f.CustomerID != nil && (b.CustomerID == nil || *b.CustomerID != *f.CustomerID) {
		return false
	}
	if f.From != nil && b.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && b.CreatedAt.After(*f.To) {
		return false
	}
	if f.Search != "" {
		return contains(b.BillNo, f.Search) || contains(b.CustomerName, f.Search) || contains(b.CustomerMobile, f.Search)
	}
	return true
}
