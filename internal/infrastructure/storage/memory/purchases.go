package memory

import (
	"cmp"
	"context"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain"
	"pharmaledger/internal/domain/inventory"
	"pharmaledger/internal/domain/purchase"
)

// Purchases implements purchase.Repository.
type Purchases struct {
	s *Store
}

var _ purchase.Repository = (*Purchases)(nil)

func clonePurchase(p purchase.Purchase) purchase.Purchase {
	p.Items = append([]purchase.Item(nil), p.Items...)
	return p
}

// Create stores a new purchase.
func (r *Purchases) Create(ctx context.Context, p *purchase.Purchase) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.state.purchases[p.ID]; ok {
		return apperror.NewDuplicate("purchase", "id", p.ID.String())
	}
	r.s.state.purchases[p.ID] = clonePurchase(*p)
	return nil
}

// Update replaces a stored purchase.
func (r *Purchases) Update(ctx context.Context, p *purchase.Purchase) error {
	defer r.s.lock(ctx)()

	if _, err := r.get(p.PharmacyID, p.ID); err != nil {
		return err
	}
	r.s.state.purchases[p.ID] = clonePurchase(*p)
	return nil
}

// Delete removes a purchase.
func (r *Purchases) Delete(ctx context.Context, pharmacyID, purchaseID id.ID) error {
	defer r.s.lock(ctx)()

	if _, err := r.get(pharmacyID, purchaseID); err != nil {
		return err
	}
	delete(r.s.state.purchases, purchaseID)
	return nil
}

func (r *Purchases) get(pharmacyID, purchaseID id.ID) (*purchase.Purchase, error) {
	p, ok := r.s.state.purchases[purchaseID]
	if !ok || !p.BelongsTo(pharmacyID) {
		return nil, apperror.NewNotFound("purchase", purchaseID.String())
	}
	out := clonePurchase(p)
	return &out, nil
}

// GetByID returns one purchase.
func (r *Purchases) GetByID(ctx context.Context, pharmacyID, purchaseID id.ID) (*purchase.Purchase, error) {
	defer r.s.lock(ctx)()
	return r.get(pharmacyID, purchaseID)
}

// GetForUpdate returns one purchase. The transaction lock already serializes writers.
func (r *Purchases) GetForUpdate(ctx context.Context, pharmacyID, purchaseID id.ID) (*purchase.Purchase, error) {
	return r.GetByID(ctx, pharmacyID, purchaseID)
}

var purchaseOrder = map[string]comparator[purchase.Purchase]{
	"purchase_date": func(a, b purchase.Purchase) int {
		if c := a.PurchaseDate.Compare(b.PurchaseDate); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	},
	"created_at":    func(a, b purchase.Purchase) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"supplier_name": func(a, b purchase.Purchase) int { return cmp.Compare(a.SupplierName, b.SupplierName) },
	"total_amount":  func(a, b purchase.Purchase) int { return a.TotalAmount.Cmp(b.TotalAmount) },
}

// List returns a page of purchases.
func (r *Purchases) List(ctx context.Context, pharmacyID id.ID, f domain.ListFilter) (domain.ListResult[purchase.Purchase], error) {
	defer r.s.lock(ctx)()

	var items []purchase.Purchase
	for _, p := range r.s.state.purchases {
		if !p.BelongsTo(pharmacyID) {
			continue
		}
		if f.Search != "" && !contains(p.SupplierName, f.Search) && !contains(p.InvoiceNo, f.Search) {
			continue
		}
		items = append(items, clonePurchase(p))
	}
	sortBy(items, f.OrderBy, "-purchase_date", purchaseOrder)
	return paginate(items, f), nil
}

// PriceHistory lists lines of one product, newest purchase first.
func (r *Purchases) PriceHistory(ctx context.Context, pharmacyID id.ID, productKey string, limit int) ([]purchase.PricePoint, error) {
	defer r.s.lock(ctx)()

	var docs []purchase.Purchase
	for _, p := range r.s.state.purchases {
		if p.BelongsTo(pharmacyID) {
			docs = append(docs, p)
		}
	}
	sortBy(docs, "-purchase_date", "-purchase_date", purchaseOrder)

	var out []purchase.PricePoint
	for _, p := range docs {
		for _, it := range p.Items {
			if inventory.NormalizeName(it.ProductName) != productKey {
				continue
			}
			out = append(out, purchase.PricePoint{
				PurchaseID:   p.ID,
				PurchaseDate: p.PurchaseDate,
				SupplierID:   p.SupplierID,
				SupplierName: p.SupplierName,
				BatchNo:      it.BatchNo,
				PackPrice:    it.PackPrice,
				PricePerUnit: it.PricePerUnit,
				MRPPerUnit:   it.MRPPerUnit,
				UnitsPerPack: it.UnitsPerPack,
			})
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}
	}
	return out, nil
}
