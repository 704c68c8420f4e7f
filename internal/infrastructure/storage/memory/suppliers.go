package memory

import (
	"cmp"
	"context"
	"strings"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain"
	"pharmaledger/internal/domain/catalogs/supplier"
)

// Suppliers implements supplier.Repository.
type Suppliers struct {
	s *Store
}

var _ supplier.Repository = (*Suppliers)(nil)

// Create stores a supplier.
func (r *Suppliers) Create(ctx context.Context, sup *supplier.Supplier) error {
	defer r.s.lock(ctx)()

	r.s.state.suppliers[sup.ID] = *sup
	return nil
}

// GetByID returns one supplier, including deletion-marked ones.
func (r *Suppliers) GetByID(ctx context.Context, pharmacyID, supplierID id.ID) (*supplier.Supplier, error) {
	defer r.s.lock(ctx)()

	sup, ok := r.s.state.suppliers[supplierID]
	if !ok || !sup.BelongsTo(pharmacyID) {
		return nil, apperror.NewNotFound("supplier", supplierID.String())
	}
	return &sup, nil
}

// Update replaces a supplier.
func (r *Suppliers) Update(ctx context.Context, sup *supplier.Supplier) error {
	defer r.s.lock(ctx)()

	existing, ok := r.s.state.suppliers[sup.ID]
	if !ok || !existing.BelongsTo(sup.PharmacyID) {
		return apperror.NewNotFound("supplier", sup.ID.String())
	}
	r.s.state.suppliers[sup.ID] = *sup
	return nil
}

// SetDeletionMark soft-deletes or restores a supplier.
func (r *Suppliers) SetDeletionMark(ctx context.Context, pharmacyID, supplierID id.ID, marked bool) error {
	defer r.s.lock(ctx)()

	sup, ok := r.s.state.suppliers[supplierID]
	if !ok || !sup.BelongsTo(pharmacyID) {
		return apperror.NewNotFound("supplier", supplierID.String())
	}
	sup.DeletionMark = marked
	r.s.state.suppliers[supplierID] = sup
	return nil
}

var supplierOrder = map[string]comparator[*supplier.Supplier]{
	"name":       func(a, b *supplier.Supplier) int { return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) },
	"created_at": func(a, b *supplier.Supplier) int { return a.CreatedAt.Compare(b.CreatedAt) },
}

// List returns a page of suppliers.
func (r *Suppliers) List(ctx context.Context, pharmacyID id.ID, f domain.ListFilter) (domain.ListResult[*supplier.Supplier], error) {
	defer r.s.lock(ctx)()

	var items []*supplier.Supplier
	for _, sup := range r.s.state.suppliers {
		if !sup.BelongsTo(pharmacyID) || (sup.DeletionMark && !f.IncludeDeleted) {
			continue
		}
		if f.Search != "" && !contains(sup.Name, f.Search) {
			continue
		}
		items = append(items, &sup)
	}
	sortBy(items, f.OrderBy, "name", supplierOrder)
	return paginate(items, f), nil
}

// ExistsByName reports whether another active supplier has the same name.
func (r *Suppliers) ExistsByName(ctx context.Context, sup *supplier.Supplier) (bool, error) {
	defer r.s.lock(ctx)()

	for _, other := range r.s.state.suppliers {
		if other.ID != sup.ID && other.BelongsTo(sup.PharmacyID) && !other.DeletionMark &&
			strings.EqualFold(other.Name, sup.Name) {
			return true, nil
		}
	}
	return false, nil
}
