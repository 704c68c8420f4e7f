package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain"
	"pharmaledger/internal/domain/catalogs/product"
	"pharmaledger/internal/domain/search"
)

// Products implements product.Repository.
type Products struct {
	s *Store
}

var _ product.Repository = (*Products)(nil)

// Create stores a product.
func (r *Products) Create(ctx context.Context, p *product.Product) error {
	defer r.s.lock(ctx)()

	r.s.state.products[p.ID] = *p
	return nil
}

// GetByID returns one product, including deletion-marked ones.
func (r *Products) GetByID(ctx context.Context, pharmacyID, productID id.ID) (*product.Product, error) {
	defer r.s.lock(ctx)()

	p, ok := r.s.state.products[productID]
	if !ok || !p.BelongsTo(pharmacyID) {
		return nil, apperror.NewNotFound("product", productID.String())
	}
	return &p, nil
}

// Update replaces a product.
func (r *Products) Update(ctx context.Context, p *product.Product) error {
	defer r.s.lock(ctx)()

	existing, ok := r.s.state.products[p.ID]
	if !ok || !existing.BelongsTo(p.PharmacyID) {
		return apperror.NewNotFound("product", p.ID.String())
	}
	r.s.state.products[p.ID] = *p
	return nil
}

// SetDeletionMark soft-deletes or restores a product.
func (r *Products) SetDeletionMark(ctx context.Context, pharmacyID, productID id.ID, marked bool) error {
	defer r.s.lock(ctx)()

	p, ok := r.s.state.products[productID]
	if !ok || !p.BelongsTo(pharmacyID) {
		return apperror.NewNotFound("product", productID.String())
	}
	p.DeletionMark = marked
	r.s.state.products[productID] = p
	return nil
}

var productOrder = map[string]comparator[*product.Product]{
	"name":                func(a, b *product.Product) int { return cmp.Compare(a.ProductKey, b.ProductKey) },
	"low_stock_threshold": func(a, b *product.Product) int { return cmp.Compare(a.LowStockThreshold, b.LowStockThreshold) },
	"created_at":          func(a, b *product.Product) int { return a.CreatedAt.Compare(b.CreatedAt) },
}

func (r *Products) active(pharmacyID id.ID, includeDeleted bool) []product.Product {
	var out []product.Product
	for _, p := range r.s.state.products {
		if p.BelongsTo(pharmacyID) && (includeDeleted || !p.DeletionMark) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b product.Product) int { return compareIDs(a.ID, b.ID) })
	return out
}

// List returns a page of products.
func (r *Products) List(ctx context.Context, pharmacyID id.ID, f domain.ListFilter) (domain.ListResult[*product.Product], error) {
	defer r.s.lock(ctx)()

	var items []*product.Product
	for _, p := range r.active(pharmacyID, f.IncludeDeleted) {
		if f.Search != "" && !contains(p.Name, f.Search) {
			continue
		}
		items = append(items, &p)
	}
	sortBy(items, f.OrderBy, "name", productOrder)
	return paginate(items, f), nil
}

// ExistsByKey reports whether another active product normalizes to the same key.
func (r *Products) ExistsByKey(ctx context.Context, p *product.Product) (bool, error) {
	defer r.s.lock(ctx)()

	for _, other := range r.s.state.products {
		if other.ID != p.ID && other.BelongsTo(p.PharmacyID) && !other.DeletionMark &&
			other.ProductKey == p.ProductKey {
			return true, nil
		}
	}
	return false, nil
}

// SearchCandidates returns active products matching query, best tier first.
func (r *Products) SearchCandidates(ctx context.Context, pharmacyID id.ID, query string, limit int) ([]product.Product, error) {
	defer r.s.lock(ctx)()

	q := search.Normalize(query)
	items := slices.DeleteFunc(r.active(pharmacyID, false), func(p product.Product) bool {
		return !strings.Contains(p.ProductKey, q) && !contains(p.SaltComposition, q)
	})
	tier := func(p product.Product) search.Tier {
		return search.Classify(q, search.Fields{Name: p.Name, Secondary: p.SaltComposition})
	}
	slices.SortFunc(items, func(a, b product.Product) int {
		return cmp.Or(
			cmp.Compare(tier(a), tier(b)),
			cmp.Compare(a.ProductKey, b.ProductKey),
			compareIDs(a.ID, b.ID),
		)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// Thresholds maps active product keys to their low-stock thresholds.
func (r *Products) Thresholds(ctx context.Context, pharmacyID id.ID) (map[string]int64, error) {
	defer r.s.lock(ctx)()

	out := make(map[string]int64)
	for _, p := range r.active(pharmacyID, false) {
		out[p.ProductKey] = p.LowStockThreshold
	}
	return out, nil
}
