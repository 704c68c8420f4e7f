package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain"
	"pharmaledger/internal/domain/inventory"
	"pharmaledger/internal/domain/search"
)

// Ledger implements inventory.Ledger.
type Ledger struct {
	s *Store
}

var (
	_ inventory.Ledger         = (*Ledger)(nil)
	_ inventory.PharmacyLister = (*Ledger)(nil)
)

func (l *Ledger) get(pharmacyID, batchID id.ID) (inventory.Batch, error) {
	b, ok := l.s.state.batches[batchID]
	if !ok || !b.BelongsTo(pharmacyID) {
		return inventory.Batch{}, apperror.NewNotFound("inventory", batchID.String())
	}
	return b, nil
}

func (l *Ledger) put(b inventory.Batch) *inventory.Batch {
	l.s.state.batches[b.ID] = b
	l.s.state.batchKeys[b.Key().String()] = b.ID
	out := b
	return &out
}

// UpsertBatch creates or merges the batch for a.Key.
func (l *Ledger) UpsertBatch(ctx context.Context, a inventory.Arrival, actorID id.ID) (*inventory.Batch, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	defer l.s.lock(ctx)()

	if batchID, ok := l.s.state.batchKeys[a.Key.String()]; ok {
		b := l.s.state.batches[batchID]
		b.Merge(a, actorID)
		return l.put(b), nil
	}
	return l.put(*inventory.NewBatch(a, actorID)), nil
}

// Deduct removes qty units if the batch holds them.
func (l *Ledger) Deduct(ctx context.Context, pharmacyID, batchID id.ID, qty int64) (*inventory.Batch, error) {
	if qty <= 0 {
		return nil, apperror.NewFieldValidation("quantity", "quantity must be positive")
	}
	defer l.s.lock(ctx)()

	b, err := l.get(pharmacyID, batchID)
	if err != nil {
		return nil, err
	}
	if b.AvailableQuantity < qty {
		return nil, apperror.NewInsufficientStock(batchID.String(), qty, b.AvailableQuantity)
	}
	b.AvailableQuantity -= qty
	b.UpdatedAt = time.Now().UTC()
	return l.put(b), nil
}

// Restore adds qty units back.
func (l *Ledger) Restore(ctx context.Context, pharmacyID, batchID id.ID, qty int64) (*inventory.Batch, error) {
	return l.shift(ctx, pharmacyID, batchID, qty)
}

// Reverse removes qty units without the floor check.
func (l *Ledger) Reverse(ctx context.Context, pharmacyID, batchID id.ID, qty int64) (*inventory.Batch, error) {
	return l.shift(ctx, pharmacyID, batchID, -qty)
}

func (l *Ledger) shift(ctx context.Context, pharmacyID, batchID id.ID, delta int64) (*inventory.Batch, error) {
	if delta == 0 {
		return nil, apperror.NewFieldValidation("quantity", "quantity must be positive")
	}
	defer l.s.lock(ctx)()

	b, err := l.get(pharmacyID, batchID)
	if err != nil {
		return nil, err
	}
	b.AvailableQuantity += delta
	b.UpdatedAt = time.Now().UTC()
	return l.put(b), nil
}

// RefreshPrices overwrites price fields.
func (l *Ledger) RefreshPrices(ctx context.Context, pharmacyID, batchID id.ID, p inventory.PriceHints, actorID id.ID) error {
	defer l.s.lock(ctx)()

	b, err := l.get(pharmacyID, batchID)
	if err != nil {
		return err
	}
	b.RefreshPrices(p, actorID)
	l.put(b)
	return nil
}

// GetByID returns one batch.
func (l *Ledger) GetByID(ctx context.Context, pharmacyID, batchID id.ID) (*inventory.Batch, error) {
	defer l.s.lock(ctx)()

	b, err := l.get(pharmacyID, batchID)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// GetByKey returns the batch stored under key.
func (l *Ledger) GetByKey(ctx context.Context, key inventory.Key) (*inventory.Batch, error) {
	defer l.s.lock(ctx)()

	batchID, ok := l.s.state.batchKeys[key.String()]
	if !ok {
		return nil, apperror.NewNotFound("inventory", key.String())
	}
	b, err := l.get(key.PharmacyID, batchID)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Pharmacies implements inventory.PharmacyLister.
func (l *Ledger) Pharmacies(ctx context.Context) ([]id.ID, error) {
	defer l.s.lock(ctx)()

	seen := make(map[id.ID]struct{})
	var out []id.ID
	for _, b := range l.s.state.batches {
		if _, ok := seen[b.PharmacyID]; ok {
			continue
		}
		seen[b.PharmacyID] = struct{}{}
		out = append(out, b.PharmacyID)
	}
	slices.SortFunc(out, func(a, b id.ID) int { return strings.Compare(a.String(), b.String()) })
	return out, nil
}

// filter returns matching batches ordered by id, so the stable sorts applied
// afterwards break ties the way the SQL "..., id ASC" clauses do.
func (l *Ledger) filter(pharmacyID id.ID, keep func(inventory.Batch) bool) []inventory.Batch {
	var out []inventory.Batch
	for _, b := range l.s.state.batches {
		if b.BelongsTo(pharmacyID) && keep(b) {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b inventory.Batch) int { return compareIDs(a.ID, b.ID) })
	return out
}

var batchOrder = map[string]comparator[inventory.Batch]{
	"product_name": func(a, b inventory.Batch) int { return cmp.Compare(a.ProductKey, b.ProductKey) },
	"batch_no":     func(a, b inventory.Batch) int { return cmp.Compare(a.BatchNo, b.BatchNo) },
	"available_quantity": func(a, b inventory.Batch) int {
		return cmp.Compare(a.AvailableQuantity, b.AvailableQuantity)
	},
	"expiry_date": func(a, b inventory.Batch) int { return compareExpiry(a.ExpiryDate, b.ExpiryDate) },
	"created_at":  func(a, b inventory.Batch) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"updated_at":  func(a, b inventory.Batch) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
}

// compareExpiry sorts missing dates last.
func compareExpiry(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return a.Compare(*b)
}

// List returns a page of batches.
func (l *Ledger) List(ctx context.Context, pharmacyID id.ID, f domain.ListFilter) (domain.ListResult[inventory.Batch], error) {
	defer l.s.lock(ctx)()

	items := l.filter(pharmacyID, func(b inventory.Batch) bool {
		return f.Search == "" || contains(b.ProductName, f.Search) || contains(b.BatchNo, f.Search)
	})
	sortBy(items, f.OrderBy, "product_name", batchOrder)
	return paginate(items, f), nil
}

// SearchCandidates returns in-stock batches matching query, best tier first,
// then oldest, then by id.
func (l *Ledger) SearchCandidates(ctx context.Context, pharmacyID id.ID, query string, limit int) ([]inventory.Batch, error) {
	defer l.s.lock(ctx)()

	q := search.Normalize(query)
	items := l.filter(pharmacyID, func(b inventory.Batch) bool {
		return b.AvailableQuantity > 0 &&
			(strings.Contains(b.ProductKey, q) || contains(b.SaltComposition, q))
	})
	tier := func(b inventory.Batch) search.Tier {
		return search.Classify(q, search.Fields{Name: b.ProductName, Secondary: b.SaltComposition})
	}
	slices.SortFunc(items, func(a, b inventory.Batch) int {
		return cmp.Or(
			cmp.Compare(tier(a), tier(b)),
			a.CreatedAt.Compare(b.CreatedAt),
			compareIDs(a.ID, b.ID),
		)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// ListLowStock returns batches with 0 < available <= threshold.
func (l *Ledger) ListLowStock(ctx context.Context, pharmacyID id.ID, threshold int64) ([]inventory.Batch, error) {
	defer l.s.lock(ctx)()

	items := l.filter(pharmacyID, func(b inventory.Batch) bool {
		return b.AvailableQuantity > 0 && b.AvailableQuantity <= threshold
	})
	sortBy(items, "available_quantity", "available_quantity", batchOrder)
	return items, nil
}

// ListExpiring returns in-stock batches expiring on or before the date.
func (l *Ledger) ListExpiring(ctx context.Context, pharmacyID id.ID, before time.Time) ([]inventory.Batch, error) {
	defer l.s.lock(ctx)()

	items := l.filter(pharmacyID, func(b inventory.Batch) bool {
		return b.AvailableQuantity > 0 && b.ExpiryDate != nil && !b.ExpiryDate.After(before)
	})
	sortBy(items, "expiry_date", "expiry_date", batchOrder)
	return items, nil
}

// Delete removes a batch.
func (l *Ledger) Delete(ctx context.Context, pharmacyID, batchID id.ID) error {
	defer l.s.lock(ctx)()

	b, err := l.get(pharmacyID, batchID)
	if err != nil {
		return err
	}
	delete(l.s.state.batches, batchID)
	delete(l.s.state.batchKeys, b.Key().String())
	return nil
}
