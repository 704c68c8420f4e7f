package memory

import (
	"cmp"
	"context"
	"time"

	"github.com/shopspring/decimal"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain"
	"pharmaledger/internal/domain/catalogs/customer"
)

// Customers implements customer.Repository.
type Customers struct {
	s *Store
}

var _ customer.Repository = (*Customers)(nil)

// Upsert inserts c or refreshes the customer with the same mobile.
func (r *Customers) Upsert(ctx context.Context, c *customer.Customer) (*customer.Customer, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	defer r.s.lock(ctx)()

	for _, existing := range r.s.state.customers {
		if !existing.BelongsTo(c.PharmacyID) || existing.Mobile != c.Mobile {
			continue
		}
		if c.Name != "" {
			existing.Name = c.Name
		}
		if c.LastBillAt != nil {
			existing.LastBillAt = c.LastBillAt
		}
		existing.UpdatedAt = time.Now().UTC()
		r.s.state.customers[existing.ID] = existing
		return &existing, nil
	}

	stored := *c
	r.s.state.customers[stored.ID] = stored
	return &stored, nil
}

func (r *Customers) mobileTaken(c *customer.Customer) bool {
	for _, other := range r.s.state.customers {
		if other.ID != c.ID && other.BelongsTo(c.PharmacyID) && other.Mobile == c.Mobile {
			return true
		}
	}
	return false
}

// Create stores a new customer.
func (r *Customers) Create(ctx context.Context, c *customer.Customer) error {
	defer r.s.lock(ctx)()

	if r.mobileTaken(c) {
		return apperror.NewDuplicate("customer", "mobile", c.Mobile)
	}
	r.s.state.customers[c.ID] = *c
	return nil
}

// Update rewrites the contact fields of a customer.
func (r *Customers) Update(ctx context.Context, c *customer.Customer) error {
	defer r.s.lock(ctx)()

	existing, err := r.get(c.PharmacyID, c.ID)
	if err != nil {
		return err
	}
	if r.mobileTaken(c) {
		return apperror.NewDuplicate("customer", "mobile", c.Mobile)
	}
	existing.Name = c.Name
	existing.Mobile = c.Mobile
	existing.Email = c.Email
	existing.Address = c.Address
	existing.UpdatedBy = c.UpdatedBy
	existing.UpdatedAt = c.UpdatedAt
	r.s.state.customers[c.ID] = existing
	return nil
}

// Delete removes a customer and detaches its bills.
func (r *Customers) Delete(ctx context.Context, pharmacyID, customerID id.ID) error {
	defer r.s.lock(ctx)()

	if _, err := r.get(pharmacyID, customerID); err != nil {
		return err
	}
	delete(r.s.state.customers, customerID)
	for billID, b := range r.s.state.bills {
		if b.CustomerID != nil && *b.CustomerID == customerID {
			b.CustomerID = nil
			r.s.state.bills[billID] = b
		}
	}
	return nil
}

func (r *Customers) get(pharmacyID, customerID id.ID) (customer.Customer, error) {
	c, ok := r.s.state.customers[customerID]
	if !ok || !c.BelongsTo(pharmacyID) {
		return customer.Customer{}, apperror.NewNotFound("customer", customerID.String())
	}
	return c, nil
}

// AdjustDebt adds delta to total_debt.
func (r *Customers) AdjustDebt(ctx context.Context, pharmacyID, customerID id.ID, delta decimal.Decimal) error {
	defer r.s.lock(ctx)()

	c, err := r.get(pharmacyID, customerID)
	if err != nil {
		return err
	}
	c.TotalDebt = c.TotalDebt.Add(delta)
	c.UpdatedAt = time.Now().UTC()
	r.s.state.customers[customerID] = c
	return nil
}

// ClearDebt zeroes total_debt and returns the previous amount.
func (r *Customers) ClearDebt(ctx context.Context, pharmacyID, customerID id.ID) (decimal.Decimal, error) {
	defer r.s.lock(ctx)()

	c, err := r.get(pharmacyID, customerID)
	if err != nil {
		return decimal.Zero, err
	}
	cleared := c.TotalDebt
	c.TotalDebt = decimal.Zero
	c.UpdatedAt = time.Now().UTC()
	r.s.state.customers[customerID] = c
	return cleared, nil
}

// GetByID returns one customer.
func (r *Customers) GetByID(ctx context.Context, pharmacyID, customerID id.ID) (*customer.Customer, error) {
	defer r.s.lock(ctx)()

	c, err := r.get(pharmacyID, customerID)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

var customerOrder = map[string]comparator[customer.Customer]{
	"name":       func(a, b customer.Customer) int { return cmp.Compare(a.Name, b.Name) },
	"total_debt": func(a, b customer.Customer) int { return a.TotalDebt.Cmp(b.TotalDebt) },
	"created_at": func(a, b customer.Customer) int { return a.CreatedAt.Compare(b.CreatedAt) },
}

func (r *Customers) filter(pharmacyID id.ID, query string) []customer.Customer {
	var out []customer.Customer
	for _, c := range r.s.state.customers {
		if !c.BelongsTo(pharmacyID) {
			continue
		}
		if query != "" && !contains(c.Name, query) && !contains(c.Mobile, query) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// List returns a page of customers.
func (r *Customers) List(ctx context.Context, pharmacyID id.ID, f domain.ListFilter) (domain.ListResult[customer.Customer], error) {
	defer r.s.lock(ctx)()

	items := r.filter(pharmacyID, f.Search)
	sortBy(items, f.OrderBy, "name", customerOrder)
	return paginate(items, f), nil
}

// SearchCandidates returns customers whose name or mobile contains query.
func (r *Customers) SearchCandidates(ctx context.Context, pharmacyID id.ID, query string, limit int) ([]customer.Customer, error) {
	defer r.s.lock(ctx)()

	items := r.filter(pharmacyID, query)
	sortBy(items, "name", "name", customerOrder)
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
