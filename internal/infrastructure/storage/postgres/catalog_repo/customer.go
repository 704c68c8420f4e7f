package catalog_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain"
	"pharmaledger/internal/domain/catalogs/customer"
	"pharmaledger/internal/infrastructure/storage/postgres"
)

const customersTable = "customers"

var customerOrderColumns = []string{"name", "mobile", "total_debt", "last_bill_at", "created_at"}

// CustomerRepo implements customer.Repository.
type CustomerRepo struct {
	*postgres.Table[customer.Customer]
}

var _ customer.Repository = (*CustomerRepo)(nil)

// NewCustomerRepo creates a new customer repository.
func NewCustomerRepo(txm *postgres.TxManager) *CustomerRepo {
	return &CustomerRepo{Table: postgres.NewTable[customer.Customer](txm, customersTable, "customer")}
}

func domainNotFound(entity string, entityID id.ID) error {
	return apperror.NewNotFound(entity, entityID.String())
}

// Upsert inserts c or refreshes the row with the same mobile in one statement.
func (r *CustomerRepo) Upsert(ctx context.Context, c *customer.Customer) (*customer.Customer, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	sql, args, err := postgres.Builder().
		Insert(customersTable).
		SetMap(postgres.StructToMap(c)).
		Suffix(`ON CONFLICT (pharmacy_id, mobile) DO UPDATE SET
			name = COALESCE(NULLIF(EXCLUDED.name, ''), customers.name),
			last_bill_at = COALESCE(EXCLUDED.last_bill_at, customers.last_bill_at),
			updated_by = EXCLUDED.updated_by,
			updated_at = EXCLUDED.updated_at
			` + r.Returning()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build customer upsert: %w", err)
	}
	stored := new(customer.Customer)
	if err := pgxscan.Get(ctx, r.Querier(ctx), stored, sql, args...); err != nil {
		return nil, fmt.Errorf("upsert customer: %w", postgres.MapError(err, "customer"))
	}
	return stored, nil
}

// Create inserts a customer; uq_customer_mobile reports a taken mobile.
func (r *CustomerRepo) Create(ctx context.Context, c *customer.Customer) error {
	return r.Insert(ctx, c)
}

// Update rewrites the contact fields. Debt columns are left alone so a
// concurrent bill cannot be overwritten.
func (r *CustomerRepo) Update(ctx context.Context, c *customer.Customer) error {
	sql, args, err := postgres.Builder().
		Update(customersTable).
		Set("name", c.Name).
		Set("mobile", c.Mobile).
		Set("email", c.Email).
		Set("address", c.Address).
		Set("updated_by", c.UpdatedBy).
		Set("updated_at", c.UpdatedAt).
		Where(squirrel.Eq{"id": c.ID, "pharmacy_id": c.PharmacyID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build customer update: %w", err)
	}
	tag, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update customer: %w", postgres.MapError(err, "customer"))
	}
	if tag.RowsAffected() == 0 {
		return domainNotFound("customer", c.ID)
	}
	return nil
}

// Delete removes a customer; bills.customer_id is set to NULL by the foreign key.
func (r *CustomerRepo) Delete(ctx context.Context, pharmacyID, customerID id.ID) error {
	return r.Table.Delete(ctx, pharmacyID, customerID)
}

// AdjustDebt adds delta to total_debt.
func (r *CustomerRepo) AdjustDebt(ctx context.Context, pharmacyID, customerID id.ID, delta decimal.Decimal) error {
	tag, err := r.Querier(ctx).Exec(ctx, `
		UPDATE customers SET total_debt = total_debt + $1, updated_at = $2
		WHERE id = $3 AND pharmacy_id = $4
	`, delta, time.Now().UTC(), customerID, pharmacyID)
	if err != nil {
		return fmt.Errorf("adjust customer debt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainNotFound("customer", customerID)
	}
	return nil
}

// ClearDebt zeroes total_debt and returns the previous amount.
func (r *CustomerRepo) ClearDebt(ctx context.Context, pharmacyID, customerID id.ID) (decimal.Decimal, error) {
	var cleared decimal.Decimal
	err := r.Querier(ctx).QueryRow(ctx, `
		UPDATE customers c SET total_debt = 0, updated_at = $1
		FROM (SELECT id, total_debt FROM customers WHERE id = $2 AND pharmacy_id = $3 FOR UPDATE) prev
		WHERE c.id = prev.id
		RETURNING prev.total_debt
	`, time.Now().UTC(), customerID, pharmacyID).Scan(&cleared)
	if err != nil {
		if pgxscan.NotFound(err) {
			return decimal.Zero, domainNotFound("customer", customerID)
		}
		return decimal.Zero, fmt.Errorf("clear customer debt: %w", err)
	}
	return cleared, nil
}

// GetByID returns one customer.
func (r *CustomerRepo) GetByID(ctx context.Context, pharmacyID, customerID id.ID) (*customer.Customer, error) {
	return r.Table.GetByID(ctx, pharmacyID, customerID, false)
}

// List returns a page of customers.
func (r *CustomerRepo) List(ctx context.Context, pharmacyID id.ID, f domain.ListFilter) (domain.ListResult[customer.Customer], error) {
	orderBy, err := postgres.OrderBy(f.OrderBy, "name", customerOrderColumns...)
	if err != nil {
		return domain.ListResult[customer.Customer]{}, err
	}
	q := r.Select().Where(squirrel.Eq{"pharmacy_id": pharmacyID})
	if f.Search != "" {
		q = q.Where(r.matches(f.Search))
	}
	return r.Page(ctx, q, f, orderBy)
}

// SearchCandidates returns customers whose name or mobile contains query.
func (r *CustomerRepo) SearchCandidates(ctx context.Context, pharmacyID id.ID, query string, limit int) ([]customer.Customer, error) {
	q := r.Select().
		Where(squirrel.Eq{"pharmacy_id": pharmacyID}).
		Where(r.matches(query)).
		OrderBy("last_bill_at DESC NULLS LAST", "id ASC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	return r.Find(ctx, q)
}

func (r *CustomerRepo) matches(query string) squirrel.Sqlizer {
	pattern := postgres.LikePattern(query)
	return squirrel.Or{
		squirrel.ILike{"name": pattern},
		squirrel.Like{"mobile": pattern},
	}
}
