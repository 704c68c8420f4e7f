// Package catalog_repo provides PostgreSQL repositories for the supplier and
// customer catalogs.
package catalog_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain"
	"pharmaledger/internal/domain/catalogs/supplier"
	"pharmaledger/internal/infrastructure/storage/postgres"
)

const suppliersTable = "suppliers"

var supplierOrderColumns = []string{"name", "created_at", "updated_at"}

// SupplierRepo implements supplier.Repository.
type SupplierRepo struct {
	*postgres.Table[supplier.Supplier]
}

var _ supplier.Repository = (*SupplierRepo)(nil)

// NewSupplierRepo creates a new supplier repository.
func NewSupplierRepo(txm *postgres.TxManager) *SupplierRepo {
	return &SupplierRepo{Table: postgres.NewTable[supplier.Supplier](txm, suppliersTable, "supplier")}
}

// Create stores a supplier.
func (r *SupplierRepo) Create(ctx context.Context, s *supplier.Supplier) error {
	return r.Insert(ctx, s)
}

// GetByID returns one supplier, including deletion-marked ones.
func (r *SupplierRepo) GetByID(ctx context.Context, pharmacyID, supplierID id.ID) (*supplier.Supplier, error) {
	return r.Table.GetByID(ctx, pharmacyID, supplierID, false)
}

// Update rewrites a supplier.
func (r *SupplierRepo) Update(ctx context.Context, s *supplier.Supplier) error {
	return r.Table.Update(ctx, s.PharmacyID, s.ID, s)
}

// SetDeletionMark soft-deletes or restores a supplier.
func (r *SupplierRepo) SetDeletionMark(ctx context.Context, pharmacyID, supplierID id.ID, marked bool) error {
	sql, args, err := postgres.Builder().
		Update(suppliersTable).
		Set("deletion_mark", marked).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": supplierID, "pharmacy_id": pharmacyID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build deletion mark: %w", err)
	}
	tag, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set supplier deletion mark: %w", postgres.MapError(err, "supplier"))
	}
	if tag.RowsAffected() == 0 {
		return domainNotFound("supplier", supplierID)
	}
	return nil
}

// List returns a page of suppliers.
func (r *SupplierRepo) List(ctx context.Context, pharmacyID id.ID, f domain.ListFilter) (domain.ListResult[*supplier.Supplier], error) {
	orderBy, err := postgres.OrderBy(f.OrderBy, "name", supplierOrderColumns...)
	if err != nil {
		return domain.ListResult[*supplier.Supplier]{}, err
	}
	q := r.Select().Where(squirrel.Eq{"pharmacy_id": pharmacyID})
	if !f.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if f.Search != "" {
		q = q.Where(squirrel.ILike{"name": postgres.LikePattern(f.Search)})
	}

	page, err := r.Page(ctx, q, f, orderBy)
	if err != nil {
		return domain.ListResult[*supplier.Supplier]{}, err
	}
	return toPointers(page), nil
}

// ExistsByName reports whether another active supplier has the same name.
func (r *SupplierRepo) ExistsByName(ctx context.Context, s *supplier.Supplier) (bool, error) {
	var exists bool
	err := r.Querier(ctx).QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM suppliers
			WHERE pharmacy_id = $1 AND lower(name) = lower($2) AND id <> $3 AND NOT deletion_mark
		)
	`, s.PharmacyID, s.Name, s.ID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check supplier name: %w", err)
	}
	return exists, nil
}

func toPointers[T any](page domain.ListResult[T]) domain.ListResult[*T] {
	out := domain.ListResult[*T]{
		Items:      make([]*T, len(page.Items)),
		TotalCount: page.TotalCount,
		Limit:      page.Limit,
		Offset:     page.Offset,
	}
	for i := range page.Items {
		out.Items[i] = &page.Items[i]
	}
	return out
}
