package catalog_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain"
	"pharmaledger/internal/domain/catalogs/product"
	"pharmaledger/internal/domain/search"
	"pharmaledger/internal/infrastructure/storage/postgres"
)

const productsTable = "products"

var productOrderColumns = []string{"name", "low_stock_threshold", "created_at", "updated_at"}

// ProductRepo implements product.Repository.
type ProductRepo struct {
	*postgres.Table[product.Product]
}

var _ product.Repository = (*ProductRepo)(nil)

// NewProductRepo creates a new product repository.
func NewProductRepo(txm *postgres.TxManager) *ProductRepo {
	return &ProductRepo{Table: postgres.NewTable[product.Product](txm, productsTable, "product")}
}

// Create stores a product.
func (r *ProductRepo) Create(ctx context.Context, p *product.Product) error {
	return r.Insert(ctx, p)
}

// GetByID returns one product, including deletion-marked ones.
func (r *ProductRepo) GetByID(ctx context.Context, pharmacyID, productID id.ID) (*product.Product, error) {
	return r.Table.GetByID(ctx, pharmacyID, productID, false)
}

// Update rewrites a product.
func (r *ProductRepo) Update(ctx context.Context, p *product.Product) error {
	return r.Table.Update(ctx, p.PharmacyID, p.ID, p)
}

// SetDeletionMark soft-deletes or restores a product.
func (r *ProductRepo) SetDeletionMark(ctx context.Context, pharmacyID, productID id.ID, marked bool) error {
	sql, args, err := postgres.Builder().
		Update(productsTable).
		Set("deletion_mark", marked).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": productID, "pharmacy_id": pharmacyID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build deletion mark: %w", err)
	}
	tag, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set product deletion mark: %w", postgres.MapError(err, "product"))
	}
	if tag.RowsAffected() == 0 {
		return domainNotFound("product", productID)
	}
	return nil
}

// List returns a page of products.
func (r *ProductRepo) List(ctx context.Context, pharmacyID id.ID, f domain.ListFilter) (domain.ListResult[*product.Product], error) {
	orderBy, err := postgres.OrderBy(f.OrderBy, "name", productOrderColumns...)
	if err != nil {
		return domain.ListResult[*product.Product]{}, err
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
		return domain.ListResult[*product.Product]{}, err
	}
	return toPointers(page), nil
}

// ExistsByKey reports whether another active product has the same product key.
func (r *ProductRepo) ExistsByKey(ctx context.Context, p *product.Product) (bool, error) {
	var exists bool
	err := r.Querier(ctx).QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM products
			WHERE pharmacy_id = $1 AND product_key = $2 AND id <> $3 AND NOT deletion_mark
		)
	`, p.PharmacyID, p.ProductKey, p.ID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check product name: %w", err)
	}
	return exists, nil
}

// SearchCandidates orders matches by search tier before the limit applies.
func (r *ProductRepo) SearchCandidates(ctx context.Context, pharmacyID id.ID, query string, limit int) ([]product.Product, error) {
	key := search.Normalize(query)
	pattern := postgres.LikePattern(key)
	q := r.Select().
		Where(squirrel.Eq{"pharmacy_id": pharmacyID, "deletion_mark": false}).
		Where(squirrel.Or{
			squirrel.Like{"product_key": pattern},
			squirrel.ILike{"salt_composition": pattern},
		}).
		OrderByClause(postgres.SearchTierOrder("product_key", key)).
		OrderBy("product_key ASC", "id ASC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	return r.Find(ctx, q)
}

// Thresholds maps active product keys to their low-stock thresholds.
func (r *ProductRepo) Thresholds(ctx context.Context, pharmacyID id.ID) (map[string]int64, error) {
	var rows []struct {
		ProductKey        string `db:"product_key"`
		LowStockThreshold int64  `db:"low_stock_threshold"`
	}
	err := pgxscan.Select(ctx, r.Querier(ctx), &rows, `
		SELECT product_key, low_stock_threshold FROM products
		WHERE pharmacy_id = $1 AND NOT deletion_mark
	`, pharmacyID)
	if err != nil {
		return nil, fmt.Errorf("load product thresholds: %w", err)
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.ProductKey] = row.LowStockThreshold
	}
	return out, nil
}
