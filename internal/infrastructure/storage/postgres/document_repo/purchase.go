// Package document_repo provides PostgreSQL repositories for purchases and
// bills. Document lines are stored as a JSONB array on the header row.
package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain"
	"pharmaledger/internal/domain/purchase"
	"pharmaledger/internal/infrastructure/storage/postgres"
)

const purchasesTable = "purchases"

var purchaseOrderColumns = []string{
	"purchase_date", "created_at", "updated_at", "supplier_name", "invoice_no", "total_amount",
}

// PurchaseRepo implements purchase.Repository.
type PurchaseRepo struct {
	*postgres.Table[purchase.Purchase]
}

var _ purchase.Repository = (*PurchaseRepo)(nil)

// NewPurchaseRepo creates a new purchase repository.
func NewPurchaseRepo(txm *postgres.TxManager) *PurchaseRepo {
	return &PurchaseRepo{Table: postgres.NewTable[purchase.Purchase](txm, purchasesTable, "purchase")}
}

// Create stores a purchase with its lines.
func (r *PurchaseRepo) Create(ctx context.Context, p *purchase.Purchase) error {
	return r.Insert(ctx, p)
}

// Update rewrites the header and lines.
func (r *PurchaseRepo) Update(ctx context.Context, p *purchase.Purchase) error {
	return r.Table.Update(ctx, p.PharmacyID, p.ID, p)
}

// Delete removes the purchase.
func (r *PurchaseRepo) Delete(ctx context.Context, pharmacyID, purchaseID id.ID) error {
	return r.Table.Delete(ctx, pharmacyID, purchaseID)
}

// GetByID loads one purchase.
func (r *PurchaseRepo) GetByID(ctx context.Context, pharmacyID, purchaseID id.ID) (*purchase.Purchase, error) {
	return r.Table.GetByID(ctx, pharmacyID, purchaseID, false)
}

// GetForUpdate loads the purchase with a row lock.
func (r *PurchaseRepo) GetForUpdate(ctx context.Context, pharmacyID, purchaseID id.ID) (*purchase.Purchase, error) {
	return r.Table.GetByID(ctx, pharmacyID, purchaseID, true)
}

// List returns a page of purchases, newest first by default.
func (r *PurchaseRepo) List(ctx context.Context, pharmacyID id.ID, f domain.ListFilter) (domain.ListResult[purchase.Purchase], error) {
	orderBy, err := postgres.OrderBy(f.OrderBy, "-purchase_date", purchaseOrderColumns...)
	if err != nil {
		return domain.ListResult[purchase.Purchase]{}, err
	}
	q := r.Select().Where(squirrel.Eq{"pharmacy_id": pharmacyID})
	if f.Search != "" {
		pattern := postgres.LikePattern(f.Search)
		q = q.Where(squirrel.Or{
			squirrel.ILike{"supplier_name": pattern},
			squirrel.ILike{"invoice_no": pattern},
		})
	}
	return r.Page(ctx, q, f, orderBy)
}

// priceHistorySQL unnests purchase lines and matches the normalized product
// name the same way the ledger key does.
const priceHistorySQL = `
	SELECT p.id AS purchase_id,
	       p.purchase_date,
	       p.supplier_id,
	       p.supplier_name,
	       COALESCE(it->>'batch_no', '') AS batch_no,
	       COALESCE((it->>'pack_price')::numeric, 0) AS pack_price,
	       COALESCE((it->>'price_per_unit')::numeric, 0) AS price_per_unit,
	       COALESCE((it->>'mrp_per_unit')::numeric, 0) AS mrp_per_unit,
	       COALESCE((it->>'units_per_pack')::bigint, 1) AS units_per_pack
	FROM purchases p
	CROSS JOIN LATERAL jsonb_array_elements(p.items) AS it
	WHERE p.pharmacy_id = $1
	  AND lower(regexp_replace(btrim(it->>'product_name'), '\s+', ' ', 'g')) = $2
	ORDER BY p.purchase_date DESC, p.created_at DESC
	LIMIT $3`

// PriceHistory lists purchase lines of one product, newest first.
func (r *PurchaseRepo) PriceHistory(ctx context.Context, pharmacyID id.ID, productKey string, limit int) ([]purchase.PricePoint, error) {
	var points []purchase.PricePoint
	if err := pgxscan.Select(ctx, r.Querier(ctx), &points, priceHistorySQL, pharmacyID, productKey, limit); err != nil {
		return nil, fmt.Errorf("query price history: %w", err)
	}
	return points, nil
}
