// Package register_repo provides the PostgreSQL inventory ledger.
package register_repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain"
	"pharmaledger/internal/domain/inventory"
	"pharmaledger/internal/domain/search"
	"pharmaledger/internal/infrastructure/storage/postgres"
)

const batchesTable = "inventory_batches"

var tracer = otel.Tracer("pharmaledger/ledger")

// Upsert conflict actions. Price columns follow the arrival only when it is
// authoritative; quantity always accumulates and expiry keeps the earliest date.
const (
	mergeDescriptors = `
		available_quantity = inventory_batches.available_quantity + EXCLUDED.available_quantity,
		expiry_date = LEAST(inventory_batches.expiry_date, EXCLUDED.expiry_date),
		product_id = COALESCE(NULLIF(inventory_batches.product_id, ''), EXCLUDED.product_id),
		manufacturer = COALESCE(NULLIF(inventory_batches.manufacturer, ''), EXCLUDED.manufacturer),
		salt_composition = COALESCE(NULLIF(inventory_batches.salt_composition, ''), EXCLUDED.salt_composition),
		hsn_no = COALESCE(NULLIF(inventory_batches.hsn_no, ''), EXCLUDED.hsn_no),
		updated_by = EXCLUDED.updated_by,
		updated_at = EXCLUDED.updated_at`
	mergePrices = `,
		purchase_price = EXCLUDED.purchase_price,
		mrp = EXCLUDED.mrp,
		mrp_pack = EXCLUDED.mrp_pack,
		pack_price = EXCLUDED.pack_price,
		units_per_pack = EXCLUDED.units_per_pack,
		pack_type = EXCLUDED.pack_type`
	conflictTarget = "ON CONFLICT (pharmacy_id, product_key, batch_no, supplier_key) DO UPDATE SET"
)

var batchOrderColumns = []string{
	"product_name", "batch_no", "available_quantity", "expiry_date", "created_at", "updated_at",
}

// LedgerRepo implements inventory.Ledger. Every quantity change is one
// conditional statement, so concurrent requests never lose an update.
type LedgerRepo struct {
	*postgres.Table[inventory.Batch]
}

var (
	_ inventory.Ledger         = (*LedgerRepo)(nil)
	_ inventory.PharmacyLister = (*LedgerRepo)(nil)
)

// NewLedgerRepo creates the ledger repository.
func NewLedgerRepo(txm *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{Table: postgres.NewTable[inventory.Batch](txm, batchesTable, "inventory")}
}

func startSpan(ctx context.Context, op string, batchID id.ID) (context.Context, trace.Span) {
	return tracer.Start(ctx, "ledger."+op, trace.WithAttributes(
		attribute.String("batch.id", batchID.String()),
	))
}

func (r *LedgerRepo) scanOne(ctx context.Context, sql string, args ...any) (*inventory.Batch, bool, error) {
	var rows []inventory.Batch
	if err := pgxscan.Select(ctx, r.Querier(ctx), &rows, sql, args...); err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return &rows[0], true, nil
}

// UpsertBatch inserts the first arrival for a key or merges into the
// existing row in the same statement.
func (r *LedgerRepo) UpsertBatch(ctx context.Context, a inventory.Arrival, actorID id.ID) (*inventory.Batch, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "ledger.UpsertBatch", trace.WithAttributes(
		attribute.String("batch.key", a.Key.String()),
		attribute.Int64("quantity", a.Quantity),
	))
	defer span.End()

	onConflict := conflictTarget + mergeDescriptors
	if a.Prices.Authoritative {
		onConflict += mergePrices
	}

	sql, args, err := postgres.Builder().
		Insert(batchesTable).
		SetMap(postgres.StructToMap(inventory.NewBatch(a, actorID))).
		Suffix(onConflict + " " + r.Returning()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build batch upsert: %w", err)
	}

	b, ok, err := r.scanOne(ctx, sql, args...)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("upsert batch: %w", postgres.MapError(err, "inventory"))
	}
	if !ok {
		return nil, fmt.Errorf("upsert batch %s returned no row", a.Key)
	}
	return b, nil
}

// Deduct removes qty units only if the batch holds them.
func (r *LedgerRepo) Deduct(ctx context.Context, pharmacyID, batchID id.ID, qty int64) (*inventory.Batch, error) {
	if qty <= 0 {
		return nil, apperror.NewFieldValidation("quantity", "quantity must be positive")
	}
	ctx, span := startSpan(ctx, "Deduct", batchID)
	defer span.End()

	b, ok, err := r.scanOne(ctx, `
		UPDATE inventory_batches
		SET available_quantity = available_quantity - $1, updated_at = $2
		WHERE id = $3 AND pharmacy_id = $4 AND available_quantity >= $1
		`+r.Returning(),
		qty, time.Now().UTC(), batchID, pharmacyID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("deduct batch: %w", err)
	}
	if ok {
		return b, nil
	}

	// Either the batch is gone or it holds less than qty.
	current, err := r.GetByID(ctx, pharmacyID, batchID)
	if err != nil {
		return nil, err
	}
	return nil, apperror.NewInsufficientStock(batchID.String(), qty, current.AvailableQuantity)
}

// Restore adds qty units back.
func (r *LedgerRepo) Restore(ctx context.Context, pharmacyID, batchID id.ID, qty int64) (*inventory.Batch, error) {
	return r.shift(ctx, "Restore", pharmacyID, batchID, qty)
}

// Reverse removes qty units without the floor check.
func (r *LedgerRepo) Reverse(ctx context.Context, pharmacyID, batchID id.ID, qty int64) (*inventory.Batch, error) {
	return r.shift(ctx, "Reverse", pharmacyID, batchID, -qty)
}

func (r *LedgerRepo) shift(ctx context.Context, op string, pharmacyID, batchID id.ID, delta int64) (*inventory.Batch, error) {
	if delta == 0 {
		return nil, apperror.NewFieldValidation("quantity", "quantity must be positive")
	}
	ctx, span := startSpan(ctx, op, batchID)
	defer span.End()

	b, ok, err := r.scanOne(ctx, `
		UPDATE inventory_batches
		SET available_quantity = available_quantity + $1, updated_at = $2
		WHERE id = $3 AND pharmacy_id = $4
		`+r.Returning(),
		delta, time.Now().UTC(), batchID, pharmacyID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%s batch: %w", strings.ToLower(op), err)
	}
	if !ok {
		return nil, apperror.NewNotFound("inventory", batchID.String())
	}
	return b, nil
}

// RefreshPrices overwrites the price fields of a batch.
func (r *LedgerRepo) RefreshPrices(ctx context.Context, pharmacyID, batchID id.ID, p inventory.PriceHints, actorID id.ID) error {
	var priced inventory.Batch
	priced.RefreshPrices(p, actorID)

	sql, args, err := postgres.Builder().
		Update(batchesTable).
		SetMap(map[string]any{
			"purchase_price": priced.PurchasePrice,
			"mrp":            priced.MRP,
			"mrp_pack":       priced.MRPPack,
			"pack_price":     priced.PackPrice,
			"units_per_pack": priced.UnitsPerPack,
			"pack_type":      priced.PackType,
			"updated_by":     priced.UpdatedBy,
			"updated_at":     priced.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": batchID, "pharmacy_id": pharmacyID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build price refresh: %w", err)
	}
	tag, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("refresh batch prices: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("inventory", batchID.String())
	}
	return nil
}

// GetByID returns one batch.
func (r *LedgerRepo) GetByID(ctx context.Context, pharmacyID, batchID id.ID) (*inventory.Batch, error) {
	return r.Table.GetByID(ctx, pharmacyID, batchID, false)
}

// GetByKey returns the batch stored under key.
func (r *LedgerRepo) GetByKey(ctx context.Context, key inventory.Key) (*inventory.Batch, error) {
	q := r.Select().Where(squirrel.Eq{
		"pharmacy_id":  key.PharmacyID,
		"product_key":  key.ProductKey,
		"batch_no":     key.BatchNo,
		"supplier_key": key.SupplierKey(),
	})
	return r.Get(ctx, q, key.String())
}

// List returns a page of batches.
func (r *LedgerRepo) List(ctx context.Context, pharmacyID id.ID, f domain.ListFilter) (domain.ListResult[inventory.Batch], error) {
	orderBy, err := postgres.OrderBy(f.OrderBy, "product_name", batchOrderColumns...)
	if err != nil {
		return domain.ListResult[inventory.Batch]{}, err
	}
	q := r.Select().Where(squirrel.Eq{"pharmacy_id": pharmacyID})
	if f.Search != "" {
		pattern := postgres.LikePattern(f.Search)
		q = q.Where(squirrel.Or{
			squirrel.ILike{"product_name": pattern},
			squirrel.ILike{"batch_no": pattern},
		})
	}
	return r.Page(ctx, q, f, orderBy)
}

// SearchCandidates returns in-stock batches whose name or composition
// contains query. Rows are ordered by match tier before LIMIT so an exact or
// prefix match is never cut off by older substring matches.
func (r *LedgerRepo) SearchCandidates(ctx context.Context, pharmacyID id.ID, query string, limit int) ([]inventory.Batch, error) {
	key := search.Normalize(query)
	pattern := postgres.LikePattern(key)
	q := r.Select().
		Where(squirrel.Eq{"pharmacy_id": pharmacyID}).
		Where(squirrel.Gt{"available_quantity": 0}).
		Where(squirrel.Or{
			squirrel.Like{"product_key": pattern},
			squirrel.ILike{"salt_composition": pattern},
		}).
		OrderByClause(postgres.SearchTierOrder("product_key", key)).
		OrderBy("created_at ASC", "id ASC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	return r.Find(ctx, q)
}

// ListLowStock returns batches with 0 < available_quantity <= threshold.
func (r *LedgerRepo) ListLowStock(ctx context.Context, pharmacyID id.ID, threshold int64) ([]inventory.Batch, error) {
	q := r.Select().
		Where(squirrel.Eq{"pharmacy_id": pharmacyID}).
		Where(squirrel.Gt{"available_quantity": 0}).
		Where(squirrel.LtOrEq{"available_quantity": threshold}).
		OrderBy("available_quantity ASC", "id ASC")
	return r.Find(ctx, q)
}

// ListExpiring returns in-stock batches expiring on or before the date.
func (r *LedgerRepo) ListExpiring(ctx context.Context, pharmacyID id.ID, before time.Time) ([]inventory.Batch, error) {
	q := r.Select().
		Where(squirrel.Eq{"pharmacy_id": pharmacyID}).
		Where(squirrel.Gt{"available_quantity": 0}).
		Where(squirrel.NotEq{"expiry_date": nil}).
		Where(squirrel.LtOrEq{"expiry_date": before}).
		OrderBy("expiry_date ASC", "id ASC")
	return r.Find(ctx, q)
}

// Delete removes a batch explicitly.
func (r *LedgerRepo) Delete(ctx context.Context, pharmacyID, batchID id.ID) error {
	return r.Table.Delete(ctx, pharmacyID, batchID)
}

// Pharmacies returns every pharmacy that has at least one batch.
func (r *LedgerRepo) Pharmacies(ctx context.Context) ([]id.ID, error) {
	sql, args, err := postgres.Builder().
		Select("DISTINCT pharmacy_id").
		From(batchesTable).
		OrderBy("pharmacy_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build pharmacies query: %w", err)
	}
	var ids []id.ID
	if err := pgxscan.Select(ctx, r.Querier(ctx), &ids, sql, args...); err != nil {
		return nil, fmt.Errorf("list pharmacies: %w", err)
	}
	return ids, nil
}
