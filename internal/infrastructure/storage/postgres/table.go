package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain"
)

// immutableColumns are never rewritten by Update.
var immutableColumns = []string{"id", "pharmacy_id", "created_by", "created_at"}

// Table is the pharmacy-scoped CRUD base embedded by repositories.
// T is the row struct; its "db" tags must match the table columns.
type Table[T any] struct {
	txm    *TxManager
	name   string
	entity string
	cols   []string
}

// NewTable creates a base for table name. entity names the record in errors.
func NewTable[T any](txm *TxManager, name, entity string) *Table[T] {
	return &Table[T]{
		txm:    txm,
		name:   name,
		entity: entity,
		cols:   ExtractDBColumns[T](),
	}
}

// Name returns the table name.
func (t *Table[T]) Name() string { return t.name }

// Columns returns the selected columns.
func (t *Table[T]) Columns() []string { return t.cols }

// Querier returns the transaction in ctx, or the pool.
func (t *Table[T]) Querier(ctx context.Context) Querier { return t.txm.GetQuerier(ctx) }

// Select starts a SELECT of all columns.
func (t *Table[T]) Select() squirrel.SelectBuilder {
	return Builder().Select(t.cols...).From(t.name)
}

// Returning is the RETURNING clause for statements that yield a full row.
func (t *Table[T]) Returning() string {
	return "RETURNING " + strings.Join(t.cols, ", ")
}

// Insert stores row.
func (t *Table[T]) Insert(ctx context.Context, row *T) error {
	sql, args, err := Builder().Insert(t.name).SetMap(StructToMap(row)).ToSql()
	if err != nil {
		return fmt.Errorf("build insert %s: %w", t.name, err)
	}
	if _, err := t.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", t.name, MapError(err, t.entity))
	}
	return nil
}

// Update rewrites every mutable column of the row identified by
// (pharmacyID, rowID).
func (t *Table[T]) Update(ctx context.Context, pharmacyID, rowID id.ID, row *T) error {
	sql, args, err := Builder().
		Update(t.name).
		SetMap(StructToMap(row, immutableColumns...)).
		Where(squirrel.Eq{"id": rowID, "pharmacy_id": pharmacyID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update %s: %w", t.name, err)
	}
	tag, err := t.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", t.name, MapError(err, t.entity))
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(t.entity, rowID.String())
	}
	return nil
}

// Delete removes the row identified by (pharmacyID, rowID).
func (t *Table[T]) Delete(ctx context.Context, pharmacyID, rowID id.ID) error {
	sql, args, err := Builder().
		Delete(t.name).
		Where(squirrel.Eq{"id": rowID, "pharmacy_id": pharmacyID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete %s: %w", t.name, err)
	}
	tag, err := t.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", t.name, MapError(err, t.entity))
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(t.entity, rowID.String())
	}
	return nil
}

// Get scans the single row of q. key names the row in the NotFound error.
func (t *Table[T]) Get(ctx context.Context, q squirrel.Sqlizer, key string) (*T, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query %s: %w", t.name, err)
	}
	row := new(T)
	if err := pgxscan.Get(ctx, t.Querier(ctx), row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(t.entity, key)
		}
		return nil, fmt.Errorf("get %s: %w", t.name, err)
	}
	return row, nil
}

// GetByID loads one row of the pharmacy. forUpdate locks it until the
// transaction ends.
func (t *Table[T]) GetByID(ctx context.Context, pharmacyID, rowID id.ID, forUpdate bool) (*T, error) {
	q := t.Select().Where(squirrel.Eq{"id": rowID, "pharmacy_id": pharmacyID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}
	return t.Get(ctx, q, rowID.String())
}

// Find scans every row of q.
func (t *Table[T]) Find(ctx context.Context, q squirrel.Sqlizer) ([]T, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query %s: %w", t.name, err)
	}
	var rows []T
	if err := pgxscan.Select(ctx, t.Querier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select %s: %w", t.name, err)
	}
	return rows, nil
}

// Page counts the rows of q, then loads one ordered page of them.
func (t *Table[T]) Page(ctx context.Context, q squirrel.SelectBuilder, f domain.ListFilter, orderBy string) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{Limit: f.Limit, Offset: f.Offset}

	countSQL, countArgs, err := Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count %s: %w", t.name, err)
	}
	if err := t.Querier(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count %s: %w", t.name, err)
	}
	if result.TotalCount == 0 {
		result.Items = []T{}
		return result, nil
	}

	items, err := t.Find(ctx, q.OrderBy(orderBy).Limit(uint64(f.Limit)).Offset(uint64(f.Offset)))
	if err != nil {
		return result, err
	}
	result.Items = items
	return result, nil
}

// LikePattern builds a case-insensitive substring pattern with LIKE
// metacharacters escaped.
func LikePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// LikePrefix builds a starts-with pattern with LIKE metacharacters escaped.
func LikePrefix(s string) string {
	return likeEscaper.Replace(s) + "%"
}

// SearchTierOrder ranks rows the way search.Classify does on a normalized
// key column: exact, prefix, substring, then anything else (composition-only
// matches). key must already be normalized.
func SearchTierOrder(column, key string) squirrel.Sqlizer {
	return squirrel.Expr(`CASE
		WHEN `+column+` = ? THEN 0
		WHEN `+column+` LIKE ? THEN 1
		WHEN `+column+` LIKE ? THEN 2
		ELSE 3 END`, key, LikePrefix(key), LikePattern(key))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
