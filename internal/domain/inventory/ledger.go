package inventory

import (
	"context"
	"time"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain"
)

// Ledger is the authoritative batch store. Every mutation is a single atomic
// statement at the storage layer; callers never read-modify-write quantities.
//
// Failures are *apperror.AppError: NOT_FOUND for an unknown batch and
// INSUFFICIENT_STOCK when a deduction would go below zero.
type Ledger interface {
	// UpsertBatch adds a.Quantity units to the batch for a.Key, creating it on
	// first arrival. Concurrent arrivals for one key never lose an increment.
	UpsertBatch(ctx context.Context, a Arrival, actorID id.ID) (*Batch, error)

	// Deduct removes qty units only if the batch holds at least qty.
	Deduct(ctx context.Context, pharmacyID, batchID id.ID, qty int64) (*Batch, error)

	// Restore adds qty units back. There is no provenance check: restoring
	// more than was deducted is accepted.
	Restore(ctx context.Context, pharmacyID, batchID id.ID, qty int64) (*Batch, error)

	// Reverse removes qty units without the floor check. Purchase reversal
	// may leave a batch negative when its stock was already sold.
	Reverse(ctx context.Context, pharmacyID, batchID id.ID, qty int64) (*Batch, error)

	// RefreshPrices overwrites the price fields of a batch.
	RefreshPrices(ctx context.Context, pharmacyID, batchID id.ID, p PriceHints, actorID id.ID) error

	GetByID(ctx context.Context, pharmacyID, batchID id.ID) (*Batch, error)
	GetByKey(ctx context.Context, key Key) (*Batch, error)
	List(ctx context.Context, pharmacyID id.ID, filter domain.ListFilter) (domain.ListResult[Batch], error)

	// SearchCandidates returns in-stock batches whose name or composition
	// contains query, at most limit rows. Rows come in search.Classify tier
	// order, then oldest first, then by id, so truncation never drops a
	// better match than one it keeps.
	SearchCandidates(ctx context.Context, pharmacyID id.ID, query string, limit int) ([]Batch, error)

	// ListLowStock returns batches with 0 < available_quantity <= threshold.
	ListLowStock(ctx context.Context, pharmacyID id.ID, threshold int64) ([]Batch, error)

	// ListExpiring returns in-stock batches expiring on or before the date.
	ListExpiring(ctx context.Context, pharmacyID id.ID, before time.Time) ([]Batch, error)

	// Delete removes a batch explicitly. Empty batches are never removed otherwise.
	Delete(ctx context.Context, pharmacyID, batchID id.ID) error
}
