package numerator

import (
	"context"
	"time"
)

// Generator issues sequential document numbers.
type Generator interface {
	// GetNextNumber returns the next number of the series, e.g. BILL-2026-000001.
	GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)

	// SetNextNumber moves the counter (used when importing historical bills).
	SetNextNumber(ctx context.Context, cfg Config, period time.Time, value int64) error
}
