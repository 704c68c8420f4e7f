package memory

import (
	"context"
	"time"

	"pharmaledger/internal/core/numerator"
)

// Numerator implements numerator.Generator. Counters live in the store so a
// rolled-back transaction releases its number.
type Numerator struct {
	s *Store
}

var _ numerator.Generator = (*Numerator)(nil)

// GetNextNumber issues the next number of the series.
func (n *Numerator) GetNextNumber(ctx context.Context, cfg numerator.Config, _ *numerator.Options, period time.Time) (string, error) {
	defer n.s.lock(ctx)()

	key := numerator.SequenceKey(cfg, period)
	n.s.state.sequences[key]++
	return numerator.Format(cfg, period, n.s.state.sequences[key]), nil
}

// SetNextNumber moves the counter.
func (n *Numerator) SetNextNumber(ctx context.Context, cfg numerator.Config, period time.Time, value int64) error {
	defer n.s.lock(ctx)()

	n.s.state.sequences[numerator.SequenceKey(cfg, period)] = value
	return nil
}
