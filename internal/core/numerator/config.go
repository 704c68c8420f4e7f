// Package numerator provides the contract for sequential document numbers.
package numerator

// Strategy defines the numbering generation strategy.
type Strategy int

const (
	// StrategyStrict issues every number with one UPSERT ... RETURNING.
	// Numbers are gapless as long as the surrounding transaction commits.
	StrategyStrict Strategy = iota

	// StrategyCached reserves ranges in memory. Restarts leave gaps.
	StrategyCached
)

// Options configuration for number generation.
type Options struct {
	Strategy Strategy
	// RangeSize is the number of values reserved at once by StrategyCached. Default 50.
	RangeSize int64
}

// DefaultOptions returns Strict options.
func DefaultOptions() *Options {
	return &Options{Strategy: StrategyStrict}
}

// Config describes one number series.
type Config struct {
	// Prefix added to all numbers (e.g. "BILL")
	Prefix string

	// Scope isolates counters, typically the pharmacy id.
	Scope string

	// IncludeYear adds the period year to the number
	IncludeYear bool

	// PadWidth is the minimum width of the counter (default 5)
	PadWidth int

	// ResetPeriod: "year", "month", "never"
	ResetPeriod string
}

// BillConfig is the series used for bill numbers: BILL-YYYY-000001, one
// counter per pharmacy that never resets so numbers stay unique.
func BillConfig(pharmacyID string) Config {
	return Config{
		Prefix:      "BILL",
		Scope:       pharmacyID,
		IncludeYear: true,
		PadWidth:    6,
		ResetPeriod: "never",
	}
}
