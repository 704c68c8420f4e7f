package numerator

import (
	"fmt"
	"time"
)

// SequenceKey is the counter key of a series in a period.
func SequenceKey(cfg Config, period time.Time) string {
	key := cfg.Prefix
	switch cfg.ResetPeriod {
	case "month":
		key = fmt.Sprintf("%s_%s", cfg.Prefix, period.Format("2006_01"))
	case "year":
		key = fmt.Sprintf("%s_%s", cfg.Prefix, period.Format("2006"))
	}
	if cfg.Scope != "" {
		key = cfg.Scope + ":" + key
	}
	return key
}

// Format renders counter value num, e.g. BILL-2026-000042.
func Format(cfg Config, period time.Time, num int64) string {
	padWidth := cfg.PadWidth
	if padWidth == 0 {
		padWidth = 5
	}
	if cfg.IncludeYear {
		return fmt.Sprintf("%s-%s-%0*d", cfg.Prefix, period.Format("2006"), padWidth, num)
	}
	return fmt.Sprintf("%s-%0*d", cfg.Prefix, padWidth, num)
}

// ParseNumber extracts the counter from a formatted number, or -1.
func ParseNumber(formatted string) int64 {
	var num int64
	for _, pattern := range []string{"%*[^-]-%*d-%d", "%*[^-]-%d"} {
		if _, err := fmt.Sscanf(formatted, pattern, &num); err == nil {
			return num
		}
	}
	return -1
}
