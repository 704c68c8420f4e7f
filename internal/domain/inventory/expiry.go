package inventory

import (
	"strings"
	"time"

	"pharmaledger/internal/core/apperror"
)

var expiryLayouts = []struct {
	layout    string
	monthOnly bool
}{
	{"2006-01-02", false},
	{"02/01/2006", false},
	{"2006-01", true},
	{"01/2006", true},
	{"01/06", true},
	{"Jan-2006", true},
	{"Jan 2006", true},
}

// ParseExpiry accepts the date shapes found on strip labels. Month-only
// values expire on the last day of that month. Empty input yields nil.
func ParseExpiry(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		d := truncateDay(t)
		return &d, nil
	}
	for _, l := range expiryLayouts {
		t, err := time.Parse(l.layout, s)
		if err != nil {
			continue
		}
		if l.monthOnly {
			t = t.AddDate(0, 1, -1)
		}
		return &t, nil
	}
	return nil, apperror.NewFieldValidation("expiry_date", "unrecognized expiry_date format").
		WithDetail("value", s)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
