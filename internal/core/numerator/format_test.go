package numerator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSequenceKey(t *testing.T) {
	period := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "ph1:BILL", SequenceKey(BillConfig("ph1"), period))
	assert.Equal(t, "BILL_2026", SequenceKey(Config{Prefix: "BILL", ResetPeriod: "year"}, period))
	assert.Equal(t, "BILL_2026_03", SequenceKey(Config{Prefix: "BILL", ResetPeriod: "month"}, period))
}

func TestFormat(t *testing.T) {
	period := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "BILL-2026-000042", Format(BillConfig("ph1"), period, 42))
	assert.Equal(t, "PO-00007", Format(Config{Prefix: "PO"}, period, 7))
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, int64(42), ParseNumber("BILL-2026-000042"))
	assert.Equal(t, int64(7), ParseNumber("PO-00007"))
	assert.Equal(t, int64(-1), ParseNumber("garbage"))
}
