package numerator

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corenumerator "pharmaledger/internal/core/numerator"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates sys_sequences: one counter per key.
type mockQuerier struct {
	mu       sync.Mutex
	counters map[string]int64
	calls    int
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{counters: make(map[string]int64)}
}

func (m *mockQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	key := args[0].(string)
	switch {
	case strings.Contains(sql, "current_val = $2,"):
		m.counters[key] = args[1].(int64)
	case len(args) == 2:
		m.counters[key] += args[1].(int64)
	default:
		m.counters[key]++
	}
	return &mockRow{val: m.counters[key]}
}

var period = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

func TestGetNextNumber_Strict(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.BillConfig("ph-1")

	num, err := svc.GetNextNumber(ctx, cfg, nil, period)
	require.NoError(t, err)
	assert.Equal(t, "BILL-2026-000001", num)

	num, err = svc.GetNextNumber(ctx, cfg, nil, period)
	require.NoError(t, err)
	assert.Equal(t, "BILL-2026-000002", num)
}

func TestGetNextNumber_ScopesArePerPharmacy(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()

	a, err := svc.GetNextNumber(ctx, corenumerator.BillConfig("ph-1"), nil, period)
	require.NoError(t, err)
	b, err := svc.GetNextNumber(ctx, corenumerator.BillConfig("ph-2"), nil, period)
	require.NoError(t, err)

	assert.Equal(t, "BILL-2026-000001", a)
	assert.Equal(t, "BILL-2026-000001", b)
}

func TestGetNextNumber_Cached(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.Config{Prefix: "ORD", IncludeYear: true}
	opts := &corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 10}

	num, err := svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "ORD-2026-00001", num)
	assert.Equal(t, int64(10), q.counters["ORD"])

	num, err = svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "ORD-2026-00002", num)
	assert.Equal(t, 1, q.calls, "second number comes from the reserved range")

	for i := 0; i < 8; i++ {
		_, err = svc.GetNextNumber(ctx, cfg, opts, period)
		require.NoError(t, err)
	}

	num, err = svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "ORD-2026-00011", num)
	assert.Equal(t, int64(20), q.counters["ORD"])
}

func TestSetNextNumber_InvalidatesCache(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.Config{Prefix: "INV"}
	opts := &corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 10}

	_, err := svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)

	require.NoError(t, svc.SetNextNumber(ctx, cfg, period, 100))

	num, err := svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "INV-00101", num)
}
