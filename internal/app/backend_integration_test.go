package app

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmaledger/internal/core/apperror"
	appctx "pharmaledger/internal/core/context"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain/billing"
	"pharmaledger/internal/domain/pricing"
	"pharmaledger/internal/domain/purchase"
)

// openIntegrationBackend connects to TEST_DATABASE_URL when INTEGRATION_TESTS=1.
func openIntegrationBackend(t *testing.T) *Backend {
	t.Helper()
	if os.Getenv("INTEGRATION_TESTS") != "1" {
		t.Skip("set INTEGRATION_TESTS=1 and TEST_DATABASE_URL to run")
	}
	dsn := os.Getenv("TEST_DATABASE_URL")
	require.NotEmpty(t, dsn, "TEST_DATABASE_URL")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	b, err := OpenBackend(ctx, Config{
		StorageBackend:     BackendPostgres,
		DatabaseURL:        dsn,
		DBMaxConns:         4,
		IdempotencyEnabled: true,
		IdempotencyTTL:     time.Hour,
		DefaultPhoneRegion: "IN",
	}, OpenOptions{Migrate: true})
	require.NoError(t, err)
	t.Cleanup(b.Close)
	return b
}

func TestPostgresBackend_PurchaseThenBill(t *testing.T) {
	b := openIntegrationBackend(t)
	ctx := context.Background()
	actor := appctx.Actor{ActorID: id.New(), PharmacyID: id.New(), Roles: []string{appctx.RoleAdmin}}

	qty := func(n int64) *int64 { return &n }
	money := func(s string) *decimal.Decimal { d := decimal.RequireFromString(s); return &d }
	line := purchase.ItemInput{
		ProductName: "Dolo 650",
		BatchNo:     "D-1",
		ExpiryDate:  "2028-01-31",
		Input:       pricing.Input{Quantity: qty(100), PurchasePrice: money("1.50"), MRP: money("2.00")},
	}

	_, err := b.Services.Purchases.Create(ctx, actor, purchase.CreateInput{Items: []purchase.ItemInput{line}})
	require.NoError(t, err)
	line.Quantity = qty(50)
	_, err = b.Services.Purchases.Create(ctx, actor, purchase.CreateInput{Items: []purchase.ItemInput{line}})
	require.NoError(t, err)

	found, err := b.Services.Inventory.Search(ctx, actor.PharmacyID, "dolo", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.EqualValues(t, 150, found[0].AvailableQuantity)
	batchID := found[0].ID

	bill, err := b.Services.Bills.Commit(ctx, actor, billing.Input{
		CustomerMobile: "9876543210",
		Items:          []billing.ItemInput{{InventoryID: &batchID, Quantity: 40}},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(bill.BillNo, "BILL-"), bill.BillNo)

	_, err = b.Services.Bills.Commit(ctx, actor, billing.Input{
		Items: []billing.ItemInput{{InventoryID: &batchID, Quantity: 500}},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	after, err := b.Services.Inventory.Get(ctx, actor.PharmacyID, batchID)
	require.NoError(t, err)
	assert.EqualValues(t, 110, after.AvailableQuantity)

	pharmacies, err := b.Ledger.Pharmacies(ctx)
	require.NoError(t, err)
	assert.Contains(t, pharmacies, actor.PharmacyID)
}

func TestPostgresBackend_IdempotencyReplay(t *testing.T) {
	b := openIntegrationBackend(t)
	require.NotNil(t, b.Idempotency)
	ctx := context.Background()

	key, actorID := id.New().String(), id.New().String()

	replay, err := b.Idempotency.AcquireKey(ctx, key, actorID, "POST /api/v1/bills", "hash-1")
	require.NoError(t, err)
	assert.Nil(t, replay)
	require.NoError(t, b.Idempotency.CompleteKey(ctx, key, 201, "application/json", []byte(`{"ok":true}`)))

	replay, err = b.Idempotency.AcquireKey(ctx, key, actorID, "POST /api/v1/bills", "hash-1")
	require.NoError(t, err)
	require.NotNil(t, replay)
	assert.JSONEq(t, `{"ok":true}`, string(replay.Body))

	_, err = b.Idempotency.AcquireKey(ctx, key, actorID, "POST /api/v1/bills", "hash-2")
	assert.True(t, apperror.HasCode(err, apperror.CodeIdempotency))
}
