package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/entity"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain/billing"
	"pharmaledger/internal/domain/catalogs/customer"
	"pharmaledger/internal/domain/inventory"
)

func arrivalFor(pharmacyID id.ID, qty int64) inventory.Arrival {
	return inventory.Arrival{
		Key:        inventory.NewKey(pharmacyID, "Paracetamol 500", "B1", nil),
		Quantity:   qty,
		Descriptor: inventory.Descriptor{ProductName: "Paracetamol 500"},
	}
}

func TestStore_RollbackRestoresSnapshot(t *testing.T) {
	repos := NewRepositories()
	ctx := context.Background()
	pharmacyID := id.New()

	b, err := repos.Ledger.UpsertBatch(ctx, arrivalFor(pharmacyID, 10), id.New())
	require.NoError(t, err)

	boom := errors.New("boom")
	err = repos.Store.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := repos.Ledger.Deduct(ctx, pharmacyID, b.ID, 4); err != nil {
			return err
		}
		if _, err := repos.Ledger.UpsertBatch(ctx, arrivalFor(pharmacyID, 7), id.New()); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := repos.Ledger.GetByID(ctx, pharmacyID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.AvailableQuantity)
}

func TestStore_NestedTransactionJoinsOuter(t *testing.T) {
	repos := NewRepositories()
	ctx := context.Background()
	pharmacyID := id.New()

	err := repos.Store.RunInTransaction(ctx, func(ctx context.Context) error {
		return repos.Store.RunInTransaction(ctx, func(ctx context.Context) error {
			_, err := repos.Ledger.UpsertBatch(ctx, arrivalFor(pharmacyID, 1), id.New())
			return err
		})
	})
	require.NoError(t, err)
}

func TestLedger_ConcurrentDeductNeverOversells(t *testing.T) {
	repos := NewRepositories()
	ctx := context.Background()
	pharmacyID := id.New()

	b, err := repos.Ledger.UpsertBatch(ctx, arrivalFor(pharmacyID, 50), id.New())
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, fail int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repos.Ledger.Deduct(ctx, pharmacyID, b.ID, 3)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if apperror.IsInsufficientStock(err) {
				fail++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 16, ok)
	assert.Equal(t, 4, fail)
	got, err := repos.Ledger.GetByID(ctx, pharmacyID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.AvailableQuantity)
}

func TestLedger_ConcurrentArrivalsAccumulate(t *testing.T) {
	repos := NewRepositories()
	ctx := context.Background()
	pharmacyID := id.New()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repos.Ledger.UpsertBatch(ctx, arrivalFor(pharmacyID, 5), id.New())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	b, err := repos.Ledger.GetByKey(ctx, inventory.NewKey(pharmacyID, "paracetamol 500", "B1", nil))
	require.NoError(t, err)
	assert.Equal(t, int64(50), b.AvailableQuantity)
}

func TestLedger_PharmacyIsolation(t *testing.T) {
	repos := NewRepositories()
	ctx := context.Background()

	b, err := repos.Ledger.UpsertBatch(ctx, arrivalFor(id.New(), 5), id.New())
	require.NoError(t, err)

	_, err = repos.Ledger.GetByID(ctx, id.New(), b.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestLedger_SearchCandidatesTierFirstThenStable(t *testing.T) {
	repos := NewRepositories()
	ctx := context.Background()
	pharmacyID := id.New()

	put := func(name string) inventory.Batch {
		b, err := repos.Ledger.UpsertBatch(ctx, inventory.Arrival{
			Key:        inventory.NewKey(pharmacyID, name, "B1", nil),
			Quantity:   5,
			Descriptor: inventory.Descriptor{ProductName: name},
		}, id.New())
		require.NoError(t, err)
		return *b
	}
	for i := range 20 {
		put(fmt.Sprintf("Adolo %d", i))
	}
	exact := put("Dolo")

	got, err := repos.Ledger.SearchCandidates(ctx, pharmacyID, "dolo", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, exact.ID, got[0].ID)

	// Same tier and same timestamp: ids decide.
	same := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for batchID, b := range repos.Store.state.batches {
		b.CreatedAt = same
		repos.Store.state.batches[batchID] = b
	}
	first, err := repos.Ledger.SearchCandidates(ctx, pharmacyID, "adolo", 0)
	require.NoError(t, err)
	require.Len(t, first, 20)
	for i := 1; i < len(first); i++ {
		assert.Negative(t, compareIDs(first[i-1].ID, first[i].ID))
	}
}

func TestCustomers_DeleteDetachesBills(t *testing.T) {
	repos := NewRepositories()
	ctx := context.Background()
	pharmacyID := id.New()

	c := customer.NewCustomer(pharmacyID, id.New(), "Asha", "+919876543210")
	require.NoError(t, repos.Customers.Create(ctx, c))
	bill := billing.Bill{BaseEntity: entity.NewBaseEntity(pharmacyID, id.New()), CustomerID: &c.ID, CustomerName: "Asha"}
	repos.Store.state.bills[bill.ID] = bill

	require.NoError(t, repos.Customers.Delete(ctx, pharmacyID, c.ID))

	stored := repos.Store.state.bills[bill.ID]
	assert.Nil(t, stored.CustomerID)
	assert.Equal(t, "Asha", stored.CustomerName)
	assert.True(t, apperror.IsNotFound(repos.Customers.Delete(ctx, pharmacyID, c.ID)))
}
