package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain/inventory"
	"pharmaledger/internal/infrastructure/storage/memory"
)

func TestSweeper_PublishesPerAlertingPharmacy(t *testing.T) {
	repos := memory.NewRepositories()
	noisy, quiet := id.New(), id.New()
	seed(t, repos.Ledger, noisy,
		arrival{name: "Low", batch: "1", qty: 2, expiry: days(400)},
		arrival{name: "Gone", batch: "2", qty: 40, expiry: days(-1)},
	)
	seed(t, repos.Ledger, quiet, arrival{name: "Fine", batch: "1", qty: 40, expiry: days(400)})

	svc := inventory.NewService(repos.Ledger, nil)
	sweeper := inventory.NewSweeper(svc, repos.Ledger, repos.Store, repos.Journal, inventory.AlertOptions{})

	n, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	events := repos.Journal.Events()
	require.Len(t, events, 1)
	assert.Equal(t, inventory.EventAlerts, events[0].EventType)
	assert.Equal(t, noisy, events[0].PharmacyID)

	summary, ok := events[0].Payload.(inventory.AlertSummary)
	require.True(t, ok)
	assert.Equal(t, 1, summary.LowStock)
	assert.Equal(t, 1, summary.Expired)
	assert.Len(t, summary.BatchIDs, 2)
}

func TestSweeper_NoPublisherOnlyCounts(t *testing.T) {
	repos := memory.NewRepositories()
	seed(t, repos.Ledger, id.New(), arrival{name: "Low", batch: "1", qty: 1})

	sweeper := inventory.NewSweeper(inventory.NewService(repos.Ledger, nil), repos.Ledger, repos.Store, nil, inventory.AlertOptions{})
	n, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, repos.Journal.Events())
}
