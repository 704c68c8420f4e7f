package inventory_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/types"
	"pharmaledger/internal/domain/inventory"
	"pharmaledger/internal/infrastructure/storage/memory"
)

type csvExporter struct{}

func (csvExporter) ContentType() string   { return "text/csv" }
func (csvExporter) FileExtension() string { return "csv" }
func (csvExporter) WriteBatches(w io.Writer, batches []inventory.Batch) error {
	cw := csv.NewWriter(w)
	for _, b := range batches {
		if err := cw.Write([]string{b.ProductName, b.BatchNo}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type arrival struct {
	name, salt, batch string
	qty               int64
	expiry            *time.Time
}

func seed(t *testing.T, ledger inventory.Ledger, pharmacyID id.ID, rows ...arrival) []*inventory.Batch {
	t.Helper()
	out := make([]*inventory.Batch, 0, len(rows))
	for _, r := range rows {
		b, err := ledger.UpsertBatch(context.Background(), inventory.Arrival{
			Key:      inventory.NewKey(pharmacyID, r.name, r.batch, nil),
			Quantity: r.qty,
			Descriptor: inventory.Descriptor{
				ProductName:     r.name,
				SaltComposition: r.salt,
				ExpiryDate:      r.expiry,
			},
			Prices: inventory.PriceHints{Authoritative: true, MRP: types.MustMoney("2"), UnitsPerPack: 1},
		}, id.New())
		require.NoError(t, err)
		out = append(out, b)
	}
	return out
}

func days(n int) *time.Time {
	t := time.Now().UTC().AddDate(0, 0, n)
	return &t
}

func TestService_SearchRanksByTier(t *testing.T) {
	repos := memory.NewRepositories()
	pharmacyID := id.New()
	seed(t, repos.Ledger, pharmacyID,
		arrival{name: "Crocin Paracetamol", batch: "1", qty: 10},
		arrival{name: "Paracetamol", batch: "2", qty: 10},
		arrival{name: "Dolo 650", salt: "Paracetamol 650mg", batch: "3", qty: 10},
		arrival{name: "Paracetamol Syrup", batch: "4", qty: 10},
	)
	soldOut := seed(t, repos.Ledger, pharmacyID, arrival{name: "Paracetamol Drops", batch: "5", qty: 1})
	_, err := repos.Ledger.Deduct(context.Background(), pharmacyID, soldOut[0].ID, 1)
	require.NoError(t, err)
	svc := inventory.NewService(repos.Ledger, nil)

	got, err := svc.Search(context.Background(), pharmacyID, "  PARACETAMOL ", 0)
	require.NoError(t, err)

	names := make([]string, len(got))
	for i, b := range got {
		names[i] = b.ProductName
	}
	assert.Equal(t, []string{"Paracetamol", "Paracetamol Syrup", "Crocin Paracetamol", "Dolo 650"}, names)

	_, err = svc.Search(context.Background(), pharmacyID, " ", 0)
	assert.True(t, apperror.IsValidation(err))
}

func TestService_SearchExactMatchSurvivesManyOlderMatches(t *testing.T) {
	repos := memory.NewRepositories()
	pharmacyID := id.New()
	for i := range 20 {
		seed(t, repos.Ledger, pharmacyID, arrival{name: fmt.Sprintf("Adolo %d", i), batch: fmt.Sprint(i), qty: 5})
	}
	seed(t, repos.Ledger, pharmacyID, arrival{name: "Dolo", batch: "X", qty: 5})
	svc := inventory.NewService(repos.Ledger, nil)

	got, err := svc.Search(context.Background(), pharmacyID, "dolo", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Dolo", got[0].ProductName)
}

func TestService_Alerts(t *testing.T) {
	repos := memory.NewRepositories()
	pharmacyID := id.New()
	seed(t, repos.Ledger, pharmacyID,
		arrival{name: "Low", batch: "1", qty: 3, expiry: days(400)},
		arrival{name: "Soon", batch: "2", qty: 50, expiry: days(20)},
		arrival{name: "Gone", batch: "3", qty: 50, expiry: days(-5)},
		arrival{name: "Fine", batch: "4", qty: 50, expiry: days(400)},
	)
	svc := inventory.NewService(repos.Ledger, nil)

	alerts, err := svc.Alerts(context.Background(), pharmacyID, inventory.AlertOptions{})
	require.NoError(t, err)

	require.Len(t, alerts.LowStock, 1)
	assert.Equal(t, "Low", alerts.LowStock[0].ProductName)
	require.Len(t, alerts.ExpiringSoon, 1)
	assert.Equal(t, "Soon", alerts.ExpiringSoon[0].ProductName)
	require.Len(t, alerts.Expired, 1)
	assert.Equal(t, "Gone", alerts.Expired[0].ProductName)
	assert.Equal(t, 3, alerts.Total())
	assert.Equal(t, inventory.DefaultLowStockThreshold, alerts.LowStockThreshold)
}

type staticThresholds map[string]int64

func (s staticThresholds) LowStockThresholds(context.Context, id.ID) (map[string]int64, error) {
	return s, nil
}

func TestService_AlertsPerProductThreshold(t *testing.T) {
	repos := memory.NewRepositories()
	pharmacyID := id.New()
	seed(t, repos.Ledger, pharmacyID,
		arrival{name: "Insulin Pen", batch: "1", qty: 40, expiry: days(400)},
		arrival{name: "Cough Syrup", batch: "2", qty: 8, expiry: days(400)},
		arrival{name: "Bandage", batch: "3", qty: 9, expiry: days(400)},
	)
	svc := inventory.NewService(repos.Ledger, nil).WithThresholds(staticThresholds{
		inventory.NormalizeName("Insulin Pen"): 50,
		inventory.NormalizeName("Cough Syrup"): 5,
	})

	alerts, err := svc.Alerts(context.Background(), pharmacyID, inventory.AlertOptions{})
	require.NoError(t, err)
	names := make([]string, len(alerts.LowStock))
	for i, b := range alerts.LowStock {
		names[i] = b.ProductName
	}
	assert.ElementsMatch(t, []string{"Insulin Pen", "Bandage"}, names)

	// An explicit threshold overrides the product master.
	alerts, err = svc.Alerts(context.Background(), pharmacyID, inventory.AlertOptions{LowStockThreshold: 8})
	require.NoError(t, err)
	require.Len(t, alerts.LowStock, 1)
	assert.Equal(t, "Cough Syrup", alerts.LowStock[0].ProductName)
}

func TestService_DeleteAndExport(t *testing.T) {
	repos := memory.NewRepositories()
	pharmacyID := id.New()
	batches := seed(t, repos.Ledger, pharmacyID,
		arrival{name: "Alpha", batch: "A", qty: 1},
		arrival{name: "Beta", batch: "B", qty: 1},
	)
	svc := inventory.NewService(repos.Ledger, csvExporter{})
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, pharmacyID, batches[0].ID))
	_, err := svc.Get(ctx, pharmacyID, batches[0].ID)
	assert.True(t, apperror.IsNotFound(err))

	var buf bytes.Buffer
	require.NoError(t, svc.Export(ctx, pharmacyID, &buf))
	assert.Equal(t, "Beta,B\n", buf.String())
}

func TestService_ExportWithoutExporter(t *testing.T) {
	svc := inventory.NewService(memory.NewRepositories().Ledger, nil)
	err := svc.Export(context.Background(), id.New(), io.Discard)
	assert.True(t, apperror.HasCode(err, apperror.CodeBusinessRule))
}
