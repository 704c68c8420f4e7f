package xlsx

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"pharmaledger/internal/domain/inventory"
)

func TestExporter_WriteBatches(t *testing.T) {
	expiry := time.Date(2027, 6, 30, 0, 0, 0, 0, time.UTC)
	batches := []inventory.Batch{
		{
			ProductName:       "Dolo 650",
			BatchNo:           "B1",
			AvailableQuantity: 150,
			UnitsPerPack:      15,
			PackType:          "strip",
			PurchasePrice:     decimal.RequireFromString("3"),
			MRP:               decimal.RequireFromString("4.5"),
			ExpiryDate:        &expiry,
		},
		{ProductName: "Crocin", BatchNo: "C9", AvailableQuantity: 5, UnitsPerPack: 1},
	}

	var buf bytes.Buffer
	require.NoError(t, New().WriteBatches(&buf, batches))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheet}, f.GetSheetList())

	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Product", rows[0][0])
	assert.Equal(t, "Dolo 650", rows[1][0])
	assert.Equal(t, "150", rows[1][3])
	assert.Equal(t, "2027-06-30", rows[1][9])
	assert.Equal(t, "Crocin", rows[2][0])
}

func TestExporter_Metadata(t *testing.T) {
	assert.Equal(t, "xlsx", New().FileExtension())
	assert.Contains(t, New().ContentType(), "spreadsheetml")
}
