package postgres

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmaledger/internal/core/entity"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain/catalogs/customer"
	"pharmaledger/internal/domain/inventory"
)

func TestExtractDBColumns_Batch(t *testing.T) {
	cols := ExtractDBColumns[inventory.Batch]()

	require.GreaterOrEqual(t, len(cols), 6)
	assert.Equal(t, []string{"id", "pharmacy_id", "created_by", "updated_by", "created_at", "updated_at"}, cols[:6])
	assert.Contains(t, cols, "available_quantity")
	assert.Contains(t, cols, "expiry_date")
	assert.NotContains(t, cols, "")
}

func TestStructToMap_Customer(t *testing.T) {
	pharmacyID, actorID := id.New(), id.New()
	now := time.Now().UTC()
	c := &customer.Customer{
		BaseEntity: entity.NewBaseEntity(pharmacyID, actorID),
		Name:       "Asha",
		Mobile:     "+919876543210",
		TotalDebt:  decimal.RequireFromString("120.50"),
		LastBillAt: &now,
	}

	m := StructToMap(c)
	assert.Equal(t, c.ID, m["id"])
	assert.Equal(t, pharmacyID, m["pharmacy_id"])
	assert.Equal(t, "+919876543210", m["mobile"])
	assert.Equal(t, &now, m["last_bill_at"])

	m = StructToMap(c, "id", "created_at", "created_by")
	assert.NotContains(t, m, "id")
	assert.NotContains(t, m, "created_at")
	assert.Contains(t, m, "updated_at")
}

func TestStructToMap_NonStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))
	var c *customer.Customer
	assert.Nil(t, StructToMap(c))
}
