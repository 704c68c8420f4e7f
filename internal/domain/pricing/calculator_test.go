package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmaledger/internal/core/apperror"
)

func i64(v int64) *int64 { return &v }

func money(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func assertMoney(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "%s: want %s, got %s", field, want, got)
}

func TestNormalize_PackSchemaDerivationLaws(t *testing.T) {
	c, err := Normalize(Input{
		PackQuantity: i64(5),
		UnitsPerPack: i64(10),
		PackPrice:    money("100.00"),
		MRPPerUnit:   money("15.00"),
	})
	require.NoError(t, err)

	assert.Equal(t, SchemaPack, c.Schema)
	assert.Equal(t, int64(50), c.TotalUnits)
	assertMoney(t, "10.00", c.PricePerUnit, "price_per_unit")
	assertMoney(t, "150.00", c.MRPPack, "mrp_pack")
	assertMoney(t, "500.00", c.ItemTotal, "item_total")
	assert.Equal(t, DefaultPackType, c.PackType)
	assert.False(t, c.MRPFromCost)
}

func TestNormalize_LegacySchema(t *testing.T) {
	c, err := Normalize(Input{
		Quantity:      i64(100),
		PurchasePrice: money("2.50"),
		MRP:           money("4.00"),
		PackType:      "Bottle",
	})
	require.NoError(t, err)

	assert.Equal(t, SchemaLegacy, c.Schema)
	assert.Equal(t, int64(1), c.UnitsPerPack)
	assert.Equal(t, int64(100), c.TotalUnits)
	assert.Equal(t, int64(100), c.PackQuantity)
	assertMoney(t, "2.50", c.PricePerUnit, "price_per_unit")
	assertMoney(t, "4.00", c.MRPPerUnit, "mrp_per_unit")
	assertMoney(t, "4.00", c.MRPPack, "mrp_pack")
	assertMoney(t, "250.00", c.ItemTotal, "item_total")
	assert.Equal(t, "Bottle", c.PackType)
}

func TestNormalize_LegacyIgnoresUnitsPerPack(t *testing.T) {
	c, err := Normalize(Input{
		Quantity:      i64(20),
		UnitsPerPack:  i64(10),
		PurchasePrice: money("3"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.UnitsPerPack)
	assert.Equal(t, int64(20), c.TotalUnits)
}

func TestNormalize_MRPResolutionOrder(t *testing.T) {
	tests := []struct {
		name         string
		in           Input
		wantPerUnit  string
		wantPack     string
		wantFromCost bool
	}{
		{
			name: "explicit per unit wins over pack",
			in: Input{PackQuantity: i64(1), UnitsPerPack: i64(10), PackPrice: money("50"),
				MRPPerUnit: money("8"), MRPPack: money("75")},
			wantPerUnit: "8", wantPack: "80",
		},
		{
			name: "legacy mrp used as per unit",
			in: Input{PackQuantity: i64(1), UnitsPerPack: i64(10), PackPrice: money("50"),
				MRP: money("7.5")},
			wantPerUnit: "7.5", wantPack: "75",
		},
		{
			name: "derived from mrp pack",
			in: Input{PackQuantity: i64(2), UnitsPerPack: i64(3), PackPrice: money("10"),
				MRPPack: money("10")},
			wantPerUnit: "3.33", wantPack: "10",
		},
		{
			name:        "falls back to cost",
			in:          Input{PackQuantity: i64(2), UnitsPerPack: i64(4), PackPrice: money("10")},
			wantPerUnit: "2.5", wantPack: "10", wantFromCost: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Normalize(tt.in)
			require.NoError(t, err)
			assertMoney(t, tt.wantPerUnit, c.MRPPerUnit, "mrp_per_unit")
			assertMoney(t, tt.wantPack, c.MRPPack, "mrp_pack")
			assert.Equal(t, tt.wantFromCost, c.MRPFromCost)
		})
	}
}

func TestNormalize_QuantityPrecedence(t *testing.T) {
	t.Run("total units over bare quantity", func(t *testing.T) {
		c, err := Normalize(Input{TotalUnits: i64(30), Quantity: i64(99), UnitsPerPack: i64(10), PackPrice: money("20")})
		require.NoError(t, err)
		assert.Equal(t, int64(30), c.TotalUnits)
		assert.Equal(t, int64(3), c.PackQuantity)
		assertMoney(t, "60", c.ItemTotal, "item_total")
	})

	t.Run("bare quantity counts packs next to pack fields", func(t *testing.T) {
		c, err := Normalize(Input{Quantity: i64(4), UnitsPerPack: i64(15), PackPrice: money("30")})
		require.NoError(t, err)
		assert.Equal(t, int64(60), c.TotalUnits)
	})

	t.Run("pack price derived from unit purchase price", func(t *testing.T) {
		c, err := Normalize(Input{PackQuantity: i64(2), UnitsPerPack: i64(10), PurchasePrice: money("1.25")})
		require.NoError(t, err)
		assertMoney(t, "12.50", c.PackPrice, "pack_price")
		assertMoney(t, "1.25", c.PricePerUnit, "price_per_unit")
		assertMoney(t, "25.00", c.ItemTotal, "item_total")
	})
}

func TestNormalize_RoundsHalfAwayFromZero(t *testing.T) {
	c, err := Normalize(Input{PackQuantity: i64(1), UnitsPerPack: i64(8), PackPrice: money("0.20")})
	require.NoError(t, err)
	// 0.20 / 8 = 0.025
	assertMoney(t, "0.03", c.PricePerUnit, "price_per_unit")
}

func TestNormalize_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		in    Input
		field string
	}{
		{"zero units per pack", Input{PackQuantity: i64(1), UnitsPerPack: i64(0), PackPrice: money("1")}, "units_per_pack"},
		{"negative units per pack", Input{PackQuantity: i64(1), UnitsPerPack: i64(-2), PackPrice: money("1")}, "units_per_pack"},
		{"missing pack price", Input{PackQuantity: i64(1), UnitsPerPack: i64(10)}, "pack_price"},
		{"missing pack quantity", Input{PackPrice: money("10"), UnitsPerPack: i64(10)}, "pack_quantity"},
		{"zero pack quantity", Input{PackQuantity: i64(0), PackPrice: money("10")}, "pack_quantity"},
		{"inconsistent totals", Input{PackQuantity: i64(2), UnitsPerPack: i64(10), TotalUnits: i64(15), PackPrice: money("1")}, "total_units"},
		{"partial pack", Input{TotalUnits: i64(15), UnitsPerPack: i64(10), PackPrice: money("1")}, "total_units"},
		{"legacy missing quantity", Input{PurchasePrice: money("1")}, "quantity"},
		{"legacy missing price", Input{Quantity: i64(5)}, "purchase_price"},
		{"legacy negative quantity", Input{Quantity: i64(-5), PurchasePrice: money("1")}, "quantity"},
		{"negative price", Input{Quantity: i64(5), PurchasePrice: money("-1")}, "purchase_price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.in)
			require.Error(t, err)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
			assert.Equal(t, tt.field, appErr.Details["field"])
		})
	}
}

func TestResolve_IsTaggedOnce(t *testing.T) {
	r, err := Resolve(Input{Quantity: i64(2), PurchasePrice: money("1")})
	require.NoError(t, err)
	_, isLegacy := r.(Legacy)
	assert.True(t, isLegacy)
	assert.Equal(t, SchemaLegacy, r.Schema())

	r, err = Resolve(Input{PackQuantity: i64(2), PackPrice: money("1")})
	require.NoError(t, err)
	p, isPack := r.(Pack)
	assert.True(t, isPack)
	assert.Equal(t, int64(1), p.UnitsPerPack)
}

func TestCanonical_PriceEquals(t *testing.T) {
	a, err := Normalize(Input{PackQuantity: i64(1), UnitsPerPack: i64(10), PackPrice: money("50"), MRPPerUnit: money("6")})
	require.NoError(t, err)
	b, err := Normalize(Input{PackQuantity: i64(9), UnitsPerPack: i64(10), PackPrice: money("50"), MRPPerUnit: money("6")})
	require.NoError(t, err)
	assert.True(t, a.PriceEquals(b))

	c, err := Normalize(Input{PackQuantity: i64(1), UnitsPerPack: i64(10), PackPrice: money("55"), MRPPerUnit: money("6")})
	require.NoError(t, err)
	assert.False(t, a.PriceEquals(c))
}

func TestTotalOf(t *testing.T) {
	a, _ := Normalize(Input{Quantity: i64(3), PurchasePrice: money("1.10")})
	b, _ := Normalize(Input{Quantity: i64(1), PurchasePrice: money("2.25")})
	assertMoney(t, "5.55", TotalOf([]Canonical{a, b}), "total")
}
