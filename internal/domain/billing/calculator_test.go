package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func assertMoney(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "%s: want %s, got %s", field, want, got)
}

func TestComputeLine_ProfitLaw(t *testing.T) {
	it := Item{Quantity: 5, UnitPrice: d("100.00")}
	ComputeLine(&it, dp("70.00"))

	totals := Summarize([]Item{it}, decimal.Zero)

	assertMoney(t, "500.00", it.ItemTotal, "item_total")
	assertMoney(t, "150.00", it.ItemProfit, "item_profit")
	assertMoney(t, "500.00", totals.GrandTotal, "grand_total")
	assertMoney(t, "150.00", totals.Profit, "profit")
	assertMoney(t, "350.00", totals.TotalCost, "total_cost")
	assert.Equal(t, int64(5), totals.InventoryBilledQty)
}

func TestComputeLine_ItemDiscountBeforeProfit(t *testing.T) {
	it := Item{Quantity: 2, UnitPrice: d("50"), DiscountPercent: d("10")}
	ComputeLine(&it, dp("30"))

	assertMoney(t, "90", it.ItemTotal, "item_total")
	assertMoney(t, "30", it.ItemProfit, "item_profit")
}

func TestSummarize_BillDiscountDoesNotReduceProfit(t *testing.T) {
	a := Item{Quantity: 5, UnitPrice: d("100")}
	ComputeLine(&a, dp("70"))
	b := Item{Quantity: 1, UnitPrice: d("33.33")}
	ComputeLine(&b, dp("20"))

	totals := Summarize([]Item{a, b}, d("10"))

	assertMoney(t, "533.33", totals.Subtotal, "subtotal")
	assertMoney(t, "53.33", totals.DiscountAmount, "discount_amount")
	assertMoney(t, "480.00", totals.GrandTotal, "grand_total")
	assertMoney(t, "163.33", totals.Profit, "profit")
}

func TestComputeLine_ManualWithoutCost(t *testing.T) {
	it := Item{Quantity: 3, UnitPrice: d("12.50"), IsManual: true}
	ComputeLine(&it, nil)

	totals := Summarize([]Item{it}, decimal.Zero)

	assert.True(t, it.CostMissing)
	assertMoney(t, "0", it.ItemProfit, "item_profit")
	assertMoney(t, "37.50", totals.GrandTotal, "grand_total")
	assert.Equal(t, 1, totals.MissingCostLines)
	assert.Equal(t, int64(3), totals.ManualBilledQty)
	assertMoney(t, "0", totals.TotalCost, "total_cost")
}

func TestComputeLine_RoundsLineTotal(t *testing.T) {
	it := Item{Quantity: 3, UnitPrice: d("3.335"), DiscountPercent: d("0")}
	ComputeLine(&it, dp("1"))
	// 10.005 rounds away from zero
	assertMoney(t, "10.01", it.ItemTotal, "item_total")
}

func TestValidateInput(t *testing.T) {
	batch := id.New()
	tests := []struct {
		name     string
		items    []ItemInput
		discount string
		field    string
	}{
		{"no items", nil, "0", "items"},
		{"bill discount above 100", []ItemInput{{InventoryID: &batch, Quantity: 1}}, "100.5", "discount_percent"},
		{"negative bill discount", []ItemInput{{InventoryID: &batch, Quantity: 1}}, "-1", "discount_percent"},
		{"zero quantity", []ItemInput{{InventoryID: &batch, Quantity: 0}}, "0", "quantity"},
		{"item discount", []ItemInput{{InventoryID: &batch, Quantity: 1, DiscountPercent: d("101")}}, "0", "items.discount_percent"},
		{"manual without name", []ItemInput{{Quantity: 1, UnitPrice: dp("5")}}, "0", "product_name"},
		{"manual without price", []ItemInput{{Quantity: 1, ProductName: "Cotton"}}, "0", "unit_price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateInput(tt.items, d(tt.discount))
			appErr, ok := apperror.AsAppError(err)
			if assert.True(t, ok) {
				assert.Equal(t, apperror.CodeValidation, appErr.Code)
				assert.Equal(t, tt.field, appErr.Details["field"])
			}
		})
	}

	assert.NoError(t, validateInput([]ItemInput{{InventoryID: &batch, Quantity: 2}}, d("100")))
}
