package billing

import (
	"github.com/shopspring/decimal"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/types"
)

// Totals are the bill-level figures derived from computed lines.
type Totals struct {
	Subtotal           decimal.Decimal
	DiscountAmount     decimal.Decimal
	GrandTotal         decimal.Decimal
	Profit             decimal.Decimal
	TotalCost          decimal.Decimal
	InventoryBilledQty int64
	ManualBilledQty    int64
	MissingCostLines   int
}

// ValidateDiscount checks a percentage lies in [0, 100].
func ValidateDiscount(field string, p decimal.Decimal) error {
	if p.IsNegative() || p.GreaterThan(types.Hundred) {
		return apperror.NewFieldValidation(field, field+" must be between 0 and 100")
	}
	return nil
}

// ComputeLine fills ItemTotal, ItemProfit and CostMissing of one line.
//
// cost is nil when no purchase price is known (manual line without one).
// The item discount applies to the unit price; profit is measured on the
// discounted line total.
func ComputeLine(it *Item, cost *decimal.Decimal) {
	qty := types.Units(it.Quantity)
	gross := it.UnitPrice.Mul(qty)
	net := gross.Sub(types.Percent(gross, it.DiscountPercent))
	it.ItemTotal = types.Round2(net)

	if cost == nil {
		it.PurchasePrice = decimal.Zero
		it.CostMissing = true
		it.ItemProfit = decimal.Zero
		return
	}
	it.PurchasePrice = *cost
	it.CostMissing = false
	it.ItemProfit = it.ItemTotal.Sub(types.Round2(cost.Mul(qty)))
}

// Summarize derives bill totals from computed lines. The bill discount is a
// deduction from the subtotal and leaves profit unchanged.
func Summarize(items []Item, billDiscount decimal.Decimal) Totals {
	var t Totals
	for _, it := range items {
		t.Subtotal = t.Subtotal.Add(it.ItemTotal)
		t.Profit = t.Profit.Add(it.ItemProfit)
		if !it.CostMissing {
			t.TotalCost = t.TotalCost.Add(types.Round2(it.PurchasePrice.Mul(types.Units(it.Quantity))))
		}
		if it.IsManual {
			t.ManualBilledQty += it.Quantity
		} else {
			t.InventoryBilledQty += it.Quantity
		}
		if it.CostMissing {
			t.MissingCostLines++
		}
	}
	t.Subtotal = types.Round2(t.Subtotal)
	t.DiscountAmount = types.Round2(types.Percent(t.Subtotal, billDiscount))
	t.GrandTotal = t.Subtotal.Sub(t.DiscountAmount)
	t.Profit = types.Round2(t.Profit)
	t.TotalCost = types.Round2(t.TotalCost)
	return t
}

// validateInput checks everything that can be checked without the ledger.
func validateInput(items []ItemInput, billDiscount decimal.Decimal) error {
	if len(items) == 0 {
		return apperror.NewFieldValidation("items", "at least one item is required")
	}
	if err := ValidateDiscount("discount_percent", billDiscount); err != nil {
		return err
	}
	for i, in := range items {
		if err := validateItem(in); err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				return appErr.WithDetail("item_index", i)
			}
			return err
		}
	}
	return nil
}

func validateItem(in ItemInput) error {
	if in.Quantity <= 0 {
		return apperror.NewFieldValidation("quantity", "quantity must be positive")
	}
	if err := ValidateDiscount("items.discount_percent", in.DiscountPercent); err != nil {
		return err
	}
	if in.UnitPrice != nil && in.UnitPrice.IsNegative() {
		return apperror.NewFieldValidation("unit_price", "unit_price must not be negative")
	}
	if in.PurchasePrice != nil && in.PurchasePrice.IsNegative() {
		return apperror.NewFieldValidation("purchase_price", "purchase_price must not be negative")
	}
	if in.IsManual() {
		if in.ProductName == "" {
			return apperror.NewFieldValidation("product_name", "product_name is required for manual items")
		}
		if in.UnitPrice == nil {
			return apperror.NewFieldValidation("unit_price", "unit_price is required for manual items")
		}
	}
	return nil
}
