// Package billing computes, commits and reverses retail bills against the
// inventory ledger.
package billing

import (
	"time"

	"github.com/shopspring/decimal"

	"pharmaledger/internal/core/entity"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain"
)

// ItemInput is one proposed bill line. A line without inventory_id is a
// manual line: it is not backed by a batch and never touches the ledger.
type ItemInput struct {
	InventoryID     *id.ID           `json:"inventory_id,omitempty"`
	ProductName     string           `json:"product_name,omitempty"`
	BatchNo         string           `json:"batch_no,omitempty"`
	Quantity        int64            `json:"quantity"`
	UnitPrice       *decimal.Decimal `json:"unit_price,omitempty"`
	PurchasePrice   *decimal.Decimal `json:"purchase_price,omitempty"`
	DiscountPercent decimal.Decimal  `json:"discount_percent"`
}

// IsManual reports whether the line bypasses the ledger.
func (in ItemInput) IsManual() bool {
	return in.InventoryID == nil || id.IsNil(*in.InventoryID)
}

// Item is a computed bill line as stored.
type Item struct {
	InventoryID     *id.ID          `json:"inventory_id,omitempty"`
	ProductName     string          `json:"product_name"`
	BatchNo         string          `json:"batch_no,omitempty"`
	ExpiryDate      *time.Time      `json:"expiry_date,omitempty"`
	Quantity        int64           `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	PurchasePrice   decimal.Decimal `json:"purchase_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	IsManual        bool            `json:"is_manual"`
	// CostMissing marks a manual line sold without a known cost; it
	// contributes no profit.
	CostMissing bool            `json:"cost_missing,omitempty"`
	ItemTotal   decimal.Decimal `json:"item_total"`
	ItemProfit  decimal.Decimal `json:"item_profit"`
}

// Bill is a committed retail sale.
type Bill struct {
	entity.BaseEntity

	BillNo         string `db:"bill_no" json:"bill_no"`
	CustomerID     *id.ID `db:"customer_id" json:"customer_id,omitempty"`
	CustomerName   string `db:"customer_name" json:"customer_name,omitempty"`
	CustomerMobile string `db:"customer_mobile" json:"customer_mobile,omitempty"`
	Items          []Item `db:"items" json:"items"`

	DiscountPercent decimal.Decimal `db:"discount_percent" json:"discount_percent"`
	Subtotal        decimal.Decimal `db:"subtotal" json:"subtotal"`
	DiscountAmount  decimal.Decimal `db:"discount_amount" json:"discount_amount"`
	GrandTotal      decimal.Decimal `db:"grand_total" json:"grand_total"`
	Profit          decimal.Decimal `db:"profit" json:"profit"`
	TotalCost       decimal.Decimal `db:"total_cost" json:"total_cost"`

	InventoryBilledQty int64 `db:"inventory_billed_qty" json:"inventory_billed_qty"`
	ManualBilledQty    int64 `db:"manual_billed_qty" json:"manual_billed_qty"`
	MissingCostLines   int   `db:"missing_cost_lines" json:"missing_cost_lines"`

	IsPaid bool       `db:"is_paid" json:"is_paid"`
	PaidAt *time.Time `db:"paid_at" json:"paid_at,omitempty"`
	Notes  string     `db:"notes" json:"notes,omitempty"`
}

// Outstanding is what the customer still owes on this bill.
func (b *Bill) Outstanding() decimal.Decimal {
	if b.IsPaid {
		return decimal.Zero
	}
	return b.GrandTotal
}

func (b *Bill) applyTotals(t Totals) {
	b.Subtotal = t.Subtotal
	b.DiscountAmount = t.DiscountAmount
	b.GrandTotal = t.GrandTotal
	b.Profit = t.Profit
	b.TotalCost = t.TotalCost
	b.InventoryBilledQty = t.InventoryBilledQty
	b.ManualBilledQty = t.ManualBilledQty
	b.MissingCostLines = t.MissingCostLines
}

// Input is the body of a bill preview or commit.
type Input struct {
	CustomerName    string          `json:"customer_name,omitempty"`
	CustomerMobile  string          `json:"customer_mobile,omitempty"`
	Items           []ItemInput     `json:"items"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	// IsPaid defaults to true: counter sales are settled on the spot.
	IsPaid *bool  `json:"is_paid,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

func (in Input) paid() bool {
	return in.IsPaid == nil || *in.IsPaid
}

// UpdateInput edits a committed bill. Nil fields are left unchanged; a
// non-nil Items replaces every line.
type UpdateInput struct {
	CustomerName    *string          `json:"customer_name,omitempty"`
	CustomerMobile  *string          `json:"customer_mobile,omitempty"`
	Items           *[]ItemInput     `json:"items,omitempty"`
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`
	IsPaid          *bool            `json:"is_paid,omitempty"`
	Notes           *string          `json:"notes,omitempty"`
}

// StockWarning is a non-fatal preview finding.
type StockWarning struct {
	InventoryID id.ID  `json:"inventory_id"`
	ProductName string `json:"product_name"`
	Requested   int64  `json:"requested"`
	Available   int64  `json:"available"`
	Message     string `json:"message"`
}

// Preview is an uncommitted bill.
type Preview struct {
	Items              []Item          `json:"items"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	DiscountPercent    decimal.Decimal `json:"discount_percent"`
	DiscountAmount     decimal.Decimal `json:"discount_amount"`
	GrandTotal         decimal.Decimal `json:"grand_total"`
	TotalProfit        decimal.Decimal `json:"total_profit"`
	TotalCost          decimal.Decimal `json:"total_cost"`
	MissingCostLines   int             `json:"missing_cost_lines"`
	InventoryBilledQty int64           `json:"inventory_billed_qty"`
	ManualBilledQty    int64           `json:"manual_billed_qty"`
	StockWarnings      []StockWarning  `json:"stock_warnings"`
}

// DeleteResult reports what a deletion did to the ledger.
type DeleteResult struct {
	RestoredInventoryItems int `json:"restored_inventory_items"`
	SkippedInventoryItems  int `json:"skipped_inventory_items"`
}

// ListFilter narrows bill listings.
type ListFilter struct {
	domain.ListFilter
	IsPaid     *bool
	CustomerID *id.ID
	From, To   *time.Time
}
