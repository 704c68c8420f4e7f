package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain/billing"
)

// BillItemRequest is one proposed bill line.
type BillItemRequest struct {
	InventoryID     *id.ID           `json:"inventory_id"`
	ProductName     string           `json:"product_name" binding:"max=200"`
	BatchNo         string           `json:"batch_no"`
	Quantity        int64            `json:"quantity" binding:"required,min=1"`
	UnitPrice       *decimal.Decimal `json:"unit_price"`
	PurchasePrice   *decimal.Decimal `json:"purchase_price"`
	DiscountPercent decimal.Decimal  `json:"discount_percent"`
}

func (r BillItemRequest) toInput() billing.ItemInput {
	return billing.ItemInput{
		InventoryID:     r.InventoryID,
		ProductName:     r.ProductName,
		BatchNo:         r.BatchNo,
		Quantity:        r.Quantity,
		UnitPrice:       r.UnitPrice,
		PurchasePrice:   r.PurchasePrice,
		DiscountPercent: r.DiscountPercent,
	}
}

func toItemInputs(items []BillItemRequest) []billing.ItemInput {
	out := make([]billing.ItemInput, len(items))
	for i, it := range items {
		out[i] = it.toInput()
	}
	return out
}

// BillRequest is the body of bill preview and commit.
type BillRequest struct {
	CustomerName    string            `json:"customer_name" binding:"max=200"`
	CustomerMobile  string            `json:"customer_mobile" binding:"omitempty,mobile"`
	Items           []BillItemRequest `json:"items" binding:"required,min=1,dive"`
	DiscountPercent decimal.Decimal   `json:"discount_percent"`
	IsPaid          *bool             `json:"is_paid"`
	Notes           string            `json:"notes" binding:"max=2000"`
}

// ToInput converts the request into an engine input.
func (r *BillRequest) ToInput() billing.Input {
	return billing.Input{
		CustomerName:    r.CustomerName,
		CustomerMobile:  r.CustomerMobile,
		Items:           toItemInputs(r.Items),
		DiscountPercent: r.DiscountPercent,
		IsPaid:          r.IsPaid,
		Notes:           r.Notes,
	}
}

// UpdateBillRequest edits a committed bill. Absent fields are unchanged.
type UpdateBillRequest struct {
	CustomerName    *string            `json:"customer_name" binding:"omitempty,max=200"`
	CustomerMobile  *string            `json:"customer_mobile" binding:"omitempty,mobile"`
	Items           *[]BillItemRequest `json:"items" binding:"omitempty,min=1,dive"`
	DiscountPercent *decimal.Decimal   `json:"discount_percent"`
	IsPaid          *bool              `json:"is_paid"`
	Notes           *string            `json:"notes" binding:"omitempty,max=2000"`
}

// ToInput converts the request into an engine update.
func (r *UpdateBillRequest) ToInput() billing.UpdateInput {
	in := billing.UpdateInput{
		CustomerName:    r.CustomerName,
		CustomerMobile:  r.CustomerMobile,
		DiscountPercent: r.DiscountPercent,
		IsPaid:          r.IsPaid,
		Notes:           r.Notes,
	}
	if r.Items != nil {
		items := toItemInputs(*r.Items)
		in.Items = &items
	}
	return in
}

// BillListQuery adds bill filters to ListQuery. Dates are inclusive calendar days.
type BillListQuery struct {
	ListQuery
	IsPaid     *bool      `form:"is_paid"`
	CustomerID string     `form:"customer_id" binding:"omitempty,uuid"`
	From       *time.Time `form:"from" time_format:"2006-01-02"`
	To         *time.Time `form:"to" time_format:"2006-01-02"`
}

// ToFilter converts the query into an engine filter.
func (q BillListQuery) ToFilter() billing.ListFilter {
	f := billing.ListFilter{
		ListFilter: q.ListQuery.ToFilter(),
		IsPaid:     q.IsPaid,
		From:       q.From,
	}
	if q.CustomerID != "" {
		if cid, err := id.Parse(q.CustomerID); err == nil {
			f.CustomerID = &cid
		}
	}
	if q.To != nil {
		end := q.To.AddDate(0, 0, 1).Add(-time.Nanosecond)
		f.To = &end
	}
	return f
}

// BillDeleteResponse reports a deleted bill.
type BillDeleteResponse struct {
	Message string `json:"message"`
	billing.DeleteResult
}
