// Package purchase turns wholesale invoices into ledger arrivals and keeps
// the two consistent across edits and deletion.
package purchase

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/entity"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain/inventory"
	"pharmaledger/internal/domain/pricing"
)

// ItemInput is one purchase line as submitted, in either pricing schema.
type ItemInput struct {
	ProductID       string `json:"product_id,omitempty"`
	ProductName     string `json:"product_name"`
	BatchNo         string `json:"batch_no"`
	ExpiryDate      string `json:"expiry_date,omitempty"`
	Manufacturer    string `json:"manufacturer,omitempty"`
	SaltComposition string `json:"salt_composition,omitempty"`
	HSNNo           string `json:"hsn_no,omitempty"`

	pricing.Input
}

// Item is a canonical purchase line. InventoryID names the batch the line
// merged into so it can be reversed on its own.
type Item struct {
	ProductID       string     `json:"product_id,omitempty"`
	ProductName     string     `json:"product_name"`
	BatchNo         string     `json:"batch_no"`
	ExpiryDate      *time.Time `json:"expiry_date,omitempty"`
	Manufacturer    string     `json:"manufacturer,omitempty"`
	SaltComposition string     `json:"salt_composition,omitempty"`
	HSNNo           string     `json:"hsn_no,omitempty"`

	pricing.Canonical

	InventoryID *id.ID `json:"inventory_id,omitempty"`
}

// matchKey identifies a line across edits: product_id when known, else batch_no.
func (it Item) matchKey() string {
	if it.ProductID != "" {
		return "p:" + it.ProductID
	}
	return "b:" + strings.ToLower(strings.TrimSpace(it.BatchNo))
}

// batchKey is the ledger key the line lands in.
func (it Item) batchKey(pharmacyID id.ID, supplierID *id.ID) inventory.Key {
	return inventory.NewKey(pharmacyID, it.ProductName, it.BatchNo, supplierID)
}

func (it Item) arrival(pharmacyID id.ID, supplierID *id.ID, qty int64) inventory.Arrival {
	return inventory.Arrival{
		Key:      it.batchKey(pharmacyID, supplierID),
		Quantity: qty,
		Descriptor: inventory.Descriptor{
			ProductID:       it.ProductID,
			ProductName:     it.ProductName,
			Manufacturer:    it.Manufacturer,
			SaltComposition: it.SaltComposition,
			HSNNo:           it.HSNNo,
			ExpiryDate:      it.ExpiryDate,
		},
		Prices: it.priceHints(),
	}
}

func (it Item) priceHints() inventory.PriceHints {
	return inventory.PriceHints{
		Authoritative: true,
		PurchasePrice: it.PricePerUnit,
		MRP:           it.MRPPerUnit,
		MRPPack:       it.MRPPack,
		PackPrice:     it.PackPrice,
		UnitsPerPack:  it.UnitsPerPack,
		PackType:      it.PackType,
	}
}

// NormalizeItem validates one input line and derives its canonical form.
// index is used to name the failing line in errors.
func NormalizeItem(index int, in ItemInput) (Item, error) {
	name := strings.TrimSpace(in.ProductName)
	if name == "" {
		return Item{}, itemError(index, apperror.NewFieldValidation("product_name", "product_name is required"))
	}

	canonical, err := pricing.Normalize(in.Input)
	if err != nil {
		return Item{}, itemError(index, err)
	}

	expiry, err := inventory.ParseExpiry(in.ExpiryDate)
	if err != nil {
		return Item{}, itemError(index, err)
	}

	return Item{
		ProductID:       strings.TrimSpace(in.ProductID),
		ProductName:     name,
		BatchNo:         strings.TrimSpace(in.BatchNo),
		ExpiryDate:      expiry,
		Manufacturer:    strings.TrimSpace(in.Manufacturer),
		SaltComposition: strings.TrimSpace(in.SaltComposition),
		HSNNo:           strings.TrimSpace(in.HSNNo),
		Canonical:       canonical,
	}, nil
}

// NormalizeItems normalizes every line or none.
func NormalizeItems(inputs []ItemInput) ([]Item, error) {
	if len(inputs) == 0 {
		return nil, apperror.NewFieldValidation("items", "at least one item is required")
	}
	items := make([]Item, len(inputs))
	for i, in := range inputs {
		it, err := NormalizeItem(i, in)
		if err != nil {
			return nil, err
		}
		items[i] = it
	}
	return items, nil
}

func itemError(index int, err error) error {
	if appErr, ok := apperror.AsAppError(err); ok {
		return appErr.WithDetail("item_index", index)
	}
	return err
}

// Purchase is a supplier invoice with its canonical lines.
type Purchase struct {
	entity.BaseEntity

	SupplierID   *id.ID          `db:"supplier_id" json:"supplier_id,omitempty"`
	SupplierName string          `db:"supplier_name" json:"supplier_name"`
	InvoiceNo    string          `db:"invoice_no" json:"invoice_no,omitempty"`
	PurchaseDate time.Time       `db:"purchase_date" json:"purchase_date"`
	Items        []Item          `db:"items" json:"items"`
	TotalAmount  decimal.Decimal `db:"total_amount" json:"total_amount"`
	Notes        string          `db:"notes" json:"notes,omitempty"`
}

// recalculate refreshes derived document totals.
func (p *Purchase) recalculate() {
	lines := make([]pricing.Canonical, len(p.Items))
	for i, it := range p.Items {
		lines[i] = it.Canonical
	}
	p.TotalAmount = pricing.TotalOf(lines)
}

// CreateInput is the body of a new purchase.
type CreateInput struct {
	SupplierID   *id.ID      `json:"supplier_id,omitempty"`
	SupplierName string      `json:"supplier_name,omitempty"`
	InvoiceNo    string      `json:"invoice_no,omitempty"`
	PurchaseDate string      `json:"purchase_date,omitempty"`
	Notes        string      `json:"notes,omitempty"`
	Items        []ItemInput `json:"items"`
}

// UpdateInput is a partial update. Nil fields are left unchanged.
type UpdateInput struct {
	SupplierID   *id.ID       `json:"supplier_id,omitempty"`
	SupplierName *string      `json:"supplier_name,omitempty"`
	InvoiceNo    *string      `json:"invoice_no,omitempty"`
	PurchaseDate *string      `json:"purchase_date,omitempty"`
	Notes        *string      `json:"notes,omitempty"`
	Items        *[]ItemInput `json:"items,omitempty"`
}

// DeleteResult reports what a deletion did to the ledger.
type DeleteResult struct {
	ReversedInventoryItems int `json:"reversed_inventory_items"`
	SkippedInventoryItems  int `json:"skipped_inventory_items"`
}

// PricePoint is one historical purchase price of a product.
type PricePoint struct {
	PurchaseID   id.ID           `db:"purchase_id" json:"purchase_id"`
	PurchaseDate time.Time       `db:"purchase_date" json:"purchase_date"`
	SupplierID   *id.ID          `db:"supplier_id" json:"supplier_id,omitempty"`
	SupplierName string          `db:"supplier_name" json:"supplier_name"`
	BatchNo      string          `db:"batch_no" json:"batch_no"`
	PackPrice    decimal.Decimal `db:"pack_price" json:"pack_price"`
	PricePerUnit decimal.Decimal `db:"price_per_unit" json:"price_per_unit"`
	MRPPerUnit   decimal.Decimal `db:"mrp_per_unit" json:"mrp_per_unit"`
	UnitsPerPack int64           `db:"units_per_pack" json:"units_per_pack"`
}

func parsePurchaseDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		y, m, d := now.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, apperror.NewFieldValidation("purchase_date", "purchase_date must be YYYY-MM-DD")
	}
	return t, nil
}
