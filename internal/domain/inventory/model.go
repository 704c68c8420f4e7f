// Package inventory owns stock batches: the dedup key, the ledger contract
// and the read-side service (search, alerts, export).
package inventory

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/entity"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain/search"
)

// Key identifies one stock lot within a pharmacy.
type Key struct {
	PharmacyID id.ID
	// ProductKey is the normalized product name.
	ProductKey string
	BatchNo    string
	SupplierID *id.ID
}

// NewKey builds a dedup key, normalizing name and batch number.
func NewKey(pharmacyID id.ID, productName, batchNo string, supplierID *id.ID) Key {
	if supplierID != nil && id.IsNil(*supplierID) {
		supplierID = nil
	}
	return Key{
		PharmacyID: pharmacyID,
		ProductKey: NormalizeName(productName),
		BatchNo:    strings.TrimSpace(batchNo),
		SupplierID: supplierID,
	}
}

// SupplierKey is the supplier part of the key as stored: "" when unknown.
func (k Key) SupplierKey() string {
	if k.SupplierID == nil {
		return ""
	}
	return k.SupplierID.String()
}

// Equal compares two keys.
func (k Key) Equal(o Key) bool {
	return k.PharmacyID == o.PharmacyID &&
		k.ProductKey == o.ProductKey &&
		k.BatchNo == o.BatchNo &&
		k.SupplierKey() == o.SupplierKey()
}

// String is used in logs and memory-store indexes.
func (k Key) String() string {
	return k.PharmacyID.String() + "|" + k.ProductKey + "|" + k.BatchNo + "|" + k.SupplierKey()
}

// NormalizeName trims, collapses whitespace and lower-cases a product name.
func NormalizeName(name string) string {
	return search.Normalize(name)
}

// Batch is one stock lot. AvailableQuantity counts units, never packs.
type Batch struct {
	entity.BaseEntity

	ProductID         string          `db:"product_id" json:"product_id,omitempty"`
	ProductName       string          `db:"product_name" json:"product_name"`
	ProductKey        string          `db:"product_key" json:"-"`
	BatchNo           string          `db:"batch_no" json:"batch_no"`
	SupplierID        *id.ID          `db:"supplier_id" json:"supplier_id,omitempty"`
	SupplierKey       string          `db:"supplier_key" json:"-"`
	AvailableQuantity int64           `db:"available_quantity" json:"available_quantity"`
	PurchasePrice     decimal.Decimal `db:"purchase_price" json:"purchase_price"`
	MRP               decimal.Decimal `db:"mrp" json:"mrp"`
	MRPPack           decimal.Decimal `db:"mrp_pack" json:"mrp_pack"`
	PackPrice         decimal.Decimal `db:"pack_price" json:"pack_price"`
	UnitsPerPack      int64           `db:"units_per_pack" json:"units_per_pack"`
	PackType          string          `db:"pack_type" json:"pack_type"`
	Manufacturer      string          `db:"manufacturer" json:"manufacturer,omitempty"`
	SaltComposition   string          `db:"salt_composition" json:"salt_composition,omitempty"`
	HSNNo             string          `db:"hsn_no" json:"hsn_no,omitempty"`
	ExpiryDate        *time.Time      `db:"expiry_date" json:"expiry_date,omitempty"`
}

// Key returns the dedup key of the batch.
func (b *Batch) Key() Key {
	return NewKey(b.PharmacyID, b.ProductName, b.BatchNo, b.SupplierID)
}

// IsExpired reports whether the batch expired before now.
func (b *Batch) IsExpired(now time.Time) bool {
	return b.ExpiryDate != nil && b.ExpiryDate.Before(now)
}

// Descriptor carries the descriptive fields of an arriving lot. Empty values
// never overwrite stored ones.
type Descriptor struct {
	ProductID       string
	ProductName     string
	Manufacturer    string
	SaltComposition string
	HSNNo           string
	ExpiryDate      *time.Time
}

// PriceHints carries the prices of an arriving lot.
type PriceHints struct {
	// Authoritative makes the arrival's prices replace the stored ones.
	// Non-authoritative arrivals only seed prices on a new batch.
	Authoritative bool

	PurchasePrice decimal.Decimal
	MRP           decimal.Decimal
	MRPPack       decimal.Decimal
	PackPrice     decimal.Decimal
	UnitsPerPack  int64
	PackType      string
}

// Arrival is a positive stock movement into the batch identified by Key.
type Arrival struct {
	Key        Key
	Quantity   int64
	Descriptor Descriptor
	Prices     PriceHints
}

// Validate checks the arrival before it reaches storage.
func (a Arrival) Validate() error {
	if a.Quantity <= 0 {
		return apperror.NewFieldValidation("total_units", "arrival quantity must be positive")
	}
	if a.Key.ProductKey == "" {
		return apperror.NewFieldValidation("product_name", "product_name is required")
	}
	if id.IsNil(a.Key.PharmacyID) {
		return apperror.NewValidation("pharmacy is required")
	}
	return nil
}

// NewBatch materializes the first arrival for a key.
func NewBatch(a Arrival, actorID id.ID) *Batch {
	b := &Batch{
		BaseEntity:        entity.NewBaseEntity(a.Key.PharmacyID, actorID),
		ProductID:         a.Descriptor.ProductID,
		ProductName:       strings.TrimSpace(a.Descriptor.ProductName),
		ProductKey:        a.Key.ProductKey,
		BatchNo:           a.Key.BatchNo,
		SupplierID:        a.Key.SupplierID,
		SupplierKey:       a.Key.SupplierKey(),
		AvailableQuantity: a.Quantity,
		Manufacturer:      a.Descriptor.Manufacturer,
		SaltComposition:   a.Descriptor.SaltComposition,
		HSNNo:             a.Descriptor.HSNNo,
		ExpiryDate:        a.Descriptor.ExpiryDate,
	}
	b.applyPrices(a.Prices)
	return b
}

// Merge applies a later arrival for the same key: quantity accumulates,
// prices follow the authoritative arrival, expiry keeps the earliest date and
// empty descriptive fields are filled.
func (b *Batch) Merge(a Arrival, actorID id.ID) {
	b.AvailableQuantity += a.Quantity
	if a.Prices.Authoritative {
		b.applyPrices(a.Prices)
	}
	b.ExpiryDate = EarliestExpiry(b.ExpiryDate, a.Descriptor.ExpiryDate)
	if b.ProductID == "" {
		b.ProductID = a.Descriptor.ProductID
	}
	if b.Manufacturer == "" {
		b.Manufacturer = a.Descriptor.Manufacturer
	}
	if b.SaltComposition == "" {
		b.SaltComposition = a.Descriptor.SaltComposition
	}
	if b.HSNNo == "" {
		b.HSNNo = a.Descriptor.HSNNo
	}
	b.Touch(actorID)
}

// RefreshPrices overwrites the price fields without touching quantity.
func (b *Batch) RefreshPrices(p PriceHints, actorID id.ID) {
	b.applyPrices(p)
	b.Touch(actorID)
}

func (b *Batch) applyPrices(p PriceHints) {
	b.PurchasePrice = p.PurchasePrice
	b.MRP = p.MRP
	b.MRPPack = p.MRPPack
	b.PackPrice = p.PackPrice
	b.UnitsPerPack = p.UnitsPerPack
	if b.UnitsPerPack <= 0 {
		b.UnitsPerPack = 1
	}
	b.PackType = p.PackType
}

// EarliestExpiry returns the earlier of two optional dates.
func EarliestExpiry(a, b *time.Time) *time.Time {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case b.Before(*a):
		return b
	}
	return a
}
