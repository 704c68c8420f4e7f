// Package pricing normalizes purchase line input into the canonical per-unit
// and per-pack representation stored on purchases and inventory batches.
//
// Two historical input shapes are accepted. Resolve classifies raw input once
// into a Legacy or Pack value; everything after that works on Canonical.
package pricing

import (
	"github.com/shopspring/decimal"
)

// DefaultPackType is used when the caller does not name a pack type.
const DefaultPackType = "Strip"

// Input is the raw pricing portion of a purchase line as sent by clients.
// Pointer fields distinguish "absent" from zero.
type Input struct {
	PackType string `json:"pack_type,omitempty"`

	// Legacy schema: unit based.
	Quantity      *int64           `json:"quantity,omitempty"`
	PurchasePrice *decimal.Decimal `json:"purchase_price,omitempty"`
	MRP           *decimal.Decimal `json:"mrp,omitempty"`

	// Pack schema.
	PackQuantity *int64           `json:"pack_quantity,omitempty"`
	UnitsPerPack *int64           `json:"units_per_pack,omitempty"`
	TotalUnits   *int64           `json:"total_units,omitempty"`
	PackPrice    *decimal.Decimal `json:"pack_price,omitempty"`
	MRPPerUnit   *decimal.Decimal `json:"mrp_per_unit,omitempty"`
	MRPPack      *decimal.Decimal `json:"mrp_pack,omitempty"`
}

// usesPackFields reports whether any field exclusive to the pack schema is set.
func (in Input) usesPackFields() bool {
	return in.PackQuantity != nil ||
		in.TotalUnits != nil ||
		in.PackPrice != nil ||
		in.MRPPack != nil ||
		in.MRPPerUnit != nil
}

// Schema identifies which input shape a line was written in.
type Schema string

const (
	SchemaLegacy Schema = "legacy"
	SchemaPack   Schema = "pack"
)

// Canonical is the normalized line. All money is rounded to 2 decimals.
type Canonical struct {
	Schema       Schema          `json:"schema"`
	PackType     string          `json:"pack_type"`
	PackQuantity int64           `json:"pack_quantity"`
	UnitsPerPack int64           `json:"units_per_pack"`
	TotalUnits   int64           `json:"total_units"`
	PackPrice    decimal.Decimal `json:"pack_price"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	MRPPerUnit   decimal.Decimal `json:"mrp_per_unit"`
	MRPPack      decimal.Decimal `json:"mrp_pack"`
	ItemTotal    decimal.Decimal `json:"item_total"`

	// MRPFromCost is set when no sale price was supplied and the unit cost
	// was used instead.
	MRPFromCost bool `json:"mrp_from_cost,omitempty"`
}

// PriceEquals reports whether two canonical lines carry the same price fields.
func (c Canonical) PriceEquals(o Canonical) bool {
	return c.PricePerUnit.Equal(o.PricePerUnit) &&
		c.MRPPerUnit.Equal(o.MRPPerUnit) &&
		c.MRPPack.Equal(o.MRPPack) &&
		c.PackPrice.Equal(o.PackPrice) &&
		c.UnitsPerPack == o.UnitsPerPack &&
		c.PackType == o.PackType
}
