package pricing

import (
	"strings"

	"github.com/shopspring/decimal"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/types"
)

// Resolved is a line classified into exactly one schema.
type Resolved interface {
	Schema() Schema
	Canonical() (Canonical, error)
}

// Legacy is a unit-based line: quantity units at purchase_price each.
type Legacy struct {
	PackType      string
	Quantity      int64
	PurchasePrice decimal.Decimal
	MRP           *decimal.Decimal
}

// Pack is a pack-based line. Exactly one of PackQuantity or TotalUnits drives
// the unit count; PackPrice is always known after resolution.
type Pack struct {
	PackType     string
	PackQuantity int64
	UnitsPerPack int64
	TotalUnits   int64
	PackPrice    decimal.Decimal
	MRPPerUnit   *decimal.Decimal
	MRPPack      *decimal.Decimal
}

// Schema implements Resolved.
func (Legacy) Schema() Schema { return SchemaLegacy }

// Schema implements Resolved.
func (Pack) Schema() Schema { return SchemaPack }

// Resolve validates raw input and classifies it.
func Resolve(in Input) (Resolved, error) {
	packType := strings.TrimSpace(in.PackType)
	if packType == "" {
		packType = DefaultPackType
	}

	prices := []struct {
		field string
		value *decimal.Decimal
	}{
		{"purchase_price", in.PurchasePrice},
		{"mrp", in.MRP},
		{"pack_price", in.PackPrice},
		{"mrp_per_unit", in.MRPPerUnit},
		{"mrp_pack", in.MRPPack},
	}
	for _, p := range prices {
		if p.value != nil && p.value.IsNegative() {
			return nil, apperror.NewFieldValidation(p.field, p.field+" must not be negative")
		}
	}

	if !in.usesPackFields() {
		return resolveLegacy(in, packType)
	}
	return resolvePack(in, packType)
}

func resolveLegacy(in Input, packType string) (Resolved, error) {
	if in.Quantity == nil {
		return nil, apperror.NewFieldValidation("quantity", "quantity is required")
	}
	if *in.Quantity <= 0 {
		return nil, apperror.NewFieldValidation("quantity", "quantity must be positive")
	}
	if in.PurchasePrice == nil {
		return nil, apperror.NewFieldValidation("purchase_price", "purchase_price is required")
	}
	if in.UnitsPerPack != nil && *in.UnitsPerPack <= 0 {
		return nil, apperror.NewFieldValidation("units_per_pack", "units_per_pack must be positive")
	}
	return Legacy{
		PackType:      packType,
		Quantity:      *in.Quantity,
		PurchasePrice: *in.PurchasePrice,
		MRP:           in.MRP,
	}, nil
}

func resolvePack(in Input, packType string) (Resolved, error) {
	upp := int64(1)
	if in.UnitsPerPack != nil {
		upp = *in.UnitsPerPack
	}
	if upp <= 0 {
		return nil, apperror.NewFieldValidation("units_per_pack", "units_per_pack must be positive")
	}

	p := Pack{
		PackType:     packType,
		UnitsPerPack: upp,
		MRPPerUnit:   in.MRPPerUnit,
		MRPPack:      in.MRPPack,
	}
	if p.MRPPerUnit == nil && in.MRP != nil {
		p.MRPPerUnit = in.MRP
	}

	switch {
	case in.PackQuantity != nil:
		if *in.PackQuantity <= 0 {
			return nil, apperror.NewFieldValidation("pack_quantity", "pack_quantity must be positive")
		}
		p.PackQuantity = *in.PackQuantity
		p.TotalUnits = p.PackQuantity * upp
		if in.TotalUnits != nil && *in.TotalUnits != p.TotalUnits {
			return nil, apperror.NewFieldValidation("total_units", "total_units must equal pack_quantity × units_per_pack").
				WithDetail("expected", p.TotalUnits)
		}
	case in.TotalUnits != nil:
		if *in.TotalUnits <= 0 {
			return nil, apperror.NewFieldValidation("total_units", "total_units must be positive")
		}
		if *in.TotalUnits%upp != 0 {
			return nil, apperror.NewFieldValidation("total_units", "total_units must be a multiple of units_per_pack")
		}
		p.TotalUnits = *in.TotalUnits
		p.PackQuantity = p.TotalUnits / upp
	case in.Quantity != nil:
		// A bare quantity next to pack fields counts packs.
		if *in.Quantity <= 0 {
			return nil, apperror.NewFieldValidation("quantity", "quantity must be positive")
		}
		p.PackQuantity = *in.Quantity
		p.TotalUnits = p.PackQuantity * upp
	default:
		return nil, apperror.NewFieldValidation("pack_quantity", "pack_quantity is required")
	}

	switch {
	case in.PackPrice != nil:
		p.PackPrice = *in.PackPrice
	case in.PurchasePrice != nil:
		p.PackPrice = in.PurchasePrice.Mul(types.Units(upp))
	default:
		return nil, apperror.NewFieldValidation("pack_price", "pack_price is required")
	}

	return p, nil
}

// Canonical implements Resolved. Legacy lines always have one unit per pack.
func (l Legacy) Canonical() (Canonical, error) {
	cost := types.Round2(l.PurchasePrice)
	c := Canonical{
		Schema:       SchemaLegacy,
		PackType:     l.PackType,
		PackQuantity: l.Quantity,
		UnitsPerPack: 1,
		TotalUnits:   l.Quantity,
		PackPrice:    cost,
		PricePerUnit: cost,
		ItemTotal:    types.Round2(l.PurchasePrice.Mul(types.Units(l.Quantity))),
	}
	if l.MRP != nil {
		c.MRPPerUnit = types.Round2(*l.MRP)
	} else {
		c.MRPPerUnit = cost
		c.MRPFromCost = true
	}
	c.MRPPack = c.MRPPerUnit
	return c, nil
}

// Canonical implements Resolved.
func (p Pack) Canonical() (Canonical, error) {
	upp := types.Units(p.UnitsPerPack)
	c := Canonical{
		Schema:       SchemaPack,
		PackType:     p.PackType,
		PackQuantity: p.PackQuantity,
		UnitsPerPack: p.UnitsPerPack,
		TotalUnits:   p.TotalUnits,
		PackPrice:    types.Round2(p.PackPrice),
		PricePerUnit: types.Round2(p.PackPrice.Div(upp)),
		ItemTotal:    types.Round2(p.PackPrice.Mul(types.Units(p.PackQuantity))),
	}

	switch {
	case p.MRPPerUnit != nil:
		c.MRPPerUnit = types.Round2(*p.MRPPerUnit)
		c.MRPPack = types.Round2(p.MRPPerUnit.Mul(upp))
	case p.MRPPack != nil:
		c.MRPPerUnit = types.Round2(p.MRPPack.Div(upp))
		c.MRPPack = types.Round2(*p.MRPPack)
	default:
		c.MRPPerUnit = c.PricePerUnit
		c.MRPPack = types.Round2(c.PricePerUnit.Mul(upp))
		c.MRPFromCost = true
	}
	return c, nil
}

// Normalize resolves and canonicalizes one line.
func Normalize(in Input) (Canonical, error) {
	r, err := Resolve(in)
	if err != nil {
		return Canonical{}, err
	}
	return r.Canonical()
}

// TotalOf sums item totals.
func TotalOf(lines []Canonical) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.ItemTotal)
	}
	return types.Round2(total)
}
