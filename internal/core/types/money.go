// Package types holds the money helpers shared by pricing, billing and storage.
package types

import (
	"github.com/shopspring/decimal"
)

func init() {
	// Money travels as a JSON number, never a quoted string.
	decimal.MarshalJSONWithoutQuotes = true
}

// Money is a monetary amount with arbitrary precision.
type Money = decimal.Decimal

// MoneyScale is the number of fractional digits kept for stored amounts.
const MoneyScale int32 = 2

// Hundred is used for percentage arithmetic.
var Hundred = decimal.NewFromInt(100)

// NewMoney creates a Money value from a float.
// Prefer NewMoneyFromString for exact values.
func NewMoney(f float64) Money {
	return decimal.NewFromFloat(f)
}

// NewMoneyFromString creates a Money value from a string.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	return decimal.RequireFromString(s)
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// Round2 rounds to two decimals, half away from zero.
func Round2(m Money) Money {
	return m.Round(MoneyScale)
}

// Units converts an integer unit count to Money for multiplication.
func Units(n int64) Money {
	return decimal.NewFromInt(n)
}

// Percent returns m × p / 100 without rounding.
func Percent(m, p Money) Money {
	return m.Mul(p).Div(Hundred)
}

// Sum adds all values.
func Sum(values ...Money) Money {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// OrZero dereferences p, returning zero for nil.
func OrZero(p *Money) Money {
	if p == nil {
		return decimal.Zero
	}
	return *p
}
