// Package aggregate rolls universe rows, interactions and attributed
// payments up into the dashboard fact tables.
package aggregate

import (
	"math"

	"github.com/shopspring/decimal"
)

// SafeDiv returns n/d, or nil when the quotient is undefined.
func SafeDiv(n, d float64) *float64 {
	if d == 0 {
		return nil
	}
	q := n / d
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return nil
	}
	return &q
}

// SafeDivDec divides two decimals, returning nil for a zero denominator.
func SafeDivDec(n, d decimal.Decimal) *float64 {
	if d.IsZero() {
		return nil
	}
	return SafeDiv(n.InexactFloat64(), d.InexactFloat64())
}

// SafeDivPtr divides when both operands are defined.
func SafeDivPtr(n, d *float64) *float64 {
	if n == nil || d == nil {
		return nil
	}
	return SafeDiv(*n, *d)
}

type distinct[T comparable] map[T]struct{}

func (s distinct[T]) add(v T) { s[v] = struct{}{} }
