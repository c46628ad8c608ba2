// Package money holds the rounding and coercion rules every line-item mutation
// goes through. Amounts are float64 at the edges and decimal inside.
package money

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the number of decimal places amounts are stored with.
const Places = 2

// Round2 rounds v to two decimal places, half away from zero.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(Places).InexactFloat64()
}

// LineTotal returns round2(unit * qty).
func LineTotal(unit float64, qty int) float64 {
	if math.IsNaN(unit) || math.IsInf(unit, 0) {
		return 0
	}
	return decimal.NewFromFloat(unit).
		Mul(decimal.NewFromInt(int64(qty))).
		Round(Places).
		InexactFloat64()
}

// Discounted applies a percentage discount in [0,100] to price.
// Percentages outside the range are clamped.
func Discounted(price, percent float64) float64 {
	if math.IsNaN(percent) || math.IsInf(percent, 0) {
		percent = 0
	}
	percent = math.Max(0, math.Min(100, percent))
	factor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(percent).Div(decimal.NewFromInt(100)))
	return decimal.NewFromFloat(price).Mul(factor).Round(Places).InexactFloat64()
}

// Markup scales price by factor, used to derive a list price from a sale price.
func Markup(price, factor float64) float64 {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromFloat(factor)).Round(Places).InexactFloat64()
}

// Sum adds stored amounts and rounds the result.
func Sum(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total.Round(Places).InexactFloat64()
}

// Number extracts a float from an opaque JSON value. ok is false when v is
// absent or not numeric.
func Number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Amount coerces v to a non-negative amount with two decimals. Malformed or
// negative input becomes 0.
func Amount(v any) float64 {
	f, ok := Number(v)
	if !ok || f < 0 {
		return 0
	}
	return Round2(f)
}

// Quantity coerces v to a positive integer. Malformed input, fractions below
// one and non-positive values become 1.
func Quantity(v any) int {
	f, ok := Number(v)
	if !ok || f < 1 {
		return 1
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}
