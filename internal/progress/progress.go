// Package progress aggregates ledger entries against a goal.
package progress

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Amounts accepted by ParseAmount have at most MaxIntegerDigits digits before the
// decimal point and at most MaxFractionDigits after it.
const (
	MaxIntegerDigits  = 15
	MaxFractionDigits = 30
)

// ErrOutOfRange reports a number outside the supported amount range.
var ErrOutOfRange = errors.New("number out of range")

// ParseAmount parses a decimal amount and rejects magnitudes or precisions outside
// the supported range. Zero is returned normalized whatever its exponent.
func ParseAmount(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsZero() {
		return decimal.Zero, nil
	}
	if !InRange(d) {
		return decimal.Zero, ErrOutOfRange
	}
	return d, nil
}

// InRange reports whether d fits the amount bounds. It only inspects the exponent
// and digit count, so it is safe on any parsed value.
func InRange(d decimal.Decimal) bool {
	if d.IsZero() {
		return true
	}
	exp := int(d.Exponent())
	if exp < -MaxFractionDigits || exp > MaxIntegerDigits {
		return false
	}
	return d.NumDigits()+exp <= MaxIntegerDigits
}

// Progress is the aggregated value of one attribute measured against its goal.
// Goal is nil when no usable goal exists; Ratio is then 0 and DisplayCurrent
// equals Current.
type Progress struct {
	Attribute      string   `json:"attribute"`
	Current        float64  `json:"current"`
	DisplayCurrent float64  `json:"display_current"`
	Goal           *float64 `json:"goal,omitempty"`
	Ratio          float64  `json:"ratio"`
}

// Sum adds attribute across entries. Missing, non-numeric or out-of-range values
// count as zero.
func Sum(entries []map[string]string, attribute string) decimal.Decimal {
	total := decimal.Zero
	for _, entry := range entries {
		raw, ok := entry[attribute]
		if !ok {
			continue
		}
		d, err := ParseAmount(raw)
		if err != nil {
			continue
		}
		total = total.Add(d)
	}
	return total
}

// Calculate sums attribute over entries and relates it to goal. goal may be nil, a
// number, or a numeric string; anything that is not a positive amount within range
// is treated as no goal.
func Calculate(entries []map[string]string, attribute string, goal any) Progress {
	sum := Sum(entries, attribute)
	current := sum.InexactFloat64()
	p := Progress{
		Attribute:      attribute,
		Current:        current,
		DisplayCurrent: current,
	}

	target, ok := goalValue(goal)
	if !ok {
		return p
	}
	g := target.InexactFloat64()
	p.Goal = &g

	ratio := sum.Div(target)
	if ratio.GreaterThan(decimal.NewFromInt(1)) {
		ratio = decimal.NewFromInt(1)
	}
	if ratio.IsNegative() {
		ratio = decimal.Zero
	}
	p.Ratio = ratio.InexactFloat64()
	p.DisplayCurrent = decimal.Min(sum, target).InexactFloat64()
	return p
}

func goalValue(goal any) (decimal.Decimal, bool) {
	var d decimal.Decimal
	switch v := goal.(type) {
	case nil:
		return decimal.Zero, false
	case *float64:
		if v == nil {
			return decimal.Zero, false
		}
		return goalValue(*v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero, false
		}
		d = decimal.NewFromFloat(v)
	case int:
		d = decimal.NewFromInt(int64(v))
	case int64:
		d = decimal.NewFromInt(v)
	case decimal.Decimal:
		d = v
	case string:
		parsed, err := ParseAmount(v)
		if err != nil {
			return decimal.Zero, false
		}
		d = parsed
	case interface{ String() string }:
		return goalValue(v.String())
	default:
		return decimal.Zero, false
	}
	if !d.IsPositive() || !InRange(d) {
		return decimal.Zero, false
	}
	return d, true
}
