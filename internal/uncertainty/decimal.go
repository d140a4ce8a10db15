// Package uncertainty derives the positional uncertainty of a measurement from
// its pixel spacing and rounds values to the precision their uncertainty allows.
//
// All arithmetic is done on exact decimals. Floats only enter through their
// shortest decimal representation.
package uncertainty

import (
	"errors"
	"fmt"
	"math"

	"github.com/cockroachdb/apd/v3"
)

// DefaultPrecision is the number of significant digits used for decimal math.
const DefaultPrecision = 34

var (
	// ErrInvalidUncertainty is returned for zero, negative or non-finite uncertainties.
	ErrInvalidUncertainty = errors.New("invalid uncertainty")
	// ErrInvalidValue is returned for non-finite values.
	ErrInvalidValue = errors.New("invalid value")
)

// NewContext returns a decimal context with the given precision that rounds
// half away from zero.
func NewContext(precision uint32) *apd.Context {
	if precision == 0 {
		precision = DefaultPrecision
	}
	ctx := apd.BaseContext.WithPrecision(precision)
	ctx.Rounding = apd.RoundHalfUp
	return ctx
}

// Context is the decimal context used by the package level functions.
var Context = NewContext(DefaultPrecision)

// Calculator performs the decimal computations with a fixed context.
// It is safe for concurrent use.
type Calculator struct {
	ctx *apd.Context
}

// NewCalculator creates a calculator with the given precision.
// A zero precision selects DefaultPrecision.
func NewCalculator(precision uint32) *Calculator {
	return &Calculator{ctx: NewContext(precision)}
}

var defaultCalculator = &Calculator{ctx: Context}

// Precision returns the number of significant digits of the calculator.
func (c *Calculator) Precision() uint32 {
	return c.ctx.Precision
}

// FromFloat converts f to a decimal through its shortest representation.
func FromFloat(f float64) (*apd.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, f)
	}
	d, err := new(apd.Decimal).SetFloat64(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return d, nil
}

// Parse reads a decimal from its string form, e.g. "0.02595339539885377778".
func Parse(s string) (*apd.Decimal, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidValue, s)
	}
	return d, nil
}

// Format renders d in fixed notation. Zero is never negative and keeps
// only its decimal places.
func Format(d *apd.Decimal) string {
	if d == nil {
		return ""
	}
	if d.IsZero() {
		if d.Exponent >= 0 {
			return "0"
		}
		d = new(apd.Decimal).Abs(d)
	}
	return d.Text('f')
}

// Round rounds d half away from zero to the given number of decimal places.
// The result keeps every digit it needs, even beyond the calculator precision.
func (c *Calculator) Round(d *apd.Decimal, places int32) (*apd.Decimal, error) {
	out, err := c.quantize(d, -places)
	if err != nil {
		return nil, fmt.Errorf("failed to round %s to %d places: %w", d.Text('f'), places, err)
	}
	return out, nil
}

// quantize rounds d to a multiple of 10^exp.
func (c *Calculator) quantize(d *apd.Decimal, exp int32) (*apd.Decimal, error) {
	out := new(apd.Decimal)
	needed := d.NumDigits() + int64(d.Exponent) - int64(exp) + 1
	if _, err := c.widen(needed).Quantize(out, d, exp); err != nil {
		return nil, err
	}
	return out, nil
}

// widen returns the calculator context, or a copy of it holding at least
// digits significant digits.
func (c *Calculator) widen(digits int64) *apd.Context {
	if digits <= int64(c.ctx.Precision) {
		return c.ctx
	}
	if digits > apd.MaxExponent {
		digits = apd.MaxExponent
	}
	return c.ctx.WithPrecision(uint32(digits))
}

// leadingDigit returns the most significant digit of a finite, non-zero d.
func leadingDigit(d *apd.Decimal) int64 {
	s := d.Coeff.String()
	return int64(s[0] - '0')
}

func finite(d *apd.Decimal) bool {
	return d != nil && d.Form == apd.Finite
}
