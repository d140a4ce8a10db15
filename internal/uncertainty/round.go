package uncertainty

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"
)

// Rounded is a value rounded to the precision of its uncertainty.
type Rounded struct {
	Value *apd.Decimal
	// Places is the number of decimal places kept when the uncertainty is below 1.
	Places int32
	// Multiple is the power of ten the value was snapped to when the
	// uncertainty is at least 1; nil otherwise.
	Multiple *apd.Decimal
}

// String returns the rounded value in fixed notation.
func (r Rounded) String() string {
	return Format(r.Value)
}

var (
	one = apd.New(1, 0)
	ten = apd.New(10, 0)
)

// RoundToUncertainty rounds value with the package level calculator.
func RoundToUncertainty(value, uncertainty *apd.Decimal) (Rounded, error) {
	return defaultCalculator.RoundToUncertainty(value, uncertainty)
}

// RoundUncertainty rounds an uncertainty by its own significant figures.
func RoundUncertainty(uncertainty *apd.Decimal) (Rounded, error) {
	return defaultCalculator.RoundUncertainty(uncertainty)
}

// SignificantIndex returns the decimal place of the first significant digit
// of an uncertainty below 1: 1 for 0.3259, 3 for 0.00595.
func SignificantIndex(uncertainty *apd.Decimal) (int32, error) {
	return defaultCalculator.SignificantIndex(uncertainty)
}

// RoundUncertainty is RoundToUncertainty(uncertainty, uncertainty).
func (c *Calculator) RoundUncertainty(uncertainty *apd.Decimal) (Rounded, error) {
	return c.RoundToUncertainty(uncertainty, uncertainty)
}

// RoundToUncertainty rounds value to the precision given by the significant
// figures of uncertainty. Rounding is half away from zero.
//
// Below 1, the uncertainty keeps one significant digit, two when its leading
// digit is 1 or 2, and the value is rounded to the same decimal place.
// From 1 upwards the value is snapped to a power of ten: 10^(n-2) when the
// leading digit of the n digit integer part is 1 or 2, 10^(n-1) otherwise.
func (c *Calculator) RoundToUncertainty(value, uncertainty *apd.Decimal) (Rounded, error) {
	if !finite(uncertainty) || uncertainty.Sign() <= 0 {
		return Rounded{}, fmt.Errorf("%w: %s", ErrInvalidUncertainty, describe(uncertainty))
	}
	if !finite(value) {
		return Rounded{}, fmt.Errorf("%w: %s", ErrInvalidValue, describe(value))
	}

	if uncertainty.Cmp(one) < 0 {
		places, err := c.decimalPlaces(uncertainty)
		if err != nil {
			return Rounded{}, err
		}
		rounded, err := c.Round(value, places)
		if err != nil {
			return Rounded{}, err
		}
		return Rounded{Value: rounded, Places: places}, nil
	}

	exp, err := c.integerExponent(uncertainty)
	if err != nil {
		return Rounded{}, err
	}
	rounded, err := c.quantize(value, exp)
	if err != nil {
		return Rounded{}, fmt.Errorf("failed to round %s to 1E%d: %w", value.Text('f'), exp, err)
	}
	return Rounded{Value: rounded, Multiple: apd.New(1, exp)}, nil
}

// SignificantIndex is the calculator form of the package level SignificantIndex.
func (c *Calculator) SignificantIndex(uncertainty *apd.Decimal) (int32, error) {
	if !finite(uncertainty) || uncertainty.Sign() <= 0 || uncertainty.Cmp(one) >= 0 {
		return 0, fmt.Errorf("%w: %s is not in (0, 1)", ErrInvalidUncertainty, describe(uncertainty))
	}
	p, _, err := c.significantIndex(uncertainty)
	return p, err
}

// significantIndex returns p with u·10^p in [1, 10) and the leading digit of u.
// p starts from ceil(-log10(u)) and is corrected by one where log10 lands
// exactly on, or rounds across, a power of ten. The leading digit is read
// from the coefficient so it never sees a rounded product.
func (c *Calculator) significantIndex(u *apd.Decimal) (int32, int64, error) {
	logU := new(apd.Decimal)
	if _, err := c.ctx.Log10(logU, u); err != nil {
		return 0, 0, fmt.Errorf("failed to compute log10(%s): %w", u.Text('f'), err)
	}
	logU.Neg(logU)
	if _, err := c.ctx.Ceil(logU, logU); err != nil {
		return 0, 0, fmt.Errorf("failed to compute significant index: %w", err)
	}
	p64, err := logU.Int64()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to compute significant index: %w", err)
	}
	p := int32(p64)

	scaled, err := c.scale(u, p)
	if err != nil {
		return 0, 0, err
	}
	switch {
	case scaled.Cmp(ten) >= 0:
		p--
	case scaled.Cmp(one) < 0:
		p++
	}
	return p, leadingDigit(u), nil
}

// scale returns u·10^p. Only the exponent changes, so the product is exact.
func (c *Calculator) scale(u *apd.Decimal, p int32) (*apd.Decimal, error) {
	scaled := new(apd.Decimal)
	if _, err := c.widen(u.NumDigits()).Mul(scaled, u, apd.New(1, p)); err != nil {
		return nil, fmt.Errorf("failed to scale uncertainty: %w", err)
	}
	return scaled, nil
}

// decimalPlaces returns the number of decimal places an uncertainty below 1 keeps.
func (c *Calculator) decimalPlaces(u *apd.Decimal) (int32, error) {
	p, digit, err := c.significantIndex(u)
	if err != nil {
		return 0, err
	}
	if digit < 3 {
		return p + 1, nil
	}
	return p, nil
}

// integerExponent returns the power of ten a value is snapped to for an
// uncertainty of at least 1.
func (c *Calculator) integerExponent(u *apd.Decimal) (int32, error) {
	n := u.NumDigits() + int64(u.Exponent)
	if n < 1 {
		return 0, fmt.Errorf("%w: %s is below 1", ErrInvalidUncertainty, u.Text('f'))
	}
	if leadingDigit(u) < 3 {
		return int32(n - 2), nil
	}
	return int32(n - 1), nil
}

func describe(d *apd.Decimal) string {
	if d == nil {
		return "<nil>"
	}
	return d.String()
}
