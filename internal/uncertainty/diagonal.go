package uncertainty

import (
	"github.com/cockroachdb/apd/v3"
)

// PixelDiagonal returns the length of one pixel's diagonal, the positional
// uncertainty of a point placed on the image.
//
// Without a column spacing the image is measured in pixels and the diagonal
// of a unit pixel, sqrt(2), is returned.
func PixelDiagonal(colSpacing, rowSpacing float64) *apd.Decimal {
	return defaultCalculator.PixelDiagonal(colSpacing, rowSpacing)
}

// PixelDiagonal is the calculator form of the package level PixelDiagonal.
// Non-finite spacings yield NaN, which the rounding functions reject.
func (c *Calculator) PixelDiagonal(colSpacing, rowSpacing float64) *apd.Decimal {
	out := new(apd.Decimal)

	if colSpacing == 0 {
		_, _ = c.ctx.Sqrt(out, apd.New(2, 0))
		return out
	}

	col, err := FromFloat(colSpacing)
	if err != nil {
		out.Form = apd.NaN
		return out
	}
	row, err := FromFloat(rowSpacing)
	if err != nil {
		out.Form = apd.NaN
		return out
	}

	sum := new(apd.Decimal)
	_, _ = c.ctx.Mul(col, col, col)
	_, _ = c.ctx.Mul(row, row, row)
	_, _ = c.ctx.Add(sum, col, row)
	_, _ = c.ctx.Sqrt(out, sum)
	return out
}
