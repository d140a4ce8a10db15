package spacing

import "math"

// Rescale adjusts a spacing measured on the stored image to a displayed
// rendition of different size. Each axis is scaled by stored/displayed when
// both of its dimensions are known; other axes are left alone.
func Rescale(r Result, stored, displayed Dimensions) Result {
	if ratio, ok := dimensionRatio(stored.Rows, displayed.Rows); ok && r.RowPixelSpacing != 0 {
		r.RowPixelSpacing *= ratio
	}
	if ratio, ok := dimensionRatio(stored.Columns, displayed.Columns); ok && r.ColPixelSpacing != 0 {
		r.ColPixelSpacing *= ratio
	}
	return r
}

// dimensionRatio returns stored/displayed, or false when the axis needs no scaling.
func dimensionRatio(stored, displayed int) (float64, bool) {
	if stored <= 0 || displayed <= 0 || stored == displayed {
		return 1, false
	}
	ratio := float64(stored) / float64(displayed)
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return 1, false
	}
	return ratio, true
}
