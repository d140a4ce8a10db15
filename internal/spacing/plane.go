package spacing

import "github.com/MeKo-Tech/pixspace/internal/units"

// PlaneSpacing resolves the spacing of a non-projection image plane.
//
// Row and column spacing come from RowPixelSpacing and ColumnPixelSpacing,
// falling back to the image pixel spacings. A calibration factor scales
// them; when no base spacing exists the factor itself becomes the spacing.
// A factor of 1 is no calibration, so it never stands in for a missing spacing.
func PlaneSpacing(p Plane) Result {
	return planeSpacing(p, PathPlane)
}

func planeSpacing(p Plane, path Path) Result {
	c := p.Calibration

	row := calibrate(firstNonZero(p.RowPixelSpacing, p.RowImagePixelSpacing), c)
	col := calibrate(firstNonZero(p.ColumnPixelSpacing, p.ColumnImagePixelSpacing), c)

	unit := units.Pixel
	if row != 0 || col != 0 {
		unit = units.Classify(row != 0 && col != 0, c.HasFactor(), c.Reset, c.FirstCalibration, units.MM)
	}
	return Result{
		RowPixelSpacing: row,
		ColPixelSpacing: col,
		Unit:            unit,
		Path:            path,
	}
}

func calibrate(base float64, c Calibration) float64 {
	if base == 0 {
		if c.HasFactor() {
			return c.Factor
		}
		return 0
	}
	return base * c.Multiplier()
}

func firstNonZero(values ...float64) float64 {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}
