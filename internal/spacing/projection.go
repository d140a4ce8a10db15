package spacing

import (
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/MeKo-Tech/pixspace/internal/units"
)

// spacingEpsilon is the per-axis tolerance when comparing Pixel Spacing with
// Imager Pixel Spacing.
const spacingEpsilon = 1e-6

// ProjectionSpacing resolves the spacing of a projection radiograph.
//
// Pixel Spacing is measured at the patient plane when some correction was
// applied, Imager Pixel Spacing always at the detector. Which of the two is
// present, and whether they agree, decides how much the spacing can be trusted:
//
//	Pixel Spacing only:                     mm_prj, pixel spacing
//	both equal, or a magnification factor:  mm_prj or mm_est, imager spacing / factor
//	both present and different:             mm_approx, pixel spacing
//	Imager Pixel Spacing only:              mm_prj or mm_est, imager spacing / factor
//	neither:                                pix
//
// A calibration factor or reset on the plane can still override the unit.
func ProjectionSpacing(p Plane) Result {
	pxRow, pxCol, hasPixel := pair(p.PixelSpacing)
	_, _, hasImager := pair(p.ImagerPixelSpacing)

	switch {
	case hasPixel && !hasImager:
		return calibratedSpacing(p, pxRow, pxCol, units.MMProjective)

	case hasPixel && hasImager:
		if sameSpacing(p.PixelSpacing, p.ImagerPixelSpacing) || p.EstimatedRadiographicMagnificationFactor != nil {
			return projectiveSpacing(p)
		}
		return calibratedSpacing(p, pxRow, pxCol, units.MMApprox)

	case hasImager:
		return projectiveSpacing(p)
	}

	return pixelResult(PathProjection)
}

// projectiveSpacing divides the imager spacing by the estimated magnification factor.
func projectiveSpacing(p Plane) Result {
	imRow, imCol, _ := pair(p.ImagerPixelSpacing)

	magnification := 1.0
	base := units.MMProjective
	if f := p.EstimatedRadiographicMagnificationFactor; f != nil {
		base = units.MMEstimated
		if *f != 0 {
			magnification = *f
		}
	}

	return calibratedSpacing(p, imRow/magnification, imCol/magnification, base)
}

// calibratedSpacing applies the plane calibration to a spacing pair and classifies it.
func calibratedSpacing(p Plane, row, col float64, base units.Unit) Result {
	c := p.Calibration
	return Result{
		RowPixelSpacing: row * c.Multiplier(),
		ColPixelSpacing: col * c.Multiplier(),
		Unit:            units.Classify(true, c.HasFactor(), c.Reset, c.FirstCalibration, base),
		Path:            PathProjection,
	}
}

// sameSpacing compares two [row, column] pairs within spacingEpsilon.
func sameSpacing(a, b []float64) bool {
	aRow, aCol, _ := pair(a)
	bRow, bCol, _ := pair(b)
	return scalar.EqualWithinAbs(aRow, bRow, spacingEpsilon) &&
		scalar.EqualWithinAbs(aCol, bCol, spacingEpsilon)
}
