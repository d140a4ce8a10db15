package spacing

import (
	"math"

	"github.com/MeKo-Tech/pixspace/internal/units"
)

// PhysicalUnitsCentimetre is the DICOM code for centimetres in the
// Physical Units X/Y Direction attributes of an ultrasound region.
const PhysicalUnitsCentimetre = 3

// UltrasoundRegion is one item of the Sequence of Ultrasound Regions.
type UltrasoundRegion struct {
	MinX0 int `json:"min_x0" yaml:"min_x0"`
	MinY0 int `json:"min_y0" yaml:"min_y0"`
	MaxX1 int `json:"max_x1" yaml:"max_x1"`
	MaxY1 int `json:"max_y1" yaml:"max_y1"`

	PhysicalUnitsX int     `json:"physical_units_x" yaml:"physical_units_x"`
	PhysicalUnitsY int     `json:"physical_units_y" yaml:"physical_units_y"`
	PhysicalDeltaX float64 `json:"physical_delta_x" yaml:"physical_delta_x"`
	PhysicalDeltaY float64 `json:"physical_delta_y" yaml:"physical_delta_y"`
}

// Contains reports whether p lies within the region bounds, edges included.
func (r UltrasoundRegion) Contains(p Point) bool {
	return p.X >= float64(r.MinX0) && p.X <= float64(r.MaxX1) &&
		p.Y >= float64(r.MinY0) && p.Y <= float64(r.MaxY1)
}

// UltrasoundResolver picks the spacing of the region a measurement was made in.
type UltrasoundResolver interface {
	Spacing(regions []UltrasoundRegion, h Handles) (row, col float64, ok bool)
}

// RegionResolver selects the first region containing both handles whose
// physical deltas are given in centimetres.
type RegionResolver struct{}

// Spacing returns the region's deltas converted to millimetres.
func (RegionResolver) Spacing(regions []UltrasoundRegion, h Handles) (row, col float64, ok bool) {
	for _, r := range regions {
		if !r.Contains(h.Start) || !r.Contains(h.End) {
			continue
		}
		if r.PhysicalUnitsX != PhysicalUnitsCentimetre || r.PhysicalUnitsY != PhysicalUnitsCentimetre {
			continue
		}
		row = math.Abs(r.PhysicalDeltaY) * 10
		col = math.Abs(r.PhysicalDeltaX) * 10
		if row == 0 || col == 0 {
			continue
		}
		return row, col, true
	}
	return 0, 0, false
}

// ultrasoundSpacing resolves a spacing through u; a miss is reported in pixels.
func ultrasoundSpacing(u UltrasoundResolver, regions []UltrasoundRegion, h Handles) Result {
	row, col, ok := u.Spacing(regions, h)
	if !ok {
		return pixelResult(PathUltrasound)
	}
	return Result{RowPixelSpacing: row, ColPixelSpacing: col, Unit: units.MM, Path: PathUltrasound}
}
