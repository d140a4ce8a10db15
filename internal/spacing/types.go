package spacing

import "github.com/MeKo-Tech/pixspace/internal/units"

// Calibration describes whether and how a manual calibration was applied to an image.
// A zero Factor means no factor is recorded.
type Calibration struct {
	Factor           float64 `json:"factor,omitempty" yaml:"factor,omitempty"`
	Reset            bool    `json:"reset,omitempty" yaml:"reset,omitempty"`
	FirstCalibration bool    `json:"first_calibration,omitempty" yaml:"first_calibration,omitempty"`
}

// HasFactor reports whether the factor counts as a calibration.
// A factor of exactly 1 is present but changes nothing, so it does not.
func (c Calibration) HasFactor() bool {
	return c.Factor != 0 && c.Factor != 1
}

// Multiplier returns the factor to apply to a spacing, 1 when absent.
func (c Calibration) Multiplier() float64 {
	if c.Factor == 0 {
		return 1
	}
	return c.Factor
}

// Plane holds the pixel spacing related attributes of an image plane.
// Zero spacings and empty slices mean the attribute is absent.
type Plane struct {
	SOPClassUID string `json:"sop_class_uid,omitempty" yaml:"sop_class_uid,omitempty"`

	RowPixelSpacing         float64 `json:"row_pixel_spacing,omitempty" yaml:"row_pixel_spacing,omitempty"`
	ColumnPixelSpacing      float64 `json:"column_pixel_spacing,omitempty" yaml:"column_pixel_spacing,omitempty"`
	RowImagePixelSpacing    float64 `json:"row_image_pixel_spacing,omitempty" yaml:"row_image_pixel_spacing,omitempty"`
	ColumnImagePixelSpacing float64 `json:"column_image_pixel_spacing,omitempty" yaml:"column_image_pixel_spacing,omitempty"`

	// PixelSpacing and ImagerPixelSpacing are [row, column] pairs.
	PixelSpacing       []float64 `json:"pixel_spacing,omitempty" yaml:"pixel_spacing,omitempty"`
	ImagerPixelSpacing []float64 `json:"imager_pixel_spacing,omitempty" yaml:"imager_pixel_spacing,omitempty"`

	// EstimatedRadiographicMagnificationFactor is nil when absent. A present zero
	// still counts as present.
	EstimatedRadiographicMagnificationFactor *float64 `json:"estimated_radiographic_magnification_factor,omitempty" yaml:"estimated_radiographic_magnification_factor,omitempty"`

	Calibration Calibration `json:"calibration,omitempty" yaml:"calibration,omitempty"`
}

// Dimensions are pixel rows and columns. Zero means unknown.
type Dimensions struct {
	Rows    int `json:"rows,omitempty" yaml:"rows,omitempty"`
	Columns int `json:"columns,omitempty" yaml:"columns,omitempty"`
}

// Descriptor identifies one 2D image and carries the metadata needed to resolve its spacing.
type Descriptor struct {
	ImageID string `json:"image_id,omitempty" yaml:"image_id,omitempty"`

	// Plane is the image plane metadata; nil when the metadata provider has none.
	Plane *Plane `json:"plane,omitempty" yaml:"plane,omitempty"`

	// Image holds spacing attributes carried by the image itself, used when Plane is nil.
	Image Plane `json:"image,omitempty" yaml:"image,omitempty"`

	UltrasoundRegions []UltrasoundRegion `json:"ultrasound_regions,omitempty" yaml:"ultrasound_regions,omitempty"`

	// Stored are the native dimensions, Displayed those of the rendition being measured on.
	Stored    Dimensions `json:"stored,omitempty" yaml:"stored,omitempty"`
	Displayed Dimensions `json:"displayed,omitempty" yaml:"displayed,omitempty"`
}

// Point is an image coordinate in displayed pixels.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Handles are the end points of a measurement.
type Handles struct {
	Start Point `json:"start" yaml:"start"`
	End   Point `json:"end" yaml:"end"`
}

// Path names the strategy that produced a spacing.
type Path string

const (
	PathUltrasound Path = "ultrasound"
	PathProjection Path = "projection"
	PathPlane      Path = "plane"
	PathImage      Path = "image"
)

// Result is a resolved spacing. Zero spacings mean undefined.
type Result struct {
	RowPixelSpacing float64    `json:"row_pixel_spacing,omitempty" yaml:"row_pixel_spacing,omitempty"`
	ColPixelSpacing float64    `json:"col_pixel_spacing,omitempty" yaml:"col_pixel_spacing,omitempty"`
	Unit            units.Unit `json:"unit" yaml:"unit"`
	Path            Path       `json:"path,omitempty" yaml:"path,omitempty"`
}

// HasSpacing reports whether both row and column spacing are defined.
func (r Result) HasSpacing() bool {
	return r.RowPixelSpacing != 0 && r.ColPixelSpacing != 0
}

// pixelResult is the result when nothing usable was found.
func pixelResult(path Path) Result {
	return Result{Unit: units.Pixel, Path: path}
}

// pair returns the row and column values of a [row, column] attribute.
// A single value applies to both axes.
func pair(v []float64) (row, col float64, ok bool) {
	switch len(v) {
	case 0:
		return 0, 0, false
	case 1:
		return v[0], v[0], true
	default:
		return v[0], v[1], true
	}
}
