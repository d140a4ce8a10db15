// Package measurement measures the distance between two handles on an image
// and reports it rounded to the precision its pixel spacing supports.
package measurement

import (
	"fmt"
	"math"

	"github.com/MeKo-Tech/pixspace/internal/spacing"
	"github.com/MeKo-Tech/pixspace/internal/uncertainty"
	"github.com/MeKo-Tech/pixspace/internal/units"
)

// Result is a rounded length measurement.
type Result struct {
	// Length and Uncertainty are decimal strings, e.g. "17.3" and "0.4".
	Length      string         `json:"length" yaml:"length"`
	Uncertainty string         `json:"uncertainty" yaml:"uncertainty"`
	Unit        units.Unit     `json:"unit" yaml:"unit"`
	Spacing     spacing.Result `json:"spacing" yaml:"spacing"`
	// RawLength is the unrounded length.
	RawLength float64 `json:"raw_length" yaml:"raw_length"`
}

// Measurer combines spacing resolution with uncertainty rounding.
type Measurer struct {
	resolver *spacing.Resolver
	calc     *uncertainty.Calculator
}

// New creates a Measurer. Nil arguments select the package defaults.
func New(resolver *spacing.Resolver, calc *uncertainty.Calculator) *Measurer {
	if resolver == nil {
		resolver = spacing.NewResolver()
	}
	if calc == nil {
		calc = uncertainty.NewCalculator(uncertainty.DefaultPrecision)
	}
	return &Measurer{resolver: resolver, calc: calc}
}

var defaultMeasurer = New(nil, nil)

// Measure measures with a Measurer that has no calibration store.
func Measure(d spacing.Descriptor, h spacing.Handles) (Result, error) {
	return defaultMeasurer.Measure(d, h)
}

// Measure returns the distance between the handles of h on the image d.
// Without a physical spacing the length is given in pixels.
func (m *Measurer) Measure(d spacing.Descriptor, h spacing.Handles) (Result, error) {
	res := m.resolver.Resolve(d, &h)

	dx := h.End.X - h.Start.X
	dy := h.End.Y - h.Start.Y

	unit := res.Unit
	length := math.Hypot(dx, dy)
	diag := m.calc.PixelDiagonal(0, 0)
	if res.Unit.Physical() && res.HasSpacing() {
		length = math.Hypot(dx*res.ColPixelSpacing, dy*res.RowPixelSpacing)
		diag = m.calc.PixelDiagonal(res.ColPixelSpacing, res.RowPixelSpacing)
	} else {
		unit = units.Pixel
	}

	value, err := uncertainty.FromFloat(length)
	if err != nil {
		return Result{}, fmt.Errorf("invalid length: %w", err)
	}
	rounded, err := m.calc.RoundToUncertainty(value, diag)
	if err != nil {
		return Result{}, fmt.Errorf("failed to round length: %w", err)
	}
	roundedDiag, err := m.calc.RoundUncertainty(diag)
	if err != nil {
		return Result{}, fmt.Errorf("failed to round uncertainty: %w", err)
	}

	return Result{
		Length:      rounded.String(),
		Uncertainty: roundedDiag.String(),
		Unit:        unit,
		Spacing:     res,
		RawLength:   length,
	}, nil
}
