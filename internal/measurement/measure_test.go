package measurement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/pixspace/internal/calibration"
	"github.com/MeKo-Tech/pixspace/internal/spacing"
	"github.com/MeKo-Tech/pixspace/internal/units"
)

func TestMeasure_Physical(t *testing.T) {
	d := spacing.Descriptor{Plane: &spacing.Plane{RowPixelSpacing: 0.5, ColumnPixelSpacing: 0.5}}
	h := spacing.Handles{Start: spacing.Point{X: 0, Y: 0}, End: spacing.Point{X: 30, Y: 40}}

	got, err := Measure(d, h)
	require.NoError(t, err)
	// diagonal of a 0.5 mm pixel is 0.7071..., one significant digit
	assert.Equal(t, "25.0", got.Length)
	assert.Equal(t, "0.7", got.Uncertainty)
	assert.Equal(t, units.MM, got.Unit)
	assert.InDelta(t, 25.0, got.RawLength, 1e-12)
	assert.Equal(t, spacing.PathPlane, got.Spacing.Path)
}

func TestMeasure_Pixels(t *testing.T) {
	h := spacing.Handles{Start: spacing.Point{X: 10, Y: 10}, End: spacing.Point{X: 13, Y: 14}}

	got, err := Measure(spacing.Descriptor{}, h)
	require.NoError(t, err)
	// sqrt(2) has leading digit 1, so one decimal is kept
	assert.Equal(t, "5.0", got.Length)
	assert.Equal(t, "1.4", got.Uncertainty)
	assert.Equal(t, units.Pixel, got.Unit)
}

func TestMeasure_ResetToPixels(t *testing.T) {
	store := calibration.NewStore()
	store.Calibrate("img", 2)
	store.Reset("img")

	m := New(spacing.NewResolver(spacing.WithCalibrations(store)), nil)
	d := spacing.Descriptor{ImageID: "img", Plane: &spacing.Plane{RowPixelSpacing: 0.2, ColumnPixelSpacing: 0.2}}
	h := spacing.Handles{End: spacing.Point{X: 6, Y: 8}}

	got, err := m.Measure(d, h)
	require.NoError(t, err)
	assert.Equal(t, units.Pixel, got.Unit)
	assert.Equal(t, "10.0", got.Length)
}

func TestMeasure_Calibrated(t *testing.T) {
	store := calibration.NewStore()
	store.Calibrate("img", 2)

	m := New(spacing.NewResolver(spacing.WithCalibrations(store)), nil)
	d := spacing.Descriptor{ImageID: "img", Plane: &spacing.Plane{RowPixelSpacing: 0.1, ColumnPixelSpacing: 0.1}}
	h := spacing.Handles{End: spacing.Point{X: 100}}

	got, err := m.Measure(d, h)
	require.NoError(t, err)
	assert.Equal(t, units.MMManual, got.Unit)
	assert.Equal(t, "20.00", got.Length)
	assert.Equal(t, "0.28", got.Uncertainty)
}
