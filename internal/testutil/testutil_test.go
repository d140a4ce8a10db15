package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/pixspace/internal/metadata"
	"github.com/MeKo-Tech/pixspace/internal/spacing"
	"github.com/MeKo-Tech/pixspace/internal/units"
)

func TestFileExists(t *testing.T) {
	assert.False(t, FileExists("/non/existent/file"))

	path := filepath.Join(CreateTempDir(t), "present.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	assert.True(t, FileExists(path))
}

// TestFixtures resolves every fixture and checks the documented unit.
func TestFixtures(t *testing.T) {
	inside := &spacing.Handles{Start: spacing.Point{X: 10, Y: 10}, End: spacing.Point{X: 100, Y: 200}}

	tests := []struct {
		id       string
		wantUnit units.Unit
		wantRow  float64
	}{
		{"ct-plane", units.MM, 0.5},
		{"cr-approx", units.MMApprox, 0.2},
		{"cr-projective", units.MMProjective, 0.1},
		{"dx-magnified", units.MMEstimated, 0.16},
		{"us-region", units.MM, 0.3},
		{"image-only", units.MM, 0.4},
		{"no-spacing", units.Pixel, 0},
		{"rescaled", units.MM, 1.0},
	}

	require.Len(t, FixtureIDs(), len(tests))
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got := spacing.Resolve(Fixture(t, tt.id), inside)
			assert.Equal(t, tt.wantUnit, got.Unit)
			assert.InDelta(t, tt.wantRow, got.RowPixelSpacing, 1e-12)
		})
	}
}

func TestWriteFixtureFile(t *testing.T) {
	path := WriteFixtureFile(t, t.TempDir())

	f, err := metadata.LoadYAMLFile(path)
	require.NoError(t, err)
	assert.Equal(t, FixtureIDs(), f.IDs())

	d, err := f.Descriptor(context.Background(), "dx-magnified")
	require.NoError(t, err)
	require.NotNil(t, d.Plane)
	require.NotNil(t, d.Plane.EstimatedRadiographicMagnificationFactor)
	assert.Equal(t, 1.25, *d.Plane.EstimatedRadiographicMagnificationFactor)
}

func TestWriteRendition(t *testing.T) {
	for _, name := range []string{"r.png", "r.bmp", "r.tif"} {
		t.Run(name, func(t *testing.T) {
			path := WriteRendition(t, filepath.Join(t.TempDir(), "sub", name), 64, 32)

			img, err := imaging.Open(path)
			require.NoError(t, err)
			assert.Equal(t, 64, img.Bounds().Dx())
			assert.Equal(t, 32, img.Bounds().Dy())
		})
	}
}
