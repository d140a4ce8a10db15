package testutil

import (
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/pixspace/internal/metadata"
	"github.com/MeKo-Tech/pixspace/internal/spacing"
)

// SOP Class UIDs used by the fixtures.
const (
	CTImageStorage = "1.2.840.10008.5.1.4.1.1.2"
	CRImageStorage = "1.2.840.10008.5.1.4.1.1.1"
	DXImageStorage = "1.2.840.10008.5.1.4.1.1.1.1"
	USImageStorage = "1.2.840.10008.5.1.4.1.1.6.1"
)

func magnification(f float64) *float64 { return &f }

// Fixtures returns one descriptor per spacing strategy, keyed by image ID:
//
//	ct-plane       0.5 mm plane spacing                          mm
//	cr-approx      pixel 0.2 and imager 0.1 disagree              mm_approx
//	cr-projective  pixel and imager spacing agree at 0.1          mm_prj
//	dx-magnified   imager 0.2 with magnification 1.25             mm_est
//	us-region      one 0.02 x 0.03 cm region over 0..500          mm via handles
//	image-only     no plane metadata, image spacing 0.4           mm (image path)
//	no-spacing     plane without any spacing                      pix
//	rescaled       0.5 mm stored at 512, displayed at 256         mm, spacing 1.0
func Fixtures() map[string]spacing.Descriptor {
	list := []spacing.Descriptor{
		{
			ImageID: "ct-plane",
			Plane: &spacing.Plane{
				SOPClassUID:        CTImageStorage,
				RowPixelSpacing:    0.5,
				ColumnPixelSpacing: 0.5,
				PixelSpacing:       []float64{0.5, 0.5},
			},
		},
		{
			ImageID: "cr-approx",
			Plane: &spacing.Plane{
				SOPClassUID:        CRImageStorage,
				PixelSpacing:       []float64{0.2, 0.2},
				ImagerPixelSpacing: []float64{0.1, 0.1},
			},
		},
		{
			ImageID: "cr-projective",
			Plane: &spacing.Plane{
				SOPClassUID:        CRImageStorage,
				PixelSpacing:       []float64{0.1, 0.1},
				ImagerPixelSpacing: []float64{0.1, 0.1},
			},
		},
		{
			ImageID: "dx-magnified",
			Plane: &spacing.Plane{
				SOPClassUID:        DXImageStorage,
				ImagerPixelSpacing: []float64{0.2, 0.2},
				EstimatedRadiographicMagnificationFactor: magnification(1.25),
			},
		},
		{
			ImageID: "us-region",
			Plane:   &spacing.Plane{SOPClassUID: USImageStorage},
			UltrasoundRegions: []spacing.UltrasoundRegion{{
				MinX0: 0, MinY0: 0, MaxX1: 500, MaxY1: 500,
				PhysicalUnitsX: spacing.PhysicalUnitsCentimetre,
				PhysicalUnitsY: spacing.PhysicalUnitsCentimetre,
				PhysicalDeltaX: 0.02,
				PhysicalDeltaY: 0.03,
			}},
		},
		{
			ImageID: "image-only",
			Image:   spacing.Plane{RowImagePixelSpacing: 0.4, ColumnImagePixelSpacing: 0.4},
		},
		{
			ImageID: "no-spacing",
			Plane:   &spacing.Plane{SOPClassUID: CTImageStorage},
		},
		{
			ImageID:   "rescaled",
			Plane:     &spacing.Plane{RowPixelSpacing: 0.5, ColumnPixelSpacing: 0.5},
			Stored:    spacing.Dimensions{Rows: 512, Columns: 512},
			Displayed: spacing.Dimensions{Rows: 256, Columns: 256},
		},
	}

	m := make(map[string]spacing.Descriptor, len(list))
	for _, d := range list {
		m[d.ImageID] = d
	}
	return m
}

// FixtureIDs returns the fixture image IDs in sorted order.
func FixtureIDs() []string {
	ids := make([]string, 0, len(Fixtures()))
	for id := range Fixtures() {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Fixture returns the fixture with the given image ID and fails the test if it does not exist.
func Fixture(t *testing.T, id string) spacing.Descriptor {
	t.Helper()

	d, ok := Fixtures()[id]
	require.True(t, ok, "unknown fixture %q", id)
	return d
}

// WriteFixtureFile writes all fixtures as a descriptor document into dir and
// returns its path.
func WriteFixtureFile(t *testing.T, dir string) string {
	t.Helper()

	path, err := WriteFixtures(dir)
	require.NoError(t, err, "Failed to write fixture file")
	return path
}

// WriteFixtures is WriteFixtureFile for callers without a *testing.T.
func WriteFixtures(dir string) (string, error) {
	fixtures := Fixtures()
	list := make([]spacing.Descriptor, 0, len(fixtures))
	for _, id := range FixtureIDs() {
		list = append(list, fixtures[id])
	}

	path := filepath.Join(dir, "fixtures.yaml")
	if err := metadata.WriteYAMLFile(path, list...); err != nil {
		return "", err
	}
	return path, nil
}
