package metadata

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/MeKo-Tech/pixspace/internal/spacing"
	"github.com/MeKo-Tech/pixspace/internal/units"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(spacing.Descriptor{ImageID: "a"})
	m.Put(spacing.Descriptor{ImageID: "b", Image: spacing.Plane{RowPixelSpacing: 1}})
	assert.Equal(t, 2, m.Len())

	d, err := m.Descriptor(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, 1.0, d.Image.RowPixelSpacing)

	m.Delete("b")
	_, err = m.Descriptor(ctx, "b")
	assert.True(t, errors.Is(err, ErrNotFound))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = m.Descriptor(cancelled, "a")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "images.yaml")
	content := `images:
  cr-1:
    plane:
      sop_class_uid: "1.2.840.10008.5.1.4.1.1.1"
      pixel_spacing: [0.2, 0.2]
      imager_pixel_spacing: [0.1, 0.1]
  us-1:
    plane:
      row_pixel_spacing: 0.5
      column_pixel_spacing: 0.5
      calibration:
        factor: 2
    stored: {rows: 100, columns: 100}
    displayed: {rows: 50, columns: 50}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	f, err := LoadYAMLFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"cr-1", "us-1"}, f.IDs())

	d, err := f.Descriptor(context.Background(), "cr-1")
	require.NoError(t, err)
	assert.Equal(t, "cr-1", d.ImageID)
	assert.Equal(t, units.MMApprox, spacing.Resolve(d, nil).Unit)

	d, err = f.Descriptor(context.Background(), "us-1")
	require.NoError(t, err)
	res := spacing.Resolve(d, nil)
	assert.Equal(t, units.MMManual, res.Unit)
	assert.Equal(t, 2.0, res.RowPixelSpacing)

	_, err = f.Descriptor(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.Descriptor(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotFound, "empty id is ambiguous with two images")
}

func TestYAMLFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "one.yaml")
	mag := 1.2
	want := spacing.Descriptor{
		ImageID: "dx",
		Plane: &spacing.Plane{
			SOPClassUID:        "1.2.840.10008.5.1.4.1.1.1.1",
			ImagerPixelSpacing: []float64{0.15, 0.15},
			EstimatedRadiographicMagnificationFactor: &mag,
		},
	}
	require.NoError(t, WriteYAMLFile(path, want))

	f, err := LoadYAMLFile(path)
	require.NoError(t, err)
	got, err := f.Descriptor(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestYAMLFile_Errors(t *testing.T) {
	_, err := LoadYAMLFile(filepath.Join(t.TempDir(), "missing.yaml"))
	var mErr *Error
	require.ErrorAs(t, err, &mErr)
	assert.Equal(t, "read", mErr.Op)
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("images: [oops"), 0o600))
	_, err = LoadYAMLFile(path)
	require.ErrorAs(t, err, &mErr)
	assert.Equal(t, "parse", mErr.Op)
}

func TestApplyRendition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rendition.png")
	img := imaging.New(80, 60, color.White)
	require.NoError(t, imaging.Save(img, path))

	d := spacing.Descriptor{
		Plane:  &spacing.Plane{RowPixelSpacing: 0.5, ColumnPixelSpacing: 0.5},
		Stored: spacing.Dimensions{Rows: 120, Columns: 160},
	}
	d, err := ApplyRendition(d, path)
	require.NoError(t, err)
	assert.Equal(t, spacing.Dimensions{Rows: 60, Columns: 80}, d.Displayed)

	res := spacing.Resolve(d, nil)
	assert.Equal(t, 1.0, res.RowPixelSpacing)
	assert.Equal(t, 1.0, res.ColPixelSpacing)

	_, err = ApplyRendition(d, filepath.Join(t.TempDir(), "missing.png"))
	var mErr *Error
	require.ErrorAs(t, err, &mErr)
	assert.Equal(t, "rendition", mErr.Op)
}

func TestApplyRendition_BMP(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rendition.bmp")
	require.NoError(t, imaging.Save(image.NewGray(image.Rect(0, 0, 10, 20)), path))

	d, err := ApplyRendition(spacing.Descriptor{}, path)
	require.NoError(t, err)
	assert.Equal(t, spacing.Dimensions{Rows: 20, Columns: 10}, d.Displayed)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "images.yml")
	require.NoError(t, WriteYAMLFile(yamlPath, spacing.Descriptor{ImageID: "x"}))
	p, err := Open(yamlPath)
	require.NoError(t, err)
	assert.IsType(t, &YAMLFile{}, p)

	p, err = Open(filepath.Join(dir, "study.dcm"))
	require.NoError(t, err)
	assert.IsType(t, &DICOMFile{}, p)

	dicm := make([]byte, 140)
	copy(dicm[128:], "DICM")
	rawPath := filepath.Join(dir, "IM0001")
	require.NoError(t, os.WriteFile(rawPath, dicm, 0o600))
	p, err = Open(rawPath)
	require.NoError(t, err)
	assert.IsType(t, &DICOMFile{}, p)

	txtPath := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("hello"), 0o600))
	_, err = Open(txtPath)
	assert.Error(t, err)
}

func TestDICOMFile_Missing(t *testing.T) {
	f := &DICOMFile{Path: filepath.Join(t.TempDir(), "missing.dcm")}
	_, err := f.Descriptor(context.Background(), "")

	var mErr *Error
	require.ErrorAs(t, err, &mErr)
	assert.Equal(t, "parse", mErr.Op)
}

func TestDescriptorFromDataset(t *testing.T) {
	ds := dicom.Dataset{Elements: []*dicom.Element{
		mustElement(t, tag.SOPClassUID, []string{"1.2.840.10008.5.1.4.1.1.1"}),
		mustElement(t, tag.SOPInstanceUID, []string{"1.2.3.4"}),
		mustElement(t, tag.PixelSpacing, []string{"0.2", "0.3"}),
		mustElement(t, tag.ImagerPixelSpacing, []string{"0.1", "0.1"}),
		mustElement(t, tag.Rows, []int{512}),
		mustElement(t, tag.Columns, []int{256}),
	}}

	d := descriptorFromDataset(&ds, "", "/data/image.dcm")
	assert.Equal(t, "1.2.3.4", d.ImageID)
	require.NotNil(t, d.Plane)
	assert.Equal(t, "1.2.840.10008.5.1.4.1.1.1", d.Plane.SOPClassUID)
	assert.Equal(t, []float64{0.2, 0.3}, d.Plane.PixelSpacing)
	assert.Equal(t, 0.2, d.Plane.RowPixelSpacing)
	assert.Equal(t, 0.3, d.Plane.ColumnPixelSpacing)
	assert.Nil(t, d.Plane.EstimatedRadiographicMagnificationFactor)
	assert.Equal(t, spacing.Dimensions{Rows: 512, Columns: 256}, d.Stored)
	assert.Empty(t, d.UltrasoundRegions)

	res := spacing.Resolve(d, nil)
	assert.Equal(t, units.MMApprox, res.Unit)

	d = descriptorFromDataset(&dicom.Dataset{}, "", "/data/image.dcm")
	assert.Equal(t, "image.dcm", d.ImageID)
	assert.Equal(t, units.Pixel, spacing.Resolve(d, nil).Unit)
}

func mustElement(t *testing.T, tg tag.Tag, data interface{}) *dicom.Element {
	t.Helper()
	el, err := dicom.NewElement(tg, data)
	require.NoError(t, err)
	return el
}
