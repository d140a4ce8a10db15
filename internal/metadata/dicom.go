package metadata

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/MeKo-Tech/pixspace/internal/spacing"
)

// Tags not every dictionary version names.
var (
	tagEstimatedMagnification = tag.Tag{Group: 0x0018, Element: 0x1114}
	tagUltrasoundRegions      = tag.Tag{Group: 0x0018, Element: 0x6011}
	tagRegionMinX0            = tag.Tag{Group: 0x0018, Element: 0x6018}
	tagRegionMinY0            = tag.Tag{Group: 0x0018, Element: 0x601A}
	tagRegionMaxX1            = tag.Tag{Group: 0x0018, Element: 0x601C}
	tagRegionMaxY1            = tag.Tag{Group: 0x0018, Element: 0x601E}
	tagPhysicalUnitsX         = tag.Tag{Group: 0x0018, Element: 0x6024}
	tagPhysicalUnitsY         = tag.Tag{Group: 0x0018, Element: 0x6026}
	tagPhysicalDeltaX         = tag.Tag{Group: 0x0018, Element: 0x602C}
	tagPhysicalDeltaY         = tag.Tag{Group: 0x0018, Element: 0x602E}
)

// DICOMFile reads a descriptor from a single DICOM file. Pixel data is skipped.
type DICOMFile struct {
	Path string
}

// Descriptor implements Provider. The image ID defaults to the SOP Instance
// UID, or the file name when that is missing.
func (f *DICOMFile) Descriptor(ctx context.Context, imageID string) (spacing.Descriptor, error) {
	if err := ctx.Err(); err != nil {
		return spacing.Descriptor{}, err
	}

	ds, err := dicom.ParseFile(f.Path, nil, dicom.SkipPixelData())
	if err != nil {
		return spacing.Descriptor{}, &Error{Op: "parse", Path: f.Path, Err: err}
	}
	return descriptorFromDataset(&ds, imageID, f.Path), nil
}

func descriptorFromDataset(ds *dicom.Dataset, imageID, path string) spacing.Descriptor {
	d := spacing.Descriptor{ImageID: imageID}
	if d.ImageID == "" {
		d.ImageID = firstString(ds, tag.SOPInstanceUID)
	}
	if d.ImageID == "" {
		d.ImageID = filepath.Base(path)
	}

	plane := spacing.Plane{
		SOPClassUID:        firstString(ds, tag.SOPClassUID),
		PixelSpacing:       floats(ds, tag.PixelSpacing),
		ImagerPixelSpacing: floats(ds, tag.ImagerPixelSpacing),
	}
	if len(plane.PixelSpacing) >= 2 {
		plane.RowPixelSpacing = plane.PixelSpacing[0]
		plane.ColumnPixelSpacing = plane.PixelSpacing[1]
	}
	if v := floats(ds, tagEstimatedMagnification); len(v) > 0 {
		plane.EstimatedRadiographicMagnificationFactor = &v[0]
	}
	d.Plane = &plane

	d.Stored = spacing.Dimensions{
		Rows:    firstInt(ds, tag.Rows),
		Columns: firstInt(ds, tag.Columns),
	}
	d.UltrasoundRegions = ultrasoundRegions(ds)
	return d
}

func ultrasoundRegions(ds *dicom.Dataset) []spacing.UltrasoundRegion {
	el, err := ds.FindElementByTag(tagUltrasoundRegions)
	if err != nil {
		return nil
	}
	items, ok := el.Value.GetValue().([]*dicom.SequenceItemValue)
	if !ok {
		return nil
	}

	regions := make([]spacing.UltrasoundRegion, 0, len(items))
	for _, item := range items {
		elements, ok := item.GetValue().([]*dicom.Element)
		if !ok {
			continue
		}
		byTag := make(map[tag.Tag]*dicom.Element, len(elements))
		for _, e := range elements {
			byTag[e.Tag] = e
		}
		regions = append(regions, spacing.UltrasoundRegion{
			MinX0:          elementInt(byTag[tagRegionMinX0]),
			MinY0:          elementInt(byTag[tagRegionMinY0]),
			MaxX1:          elementInt(byTag[tagRegionMaxX1]),
			MaxY1:          elementInt(byTag[tagRegionMaxY1]),
			PhysicalUnitsX: elementInt(byTag[tagPhysicalUnitsX]),
			PhysicalUnitsY: elementInt(byTag[tagPhysicalUnitsY]),
			PhysicalDeltaX: firstFloat(elementFloats(byTag[tagPhysicalDeltaX])),
			PhysicalDeltaY: firstFloat(elementFloats(byTag[tagPhysicalDeltaY])),
		})
	}
	return regions
}

func firstString(ds *dicom.Dataset, t tag.Tag) string {
	el, err := ds.FindElementByTag(t)
	if err != nil {
		return ""
	}
	if v, ok := el.Value.GetValue().([]string); ok && len(v) > 0 {
		return strings.TrimRight(strings.TrimSpace(v[0]), "\x00")
	}
	return ""
}

func floats(ds *dicom.Dataset, t tag.Tag) []float64 {
	el, err := ds.FindElementByTag(t)
	if err != nil {
		return nil
	}
	return elementFloats(el)
}

func firstInt(ds *dicom.Dataset, t tag.Tag) int {
	el, err := ds.FindElementByTag(t)
	if err != nil {
		return 0
	}
	return elementInt(el)
}

// elementFloats reads numeric values; decimal strings (DS) are parsed.
func elementFloats(el *dicom.Element) []float64 {
	if el == nil || el.Value == nil {
		return nil
	}
	switch v := el.Value.GetValue().(type) {
	case []float64:
		return v
	case []int:
		out := make([]float64, len(v))
		for i, n := range v {
			out[i] = float64(n)
		}
		return out
	case []string:
		out := make([]float64, 0, len(v))
		for _, s := range v {
			f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimRight(s, "\x00")), 64)
			if err != nil {
				return nil
			}
			out = append(out, f)
		}
		return out
	}
	return nil
}

func elementInt(el *dicom.Element) int {
	if el == nil || el.Value == nil {
		return 0
	}
	switch v := el.Value.GetValue().(type) {
	case []int:
		if len(v) > 0 {
			return v[0]
		}
	case []string:
		if len(v) > 0 {
			n, err := strconv.Atoi(strings.TrimSpace(v[0]))
			if err == nil {
				return n
			}
		}
	case []float64:
		if len(v) > 0 {
			return int(v[0])
		}
	}
	return 0
}

func firstFloat(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return v[0]
}

// String describes the provider.
func (f *DICOMFile) String() string {
	return fmt.Sprintf("dicom:%s", f.Path)
}
