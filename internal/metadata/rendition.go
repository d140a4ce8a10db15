package metadata

import (
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/MeKo-Tech/pixspace/internal/spacing"
)

// ApplyRendition sets the displayed dimensions of d from the image at path.
// EXIF orientation is applied first, so a rotated JPEG reports the size it
// is shown at.
func ApplyRendition(d spacing.Descriptor, path string) (spacing.Descriptor, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return d, &Error{Op: "rendition", Path: path, Err: err}
	}

	b := img.Bounds()
	d.Displayed = spacing.Dimensions{Rows: b.Dy(), Columns: b.Dx()}
	return d, nil
}
