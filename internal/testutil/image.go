package testutil

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

// WriteRendition saves a grey width x height image to path. The format
// follows the file extension (png, jpg, bmp, tif).
func WriteRendition(t *testing.T, path string, width, height int) string {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	img := imaging.New(width, height, color.Gray{Y: 128})
	require.NoError(t, imaging.Save(img, path), "Failed to save rendition: %s", path)
	return path
}
