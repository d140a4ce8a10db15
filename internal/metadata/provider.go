// Package metadata reads the image metadata needed to resolve pixel spacing
// from DICOM files, YAML descriptor files and display renditions.
package metadata

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/pixspace/internal/spacing"
)

// Provider looks up image descriptors by image ID.
type Provider interface {
	Descriptor(ctx context.Context, imageID string) (spacing.Descriptor, error)
}

// Open returns a provider for path. YAML files are read as descriptor
// documents, everything else as DICOM.
func Open(path string) (Provider, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAMLFile(path)
	case ".dcm", ".dicom":
		return &DICOMFile{Path: path}, nil
	}

	ok, err := isDICOM(path)
	if err != nil {
		return nil, &Error{Op: "open", Path: path, Err: err}
	}
	if !ok {
		return nil, &Error{Op: "open", Path: path, Err: fmt.Errorf("unsupported file type %q", filepath.Ext(path))}
	}
	return &DICOMFile{Path: path}, nil
}

// isDICOM checks for the DICM magic after the 128 byte preamble.
func isDICOM(path string) (bool, error) {
	f, err := os.Open(path) //nolint:gosec // G304: metadata files are user-provided paths
	if err != nil {
		return false, err
	}
	defer func() { _ = f.Close() }()

	header := make([]byte, 132)
	if _, err := io.ReadFull(f, header); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return false, nil
		}
		return false, err
	}
	return bytes.Equal(header[128:], []byte("DICM")), nil
}
