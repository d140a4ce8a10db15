package metadata

import (
	"context"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/pixspace/internal/spacing"
)

// Document is the layout of a YAML descriptor file:
//
//	images:
//	  img-1:
//	    plane:
//	      row_pixel_spacing: 0.5
//	      column_pixel_spacing: 0.5
type Document struct {
	Images map[string]spacing.Descriptor `yaml:"images"`
}

// YAMLFile is a provider backed by a YAML descriptor document.
type YAMLFile struct {
	Path string
	doc  Document
}

// LoadYAMLFile reads and parses the descriptor document at path.
func LoadYAMLFile(path string) (*YAMLFile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: descriptor files are user-provided paths
	if err != nil {
		return nil, &Error{Op: "read", Path: path, Err: err}
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &Error{Op: "parse", Path: path, Err: err}
	}
	for id, d := range doc.Images {
		if d.ImageID == "" {
			d.ImageID = id
			doc.Images[id] = d
		}
	}
	return &YAMLFile{Path: path, doc: doc}, nil
}

// IDs returns the image IDs in the document in sorted order.
func (f *YAMLFile) IDs() []string {
	ids := make([]string, 0, len(f.doc.Images))
	for id := range f.doc.Images {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Descriptor implements Provider. An empty imageID selects the only image
// of a single image document.
func (f *YAMLFile) Descriptor(ctx context.Context, imageID string) (spacing.Descriptor, error) {
	if err := ctx.Err(); err != nil {
		return spacing.Descriptor{}, err
	}

	if imageID == "" && len(f.doc.Images) == 1 {
		for _, d := range f.doc.Images {
			return d, nil
		}
	}

	d, ok := f.doc.Images[imageID]
	if !ok {
		return spacing.Descriptor{}, fmt.Errorf("%w: %q in %s", ErrNotFound, imageID, f.Path)
	}
	return d, nil
}

// WriteYAMLFile writes descriptors to path as a descriptor document.
func WriteYAMLFile(path string, descriptors ...spacing.Descriptor) error {
	doc := Document{Images: make(map[string]spacing.Descriptor, len(descriptors))}
	for _, d := range descriptors {
		doc.Images[d.ImageID] = d
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return &Error{Op: "marshal", Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return &Error{Op: "write", Path: path, Err: err}
	}
	return nil
}
