package batch

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/MeKo-Tech/pixspace/internal/spacing"
)

// DefaultPatterns select descriptor documents and DICOM files.
var DefaultPatterns = []string{"*.yaml", "*.yml", "*.dcm", "*.dicom"}

// Config holds all configuration for batch processing.
type Config struct {
	// File discovery settings
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// Workers is the number of files processed concurrently.
	Workers int

	// Rendition, when set, rescales every image to the size of this image file.
	Rendition string

	// Handles enable ultrasound regions and, when set, measure every image.
	Handles *spacing.Handles
}

// DefaultConfig returns a config that walks one directory level with one
// worker per CPU.
func DefaultConfig() *Config {
	return &Config{
		IncludePatterns: append([]string(nil), DefaultPatterns...),
		Workers:         runtime.NumCPU(),
	}
}

// Validate checks worker count and glob patterns.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return errors.New("workers must be at least 1")
	}
	for _, p := range append(append([]string(nil), c.IncludePatterns...), c.ExcludePatterns...) {
		if _, err := filepath.Match(p, ""); err != nil {
			return fmt.Errorf("invalid pattern %q: %w", p, err)
		}
	}
	return nil
}
