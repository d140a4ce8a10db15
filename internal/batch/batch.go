// Package batch resolves and measures the images of many descriptor and
// DICOM files concurrently.
package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MeKo-Tech/pixspace/internal/measurement"
	"github.com/MeKo-Tech/pixspace/internal/spacing"
)

// Item is the outcome for one image. Error is set instead of Spacing when the
// file or image could not be read.
type Item struct {
	File        string              `json:"file" yaml:"file"`
	ImageID     string              `json:"image_id,omitempty" yaml:"image_id,omitempty"`
	Spacing     *spacing.Result     `json:"spacing,omitempty" yaml:"spacing,omitempty"`
	Measurement *measurement.Result `json:"measurement,omitempty" yaml:"measurement,omitempty"`
	Error       string              `json:"error,omitempty" yaml:"error,omitempty"`
}

// Result holds the result of batch processing.
type Result struct {
	Items       []Item        `json:"images" yaml:"images"`
	Files       []string      `json:"files" yaml:"files"`
	Duration    time.Duration `json:"duration_ns" yaml:"duration"`
	WorkerCount int           `json:"workers" yaml:"workers"`
}

// Failed counts the items that carry an error.
func (r *Result) Failed() int {
	n := 0
	for _, it := range r.Items {
		if it.Error != "" {
			n++
		}
	}
	return n
}

// Processor resolves, and with handles measures, the images of a batch.
type Processor struct {
	resolver *spacing.Resolver
	measurer *measurement.Measurer
}

// NewProcessor creates a processor. measurer may be nil when no handles are used.
func NewProcessor(resolver *spacing.Resolver, measurer *measurement.Measurer) *Processor {
	if resolver == nil {
		resolver = spacing.NewResolver()
	}
	return &Processor{resolver: resolver, measurer: measurer}
}

// Process discovers the files named by paths and processes them with
// config.Workers goroutines. Items keep the order of the discovered files.
// Failures of single files are reported per item; Process itself only fails
// on discovery errors or when ctx is cancelled.
func (p *Processor) Process(ctx context.Context, paths []string, config *Config) (*Result, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Handles != nil && p.measurer == nil {
		return nil, errors.New("handles require a measurer")
	}

	files, err := discoverFiles(paths, config.Recursive, config.IncludePatterns, config.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}
	if len(files) == 0 {
		return nil, errors.New("no descriptor or DICOM files found")
	}

	startTime := time.Now()
	items, err := p.processParallel(ctx, files, config)
	if err != nil {
		return nil, fmt.Errorf("batch processing failed: %w", err)
	}

	return &Result{
		Items:       items,
		Files:       files,
		Duration:    time.Since(startTime),
		WorkerCount: config.Workers,
	}, nil
}
