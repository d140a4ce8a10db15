package batch

import (
	"context"
	"log/slog"
	"sync"

	"github.com/MeKo-Tech/pixspace/internal/metadata"
	"github.com/MeKo-Tech/pixspace/internal/spacing"
)

// processParallel fans files out to config.Workers workers.
func (p *Processor) processParallel(ctx context.Context, files []string, config *Config) ([]Item, error) {
	workers := config.Workers
	if workers > len(files) {
		workers = len(files)
	}

	perFile := make([][]Item, len(files))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				perFile[i] = p.processFile(ctx, files[i], config)
			}
		}()
	}

	func() {
		defer close(jobs)
		for i := range files {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var items []Item
	for _, fileItems := range perFile {
		items = append(items, fileItems...)
	}
	return items, nil
}

// processFile handles every image of one file.
func (p *Processor) processFile(ctx context.Context, path string, config *Config) []Item {
	descriptors, err := loadFile(ctx, path)
	if err != nil {
		slog.Warn("Skipping file", "file", path, "error", err)
		return []Item{{File: path, Error: err.Error()}}
	}

	items := make([]Item, 0, len(descriptors))
	for _, d := range descriptors {
		items = append(items, p.processImage(path, d, config))
	}
	slog.Debug("Processed file", "file", path, "images", len(items))
	return items
}

func (p *Processor) processImage(path string, d spacing.Descriptor, config *Config) Item {
	item := Item{File: path, ImageID: d.ImageID}

	if config.Rendition != "" {
		var err error
		if d, err = metadata.ApplyRendition(d, config.Rendition); err != nil {
			item.Error = err.Error()
			return item
		}
	}

	res := p.resolver.Resolve(d, config.Handles)
	item.Spacing = &res

	if config.Handles != nil {
		m, err := p.measurer.Measure(d, *config.Handles)
		if err != nil {
			item.Error = err.Error()
			return item
		}
		item.Measurement = &m
	}
	return item
}

// loadFile returns all images of a descriptor document, or the single image
// of a DICOM file.
func loadFile(ctx context.Context, path string) ([]spacing.Descriptor, error) {
	provider, err := metadata.Open(path)
	if err != nil {
		return nil, err
	}

	ids := []string{""}
	if f, ok := provider.(*metadata.YAMLFile); ok {
		ids = f.IDs()
	}

	descriptors := make([]spacing.Descriptor, 0, len(ids))
	for _, id := range ids {
		d, err := provider.Descriptor(ctx, id)
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, nil
}
