package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/pixspace/internal/calibration"
	"github.com/MeKo-Tech/pixspace/internal/config"
	"github.com/MeKo-Tech/pixspace/internal/metadata"
	"github.com/MeKo-Tech/pixspace/internal/spacing"
	"github.com/MeKo-Tech/pixspace/internal/uncertainty"
)

func addDescriptorFlags(cmd *cobra.Command) {
	cmd.Flags().String("image-id", "", "image to select from a descriptor file")
	cmd.Flags().String("rendition", "", "display rendition whose size the handles refer to")
	cmd.Flags().String("sop-class", "", "SOP Class UID when no file is given")
	cmd.Flags().String("pixel-spacing", "", "Pixel Spacing as row,column when no file is given")
	cmd.Flags().String("imager-pixel-spacing", "", "Imager Pixel Spacing as row,column when no file is given")
	cmd.Flags().Float64("magnification", 0, "Estimated Radiographic Magnification Factor when no file is given")
}

// loadDescriptors returns the descriptors selected by the arguments: every
// image of a descriptor file without --image-id, one image otherwise, or a
// descriptor built from flags when no file is given.
func loadDescriptors(ctx context.Context, cmd *cobra.Command, args []string) ([]spacing.Descriptor, error) {
	imageID, _ := cmd.Flags().GetString("image-id")
	rendition, _ := cmd.Flags().GetString("rendition")

	var descriptors []spacing.Descriptor
	if len(args) == 0 {
		d, err := descriptorFromFlags(cmd)
		if err != nil {
			return nil, err
		}
		d.ImageID = imageID
		descriptors = append(descriptors, d)
	} else {
		provider, err := metadata.Open(args[0])
		if err != nil {
			return nil, err
		}

		ids := []string{imageID}
		if f, ok := provider.(*metadata.YAMLFile); ok && imageID == "" {
			ids = f.IDs()
		}
		for _, id := range ids {
			d, err := provider.Descriptor(ctx, id)
			if err != nil {
				return nil, err
			}
			descriptors = append(descriptors, d)
		}
	}

	if rendition != "" {
		for i := range descriptors {
			d, err := metadata.ApplyRendition(descriptors[i], rendition)
			if err != nil {
				return nil, err
			}
			descriptors[i] = d
		}
	}

	slog.Debug("Loaded descriptors", "count", len(descriptors))
	return descriptors, nil
}

func descriptorFromFlags(cmd *cobra.Command) (spacing.Descriptor, error) {
	sop, _ := cmd.Flags().GetString("sop-class")
	px, _ := cmd.Flags().GetString("pixel-spacing")
	imager, _ := cmd.Flags().GetString("imager-pixel-spacing")

	plane := spacing.Plane{SOPClassUID: sop}
	var err error
	if plane.PixelSpacing, err = parseSpacing(px); err != nil {
		return spacing.Descriptor{}, fmt.Errorf("invalid --pixel-spacing: %w", err)
	}
	if plane.ImagerPixelSpacing, err = parseSpacing(imager); err != nil {
		return spacing.Descriptor{}, fmt.Errorf("invalid --imager-pixel-spacing: %w", err)
	}
	if len(plane.PixelSpacing) > 0 {
		plane.RowPixelSpacing, plane.ColumnPixelSpacing = plane.PixelSpacing[0], plane.PixelSpacing[len(plane.PixelSpacing)-1]
	}
	if len(plane.ImagerPixelSpacing) > 0 {
		plane.RowImagePixelSpacing = plane.ImagerPixelSpacing[0]
		plane.ColumnImagePixelSpacing = plane.ImagerPixelSpacing[len(plane.ImagerPixelSpacing)-1]
	}
	if cmd.Flags().Changed("magnification") {
		m, _ := cmd.Flags().GetFloat64("magnification")
		plane.EstimatedRadiographicMagnificationFactor = &m
	}

	return spacing.Descriptor{Plane: &plane}, nil
}

// parseSpacing parses "row,column" or a single value.
func parseSpacing(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) > 2 {
		return nil, fmt.Errorf("%q has more than two values", s)
	}
	values := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// loadCalibrations opens the configured calibration file, or an empty store.
func loadCalibrations(cfg *config.Config) (*calibration.Store, error) {
	if cfg.Calibration.File == "" {
		return calibration.NewStore(), nil
	}
	return calibration.LoadFile(cfg.Calibration.File)
}

// newResolver builds a resolver that honours the configured calibrations.
func newResolver(cfg *config.Config) (*spacing.Resolver, *calibration.Store, error) {
	store, err := loadCalibrations(cfg)
	if err != nil {
		return nil, nil, err
	}
	return spacing.NewResolver(spacing.WithCalibrations(store)), store, nil
}

func newCalculator(cfg *config.Config) *uncertainty.Calculator {
	return uncertainty.NewCalculator(cfg.Decimal.Precision)
}
