package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/pixspace/internal/spacing"
)

// ResolvedImage is the output of the resolve command for one image.
type ResolvedImage struct {
	ImageID string         `json:"image_id" yaml:"image_id"`
	Spacing spacing.Result `json:"spacing" yaml:"spacing"`
}

// resolveCmd represents the resolve command.
var resolveCmd = &cobra.Command{
	Use:   "resolve [descriptor.yaml|image.dcm]",
	Short: "Resolve the pixel spacing of images",
	Long: `Resolve the row and column pixel spacing of one or more images and the unit
that states how far the spacing can be trusted.

Without a file the image is described by flags.

Examples:
  pixspace resolve study.yaml
  pixspace resolve study.yaml --image-id cr-1 --output json
  pixspace resolve image.dcm --rendition preview.png
  pixspace resolve --sop-class 1.2.840.10008.5.1.4.1.1.1 --pixel-spacing 0.2,0.2 --imager-pixel-spacing 0.1,0.1`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		handles, hasHandles, err := handlesFromFlags(cmd)
		if err != nil {
			return err
		}

		descriptors, err := loadDescriptors(cmd.Context(), cmd, args)
		if err != nil {
			return err
		}

		resolver, _, err := newResolver(cfg)
		if err != nil {
			return err
		}

		results := make([]ResolvedImage, 0, len(descriptors))
		for _, d := range descriptors {
			var h *spacing.Handles
			if hasHandles {
				h = &handles
			}
			results = append(results, ResolvedImage{ImageID: d.ImageID, Spacing: resolver.Resolve(d, h)})
		}

		return writeOutput(cmd, results, func(w io.Writer) error {
			for _, r := range results {
				if err := writeResolvedText(w, r); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

func writeResolvedText(w io.Writer, r ResolvedImage) error {
	id := r.ImageID
	if id == "" {
		id = "-"
	}
	if !r.Spacing.HasSpacing() {
		_, err := fmt.Fprintf(w, "%s\tunit=%s\tpath=%s\n", id, r.Spacing.Unit, r.Spacing.Path)
		return err
	}
	_, err := fmt.Fprintf(w, "%s\trow=%g\tcol=%g\tunit=%s\tpath=%s\n",
		id, r.Spacing.RowPixelSpacing, r.Spacing.ColPixelSpacing, r.Spacing.Unit, r.Spacing.Path)
	return err
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	addDescriptorFlags(resolveCmd)
	addHandleFlags(resolveCmd)
}
