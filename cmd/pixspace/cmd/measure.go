package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/pixspace/internal/measurement"
)

// MeasuredImage is the output of the measure command for one image.
type MeasuredImage struct {
	ImageID     string             `json:"image_id" yaml:"image_id"`
	Measurement measurement.Result `json:"measurement" yaml:"measurement"`
}

// measureCmd represents the measure command.
var measureCmd = &cobra.Command{
	Use:   "measure [descriptor.yaml|image.dcm] --start x,y --end x,y",
	Short: "Measure a length between two handles",
	Long: `Measure the distance between two handles and round it to the precision the
pixel spacing supports. The uncertainty is the diagonal of one pixel. Images
without a physical spacing are measured in pixels.

Examples:
  pixspace measure image.dcm --start 10,10 --end 120,80
  pixspace measure study.yaml --image-id us-1 --start 120,300 --end 180,420
  pixspace measure --pixel-spacing 0.5,0.5 --start 0,0 --end 30,40`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		handles, ok, err := handlesFromFlags(cmd)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("--start and --end are required")
		}

		descriptors, err := loadDescriptors(cmd.Context(), cmd, args)
		if err != nil {
			return err
		}

		resolver, _, err := newResolver(cfg)
		if err != nil {
			return err
		}
		m := measurement.New(resolver, newCalculator(cfg))

		results := make([]MeasuredImage, 0, len(descriptors))
		for _, d := range descriptors {
			res, err := m.Measure(d, handles)
			if err != nil {
				return fmt.Errorf("failed to measure %s: %w", d.ImageID, err)
			}
			results = append(results, MeasuredImage{ImageID: d.ImageID, Measurement: res})
		}

		return writeOutput(cmd, results, func(w io.Writer) error {
			for _, r := range results {
				id := r.ImageID
				if id == "" {
					id = "-"
				}
				if _, err := fmt.Fprintf(w, "%s\t%s ± %s %s\n",
					id, r.Measurement.Length, r.Measurement.Uncertainty, r.Measurement.Unit); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(measureCmd)
	addDescriptorFlags(measureCmd)
	addHandleFlags(measureCmd)
}
