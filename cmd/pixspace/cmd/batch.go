package cmd

import (
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/pixspace/internal/batch"
	"github.com/MeKo-Tech/pixspace/internal/config"
	"github.com/MeKo-Tech/pixspace/internal/measurement"
)

var batchCmd = &cobra.Command{
	Use:   "batch <files or directories...>",
	Short: "Resolve or measure the images of many files in parallel",
	Long: `Resolve the pixel spacing of every image in descriptor documents and DICOM
files. Directories are searched for *.yaml, *.yml, *.dcm and *.dicom files.
With --start and --end every image is also measured.

Files that cannot be read are reported per file and do not stop the batch.

Examples:
  pixspace batch studies/ --recursive --workers 8
  pixspace batch a.dcm b.dcm --format csv --output-file spacing.csv
  pixspace batch study.yaml --start 0,0 --end 100,0 --format json`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		batchConfig, err := configToBatchConfig(cfg, cmd)
		if err != nil {
			return err
		}

		resolver, _, err := newResolver(cfg)
		if err != nil {
			return err
		}
		processor := batch.NewProcessor(resolver, measurement.New(resolver, newCalculator(cfg)))

		result, err := processor.Process(cmd.Context(), args, batchConfig)
		if err != nil {
			return err
		}

		format := cfg.Output.Format
		if cmd.Flags().Changed("format") {
			format, _ = cmd.Flags().GetString("format")
		}

		outputFile, _ := cmd.Flags().GetString("output-file")
		if outputFile != "" {
			if err := result.Save(format, outputFile); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Results written to %s\n", outputFile)
		} else {
			out, err := result.Format(format)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), out)
		}

		slog.Info("Batch complete",
			"files", len(result.Files),
			"images", len(result.Items),
			"failed", result.Failed(),
			"workers", result.WorkerCount,
			"duration", result.Duration.Round(time.Millisecond))
		return nil
	},
}

// configToBatchConfig merges the batch section of the configuration with flags.
func configToBatchConfig(cfg *config.Config, cmd *cobra.Command) (*batch.Config, error) {
	batchConfig := batch.DefaultConfig()

	batchConfig.Workers = cfg.Batch.Workers
	if cmd.Flags().Changed("workers") {
		batchConfig.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if batchConfig.Workers == 0 {
		batchConfig.Workers = runtime.NumCPU()
	}

	batchConfig.Recursive = cfg.Batch.Recursive
	if cmd.Flags().Changed("recursive") {
		batchConfig.Recursive, _ = cmd.Flags().GetBool("recursive")
	}

	if cmd.Flags().Changed("include") {
		batchConfig.IncludePatterns, _ = cmd.Flags().GetStringSlice("include")
	}
	batchConfig.ExcludePatterns, _ = cmd.Flags().GetStringSlice("exclude")
	batchConfig.Rendition, _ = cmd.Flags().GetString("rendition")

	handles, ok, err := handlesFromFlags(cmd)
	if err != nil {
		return nil, err
	}
	if ok {
		batchConfig.Handles = &handles
	}

	return batchConfig, nil
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntP("workers", "w", 0, "number of files processed in parallel (0 = one per CPU)")
	batchCmd.Flags().BoolP("recursive", "r", false, "search directories recursively")
	batchCmd.Flags().StringSlice("include", batch.DefaultPatterns, "file patterns to include")
	batchCmd.Flags().StringSlice("exclude", nil, "file patterns to exclude")
	batchCmd.Flags().String("format", "text", "batch output format (text, json, yaml, csv)")
	batchCmd.Flags().String("output-file", "", "write results to this file instead of stdout")
	batchCmd.Flags().String("rendition", "", "display rendition whose size the handles refer to")
	addHandleFlags(batchCmd)
}
