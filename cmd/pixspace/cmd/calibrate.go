package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/pixspace/internal/calibration"
)

var errNoCalibrationFile = errors.New("no calibration file configured (use --calibrations or calibration.file)")

// calibrateCmd groups the calibration subcommands.
var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Manage manual calibrations",
	Long: `Manage manual calibrations of images. Calibrations are kept in the YAML
file given by --calibrations or calibration.file and are applied by resolve
and measure.

Examples:
  pixspace calibrate set ct-1 1.25 --calibrations cal.yaml
  pixspace calibrate set ct-1 --measured 40 --known 50 --calibrations cal.yaml
  pixspace calibrate reset ct-1 --calibrations cal.yaml
  pixspace calibrate show --calibrations cal.yaml`,
}

var calibrateSetCmd = &cobra.Command{
	Use:   "set <image-id> [factor]",
	Short: "Calibrate an image with a factor or a reference length",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		measured, _ := cmd.Flags().GetFloat64("measured")
		known, _ := cmd.Flags().GetFloat64("known")

		var factor float64
		switch {
		case len(args) == 2:
			f, err := strconv.ParseFloat(args[1], 64)
			if err != nil || f <= 0 {
				return fmt.Errorf("%w: factor %q", calibration.ErrInvalidReference, args[1])
			}
			factor = f
		case cmd.Flags().Changed("measured") || cmd.Flags().Changed("known"):
			f, err := calibration.FactorFromReference(measured, known)
			if err != nil {
				return err
			}
			factor = f
		default:
			return errors.New("a factor or --measured and --known are required")
		}

		return updateCalibrations(cmd, func(s *calibration.Store) {
			s.Calibrate(args[0], factor)
			slog.Info("Calibrated image", "image_id", args[0], "factor", factor)
		})
	},
}

var calibrateResetCmd = &cobra.Command{
	Use:   "reset <image-id>",
	Short: "Reset the calibration of an image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateCalibrations(cmd, func(s *calibration.Store) {
			s.Reset(args[0])
		})
	},
}

var calibrateClearCmd = &cobra.Command{
	Use:   "clear [image-id]",
	Short: "Remove the calibration of an image, or all with --all",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if len(args) == 0 && !all {
			return errors.New("an image id or --all is required")
		}
		return updateCalibrations(cmd, func(s *calibration.Store) {
			if all {
				s.ClearAll()
				return
			}
			s.Clear(args[0])
		})
	},
}

var calibrateShowCmd = &cobra.Command{
	Use:   "show [image-id]",
	Short: "Show calibrations",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadCalibrations(GetConfig())
		if err != nil {
			return err
		}
		return writeCalibrations(cmd, store, args)
	},
}

// updateCalibrations loads the calibration file, applies update, saves it and
// prints the result.
func updateCalibrations(cmd *cobra.Command, update func(*calibration.Store)) error {
	cfg := GetConfig()
	if cfg.Calibration.File == "" {
		return errNoCalibrationFile
	}

	store, err := calibration.LoadFile(cfg.Calibration.File)
	if err != nil {
		return err
	}
	update(store)
	if err := store.SaveFile(cfg.Calibration.File); err != nil {
		return err
	}
	return writeCalibrations(cmd, store, nil)
}

func writeCalibrations(cmd *cobra.Command, store *calibration.Store, ids []string) error {
	snap := store.Snapshot()
	if len(ids) > 0 {
		selected := calibration.Snapshot{Calibrations: map[string]calibration.Entry{}}
		for _, id := range ids {
			if e, ok := snap.Calibrations[id]; ok {
				selected.Calibrations[id] = e
			}
		}
		snap = selected
	} else {
		ids = store.IDs()
	}

	return writeOutput(cmd, snap, func(w io.Writer) error {
		for _, id := range ids {
			e, ok := snap.Calibrations[id]
			if !ok {
				continue
			}
			if _, err := fmt.Fprintf(w, "%s\tfactor=%g\treset=%t\tfirst=%t\tcount=%d\n",
				id, e.Factor, e.Reset, e.FirstCalibration, e.Count); err != nil {
				return err
			}
		}
		return nil
	})
}

func init() {
	rootCmd.AddCommand(calibrateCmd)
	calibrateCmd.AddCommand(calibrateSetCmd, calibrateResetCmd, calibrateClearCmd, calibrateShowCmd)

	calibrateSetCmd.Flags().Float64("measured", 0, "measured length of a reference object")
	calibrateSetCmd.Flags().Float64("known", 0, "known length of the reference object")
	calibrateClearCmd.Flags().Bool("all", false, "remove all calibrations")
}
