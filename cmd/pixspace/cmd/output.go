package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/pixspace/internal/config"
	"github.com/MeKo-Tech/pixspace/internal/spacing"
)

const (
	outputFormatText = "text"
	outputFormatJSON = "json"
	outputFormatYAML = "yaml"
)

// writeOutput writes v in the configured output format. text renders the
// text form; json and yaml encode v.
func writeOutput(cmd *cobra.Command, v interface{}, text func(w io.Writer) error) error {
	format := GetConfig().Output.Format
	w := cmd.OutOrStdout()

	switch format {
	case outputFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputFormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case outputFormatText, "":
		return text(w)
	default:
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", format, strings.Join(config.OutputFormats, ", "))
	}
}

// parsePoint parses an "x,y" coordinate.
func parsePoint(s string) (spacing.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return spacing.Point{}, fmt.Errorf("invalid point %q (want x,y)", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return spacing.Point{}, fmt.Errorf("invalid point %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return spacing.Point{}, fmt.Errorf("invalid point %q: %w", s, err)
	}
	return spacing.Point{X: x, Y: y}, nil
}

// handlesFromFlags reads --start and --end. ok is false when neither is set.
func handlesFromFlags(cmd *cobra.Command) (h spacing.Handles, ok bool, err error) {
	start, _ := cmd.Flags().GetString("start")
	end, _ := cmd.Flags().GetString("end")
	if start == "" && end == "" {
		return spacing.Handles{}, false, nil
	}
	if start == "" || end == "" {
		return spacing.Handles{}, false, fmt.Errorf("--start and --end must be given together")
	}
	if h.Start, err = parsePoint(start); err != nil {
		return spacing.Handles{}, false, err
	}
	if h.End, err = parsePoint(end); err != nil {
		return spacing.Handles{}, false, err
	}
	return h, true, nil
}

func addHandleFlags(cmd *cobra.Command) {
	cmd.Flags().String("start", "", "first handle as x,y in displayed pixels")
	cmd.Flags().String("end", "", "second handle as x,y in displayed pixels")
}
