package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Formats lists the formats accepted by Format.
var Formats = []string{"text", "json", "yaml", "csv"}

// Format renders the result in one of Formats.
func (r *Result) Format(format string) (string, error) {
	switch format {
	case "json":
		return formatJSON(r)
	case "yaml":
		return formatYAML(r)
	case "csv":
		return formatCSV(r)
	case "text", "":
		return formatText(r), nil
	default:
		return "", fmt.Errorf("invalid batch format: %s (must be one of: %s)", format, strings.Join(Formats, ", "))
	}
}

// Save writes the formatted result to outputFile.
func (r *Result) Save(format, outputFile string) error {
	output, err := r.Format(format)
	if err != nil {
		return fmt.Errorf("failed to format results: %w", err)
	}
	if err := os.WriteFile(outputFile, []byte(output), 0o600); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

func formatJSON(r *Result) (string, error) {
	bts, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(bts) + "\n", nil
}

func formatYAML(r *Result) (string, error) {
	var b strings.Builder
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return b.String(), nil
}

// formatCSV writes one row per image.
func formatCSV(r *Result) (string, error) {
	var output strings.Builder
	writer := csv.NewWriter(&output)

	rows := [][]string{{
		"file", "image_id", "row_pixel_spacing", "col_pixel_spacing", "unit", "path",
		"length", "uncertainty", "error",
	}}
	for _, it := range r.Items {
		row := []string{it.File, it.ImageID, "", "", "", "", "", "", it.Error}
		if it.Spacing != nil {
			row[2] = strconv.FormatFloat(it.Spacing.RowPixelSpacing, 'g', -1, 64)
			row[3] = strconv.FormatFloat(it.Spacing.ColPixelSpacing, 'g', -1, 64)
			row[4] = it.Spacing.Unit.String()
			row[5] = string(it.Spacing.Path)
		}
		if it.Measurement != nil {
			row[6] = it.Measurement.Length
			row[7] = it.Measurement.Uncertainty
			row[4] = it.Measurement.Unit.String()
		}
		rows = append(rows, row)
	}

	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return "", err
		}
	}
	writer.Flush()
	return output.String(), writer.Error()
}

// formatText groups the images by file.
func formatText(r *Result) string {
	var output strings.Builder
	file := ""
	for _, it := range r.Items {
		if it.File != file {
			if file != "" {
				output.WriteString("\n")
			}
			file = it.File
			fmt.Fprintf(&output, "# %s\n", file)
		}

		id := it.ImageID
		if id == "" {
			id = "-"
		}
		switch {
		case it.Error != "":
			fmt.Fprintf(&output, "%s\terror: %s\n", id, it.Error)
		case it.Measurement != nil:
			fmt.Fprintf(&output, "%s\t%s ± %s %s\n", id, it.Measurement.Length, it.Measurement.Uncertainty, it.Measurement.Unit)
		case it.Spacing.HasSpacing():
			fmt.Fprintf(&output, "%s\trow=%g\tcol=%g\tunit=%s\n", id, it.Spacing.RowPixelSpacing, it.Spacing.ColPixelSpacing, it.Spacing.Unit)
		default:
			fmt.Fprintf(&output, "%s\tunit=%s\n", id, it.Spacing.Unit)
		}
	}
	return output.String()
}
