package cmd

import (
	"fmt"
	"io"

	"github.com/cockroachdb/apd/v3"
	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/pixspace/internal/uncertainty"
)

// DiagonalOutput is the output of the diagonal command.
type DiagonalOutput struct {
	Diagonal string `json:"diagonal" yaml:"diagonal"`
	Rounded  string `json:"rounded" yaml:"rounded"`
}

// diagonalCmd represents the diagonal command.
var diagonalCmd = &cobra.Command{
	Use:   "diagonal",
	Short: "Compute the diagonal of one pixel",
	Long: `Compute the diagonal of one pixel from its column and row spacing. The
diagonal is the uncertainty of a length measured on the image. Without a
column spacing the pixel diagonal sqrt(2) is returned.

Examples:
  pixspace diagonal --col 0.5 --row 0.5
  pixspace diagonal`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		col, _ := cmd.Flags().GetFloat64("col")
		row, _ := cmd.Flags().GetFloat64("row")

		calc := newCalculator(cfg)
		diag := calc.PixelDiagonal(col, row)
		if diag.Form != apd.Finite {
			return fmt.Errorf("%w: pixel spacing must be finite", uncertainty.ErrInvalidValue)
		}
		rounded, err := calc.RoundUncertainty(diag)
		if err != nil {
			return err
		}

		out := DiagonalOutput{Diagonal: uncertainty.Format(diag), Rounded: rounded.String()}
		return writeOutput(cmd, out, func(w io.Writer) error {
			_, err := fmt.Fprintf(w, "%s (%s)\n", out.Rounded, out.Diagonal)
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(diagonalCmd)
	diagonalCmd.Flags().Float64("col", 0, "column pixel spacing")
	diagonalCmd.Flags().Float64("row", 0, "row pixel spacing")
}
