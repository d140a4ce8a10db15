package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/pixspace/internal/uncertainty"
)

// RoundOutput is the output of the round command.
type RoundOutput struct {
	Value       string `json:"value" yaml:"value"`
	Uncertainty string `json:"uncertainty,omitempty" yaml:"uncertainty,omitempty"`
	Places      int32  `json:"places" yaml:"places"`
	Multiple    string `json:"multiple,omitempty" yaml:"multiple,omitempty"`
}

// roundCmd represents the round command.
var roundCmd = &cobra.Command{
	Use:   "round <value> [uncertainty]",
	Short: "Round a value to the precision of its uncertainty",
	Long: `Round a value to the significant figures of its uncertainty using exact
decimal arithmetic. Both arguments are read as decimals, so no binary
floating point error enters the result.

Without an uncertainty the value is rounded by its magnitude.

Examples:
  pixspace round 291.9878225987628 0.02595339539885377778
  pixspace round 1234.5 50 --output json
  pixspace round 3.14159`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		calc := newCalculator(cfg)

		value, err := uncertainty.Parse(args[0])
		if err != nil {
			return err
		}

		var (
			out     RoundOutput
			rounded uncertainty.Rounded
		)
		if len(args) == 1 {
			rounded, err = calc.GenericRounding(value)
			if err != nil {
				return err
			}
		} else {
			u, err := uncertainty.Parse(args[1])
			if err != nil {
				return fmt.Errorf("%w: %v", uncertainty.ErrInvalidUncertainty, err)
			}
			rounded, err = calc.RoundToUncertainty(value, u)
			if err != nil {
				return err
			}
			ru, err := calc.RoundUncertainty(u)
			if err != nil {
				return err
			}
			out.Uncertainty = ru.String()
		}

		out.Value = rounded.String()
		out.Places = rounded.Places
		if rounded.Multiple != nil {
			out.Multiple = uncertainty.Format(rounded.Multiple)
		}

		return writeOutput(cmd, out, func(w io.Writer) error {
			if out.Uncertainty == "" {
				_, err := fmt.Fprintln(w, out.Value)
				return err
			}
			_, err := fmt.Fprintf(w, "%s ± %s\n", out.Value, out.Uncertainty)
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(roundCmd)
}
