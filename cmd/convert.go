package main

import (
	"fmt"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/recipe-cli/internal/parse"
	"github.com/sells-group/recipe-cli/internal/units"
)

var (
	convertToUS bool
	convertFile string
	convertOut  string
)

var convertCmd = &cobra.Command{
	Use:   "convert [AMOUNT UNIT]",
	Short: "Convert between US customary and metric units",
	Long: `Converts a single quantity ("convert 1 cup", "convert 250 ml --to-us"),
or every ingredient of a recipe given with --file.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if convertFile != "" {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(2)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("offline"); err != nil {
			return err
		}
		toMetric := !convertToUS

		if convertFile != "" {
			r, err := readRecipe(convertFile, cmd.InOrStdin())
			if err != nil {
				return err
			}
			converted, err := units.ConvertRecipe(r, toMetric)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), convertOut, converted)
		}

		amount, err := parseAmountArg(args[0])
		if err != nil {
			return err
		}
		q := units.Convert(amount, args[1], toMetric)
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", units.FormatAmount(q.Amount), q.Unit)
		return nil
	},
}

// parseAmountArg accepts decimals and the fraction forms the ingredient
// parser understands ("1/2", "1 1/2", "½").
func parseAmountArg(s string) (float64, error) {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}
	v, ok := parse.TryParseAmount(s, parse.LowerBound)
	if !ok {
		return 0, eris.Errorf("invalid amount %q", s)
	}
	return v, nil
}

func init() {
	convertCmd.Flags().BoolVar(&convertToUS, "to-us", false, "convert metric to US customary (default is US to metric)")
	convertCmd.Flags().StringVarP(&convertFile, "file", "f", "", "convert every ingredient of this recipe file (- for stdin)")
	convertCmd.Flags().StringVarP(&convertOut, "output", "o", "json", "output format for --file: json or yaml")
	rootCmd.AddCommand(convertCmd)
}
