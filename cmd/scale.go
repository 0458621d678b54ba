package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/recipe-cli/internal/model"
	"github.com/sells-group/recipe-cli/internal/scale"
)

var (
	scaleFile     string
	scaleServings int
	scaleOutput   string
	scaleDiff     bool
)

var scaleCmd = &cobra.Command{
	Use:   "scale",
	Short: "Rescale a recipe to a new number of servings",
	Long:  "Reads a recipe (JSON or YAML, from --file or stdin) and multiplies every ingredient amount by new/old servings.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("offline"); err != nil {
			return err
		}

		r, err := readRecipe(scaleFile, cmd.InOrStdin())
		if err != nil {
			return err
		}

		scaled, err := scale.Recipe(r, scaleServings)
		if err != nil {
			return err
		}

		if scaleDiff {
			for _, line := range model.Diff(r, scaled) {
				fmt.Fprintln(cmd.ErrOrStderr(), line)
			}
		}
		return writeOutput(cmd.OutOrStdout(), scaleOutput, scaled)
	},
}

func init() {
	scaleCmd.Flags().StringVarP(&scaleFile, "file", "f", "-", "recipe file, or - for stdin")
	scaleCmd.Flags().IntVarP(&scaleServings, "servings", "s", 0, "target number of servings")
	scaleCmd.Flags().StringVarP(&scaleOutput, "output", "o", "json", "output format: json or yaml")
	scaleCmd.Flags().BoolVar(&scaleDiff, "diff", false, "print a change summary to stderr")
	_ = scaleCmd.MarkFlagRequired("servings")
	rootCmd.AddCommand(scaleCmd)
}
