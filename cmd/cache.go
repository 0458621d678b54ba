package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/recipe-cli/internal/pipeline"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the extracted-recipe cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached recipe from memory and the durable store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("cache"); err != nil {
			return err
		}
		kv, rc, err := initStoreAndCache(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		if kv != nil {
			defer kv.Close()
		}

		n, err := rc.Clear(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d cached recipes\n", n)
		return nil
	},
}

var cacheDeleteCmd = &cobra.Command{
	Use:   "delete URL",
	Short: "Forget the cached recipe for one URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("cache"); err != nil {
			return err
		}
		key, err := pipeline.ValidateURL(args[0])
		if err != nil {
			return err
		}
		kv, rc, err := initStoreAndCache(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		if kv != nil {
			defer kv.Close()
		}

		rc.Delete(cmd.Context(), key)
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", key)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd, cacheDeleteCmd)
	rootCmd.AddCommand(cacheCmd)
}
