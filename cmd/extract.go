package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/recipe-cli/internal/pipeline"
	"github.com/sells-group/recipe-cli/internal/scale"
	"github.com/sells-group/recipe-cli/internal/units"
)

var (
	extractOutput      string
	extractConcurrency int
	extractServings    int
	extractMetric      bool
	extractSummary     bool
)

// extractItem is one URL's outcome in multi-URL output.
type extractItem struct {
	URL    string               `json:"url" yaml:"url"`
	Error  string               `json:"error,omitempty" yaml:"error,omitempty"`
	Result *pipeline.Extraction `json:"result,omitempty" yaml:"result,omitempty"`
}

var extractCmd = &cobra.Command{
	Use:   "extract URL [URL...]",
	Short: "Extract normalized recipes from web pages",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, "extract")
		if err != nil {
			return err
		}
		defer env.Close()

		items := runExtractions(ctx, env.Pipeline, args, extractConcurrency, postProcess{Servings: extractServings, Metric: extractMetric})

		out := cmd.OutOrStdout()
		switch {
		case extractSummary:
			for _, it := range items {
				if it.Error != "" {
					fmt.Fprintf(out, "%s: %s\n\n", it.URL, it.Error)
					continue
				}
				printSummary(out, it.Result.Recipe)
				fmt.Fprintln(out)
			}
		case len(items) == 1:
			if items[0].Error != "" {
				return eris.New(items[0].Error)
			}
			if err := writeOutput(out, extractOutput, items[0].Result.Recipe); err != nil {
				return err
			}
		default:
			if err := writeOutput(out, extractOutput, items); err != nil {
				return err
			}
		}

		failed := 0
		for _, it := range items {
			if it.Error != "" {
				failed++
			}
		}
		if failed > 0 {
			return eris.Errorf("%d of %d extractions failed", failed, len(items))
		}
		return nil
	},
}

// runExtractions extracts every URL with bounded concurrency. Results keep
// the input order; per-URL failures are recorded, not returned.
func runExtractions(ctx context.Context, p *pipeline.Pipeline, urls []string, concurrency int, post postProcess) []extractItem {
	items := make([]extractItem, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, concurrency))

	for i, u := range urls {
		g.Go(func() error {
			items[i] = extractOne(gctx, p, u, post)
			return nil
		})
	}
	_ = g.Wait()
	return items
}

// postProcess is applied to each extracted recipe.
type postProcess struct {
	Servings int // 0 keeps the extracted servings
	Metric   bool
}

func extractOne(ctx context.Context, p *pipeline.Pipeline, url string, post postProcess) extractItem {
	item := extractItem{URL: url}

	ext, err := p.Extract(ctx, url)
	if err != nil {
		zap.L().Warn("extract failed", zap.String("url", url), zap.Error(err))
		item.Error = describeError(err)
		return item
	}

	r := ext.Recipe
	if post.Servings > 0 {
		if r, err = scale.Recipe(r, post.Servings); err != nil {
			item.Error = err.Error()
			return item
		}
	}
	if post.Metric {
		if r, err = units.ConvertRecipe(r, true); err != nil {
			item.Error = err.Error()
			return item
		}
	}
	ext.Recipe = r
	item.Result = ext
	return item
}

// describeError maps pipeline failures onto short user-facing messages.
func describeError(err error) string {
	switch classify(err) {
	case errKindInvalidURL:
		return "invalid URL: " + err.Error()
	case errKindFetch:
		return "couldn't read that page: " + err.Error()
	case errKindNoRecipe:
		return "couldn't find a recipe on that page: " + err.Error()
	case errKindValidation:
		return "that recipe came back malformed: " + err.Error()
	}
	if errors.Is(err, context.Canceled) {
		return "cancelled"
	}
	return err.Error()
}

func init() {
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "json", "output format: json or yaml")
	extractCmd.Flags().IntVar(&extractConcurrency, "concurrency", 4, "maximum URLs extracted in parallel")
	extractCmd.Flags().IntVar(&extractServings, "servings", 0, "rescale to this many servings")
	extractCmd.Flags().BoolVar(&extractMetric, "metric", false, "convert ingredient units to metric")
	extractCmd.Flags().BoolVar(&extractSummary, "summary", false, "print a readable summary instead of structured output")
	rootCmd.AddCommand(extractCmd)
}
