package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/recipe-cli/internal/model"
	"github.com/sells-group/recipe-cli/internal/units"
)

// writeOutput encodes v as "json" (indented) or "yaml".
func writeOutput(w io.Writer, format string, v any) error {
	switch strings.ToLower(format) {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(v), "encode json")
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		return eris.Wrap(enc.Close(), "encode yaml")
	default:
		return eris.Errorf("unknown output format %q (want json or yaml)", format)
	}
}

// readRecipe decodes a recipe from path ("-" for stdin). YAML is a superset
// of JSON, so one decoder handles both.
func readRecipe(path string, stdin io.Reader) (*model.Recipe, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "read recipe %s", path)
	}

	var r model.Recipe
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, eris.Wrapf(err, "decode recipe %s", path)
	}
	if err := r.Validate(); err != nil {
		return nil, eris.Wrap(err, "invalid recipe")
	}
	return &r, nil
}

// printSummary writes a human-readable rendering of r.
func printSummary(w io.Writer, r *model.Recipe) {
	fmt.Fprintf(w, "%s\n", r.Title)
	fmt.Fprintf(w, "Serves %d", r.Servings)
	if r.TotalTime > 0 {
		fmt.Fprintf(w, " | %d min", r.TotalTime)
	}
	fmt.Fprintln(w)
	if r.Source != nil && r.Source.Name != "" {
		fmt.Fprintf(w, "From %s\n", r.Source.Name)
	}
	fmt.Fprintln(w, "\nIngredients:")
	for _, ing := range r.Ingredients {
		line := strings.TrimSpace(strings.Join([]string{units.FormatAmount(ing.Amount), ing.Unit, ing.Name}, " "))
		line = strings.Join(strings.Fields(line), " ")
		if ing.Notes != "" {
			line += " (" + ing.Notes + ")"
		}
		fmt.Fprintf(w, "  - %s\n", line)
	}
	fmt.Fprintln(w, "\nInstructions:")
	for i, step := range r.Instructions {
		fmt.Fprintf(w, "  %d. %s\n", i+1, step)
	}
}
