package extract

import (
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/recipe-cli/internal/model"
	"github.com/sells-group/recipe-cli/internal/parse"
)

// Normalize turns a raw Result into a validated canonical Recipe with a
// fresh ID. Missing servings default to model.DefaultServings; fractional
// servings (from averaged ranges) round half up with a minimum of one.
// Missing or negative time becomes 0. Blank ingredient and instruction lines
// are dropped.
func Normalize(res *Result, src model.Source) (*model.Recipe, error) {
	if res == nil {
		return nil, eris.New("extract: normalize nil result")
	}

	ingredients := make([]model.Ingredient, 0, len(res.Ingredients))
	for _, line := range res.Ingredients {
		if strings.TrimSpace(line) == "" {
			continue
		}
		ingredients = append(ingredients, parse.ParseIngredient(line))
	}

	instructions := make([]string, 0, len(res.Instructions))
	for _, step := range res.Instructions {
		if s := strings.TrimSpace(step); s != "" {
			instructions = append(instructions, s)
		}
	}

	opts := []model.RecipeOption{model.WithMetadata(res.Metadata)}
	if src.URL != "" {
		opts = append(opts, model.WithSource(src))
	}

	r, err := model.NewRecipe(res.Title, servings(res.Servings), totalTime(res.TotalTime), ingredients, instructions, opts...)
	if err != nil {
		return nil, eris.Wrap(err, "extract: normalize")
	}
	return r, nil
}

const maxServings = math.MaxInt32

func servings(v *float64) int {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) || *v <= 0 {
		return model.DefaultServings
	}
	if *v >= maxServings {
		return maxServings
	}
	return max(1, int(math.Floor(*v+0.5)))
}

func totalTime(v *int) int {
	if v == nil || *v < 0 {
		return 0
	}
	return *v
}
