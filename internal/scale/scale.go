// Package scale rescales recipes to a different number of servings.
package scale

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/recipe-cli/internal/model"
	"github.com/sells-group/recipe-cli/internal/units"
)

// ErrInvalidServings is returned when the requested serving count is not
// positive.
var ErrInvalidServings = eris.New("scale: servings must be positive")

// Factor returns the multiplier that takes r from its current servings to
// newServings.
func Factor(r *model.Recipe, newServings int) (float64, error) {
	if newServings <= 0 {
		return 0, eris.Wrapf(ErrInvalidServings, "got %d", newServings)
	}
	if err := r.Validate(); err != nil {
		return 0, eris.Wrap(err, "scale: invalid input recipe")
	}
	return float64(newServings) / float64(r.Servings), nil
}

// Recipe returns a copy of r with servings set to newServings and every
// ingredient amount multiplied by newServings/r.Servings, rounded to two
// decimals. Ingredient IDs, names, units and notes are preserved and r is
// left untouched.
func Recipe(r *model.Recipe, newServings int) (*model.Recipe, error) {
	factor, err := Factor(r, newServings)
	if err != nil {
		return nil, err
	}

	out := r.Clone()
	out.Servings = newServings
	for i, ing := range out.Ingredients {
		out.Ingredients[i] = ing.WithAmount(units.Round(ing.Amount*factor, 2), ing.Unit)
	}

	if err := out.Validate(); err != nil {
		return nil, eris.Wrap(err, "scale: scaled recipe failed validation")
	}
	return out, nil
}
