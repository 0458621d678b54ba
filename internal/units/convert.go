// Package units converts ingredient quantities between US customary and
// metric units.
package units

import (
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/recipe-cli/internal/model"
)

// Quantity is an amount paired with its unit.
type Quantity struct {
	Amount float64 `json:"amount" yaml:"amount"`
	Unit   string  `json:"unit" yaml:"unit"`
}

// Millilitres and grams per US unit.
const (
	mlPerCup    = 236.588
	mlPerTbsp   = 14.7868
	mlPerTsp    = 4.92892
	mlPerFlOz   = 29.5735
	mlPerPint   = 473.176
	mlPerQuart  = 946.353
	mlPerGallon = 3785.41
	gPerOunce   = 28.3495
	gPerPound   = 453.592
)

type factor struct {
	scale  float64
	target string
}

// usToMetric maps US unit spellings to their metric equivalent.
var usToMetric = map[string]factor{}

// metricToBase maps metric spellings to ml or g.
var metricToBase = map[string]factor{}

func init() {
	register := func(table map[string]factor, f factor, names ...string) {
		for _, n := range names {
			table[n] = f
		}
	}
	register(usToMetric, factor{mlPerCup, "ml"}, "cup", "cups", "c")
	register(usToMetric, factor{mlPerTbsp, "ml"}, "tbsp", "tbsps", "tbs", "tbl", "tablespoon", "tablespoons")
	register(usToMetric, factor{mlPerTsp, "ml"}, "tsp", "tsps", "teaspoon", "teaspoons")
	register(usToMetric, factor{mlPerFlOz, "ml"}, "fl oz", "fluid ounce", "fluid ounces")
	register(usToMetric, factor{mlPerPint, "ml"}, "pint", "pints", "pt")
	register(usToMetric, factor{mlPerQuart, "ml"}, "quart", "quarts", "qt")
	register(usToMetric, factor{mlPerGallon, "ml"}, "gallon", "gallons", "gal")
	register(usToMetric, factor{gPerOunce, "g"}, "oz", "ounce", "ounces")
	register(usToMetric, factor{gPerPound, "g"}, "lb", "lbs", "pound", "pounds")

	register(metricToBase, factor{1, "ml"}, "ml", "milliliter", "milliliters", "millilitre", "millilitres")
	register(metricToBase, factor{1000, "ml"}, "l", "liter", "liters", "litre", "litres")
	register(metricToBase, factor{1, "g"}, "g", "gr", "gram", "grams")
	register(metricToBase, factor{1000, "g"}, "kg", "kilogram", "kilograms")
	register(metricToBase, factor{0.001, "g"}, "mg", "milligram", "milligrams")
}

// Convert converts amount of unit into the other system. US volumes become
// ml and US weights become g; in the other direction ml becomes tsp, tbsp or
// cup and g becomes oz or lb, whichever is the largest unit not exceeding the
// amount. Converted amounts are rounded to one decimal place. Units not in
// the table for the requested direction pass through unchanged.
func Convert(amount float64, unit string, toMetric bool) Quantity {
	key := canonical(unit)
	if toMetric {
		f, ok := usToMetric[key]
		if !ok {
			return Quantity{Amount: amount, Unit: unit}
		}
		return Quantity{Amount: Round(amount*f.scale, 1), Unit: f.target}
	}

	f, ok := metricToBase[key]
	if !ok {
		return Quantity{Amount: amount, Unit: unit}
	}
	base := amount * f.scale
	if f.target == "ml" {
		switch {
		case base >= mlPerCup/4:
			return Quantity{Amount: Round(base/mlPerCup, 1), Unit: "cup"}
		case base >= mlPerTbsp:
			return Quantity{Amount: Round(base/mlPerTbsp, 1), Unit: "tbsp"}
		default:
			return Quantity{Amount: Round(base/mlPerTsp, 1), Unit: "tsp"}
		}
	}
	if base >= gPerPound {
		return Quantity{Amount: Round(base/gPerPound, 1), Unit: "lb"}
	}
	return Quantity{Amount: Round(base/gPerOunce, 1), Unit: "oz"}
}

// IsConvertible reports whether unit has an entry for the given direction.
func IsConvertible(unit string, toMetric bool) bool {
	key := canonical(unit)
	if toMetric {
		_, ok := usToMetric[key]
		return ok
	}
	_, ok := metricToBase[key]
	return ok
}

// ConvertIngredient returns a copy of ing expressed in the other system.
func ConvertIngredient(ing model.Ingredient, toMetric bool) model.Ingredient {
	q := Convert(ing.Amount, ing.Unit, toMetric)
	return ing.WithAmount(q.Amount, q.Unit)
}

// ConvertRecipe returns a new recipe with every ingredient converted and
// UseMetric set. The result is re-validated.
func ConvertRecipe(r *model.Recipe, toMetric bool) (*model.Recipe, error) {
	if err := r.Validate(); err != nil {
		return nil, eris.Wrap(err, "units: invalid input recipe")
	}
	out := r.Clone()
	for i, ing := range out.Ingredients {
		out.Ingredients[i] = ConvertIngredient(ing, toMetric)
	}
	out.UseMetric = toMetric
	if err := out.Validate(); err != nil {
		return nil, eris.Wrap(err, "units: converted recipe failed validation")
	}
	return out, nil
}

// Round rounds v half away from zero to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// FormatAmount renders whole numbers without decimals and everything else
// with two.
func FormatAmount(amount float64) string {
	if amount == math.Trunc(amount) {
		return strconv.FormatFloat(amount, 'f', -1, 64)
	}
	return strconv.FormatFloat(amount, 'f', 2, 64)
}

func canonical(unit string) string {
	u := strings.ToLower(strings.TrimSpace(unit))
	u = strings.ReplaceAll(u, ".", "")
	return strings.Join(strings.Fields(u), " ")
}
