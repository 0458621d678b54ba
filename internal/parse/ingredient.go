package parse

import (
	"regexp"
	"strings"

	"github.com/sells-group/recipe-cli/internal/model"
)

const amountPattern = `(?:\d+(?:\.\d+)?(?:\s*/\s*\d+)?|\.\d+)(?:\s+\d+\s*/\s*\d+)?`

var (
	notesRe   = regexp.MustCompile(`^(.*?)\s*\(([^()]*)\)\s*$`)
	amountRe  = regexp.MustCompile(`^(` + amountPattern + `(?:\s*(?:-|to)\s*` + amountPattern + `)?)\s*(.*)$`)
	unitTokRe = regexp.MustCompile(`^([A-Za-z][A-Za-z.]*)\s*(.*)$`)
	spaceRe   = regexp.MustCompile(`\s+`)
)

// knownUnits is the vocabulary of unit tokens recognised after an amount.
// A word outside this set is treated as the start of the ingredient name,
// so "1 egg" has no unit.
var knownUnits = map[string]struct{}{}

func init() {
	for _, u := range []string{
		"cup", "cups", "c",
		"tablespoon", "tablespoons", "tbsp", "tbsps", "tbs", "tbl",
		"teaspoon", "teaspoons", "tsp", "tsps",
		"ounce", "ounces", "oz",
		"pound", "pounds", "lb", "lbs",
		"gram", "grams", "g", "gr",
		"kilogram", "kilograms", "kg",
		"milligram", "milligrams", "mg",
		"milliliter", "milliliters", "millilitre", "millilitres", "ml",
		"liter", "liters", "litre", "litres", "l",
		"quart", "quarts", "qt", "pint", "pints", "pt", "gallon", "gallons", "gal",
		"pinch", "pinches", "dash", "dashes", "drop", "drops",
		"clove", "cloves", "can", "cans", "jar", "jars", "package", "packages", "pkg",
		"stick", "sticks", "slice", "slices", "piece", "pieces", "bunch", "bunches",
		"sprig", "sprigs", "head", "heads", "handful", "handfuls", "bottle", "bag", "box", "envelope",
	} {
		knownUnits[u] = struct{}{}
	}
}

// IsKnownUnit reports whether token (case-insensitive, trailing '.' ignored)
// is a recognised unit.
func IsKnownUnit(token string) bool {
	_, ok := knownUnits[canonicalUnitToken(token)]
	return ok
}

func canonicalUnitToken(token string) string {
	return strings.TrimRight(strings.ToLower(strings.TrimSpace(token)), ".")
}

// ParseIngredient splits a raw line such as "1 1/2 cups flour (sifted)" into
// amount, unit, name and notes. It never fails: a line with no amount gets
// DefaultAmount, a line with no recognised unit gets "", and a line that
// cannot be decomposed keeps its trimmed text as the name.
func ParseIngredient(raw string) model.Ingredient {
	line := spaceRe.ReplaceAllString(NormalizeFractions(raw), " ")
	if line == "" {
		return model.NewIngredient("", DefaultAmount, "", "")
	}

	var notes string
	if m := notesRe.FindStringSubmatch(line); m != nil && strings.TrimSpace(m[1]) != "" {
		line, notes = m[1], m[2]
	}

	amount := DefaultAmount
	rest := line
	hasAmount := false
	if m := amountRe.FindStringSubmatch(line); m != nil {
		amount = ParseAmount(m[1])
		rest = m[2]
		hasAmount = true
	} else if word, after, ok := leadingWordAmount(line); ok {
		amount = word
		rest = after
		hasAmount = true
	}

	var unit string
	name := rest
	if hasAmount {
		unit, name = splitUnit(rest)
	}
	name = strings.TrimSpace(strings.TrimPrefix(name, "of "))

	if name == "" {
		if unit != "" {
			name, unit = unit, ""
		} else {
			name = strings.TrimSpace(line)
		}
	}

	return model.NewIngredient(name, amount, unit, notes)
}

// leadingWordAmount handles "two eggs" and "a pinch of salt". Articles only
// count as an amount when a unit follows them.
func leadingWordAmount(line string) (float64, string, bool) {
	word, after, found := strings.Cut(line, " ")
	if !found {
		return 0, "", false
	}
	lw := strings.ToLower(word)
	if v, ok := numberWords[lw]; ok {
		return v, after, true
	}
	if v, ok := articleWords[lw]; ok {
		next, _, _ := strings.Cut(after, " ")
		if IsKnownUnit(next) {
			return v, after, true
		}
	}
	return 0, "", false
}

// splitUnit peels a recognised unit token (including "fl oz") off the front
// of rest.
func splitUnit(rest string) (unit, name string) {
	m := unitTokRe.FindStringSubmatch(rest)
	if m == nil {
		return "", rest
	}
	tok := canonicalUnitToken(m[1])
	if tok == "fl" || tok == "fl.oz" {
		if tok == "fl.oz" {
			return "fl oz", m[2]
		}
		if n := unitTokRe.FindStringSubmatch(m[2]); n != nil && IsKnownUnit(n[1]) && canonicalUnitToken(n[1]) == "oz" {
			return "fl oz", n[2]
		}
		return "", rest
	}
	if !IsKnownUnit(tok) {
		return "", rest
	}
	return tok, m[2]
}
