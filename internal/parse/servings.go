package parse

import (
	"regexp"
	"strconv"
)

var servingsRe = regexp.MustCompile(`(\d+(?:\.\d+)?)(?:\s*(?:-|–|to)\s*(\d+(?:\.\d+)?))?`)

// ParseServings reads a yield such as "4", "Serves 4-6" or "12 cookies".
// A range resolves to the average of its bounds, unlike ParseAmount. Input
// without a number yields model.DefaultServings (4).
func ParseServings(text string) float64 {
	return ParseServingsWith(text, Average)
}

// ParseServingsWith is ParseServings with an explicit range policy.
func ParseServingsWith(text string, policy RangePolicy) float64 {
	m := servingsRe.FindStringSubmatch(text)
	if m == nil {
		return defaultServings
	}
	lo, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return defaultServings
	}
	if m[2] == "" {
		return lo
	}
	hi, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return lo
	}
	return policy(lo, hi)
}

// defaultServings mirrors model.DefaultServings without importing model
// into the leaf parsers.
const defaultServings = 4
