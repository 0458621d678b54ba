// Package parse turns free-text recipe fragments (quantities, durations,
// yields, ingredient lines) into typed values. Every parser here is total:
// malformed input produces a documented default rather than an error.
package parse

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// DefaultAmount is returned for quantities that cannot be parsed.
const DefaultAmount = 1.0

// RangePolicy collapses a numeric range such as "2-3" into a single value.
type RangePolicy func(lo, hi float64) float64

// LowerBound keeps the first number of a range. Ingredient amounts use it.
func LowerBound(lo, _ float64) float64 { return lo }

// Average takes the midpoint of a range. Servings use it.
func Average(lo, hi float64) float64 { return (lo + hi) / 2 }

var slashSpaceRe = regexp.MustCompile(`\s*/\s*`)

var numberWords = map[string]float64{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
	"half": 0.5, "quarter": 0.25, "dozen": 12,
}

var articleWords = map[string]float64{"a": 1, "an": 1}

// ParseAmount parses a quantity expression: "2", "1.5", "1/2", "1 1/2",
// "½", "1½", or a range "2-3". Ranges resolve to their lower bound.
// Anything unparseable yields DefaultAmount.
func ParseAmount(text string) float64 {
	return ParseAmountWith(text, LowerBound)
}

// ParseAmountWith is ParseAmount with an explicit range policy.
func ParseAmountWith(text string, policy RangePolicy) float64 {
	if v, ok := TryParseAmount(text, policy); ok {
		return v
	}
	return DefaultAmount
}

// TryParseAmount is ParseAmountWith without the default: ok is false when
// text holds no recognisable quantity.
func TryParseAmount(text string, policy RangePolicy) (float64, bool) {
	s := strings.ToLower(slashSpaceRe.ReplaceAllString(NormalizeFractions(text), "/"))
	if s == "" {
		return 0, false
	}
	if v, ok := numberWords[s]; ok {
		return v, true
	}
	if v, ok := articleWords[s]; ok {
		return v, true
	}

	lo, hi, isRange := splitRange(s)
	a, ok := parseNumber(lo)
	if !ok {
		return 0, false
	}
	if !isRange {
		return a, true
	}
	b, ok := parseNumber(hi)
	if !ok {
		return a, true
	}
	return policy(a, b), true
}

// NormalizeFractions rewrites Unicode vulgar fractions to ASCII ("1½" becomes
// "1 1/2"), maps dash variants to '-', and trims surrounding space.
func NormalizeFractions(text string) string {
	var b strings.Builder
	b.Grow(len(text) + 4)
	prevDigit := false
	for _, r := range text {
		if isVulgarFraction(r) && prevDigit {
			b.WriteByte(' ')
		}
		switch r {
		case '–', '—', '‒', '−':
			r = '-'
		}
		b.WriteRune(r)
		prevDigit = unicode.IsDigit(r)
	}
	// NFKC decomposes ½ into "1⁄2" using U+2044 FRACTION SLASH.
	s := norm.NFKC.String(b.String())
	s = strings.ReplaceAll(s, "⁄", "/")
	return strings.TrimSpace(s)
}

func isVulgarFraction(r rune) bool {
	return (r >= '¼' && r <= '¾') || (r >= '⅐' && r <= '⅞')
}

// splitRange splits "a-b" or "a to b" around the first separator.
func splitRange(s string) (lo, hi string, ok bool) {
	if i := strings.Index(s, "-"); i > 0 {
		return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:]), true
	}
	if i := strings.Index(s, " to "); i > 0 {
		return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+4:]), true
	}
	return s, "", false
}

// parseNumber accepts an integer, decimal, simple fraction or mixed number.
func parseNumber(s string) (float64, bool) {
	fields := strings.Fields(s)
	switch len(fields) {
	case 1:
		return parseSimple(fields[0])
	case 2:
		whole, ok := parseDecimal(fields[0])
		if !ok {
			return 0, false
		}
		frac, ok := parseFraction(fields[1])
		if !ok {
			return 0, false
		}
		return whole + frac, true
	default:
		return 0, false
	}
}

func parseSimple(s string) (float64, bool) {
	if strings.Contains(s, "/") {
		return parseFraction(s)
	}
	return parseDecimal(s)
}

func parseFraction(s string) (float64, bool) {
	num, denom, found := strings.Cut(s, "/")
	if !found {
		return 0, false
	}
	n, ok := parseDecimal(num)
	if !ok {
		return 0, false
	}
	d, ok := parseDecimal(denom)
	if !ok || d == 0 {
		return 0, false
	}
	return n / d, true
}

func parseDecimal(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return 0, false
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}
