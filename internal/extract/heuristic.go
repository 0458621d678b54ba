package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"go.uber.org/zap"

	"github.com/sells-group/recipe-cli/internal/parse"
)

// Selectors lists CSS selector candidates per field, most specific first.
type Selectors struct {
	Title        []string
	Ingredients  []string
	Instructions []string
	Servings     []string
	Time         []string
}

// DefaultSelectors covers microdata plus the common recipe plugins
// (WP Recipe Maker, Tasty Recipes) and generic class names.
func DefaultSelectors() Selectors {
	return Selectors{
		Title: []string{
			".recipe-title",
			".wprm-recipe-name",
			".tasty-recipes-title",
			"h1.title",
			`[itemprop="name"]`,
		},
		Ingredients: []string{
			".recipe-ingredients li",
			".wprm-recipe-ingredient",
			".tasty-recipes-ingredients li",
			".ingredients-list li",
			`[itemprop="recipeIngredient"]`,
			`[itemprop="ingredients"]`,
		},
		Instructions: []string{
			".recipe-instructions li",
			".wprm-recipe-instruction",
			".tasty-recipes-instructions li",
			".instructions-list li",
			`[itemprop="recipeInstructions"]`,
		},
		Servings: []string{
			`[itemprop="recipeYield"]`,
			".recipe-servings",
			".wprm-recipe-servings",
			".tasty-recipes-yield",
		},
		Time: []string{
			`[itemprop="totalTime"]`,
			".recipe-time",
			".wprm-recipe-total_time-container",
			".wprm-recipe-total-time",
			".tasty-recipes-total-time",
		},
	}
}

const instructionFallback = "ol li, .instructions li, .recipe-instructions li, .recipe-steps li"

var unitKeywordRe = regexp.MustCompile(`(?i)cup|tablespoon|teaspoon|pound|ounce`)

type compiledSelector struct {
	raw string
	sel cascadia.Selector
}

// Heuristic extracts recipes from ordinary HTML using selector lists.
type Heuristic struct {
	title        []compiledSelector
	ingredients  []compiledSelector
	instructions []compiledSelector
	servings     []compiledSelector
	time         []compiledSelector
	fallback     []compiledSelector
}

// NewHeuristic compiles sel. Selectors that fail to compile are logged and
// skipped; the remaining candidates are still used.
func NewHeuristic(sel Selectors) *Heuristic {
	return &Heuristic{
		title:        compileAll(sel.Title),
		ingredients:  compileAll(sel.Ingredients),
		instructions: compileAll(sel.Instructions),
		servings:     compileAll(sel.Servings),
		time:         compileAll(sel.Time),
		fallback:     compileAll([]string{instructionFallback}),
	}
}

func compileAll(raw []string) []compiledSelector {
	out := make([]compiledSelector, 0, len(raw))
	for _, r := range raw {
		sel, err := cascadia.Compile(r)
		if err != nil {
			zap.L().Warn("extract: skipping invalid selector",
				zap.String("selector", r),
				zap.Error(err),
			)
			continue
		}
		out = append(out, compiledSelector{raw: r, sel: sel})
	}
	return out
}

func (h *Heuristic) Name() string { return "heuristic" }

// Extract always returns a Result, possibly with empty fields; the chain
// decides whether it is good enough.
func (h *Heuristic) Extract(_ context.Context, page *Page) (*Result, error) {
	doc := page.Doc
	res := &Result{}

	res.Title = firstText(doc, h.title)
	if res.Title == "" {
		res.Title = cleanText(doc.Find("h1").First().Text())
	}
	if res.Title == "" {
		res.Title = cleanText(doc.Find("title").First().Text())
	}

	res.Ingredients = allTexts(doc, h.ingredients)
	if len(res.Ingredients) == 0 {
		doc.Find("li").Each(func(_ int, li *goquery.Selection) {
			if text := cleanText(li.Text()); text != "" && unitKeywordRe.MatchString(text) {
				res.Ingredients = append(res.Ingredients, text)
			}
		})
	}

	res.Instructions = allTexts(doc, h.instructions)
	if len(res.Instructions) == 0 {
		res.Instructions = allTexts(doc, h.fallback)
	}

	if text := firstText(doc, h.servings); text != "" {
		v := parse.ParseServings(text)
		res.Servings = &v
	}
	if text := firstText(doc, h.time); text != "" {
		v := parse.ParseTime(text)
		res.TotalTime = &v
	}

	zap.L().Debug("extract: heuristic result",
		zap.String("url", page.URL),
		zap.Bool("title", res.Title != ""),
		zap.Int("ingredients", len(res.Ingredients)),
		zap.Int("instructions", len(res.Instructions)),
	)
	return res, nil
}

// firstText returns the text of the first element matched by the first
// selector that yields non-empty text.
func firstText(doc *goquery.Document, sels []compiledSelector) string {
	for _, cs := range sels {
		if text := nodeText(doc.FindMatcher(cs.sel).First()); text != "" {
			return text
		}
	}
	return ""
}

// allTexts returns the non-empty texts of every element matched by the
// first selector that yields at least one.
func allTexts(doc *goquery.Document, sels []compiledSelector) []string {
	for _, cs := range sels {
		var out []string
		doc.FindMatcher(cs.sel).Each(func(_ int, s *goquery.Selection) {
			if text := nodeText(s); text != "" {
				out = append(out, text)
			}
		})
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// nodeText prefers a content attribute, which microdata <meta> tags use, over
// the element text.
func nodeText(s *goquery.Selection) string {
	if s.Length() == 0 {
		return ""
	}
	if v, ok := s.Attr("content"); ok && strings.TrimSpace(v) != "" {
		return cleanText(v)
	}
	return cleanText(s.Text())
}
