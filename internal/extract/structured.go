package extract

import (
	"context"
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/sells-group/recipe-cli/internal/model"
	"github.com/sells-group/recipe-cli/internal/parse"
)

// Structured reads schema.org Recipe objects from JSON-LD script blocks.
type Structured struct{}

// NewStructured returns the structured-data strategy.
func NewStructured() *Structured { return &Structured{} }

func (s *Structured) Name() string { return "structured" }

// Extract scans every application/ld+json block in document order and
// returns the first usable Recipe object found. Malformed blocks and Recipe
// objects without a name are skipped.
func (s *Structured) Extract(_ context.Context, page *Page) (*Result, error) {
	var found *Result
	page.Doc.Find("script").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		typ, _ := sel.Attr("type")
		if !strings.EqualFold(strings.TrimSpace(typ), "application/ld+json") {
			return true
		}

		raw := strings.TrimSpace(sel.Text())
		if !gjson.Valid(raw) {
			zap.L().Debug("extract: skipping malformed json-ld block",
				zap.String("url", page.URL),
				zap.Int("index", i),
			)
			return true
		}

		res, ok := findRecipe(gjson.Parse(raw))
		if !ok {
			return true
		}
		found = res
		return false
	})
	return found, nil
}

// findRecipe walks top-level arrays, @graph arrays and mainEntity looking for
// an object typed Recipe that yields a usable Result.
func findRecipe(node gjson.Result) (*Result, bool) {
	switch {
	case node.IsArray():
		for _, item := range node.Array() {
			if r, ok := findRecipe(item); ok {
				return r, true
			}
		}
	case node.IsObject():
		if isRecipeType(node.Get(escapeKey("@type"))) {
			if res := resultFromJSONLD(node); res.Usable() {
				return res, true
			}
			zap.L().Debug("extract: skipping json-ld recipe without a name")
			return nil, false
		}
		for _, key := range []string{"@graph", "mainEntity"} {
			if child := node.Get(escapeKey(key)); child.Exists() {
				if r, ok := findRecipe(child); ok {
					return r, true
				}
			}
		}
	}
	return nil, false
}

func isRecipeType(t gjson.Result) bool {
	if t.IsArray() {
		for _, v := range t.Array() {
			if isRecipeType(v) {
				return true
			}
		}
		return false
	}
	name := t.String()
	if i := strings.LastIndexAny(name, "/:"); i >= 0 {
		name = name[i+1:]
	}
	return name == "Recipe"
}

// escapeKey escapes gjson path metacharacters in a literal key.
func escapeKey(key string) string {
	return strings.NewReplacer("@", `\@`, ".", `\.`).Replace(key)
}

func resultFromJSONLD(r gjson.Result) *Result {
	res := &Result{
		Title:        cleanText(r.Get("name").String()),
		Ingredients:  stringList(firstExisting(r, "recipeIngredient", "ingredients")),
		Instructions: flattenInstructions(r.Get("recipeInstructions")),
		Metadata:     metadataFromJSONLD(r),
	}

	if y := r.Get("recipeYield"); y.Exists() {
		if v, ok := parseYield(y); ok {
			res.Servings = &v
		}
	}

	if t := firstExisting(r, "totalTime", "cookTime"); t.Exists() {
		minutes := parse.ParseTime(t.String())
		res.TotalTime = &minutes
	}
	return res
}

func firstExisting(r gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if v := r.Get(k); v.Exists() && v.Type != gjson.Null {
			return v
		}
	}
	return gjson.Result{}
}

// parseYield accepts a number, a string ("4 servings", "4-6") or an array
// of either, using the first element that yields a number.
func parseYield(y gjson.Result) (float64, bool) {
	switch {
	case y.Type == gjson.Number:
		return y.Float(), true
	case y.IsArray():
		for _, item := range y.Array() {
			if item.Type == gjson.Number {
				return item.Float(), true
			}
			if strings.ContainsAny(item.String(), "0123456789") {
				return parse.ParseServings(item.String()), true
			}
		}
		return 0, false
	case y.Type == gjson.String:
		return parse.ParseServings(y.String()), true
	default:
		return 0, false
	}
}

// flattenInstructions unwraps the shapes recipeInstructions takes in the
// wild: a single string, an array of strings, HowToStep objects with text or
// name, and HowToSection objects whose steps sit under itemListElement.
func flattenInstructions(node gjson.Result) []string {
	var out []string
	var walk func(n gjson.Result)
	walk = func(n gjson.Result) {
		switch {
		case n.IsArray():
			for _, item := range n.Array() {
				walk(item)
			}
		case n.IsObject():
			if list := n.Get("itemListElement"); list.Exists() {
				walk(list)
				return
			}
			text := n.Get("text").String()
			if strings.TrimSpace(text) == "" {
				text = n.Get("name").String()
			}
			if t := cleanText(text); t != "" {
				out = append(out, t)
			}
		case n.Type == gjson.String:
			for _, line := range strings.Split(n.String(), "\n") {
				if t := cleanText(line); t != "" {
					out = append(out, t)
				}
			}
		}
	}
	walk(node)
	return out
}

// stringList reads a string or array of strings, dropping blanks.
func stringList(node gjson.Result) []string {
	if !node.Exists() {
		return nil
	}
	items := []gjson.Result{node}
	if node.IsArray() {
		items = node.Array()
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if t := cleanText(item.String()); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func metadataFromJSONLD(r gjson.Result) model.Metadata {
	md := model.Metadata{
		Description: cleanText(r.Get("description").String()),
		Cuisine:     firstString(r.Get("recipeCuisine")),
		Author:      nameOf(r.Get("author")),
		Image:       imageURL(r.Get("image")),
	}

	kw := r.Get("keywords")
	if kw.IsArray() {
		md.Tags = stringList(kw)
	} else if kw.Exists() {
		for _, tag := range strings.Split(kw.String(), ",") {
			if t := cleanText(tag); t != "" {
				md.Tags = append(md.Tags, t)
			}
		}
	}
	return md
}

func firstString(node gjson.Result) string {
	if node.IsArray() {
		for _, item := range node.Array() {
			if t := cleanText(item.String()); t != "" {
				return t
			}
		}
		return ""
	}
	return cleanText(node.String())
}

func nameOf(node gjson.Result) string {
	switch {
	case node.IsArray():
		for _, item := range node.Array() {
			if n := nameOf(item); n != "" {
				return n
			}
		}
		return ""
	case node.IsObject():
		return cleanText(node.Get("name").String())
	default:
		return cleanText(node.String())
	}
}

func imageURL(node gjson.Result) string {
	switch {
	case node.IsArray():
		for _, item := range node.Array() {
			if u := imageURL(item); u != "" {
				return u
			}
		}
		return ""
	case node.IsObject():
		return strings.TrimSpace(node.Get("url").String())
	default:
		return strings.TrimSpace(node.String())
	}
}

// cleanText unescapes HTML entities and collapses whitespace.
func cleanText(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
}
