// Package extract turns a fetched recipe page into a raw Result using an
// ordered chain of strategies: embedded structured data, heuristic HTML
// selectors and, last, a language model.
package extract

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/sells-group/recipe-cli/internal/model"
)

// Result is the raw text bundle produced by a Strategy before normalization.
// Nil Servings or TotalTime means the page did not state them.
type Result struct {
	Title        string
	Ingredients  []string
	Instructions []string
	Servings     *float64
	TotalTime    *int
	Metadata     model.Metadata
}

// Usable reports whether r clears the bar for ending the fallback chain: a
// non-empty title.
func (r *Result) Usable() bool {
	return r != nil && strings.TrimSpace(r.Title) != ""
}

// Strategy extracts a Result from a page. A nil Result with a nil error
// means the strategy found nothing.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, page *Page) (*Result, error)
}

// Page is a fetched HTML document parsed once and shared by every strategy.
// Strategies must not mutate Doc.
type Page struct {
	URL  string
	HTML string
	Doc  *goquery.Document
}

// NewPage parses html into a queryable document.
func NewPage(pageURL, html string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrap(err, "extract: parse html")
	}
	return &Page{URL: pageURL, HTML: html, Doc: doc}, nil
}

// Source returns the recipe's origin: the page URL and a display name taken
// from og:site_name or, failing that, the host without "www.".
func (p *Page) Source() model.Source {
	src := model.Source{URL: p.URL}
	if p.Doc != nil {
		if name, ok := p.Doc.Find(`meta[property="og:site_name"]`).First().Attr("content"); ok {
			src.Name = strings.TrimSpace(name)
		}
	}
	if src.Name == "" {
		if u, err := url.Parse(p.URL); err == nil {
			src.Name = strings.TrimPrefix(u.Hostname(), "www.")
		}
	}
	return src
}
