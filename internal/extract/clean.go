package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"golang.org/x/net/html"
)

const noiseSelector = "script, style, noscript, template, iframe, svg, nav, header, footer, aside, form, .ads, .advertisement, #comments, .comments"

// contentSelectors are tried in priority order.
var contentSelectors = []string{".recipe-content", ".recipe-container", "article", "main"}

// CleanText reduces raw HTML to whitespace-normalized plain text for the
// language model: noise elements are dropped, the main content container is
// preferred over the whole body, and the result is cut to maxChars runes
// (0 means no limit). The input is parsed afresh so shared documents are not
// mutated.
func CleanText(rawHTML string, maxChars int) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", eris.Wrap(err, "extract: parse html for cleaning")
	}

	doc.Find(noiseSelector).Remove()

	root := doc.Find("body")
	for _, sel := range contentSelectors {
		if found := doc.Find(sel).First(); found.Length() > 0 {
			root = found
			break
		}
	}

	var parts []string
	for _, n := range root.Nodes {
		parts = appendText(parts, n)
	}
	text := strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
	return truncate(text, maxChars), nil
}

// appendText collects text nodes separately so adjacent block elements
// such as <h1>Soup</h1><p>2 cups</p> do not run together.
func appendText(parts []string, n *html.Node) []string {
	if n.Type == html.TextNode {
		return append(parts, n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		parts = appendText(parts, c)
	}
	return parts
}

func truncate(s string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxChars])
}
