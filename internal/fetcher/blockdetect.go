package fetcher

import (
	"net/http"
	"strings"
)

// BlockType describes the kind of block detected.
type BlockType string

const (
	BlockNone       BlockType = ""
	BlockCloudflare BlockType = "cloudflare"
	BlockCaptcha    BlockType = "captcha"
	BlockJSShell    BlockType = "js_shell"
)

// Interstitials are small; full recipe pages routinely embed captcha
// widgets for their comment forms.
const interstitialMaxBytes = 16 * 1024

// DetectBlock checks an HTTP response for signs of anti-bot protection.
func DetectBlock(resp *http.Response, body []byte) (bool, BlockType) {
	if resp == nil {
		return false, BlockNone
	}

	// Cloudflare: 403/503 with cf-* headers.
	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusServiceUnavailable {
		if resp.Header.Get("cf-ray") != "" || resp.Header.Get("cf-mitigated") != "" {
			return true, BlockCloudflare
		}
		if strings.EqualFold(resp.Header.Get("server"), "cloudflare") {
			return true, BlockCloudflare
		}
	}

	if len(body) > interstitialMaxBytes {
		return false, BlockNone
	}

	lower := strings.ToLower(string(body))

	// A page carrying recipe markup is never treated as an interstitial.
	if hasRecipeMarkup(lower) {
		return false, BlockNone
	}

	if strings.Contains(lower, "checking your browser") ||
		strings.Contains(lower, "cf-browser-verification") ||
		strings.Contains(lower, "cloudflare") && strings.Contains(lower, "challenge") {
		return true, BlockCloudflare
	}

	if strings.Contains(lower, "captcha") {
		return true, BlockCaptcha
	}

	if strings.Contains(lower, "<noscript") && strings.Contains(lower, "javascript") && !strings.Contains(lower, "<article") {
		return true, BlockJSShell
	}
	if strings.Contains(lower, `meta http-equiv="refresh"`) {
		return true, BlockJSShell
	}

	return false, BlockNone
}

// hasRecipeMarkup reports whether a lowercased body holds JSON-LD or
// schema.org Recipe microdata.
func hasRecipeMarkup(lower string) bool {
	if strings.Contains(lower, "application/ld+json") {
		return true
	}
	return strings.Contains(lower, "itemtype=") && strings.Contains(lower, "schema.org/recipe")
}
