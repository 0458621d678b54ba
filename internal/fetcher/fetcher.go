// Package fetcher retrieves recipe pages over HTTP.
package fetcher

import (
	"context"
	"fmt"
)

// Page is a fetched HTML document, decoded to UTF-8.
type Page struct {
	URL         string // requested URL
	FinalURL    string // URL after redirects
	StatusCode  int
	ContentType string
	HTML        string
}

// Fetcher defines the interface for downloading recipe pages.
type Fetcher interface {
	// Fetch retrieves url and returns its decoded body. Non-2xx responses,
	// anti-bot interstitials and network failures return a *FetchError.
	Fetch(ctx context.Context, url string) (*Page, error)
}

// FetchError reports a page that could not be retrieved.
type FetchError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Block      BlockType
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.Block != BlockNone:
		return fmt.Sprintf("fetch %s: blocked (%s, status %d)", e.URL, e.Block, e.StatusCode)
	case e.StatusCode != 0:
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("fetch %s: failed", e.URL)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }
