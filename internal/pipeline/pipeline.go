// Package pipeline turns a recipe URL into a canonical model.Recipe: cache
// lookup, page fetch, the extraction strategy chain, normalization and cache
// store, in that order.
package pipeline

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/recipe-cli/internal/cache"
	"github.com/sells-group/recipe-cli/internal/extract"
	"github.com/sells-group/recipe-cli/internal/fetcher"
	"github.com/sells-group/recipe-cli/internal/model"
)

// ErrInvalidURL is returned before any fetch when the input is not an
// absolute http(s) URL.
var ErrInvalidURL = eris.New("pipeline: invalid url")

// PageFetcher retrieves raw page HTML. *fetcher.HTTPFetcher implements it.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.Page, error)
}

// Extraction is the outcome of one pipeline run.
type Extraction struct {
	Recipe   *model.Recipe `json:"recipe" yaml:"recipe"`
	Strategy string        `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	Cached   bool          `json:"cached" yaml:"cached"`
}

// DefaultRunTimeout bounds a shared run once it is detached from the
// caller that started it.
const DefaultRunTimeout = 2 * time.Minute

// Pipeline is safe for concurrent use. Concurrent runs for the same URL are
// coalesced into one fetch.
type Pipeline struct {
	fetcher    PageFetcher
	chain      *extract.Chain
	cache      *cache.Cache
	flight     singleflight.Group
	runTimeout time.Duration
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRunTimeout sets the upper bound on a single shared run.
func WithRunTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.runTimeout = d
		}
	}
}

// New creates a Pipeline. A nil cache disables memoization.
func New(f PageFetcher, chain *extract.Chain, c *cache.Cache, opts ...Option) *Pipeline {
	p := &Pipeline{fetcher: f, chain: chain, cache: c, runTimeout: DefaultRunTimeout}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ExtractRecipe returns the canonical recipe for rawURL.
func (p *Pipeline) ExtractRecipe(ctx context.Context, rawURL string) (*model.Recipe, error) {
	ext, err := p.Extract(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return ext.Recipe, nil
}

// Extract runs the pipeline and reports which strategy produced the recipe
// and whether it came from the cache. Failures are a wrapped
// *fetcher.FetchError, an *extract.ExhaustedError, a model validation error
// or ErrInvalidURL.
func (p *Pipeline) Extract(ctx context.Context, rawURL string) (*Extraction, error) {
	key, err := ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}

	if r, ok := p.cached(ctx, key); ok {
		return &Extraction{Recipe: r, Cached: true}, nil
	}

	// The shared run outlives any one caller: a caller that goes away stops
	// waiting, but the others still get the result.
	ch := p.flight.DoChan(key, func() (any, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.runTimeout)
		defer cancel()
		// A run that finished between the lookup above and this call has
		// already populated the cache.
		if r, ok := p.cached(runCtx, key); ok {
			return &Extraction{Recipe: r, Cached: true}, nil
		}
		return p.run(runCtx, key)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, eris.Wrapf(ctx.Err(), "pipeline: extract %s", key)
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}

	ext := res.Val.(*Extraction)
	if res.Shared {
		// Callers never share a Recipe value.
		ext = &Extraction{Recipe: ext.Recipe.Clone(), Strategy: ext.Strategy, Cached: ext.Cached}
	}
	return ext, nil
}

func (p *Pipeline) cached(ctx context.Context, key string) (*model.Recipe, bool) {
	if p.cache == nil {
		return nil, false
	}
	r, ok := p.cache.Get(ctx, key)
	if ok {
		zap.L().Debug("pipeline: cache hit", zap.String("url", key))
	}
	return r, ok
}

func (p *Pipeline) run(ctx context.Context, pageURL string) (*Extraction, error) {
	log := zap.L().With(zap.String("url", pageURL))
	start := time.Now()

	fetched, err := p.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: fetch %s", pageURL)
	}

	page, err := extract.NewPage(fetched.URL, fetched.HTML)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: parse %s", pageURL)
	}

	res, strategy, err := p.chain.Extract(ctx, page)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: extract %s", pageURL)
	}

	recipe, err := extract.Normalize(res, page.Source())
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: normalize %s", pageURL)
	}

	if p.cache != nil {
		p.cache.Set(ctx, pageURL, recipe)
	}

	log.Info("pipeline: recipe extracted",
		zap.String("strategy", strategy),
		zap.String("title", recipe.Title),
		zap.Int("ingredients", len(recipe.Ingredients)),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return &Extraction{Recipe: recipe, Strategy: strategy}, nil
}

// ValidateURL checks that rawURL is an absolute http(s) URL and returns the
// form used as the cache key.
func ValidateURL(rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", eris.Wrap(ErrInvalidURL, "pipeline: empty url")
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", eris.Wrapf(ErrInvalidURL, "pipeline: parse %q: %v", trimmed, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", eris.Wrapf(ErrInvalidURL, "pipeline: unsupported scheme in %q", trimmed)
	}
	if u.Host == "" {
		return "", eris.Wrapf(ErrInvalidURL, "pipeline: missing host in %q", trimmed)
	}
	u.Fragment = ""
	return u.String(), nil
}
