package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/recipe-cli/internal/cache"
	"github.com/sells-group/recipe-cli/internal/extract"
	"github.com/sells-group/recipe-cli/internal/fetcher"
	"github.com/sells-group/recipe-cli/internal/model"
)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Fetch(ctx context.Context, url string) (*fetcher.Page, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fetcher.Page), args.Error(1)
}

type mockStrategy struct {
	mock.Mock
	name string
}

func (m *mockStrategy) Name() string { return m.name }

func (m *mockStrategy) Extract(ctx context.Context, page *extract.Page) (*extract.Result, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*extract.Result), args.Error(1)
}

// gatedFetcher blocks every fetch until release is closed, honouring ctx.
type gatedFetcher struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	html    string
}

func newGatedFetcher(html string) *gatedFetcher {
	return &gatedFetcher{started: make(chan struct{}, 8), release: make(chan struct{}), html: html}
}

func (g *gatedFetcher) Fetch(ctx context.Context, url string) (*fetcher.Page, error) {
	g.calls.Add(1)
	g.started <- struct{}{}
	select {
	case <-ctx.Done():
		return nil, &fetcher.FetchError{URL: url, Err: ctx.Err()}
	case <-g.release:
		return htmlPage(url, g.html), nil
	}
}

const (
	recipeURL = "https://www.example.com/recipes/pancakes"

	structuredHTML = `<html><head>
<meta property="og:site_name" content="Example Kitchen">
<script type="application/ld+json">{
	"@context": "https://schema.org",
	"@type": "Recipe",
	"name": "Pancakes",
	"recipeIngredient": ["2 cups flour", "1 egg"],
	"recipeInstructions": [{"@type": "HowToStep", "text": "Mix"}, {"@type": "HowToStep", "text": "Bake"}],
	"recipeYield": "4",
	"totalTime": "PT30M"
}</script></head><body><h1>Pancakes</h1></body></html>`
)

func htmlPage(url, html string) *fetcher.Page {
	return &fetcher.Page{URL: url, FinalURL: url, StatusCode: 200, ContentType: "text/html", HTML: html}
}

type harness struct {
	fetcher   *mockFetcher
	heuristic *mockStrategy
	ai        *mockStrategy
	pipeline  *Pipeline
}

// newHarness wires the real structured extractor ahead of mocked heuristic
// and AI stages.
func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		fetcher:   &mockFetcher{},
		heuristic: &mockStrategy{name: "heuristic"},
		ai:        &mockStrategy{name: "ai"},
	}
	chain := extract.NewChain(extract.NewStructured(), h.heuristic, h.ai)
	h.pipeline = New(h.fetcher, chain, cache.New(nil, cache.Options{}))
	return h
}

func TestExtractRecipe_StructuredEndToEnd(t *testing.T) {
	h := newHarness(t)
	h.fetcher.On("Fetch", mock.Anything, recipeURL).Return(htmlPage(recipeURL, structuredHTML), nil).Once()

	ext, err := h.pipeline.Extract(context.Background(), recipeURL)
	require.NoError(t, err)
	assert.Equal(t, "structured", ext.Strategy)
	assert.False(t, ext.Cached)

	r := ext.Recipe
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "Pancakes", r.Title)
	require.Len(t, r.Ingredients, 2)
	assert.Equal(t, "flour", r.Ingredients[0].Name)
	assert.InDelta(t, 2.0, r.Ingredients[0].Amount, 1e-9)
	assert.Equal(t, "cups", r.Ingredients[0].Unit)
	assert.Equal(t, "egg", r.Ingredients[1].Name)
	assert.InDelta(t, 1.0, r.Ingredients[1].Amount, 1e-9)
	assert.Equal(t, "", r.Ingredients[1].Unit)
	assert.Equal(t, []string{"Mix", "Bake"}, r.Instructions)
	assert.Equal(t, 4, r.Servings)
	assert.Equal(t, 30, r.TotalTime)
	require.NotNil(t, r.Source)
	assert.Equal(t, model.Source{URL: recipeURL, Name: "Example Kitchen"}, *r.Source)

	h.heuristic.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
	h.ai.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
	h.fetcher.AssertExpectations(t)
}

func TestExtractRecipe_CacheFetchesOnce(t *testing.T) {
	h := newHarness(t)
	h.fetcher.On("Fetch", mock.Anything, recipeURL).Return(htmlPage(recipeURL, structuredHTML), nil).Once()
	ctx := context.Background()

	first, err := h.pipeline.Extract(ctx, recipeURL)
	require.NoError(t, err)
	second, err := h.pipeline.Extract(ctx, recipeURL)
	require.NoError(t, err)

	assert.True(t, second.Cached)
	assert.Equal(t, first.Recipe.ID, second.Recipe.ID)
	h.fetcher.AssertNumberOfCalls(t, "Fetch", 1)
}

func TestExtractRecipe_ConcurrentCallsFetchOnce(t *testing.T) {
	h := newHarness(t)
	h.fetcher.On("Fetch", mock.Anything, recipeURL).Return(htmlPage(recipeURL, structuredHTML), nil)

	const n = 8
	var wg sync.WaitGroup
	ids := make([]string, n)
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := h.pipeline.ExtractRecipe(context.Background(), recipeURL)
			errs[i] = err
			if r != nil {
				ids[i] = r.ID
			}
		}(i)
	}
	wg.Wait()

	for i := range n {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	h.fetcher.AssertNumberOfCalls(t, "Fetch", 1)
}

func TestExtractRecipe_CancelledCallerDoesNotFailOthers(t *testing.T) {
	f := newGatedFetcher(structuredHTML)
	p := New(f, extract.NewChain(extract.NewStructured()), cache.New(nil, cache.Options{}))

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	errA := make(chan error, 1)
	go func() {
		_, err := p.ExtractRecipe(ctxA, recipeURL)
		errA <- err
	}()
	<-f.started

	type outcome struct {
		r   *model.Recipe
		err error
	}
	resB := make(chan outcome, 1)
	go func() {
		r, err := p.ExtractRecipe(context.Background(), recipeURL)
		resB <- outcome{r, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelA()
	select {
	case err := <-errA:
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(f.release)
	b := <-resB
	require.NoError(t, b.err)
	assert.Equal(t, "Pancakes", b.r.Title)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestExtractRecipe_RunTimeoutBoundsSharedRun(t *testing.T) {
	f := newGatedFetcher(structuredHTML)
	p := New(f, extract.NewChain(extract.NewStructured()), nil, WithRunTimeout(20*time.Millisecond))

	_, err := p.ExtractRecipe(context.Background(), recipeURL)
	require.Error(t, err)
	var fe *fetcher.FetchError
	require.True(t, errors.As(err, &fe))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestExtractRecipe_FallsBackToLaterStages(t *testing.T) {
	h := newHarness(t)
	h.fetcher.On("Fetch", mock.Anything, recipeURL).
		Return(htmlPage(recipeURL, `<html><body><p>no markup</p></body></html>`), nil)
	h.heuristic.On("Extract", mock.Anything, mock.Anything).Return(&extract.Result{}, nil).Once()
	h.ai.On("Extract", mock.Anything, mock.Anything).Return(&extract.Result{
		Title:        "Model Pancakes",
		Ingredients:  []string{"1 1/2 cups milk"},
		Instructions: []string{"Whisk"},
	}, nil).Once()

	ext, err := h.pipeline.Extract(context.Background(), recipeURL)
	require.NoError(t, err)
	assert.Equal(t, "ai", ext.Strategy)
	assert.Equal(t, "Model Pancakes", ext.Recipe.Title)
	assert.Equal(t, model.DefaultServings, ext.Recipe.Servings)
	assert.InDelta(t, 1.5, ext.Recipe.Ingredients[0].Amount, 1e-9)
	assert.Equal(t, "example.com", ext.Recipe.Source.Name)

	h.heuristic.AssertExpectations(t)
	h.ai.AssertExpectations(t)
}

func TestExtractRecipe_InvalidURL(t *testing.T) {
	h := newHarness(t)

	for _, in := range []string{"", "   ", "not a url", "ftp://example.com/x", "https://", "/relative/path"} {
		_, err := h.pipeline.ExtractRecipe(context.Background(), in)
		require.Error(t, err, in)
		assert.True(t, errors.Is(err, ErrInvalidURL), in)
	}
	h.fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestExtractRecipe_FetchErrorIsFatalAndNotCached(t *testing.T) {
	h := newHarness(t)
	fetchErr := &fetcher.FetchError{URL: recipeURL, StatusCode: 404}
	h.fetcher.On("Fetch", mock.Anything, recipeURL).Return(nil, fetchErr).Twice()
	ctx := context.Background()

	_, err := h.pipeline.ExtractRecipe(ctx, recipeURL)
	require.Error(t, err)
	var fe *fetcher.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 404, fe.StatusCode)
	assert.False(t, errors.Is(err, extract.ErrNoRecipe))

	_, err = h.pipeline.ExtractRecipe(ctx, recipeURL)
	require.Error(t, err)
	h.fetcher.AssertNumberOfCalls(t, "Fetch", 2)
	h.heuristic.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestExtractRecipe_Exhausted(t *testing.T) {
	h := newHarness(t)
	h.fetcher.On("Fetch", mock.Anything, recipeURL).
		Return(htmlPage(recipeURL, `<html><body></body></html>`), nil)
	h.heuristic.On("Extract", mock.Anything, mock.Anything).Return(nil, nil)
	h.ai.On("Extract", mock.Anything, mock.Anything).Return(nil, &extract.ModelError{Err: errors.New("rate limited")})

	_, err := h.pipeline.ExtractRecipe(context.Background(), recipeURL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, extract.ErrNoRecipe))

	var exhausted *extract.ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Len(t, exhausted.Failures, 3)

	var me *extract.ModelError
	assert.True(t, errors.As(err, &me))

	var fe *fetcher.FetchError
	assert.False(t, errors.As(err, &fe))
}

func TestExtractRecipe_WithoutCache(t *testing.T) {
	f := &mockFetcher{}
	f.On("Fetch", mock.Anything, recipeURL).Return(htmlPage(recipeURL, structuredHTML), nil)
	p := New(f, extract.NewChain(extract.NewStructured()), nil)

	for range 2 {
		_, err := p.ExtractRecipe(context.Background(), recipeURL)
		require.NoError(t, err)
	}
	f.AssertNumberOfCalls(t, "Fetch", 2)
}

func TestValidateURL(t *testing.T) {
	got, err := ValidateURL("  https://example.com/recipe#comments ")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/recipe", got)

	_, err = ValidateURL("mailto:chef@example.com")
	assert.True(t, errors.Is(err, ErrInvalidURL))
}
