package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/recipe-cli/internal/extract"
	"github.com/sells-group/recipe-cli/internal/fetcher"
	"github.com/sells-group/recipe-cli/internal/model"
	"github.com/sells-group/recipe-cli/internal/pipeline"
)

type mockExtractor struct {
	mock.Mock
}

func (m *mockExtractor) Extract(ctx context.Context, url string) (*pipeline.Extraction, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pipeline.Extraction), args.Error(1)
}

func sampleRecipe(t *testing.T) *model.Recipe {
	t.Helper()
	r, err := model.NewRecipe("Pancakes", 4, 30,
		[]model.Ingredient{
			model.NewIngredient("flour", 2, "cup", ""),
			model.NewIngredient("egg", 1, "", ""),
		},
		[]string{"Mix", "Bake"},
		model.WithSource(model.Source{URL: "https://example.com/pancakes", Name: "example.com"}),
	)
	require.NoError(t, err)
	return r
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthEndpoint(t *testing.T) {
	h := newRouter(&api{extractor: &mockExtractor{}})

	rr := doRequest(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
}

func TestExtractEndpoint(t *testing.T) {
	ext := &mockExtractor{}
	ext.On("Extract", mock.Anything, "https://example.com/pancakes").
		Return(&pipeline.Extraction{Recipe: sampleRecipe(t), Strategy: "structured"}, nil).Once()
	h := newRouter(&api{extractor: ext})

	rr := doRequest(t, h, http.MethodPost, "/api/recipes/extract", map[string]any{"url": "https://example.com/pancakes"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var got pipeline.Extraction
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "structured", got.Strategy)
	assert.Equal(t, "Pancakes", got.Recipe.Title)
	assert.Len(t, got.Recipe.Ingredients, 2)
	ext.AssertExpectations(t)
}

func TestExtractEndpoint_ScaleAndMetric(t *testing.T) {
	ext := &mockExtractor{}
	ext.On("Extract", mock.Anything, mock.Anything).
		Return(&pipeline.Extraction{Recipe: sampleRecipe(t), Strategy: "heuristic"}, nil)
	h := newRouter(&api{extractor: ext})

	rr := doRequest(t, h, http.MethodPost, "/api/recipes/extract",
		map[string]any{"url": "https://example.com/pancakes", "servings": 8, "metric": true})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var got pipeline.Extraction
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, 8, got.Recipe.Servings)
	assert.True(t, got.Recipe.UseMetric)
	assert.Equal(t, "ml", got.Recipe.Ingredients[0].Unit)
	assert.InDelta(t, 946.4, got.Recipe.Ingredients[0].Amount, 0.05)
	assert.InDelta(t, 2.0, got.Recipe.Ingredients[1].Amount, 1e-9)
}

func TestExtractEndpoint_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid url", pipeline.ErrInvalidURL, http.StatusBadRequest},
		{"fetch", &fetcher.FetchError{URL: "u", StatusCode: 404}, http.StatusBadGateway},
		{"no recipe", &extract.ExhaustedError{URL: "u"}, http.StatusUnprocessableEntity},
		{"validation", model.ValidationErrors{{Field: "title", Message: "is required"}}, http.StatusUnprocessableEntity},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext := &mockExtractor{}
			ext.On("Extract", mock.Anything, mock.Anything).Return(nil, tt.err)
			h := newRouter(&api{extractor: ext})

			rr := doRequest(t, h, http.MethodPost, "/api/recipes/extract", map[string]any{"url": "https://example.com/x"})
			assert.Equal(t, tt.status, rr.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestExtractEndpoint_BadRequests(t *testing.T) {
	ext := &mockExtractor{}
	h := newRouter(&api{extractor: ext})

	rr := doRequest(t, h, http.MethodPost, "/api/recipes/extract", "{not json")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doRequest(t, h, http.MethodPost, "/api/recipes/extract", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "url is required")

	rr = doRequest(t, h, http.MethodGet, "/api/recipes/extract", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	ext.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestScaleEndpoint(t *testing.T) {
	h := newRouter(&api{extractor: &mockExtractor{}})

	rr := doRequest(t, h, http.MethodPost, "/api/recipes/scale", map[string]any{"recipe": sampleRecipe(t), "servings": 8})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var got scaleResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, 8, got.Recipe.Servings)
	assert.InDelta(t, 4.0, got.Recipe.Ingredients[0].Amount, 1e-9)
	assert.InDelta(t, 2.0, got.Factor, 1e-9)
	assert.NotEmpty(t, got.Changes)
}

func TestScaleEndpoint_Errors(t *testing.T) {
	h := newRouter(&api{extractor: &mockExtractor{}})

	rr := doRequest(t, h, http.MethodPost, "/api/recipes/scale", map[string]any{"recipe": sampleRecipe(t), "servings": 0})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doRequest(t, h, http.MethodPost, "/api/recipes/scale", map[string]any{"servings": 2})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	bad := sampleRecipe(t)
	bad.Servings = 0
	rr = doRequest(t, h, http.MethodPost, "/api/recipes/scale", map[string]any{"recipe": bad, "servings": 2})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestConvertEndpoint(t *testing.T) {
	h := newRouter(&api{extractor: &mockExtractor{}})

	rr := doRequest(t, h, http.MethodPost, "/api/convert", map[string]any{"amount": 1, "unit": "cup", "to_metric": true})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"amount":236.6,"unit":"ml","converted":true}`, rr.Body.String())

	rr = doRequest(t, h, http.MethodPost, "/api/convert", map[string]any{"amount": 3, "unit": "pinch", "to_metric": true})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"amount":3,"unit":"pinch","converted":false}`, rr.Body.String())

	rr = doRequest(t, h, http.MethodPost, "/api/convert", map[string]any{"unit": "cup"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newRouter(&api{extractor: &mockExtractor{}})

	req := httptest.NewRequest(http.MethodOptions, "/api/convert", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}
