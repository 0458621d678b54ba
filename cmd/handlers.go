package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/recipe-cli/internal/model"
	"github.com/sells-group/recipe-cli/internal/pipeline"
	"github.com/sells-group/recipe-cli/internal/scale"
	"github.com/sells-group/recipe-cli/internal/units"
)

// maxRequestBytes bounds API request bodies.
const maxRequestBytes = 1 << 20

// recipeExtractor is the part of *pipeline.Pipeline the API needs.
type recipeExtractor interface {
	Extract(ctx context.Context, url string) (*pipeline.Extraction, error)
}

type api struct {
	extractor recipeExtractor
}

func newRouter(a *api) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(90 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", a.health)
	r.Route("/api", func(r chi.Router) {
		r.Post("/recipes/extract", a.extractRecipe)
		r.Post("/recipes/scale", a.scaleRecipe)
		r.Post("/convert", a.convert)
	})
	return r
}

func (a *api) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type extractRequest struct {
	URL      string `json:"url"`
	Servings int    `json:"servings,omitempty"`
	Metric   bool   `json:"metric,omitempty"`
}

func (a *api) extractRecipe(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	ext, err := a.extractor.Extract(r.Context(), req.URL)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	recipe := ext.Recipe
	if req.Servings > 0 {
		if recipe, err = scale.Recipe(recipe, req.Servings); err != nil {
			a.fail(w, r, err)
			return
		}
	}
	if req.Metric {
		if recipe, err = units.ConvertRecipe(recipe, true); err != nil {
			a.fail(w, r, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, pipeline.Extraction{Recipe: recipe, Strategy: ext.Strategy, Cached: ext.Cached})
}

type scaleRequest struct {
	Recipe   *model.Recipe `json:"recipe"`
	Servings int           `json:"servings"`
}

type scaleResponse struct {
	Recipe  *model.Recipe `json:"recipe"`
	Factor  float64       `json:"factor"`
	Changes []string      `json:"changes"`
}

func (a *api) scaleRecipe(w http.ResponseWriter, r *http.Request) {
	var req scaleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Recipe == nil {
		writeError(w, http.StatusBadRequest, "recipe is required")
		return
	}

	factor, err := scale.Factor(req.Recipe, req.Servings)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	scaled, err := scale.Recipe(req.Recipe, req.Servings)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scaleResponse{
		Recipe:  scaled,
		Factor:  units.Round(factor, 4),
		Changes: model.Diff(req.Recipe, scaled),
	})
}

type convertRequest struct {
	Amount   *float64 `json:"amount"`
	Unit     string   `json:"unit"`
	ToMetric bool     `json:"to_metric"`
}

type convertResponse struct {
	Amount    float64 `json:"amount"`
	Unit      string  `json:"unit"`
	Converted bool    `json:"converted"`
}

func (a *api) convert(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Amount == nil {
		writeError(w, http.StatusBadRequest, "amount is required")
		return
	}

	q := units.Convert(*req.Amount, req.Unit, req.ToMetric)
	writeJSON(w, http.StatusOK, convertResponse{
		Amount:    q.Amount,
		Unit:      q.Unit,
		Converted: units.IsConvertible(req.Unit, req.ToMetric),
	})
}

func (a *api) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatus(err)
	log := zap.L().With(
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Int("status", status),
		zap.Error(err),
	)
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		log.Error("api: request failed")
	} else {
		log.Info("api: request rejected")
	}
	writeError(w, status, describeError(err))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
