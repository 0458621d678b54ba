// Package model defines the canonical recipe types shared by every stage of
// the extraction pipeline.
package model

import (
	"math"
	"strings"

	"github.com/google/uuid"
)

// DefaultServings is used when a page does not state a yield.
const DefaultServings = 4

// Difficulty is an informational difficulty rating.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Ingredient is a single parsed ingredient line. Amount is always a single
// number; ranges are collapsed before an Ingredient is built.
type Ingredient struct {
	ID     string  `json:"id" yaml:"id"`
	Name   string  `json:"name" yaml:"name"`
	Amount float64 `json:"amount" yaml:"amount"`
	Unit   string  `json:"unit" yaml:"unit"`
	Notes  string  `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// NewIngredient builds an Ingredient with a fresh ID. The name is trimmed and
// the unit is trimmed and lower-cased.
func NewIngredient(name string, amount float64, unit, notes string) Ingredient {
	return Ingredient{
		ID:     uuid.New().String(),
		Name:   strings.TrimSpace(name),
		Amount: amount,
		Unit:   strings.ToLower(strings.TrimSpace(unit)),
		Notes:  strings.TrimSpace(notes),
	}
}

// WithAmount returns a copy of the ingredient with a new amount and unit.
// The ID is preserved so callers can correlate scaled or converted lines.
func (i Ingredient) WithAmount(amount float64, unit string) Ingredient {
	i.Amount = amount
	i.Unit = unit
	return i
}

// Source records where a recipe was extracted from.
type Source struct {
	URL  string `json:"url" yaml:"url"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// Metadata carries optional, unvalidated descriptive fields.
type Metadata struct {
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Cuisine     string     `json:"cuisine,omitempty" yaml:"cuisine,omitempty"`
	Difficulty  Difficulty `json:"difficulty,omitempty" yaml:"difficulty,omitempty"`
	Tags        []string   `json:"tags,omitempty" yaml:"tags,omitempty"`
	Author      string     `json:"author,omitempty" yaml:"author,omitempty"`
	Image       string     `json:"image,omitempty" yaml:"image,omitempty"`
}

// Recipe is the canonical, validated recipe record. Values are treated as
// immutable: scaling and conversion return new Recipes.
type Recipe struct {
	ID           string       `json:"id" yaml:"id"`
	Title        string       `json:"title" yaml:"title"`
	TotalTime    int          `json:"total_time" yaml:"total_time"` // minutes, 0 = unknown
	Servings     int          `json:"servings" yaml:"servings"`
	Ingredients  []Ingredient `json:"ingredients" yaml:"ingredients"`
	Instructions []string     `json:"instructions" yaml:"instructions"`
	Source       *Source      `json:"source,omitempty" yaml:"source,omitempty"`
	Metadata     *Metadata    `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	UseMetric    bool         `json:"use_metric,omitempty" yaml:"use_metric,omitempty"`
}

// RecipeOption sets optional fields during NewRecipe.
type RecipeOption func(*Recipe)

// WithSource attaches source information.
func WithSource(src Source) RecipeOption {
	return func(r *Recipe) { r.Source = &src }
}

// WithMetadata attaches descriptive metadata. A zero Metadata is ignored.
func WithMetadata(md Metadata) RecipeOption {
	return func(r *Recipe) {
		if md.Description == "" && md.Cuisine == "" && md.Difficulty == "" &&
			len(md.Tags) == 0 && md.Author == "" && md.Image == "" {
			return
		}
		r.Metadata = &md
	}
}

// NewRecipe assigns a fresh ID and returns the recipe only if it validates.
func NewRecipe(title string, servings, totalTime int, ingredients []Ingredient, instructions []string, opts ...RecipeOption) (*Recipe, error) {
	r := &Recipe{
		ID:           uuid.New().String(),
		Title:        strings.TrimSpace(title),
		TotalTime:    totalTime,
		Servings:     servings,
		Ingredients:  append([]Ingredient(nil), ingredients...),
		Instructions: append([]string(nil), instructions...),
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Clone returns a deep copy of the recipe.
func (r *Recipe) Clone() *Recipe {
	if r == nil {
		return nil
	}
	out := *r
	out.Ingredients = append([]Ingredient(nil), r.Ingredients...)
	out.Instructions = append([]string(nil), r.Instructions...)
	if r.Source != nil {
		src := *r.Source
		out.Source = &src
	}
	if r.Metadata != nil {
		md := *r.Metadata
		md.Tags = append([]string(nil), r.Metadata.Tags...)
		out.Metadata = &md
	}
	return &out
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
