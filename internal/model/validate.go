package model

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError describes one failed invariant on a Recipe.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every failed invariant of a Recipe.
type ValidationErrors []ValidationError

func (es ValidationErrors) Error() string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.Error()
	}
	return "invalid recipe: " + strings.Join(parts, "; ")
}

// IsValidation reports whether err (or anything it wraps) is a recipe
// validation failure.
func IsValidation(err error) bool {
	var ves ValidationErrors
	if errors.As(err, &ves) {
		return true
	}
	var ve ValidationError
	return errors.As(err, &ve)
}

// Validate checks every Recipe invariant and returns ValidationErrors listing
// all failures, or nil.
func (r *Recipe) Validate() error {
	if r == nil {
		return ValidationErrors{{Field: "recipe", Message: "is nil"}}
	}

	var errs ValidationErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(r.ID) == "" {
		add("id", "is required")
	}
	if strings.TrimSpace(r.Title) == "" {
		add("title", "is required")
	}
	if r.Servings <= 0 {
		add("servings", "must be positive, got %d", r.Servings)
	}
	if r.TotalTime < 0 {
		add("total_time", "must not be negative, got %d", r.TotalTime)
	}

	seen := make(map[string]struct{}, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		field := fmt.Sprintf("ingredients[%d]", i)
		if ing.ID == "" {
			add(field+".id", "is required")
		} else if _, dup := seen[ing.ID]; dup {
			add(field+".id", "duplicate id %s", ing.ID)
		} else {
			seen[ing.ID] = struct{}{}
		}
		if strings.TrimSpace(ing.Name) == "" {
			add(field+".name", "is required")
		}
		if !isFinite(ing.Amount) {
			add(field+".amount", "must be finite")
		} else if ing.Amount < 0 {
			add(field+".amount", "must not be negative, got %g", ing.Amount)
		}
	}

	for i, step := range r.Instructions {
		if strings.TrimSpace(step) == "" {
			add(fmt.Sprintf("instructions[%d]", i), "is empty")
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
