package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrNoRecipe matches an ExhaustedError via errors.Is.
var ErrNoRecipe = eris.New("extract: no recipe found")

// errNoResult is recorded for a strategy that returned nothing usable.
var errNoResult = errors.New("no usable result")

// StageFailure records why one strategy did not produce a recipe.
type StageFailure struct {
	Strategy string
	Err      error
}

// ExhaustedError is returned when every strategy in a Chain failed.
type ExhaustedError struct {
	URL      string
	Failures []StageFailure
}

func (e *ExhaustedError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = fmt.Sprintf("%s: %v", f.Strategy, f.Err)
	}
	return fmt.Sprintf("extract: no recipe found at %s (%s)", e.URL, strings.Join(parts, "; "))
}

// Is makes errors.Is(err, ErrNoRecipe) true for any ExhaustedError.
func (e *ExhaustedError) Is(target error) bool {
	return target == ErrNoRecipe
}

// Unwrap exposes each stage's error so errors.As can find, for example, a
// ModelError from the last stage.
func (e *ExhaustedError) Unwrap() []error {
	out := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		if f.Err != nil {
			out = append(out, f.Err)
		}
	}
	return out
}

// ModelError reports a failed or malformed language-model call. It fails the
// AI stage only.
type ModelError struct {
	Err error
}

func (e *ModelError) Error() string { return "extract: model error: " + e.Err.Error() }

func (e *ModelError) Unwrap() error { return e.Err }
