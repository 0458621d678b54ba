package main

import (
	"errors"
	"net/http"

	"github.com/sells-group/recipe-cli/internal/extract"
	"github.com/sells-group/recipe-cli/internal/fetcher"
	"github.com/sells-group/recipe-cli/internal/model"
	"github.com/sells-group/recipe-cli/internal/pipeline"
	"github.com/sells-group/recipe-cli/internal/scale"
)

type errKind int

const (
	errKindInternal errKind = iota
	errKindInvalidURL
	errKindFetch
	errKindNoRecipe
	errKindValidation
	errKindBadRequest
)

// classify sorts an error from the pipeline, scaler or converter into the
// kinds callers present differently.
func classify(err error) errKind {
	var fe *fetcher.FetchError
	switch {
	case errors.Is(err, pipeline.ErrInvalidURL):
		return errKindInvalidURL
	case errors.As(err, &fe):
		return errKindFetch
	case errors.Is(err, extract.ErrNoRecipe):
		return errKindNoRecipe
	case errors.Is(err, scale.ErrInvalidServings):
		return errKindBadRequest
	case model.IsValidation(err):
		return errKindValidation
	}
	return errKindInternal
}

// httpStatus maps an error kind onto the API's status codes.
func httpStatus(err error) int {
	switch classify(err) {
	case errKindInvalidURL, errKindBadRequest:
		return http.StatusBadRequest
	case errKindFetch:
		return http.StatusBadGateway
	case errKindNoRecipe, errKindValidation:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
