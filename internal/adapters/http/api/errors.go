package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/learning"
	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/recipe"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrNotFound    = errors.New("not found")
	ErrRateLimited = errors.New("rate limited")
	ErrInternal    = errors.New("internal error")
)

// Error carries the failing operation and a kind that decides the status code.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewKind returns an Error of kind for op.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// WrapKind returns an Error of kind for op wrapping err.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// classify maps an error to a status code and a short machine-readable code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, learning.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, ErrBadRequest), errors.Is(err, recipe.ErrNoIngredients):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrNotFound), errors.Is(err, learning.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
