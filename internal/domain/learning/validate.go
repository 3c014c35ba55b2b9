package learning

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/model"
)

var validate = validator.New(validator.WithRequiredStructEnabled()) //nolint:gochecknoglobals // validator caches struct metadata

// Validate checks a normalized feedback event. The returned error wraps
// ErrValidation and names each failing field.
func Validate(ev model.FeedbackEvent) error {
	err := validate.Struct(ev)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(parts, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s needs at least %s item(s)", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s exceeds %s", field, fe.Param())
	case "gte", "lte":
		return field + " must be between 0 and 1"
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
