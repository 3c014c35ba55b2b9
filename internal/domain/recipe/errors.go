package recipe

import "errors"

// ErrNoIngredients is returned when a recipe is requested without any usable ingredient.
var ErrNoIngredients = errors.New("no ingredients")
