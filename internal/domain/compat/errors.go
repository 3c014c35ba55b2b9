package compat

import "errors"

// ErrNotFound is returned for queries about ingredients never observed.
var ErrNotFound = errors.New("ingredient not found")
