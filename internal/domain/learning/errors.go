package learning

import "errors"

// Sentinel error kinds for the learning engine.
var (
	ErrValidation  = errors.New("invalid feedback event")
	ErrNotFound    = errors.New("not found")
	ErrPersistence = errors.New("persistence failed")
	ErrDuplicate   = errors.New("duplicate feedback event")
)
