package simulate

import "errors"

// Error constants.
var (
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrNoEvents         = errors.New("no events to submit")
)
