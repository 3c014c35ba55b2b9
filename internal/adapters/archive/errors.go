package archive

import "errors"

// Sentinel kinds for archive errors.
var (
	ErrUnknownDriver = errors.New("unknown archive driver")
	ErrUnavailable   = errors.New("archive unavailable")
)
