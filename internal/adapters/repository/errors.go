package repository

import "errors"

// Sentinel kinds for snapshot store errors.
var (
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrCorruptSnapshot  = errors.New("corrupt snapshot")
	ErrStoreClosed      = errors.New("snapshot store closed")
	ErrUnknownBackend   = errors.New("unknown snapshot backend")
	ErrNoPath           = errors.New("snapshot path is empty")
)
