// Package repository persists learning engine snapshots.
package repository

import (
	"context"
	"fmt"

	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/learning"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendBadger = "badger"
	BackendNone   = "none"
)

// SnapshotStore provides read/write access to the persisted engine state.
type SnapshotStore interface {
	// Load returns the latest snapshot.
	// Returns ErrSnapshotNotFound when nothing was saved yet.
	Load(ctx context.Context) (learning.State, error)

	// Save writes the snapshot unless the store already holds the same or a
	// newer version. Returns true if the snapshot was written.
	Save(ctx context.Context, s learning.State) (bool, error)

	// Version reports the version of the stored snapshot, if any.
	Version(ctx context.Context) (uint64, bool, error)

	// Discard sets the stored snapshot aside and forgets its version, so the
	// next Save writes whatever version it is given.
	Discard(ctx context.Context) error

	// Close releases the store.
	Close() error
}

// Open builds the store for a backend name.
func Open(backend, path string, opts ...Option) (SnapshotStore, error) {
	switch backend {
	case BackendFile:
		return NewFileStore(path, opts...)
	case BackendBadger:
		return NewBadgerStore(path, opts...)
	case BackendNone, "":
		return NopStore{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// NopStore keeps nothing. Load always reports ErrSnapshotNotFound.
type NopStore struct{}

// Load implements SnapshotStore.
func (NopStore) Load(context.Context) (learning.State, error) {
	return learning.State{}, ErrSnapshotNotFound
}

// Save implements SnapshotStore.
func (NopStore) Save(context.Context, learning.State) (bool, error) { return false, nil }

// Version implements SnapshotStore.
func (NopStore) Version(context.Context) (uint64, bool, error) { return 0, false, nil }

// Discard implements SnapshotStore.
func (NopStore) Discard(context.Context) error { return nil }

// Close implements SnapshotStore.
func (NopStore) Close() error { return nil }

// stale reports whether next should be skipped given the stored version.
func stale(stored uint64, hasStored bool, next uint64) bool {
	return hasStored && next <= stored
}
