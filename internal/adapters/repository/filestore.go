package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/learning"
	"github.com/chris-altman/chef-ai-learning-lab/pkg/logger"
	"github.com/chris-altman/chef-ai-learning-lab/pkg/metrics"
)

// FileStore keeps the snapshot as one JSON document. Writes go to a
// temporary file in the same directory which is then renamed over the
// target, so a crash never leaves a half-written snapshot behind.
type FileStore struct {
	mu      sync.Mutex
	path    string
	opts    options
	version uint64
	known   bool
	closed  bool
}

// NewFileStore creates a store for path. The parent directory is created if
// needed and the version of an existing snapshot is read.
func NewFileStore(path string, opts ...Option) (*FileStore, error) {
	if path == "" {
		return nil, ErrNoPath
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create snapshot dir: %w", err)
		}
	}

	s := &FileStore{path: path, opts: o}
	if st, err := s.read(); err == nil {
		s.version, s.known = st.Version, true
	} else if !errors.Is(err, ErrSnapshotNotFound) {
		o.logger.Warn(context.Background(), "existing snapshot unreadable",
			logger.String("path", path), logger.Error(err))
	}
	return s, nil
}

// Path returns the snapshot file path.
func (s *FileStore) Path() string { return s.path }

// Load implements SnapshotStore.
func (s *FileStore) Load(_ context.Context) (learning.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return learning.State{}, ErrStoreClosed
	}

	st, err := s.read()
	if err != nil {
		return learning.State{}, err
	}
	s.version, s.known = st.Version, true
	return st, nil
}

func (s *FileStore) read() (learning.State, error) {
	var st learning.State
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return st, ErrSnapshotNotFound
	}
	if err != nil {
		return st, fmt.Errorf("read snapshot: %w", err)
	}
	if err := json.Unmarshal(raw, &st); err != nil {
		return st, fmt.Errorf("%w: %s: %w", ErrCorruptSnapshot, s.path, err)
	}
	return st, nil
}

// Save implements SnapshotStore.
func (s *FileStore) Save(_ context.Context, st learning.State) (bool, error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrStoreClosed
	}
	if stale(s.version, s.known, st.Version) {
		metrics.RecordSnapshotSave(metrics.SnapshotStale, 0)
		return false, nil
	}

	if err := s.write(st); err != nil {
		metrics.RecordSnapshotSave(metrics.SnapshotError, msSince(start))
		return false, err
	}
	s.version, s.known = st.Version, true
	metrics.RecordSnapshotSave(metrics.SnapshotSaved, msSince(start))
	metrics.UpdateSnapshotWritten(st.Version, st.SavedAt.Unix())
	return true, nil
}

func (s *FileStore) write(st learning.State) error {
	raw, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Chmod(tmpName, s.opts.fileMode); err != nil {
		return fmt.Errorf("chmod snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// Version implements SnapshotStore.
func (s *FileStore) Version(_ context.Context) (uint64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, false, ErrStoreClosed
	}
	return s.version, s.known, nil
}

// Discard implements SnapshotStore. The file is renamed to RejectedPath.
func (s *FileStore) Discard(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	if err := os.Rename(s.path, s.RejectedPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("set snapshot aside: %w", err)
	}
	s.version, s.known = 0, false
	return nil
}

// RejectedPath is where Discard moves the snapshot file.
func (s *FileStore) RejectedPath() string { return s.path + ".rejected" }

// Close implements SnapshotStore.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
