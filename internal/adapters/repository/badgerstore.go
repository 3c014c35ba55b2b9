package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/learning"
	"github.com/chris-altman/chef-ai-learning-lab/pkg/logger"
	"github.com/chris-altman/chef-ai-learning-lab/pkg/metrics"
)

// Keys in the badger database.
const (
	snapshotKey = "snapshot:current"
	versionKey  = "snapshot:version"
	rejectedKey = "snapshot:rejected"
)

// BadgerStore keeps the snapshot in an embedded badger database. The
// version is stored under its own key so stale writes can be rejected
// without decoding the document.
type BadgerStore struct {
	mu     sync.RWMutex
	db     *badger.DB
	closed bool
}

// NewBadgerStore opens (or creates) a badger database in dir.
func NewBadgerStore(dir string, opts ...Option) (*BadgerStore, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	bopts := badger.DefaultOptions(dir).WithLogger(badgerLogger{l: o.logger.Named("badger")})
	if o.inMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true).WithLogger(badgerLogger{l: o.logger.Named("badger")})
	}
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Load implements SnapshotStore.
func (s *BadgerStore) Load(_ context.Context) (learning.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st learning.State
	if s.closed {
		return st, ErrStoreClosed
	}
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(snapshotKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrSnapshotNotFound
		}
		if err != nil {
			return fmt.Errorf("get snapshot: %w", err)
		}
		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &st); err != nil {
				return fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
			}
			return nil
		})
	})
	return st, err
}

// Save implements SnapshotStore.
func (s *BadgerStore) Save(_ context.Context, st learning.State) (bool, error) {
	start := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false, ErrStoreClosed
	}

	raw, err := json.Marshal(st)
	if err != nil {
		metrics.RecordSnapshotSave(metrics.SnapshotError, 0)
		return false, fmt.Errorf("encode snapshot: %w", err)
	}

	written := false
	err = s.db.Update(func(txn *badger.Txn) error {
		stored, has, err := readVersion(txn)
		if err != nil {
			return err
		}
		if stale(stored, has, st.Version) {
			return nil
		}
		if err := txn.Set([]byte(snapshotKey), raw); err != nil {
			return fmt.Errorf("set snapshot: %w", err)
		}
		if err := txn.Set([]byte(versionKey), []byte(strconv.FormatUint(st.Version, 10))); err != nil {
			return fmt.Errorf("set version: %w", err)
		}
		written = true
		return nil
	})
	switch {
	case err != nil:
		metrics.RecordSnapshotSave(metrics.SnapshotError, msSince(start))
		return false, err
	case !written:
		metrics.RecordSnapshotSave(metrics.SnapshotStale, 0)
		return false, nil
	}
	metrics.RecordSnapshotSave(metrics.SnapshotSaved, msSince(start))
	metrics.UpdateSnapshotWritten(st.Version, st.SavedAt.Unix())
	return true, nil
}

func readVersion(txn *badger.Txn) (uint64, bool, error) {
	item, err := txn.Get([]byte(versionKey))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get version: %w", err)
	}
	var v uint64
	err = item.Value(func(val []byte) error {
		var perr error
		v, perr = strconv.ParseUint(string(val), 10, 64)
		return perr
	})
	if err != nil {
		return 0, false, fmt.Errorf("%w: version: %w", ErrCorruptSnapshot, err)
	}
	return v, true, nil
}

// Version implements SnapshotStore.
func (s *BadgerStore) Version(_ context.Context) (uint64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, false, ErrStoreClosed
	}
	var (
		v   uint64
		has bool
	)
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		v, has, err = readVersion(txn)
		return err
	})
	return v, has, err
}

// Discard implements SnapshotStore. The snapshot is moved under the
// snapshot:rejected key and the version key is dropped.
func (s *BadgerStore) Discard(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(snapshotKey))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return fmt.Errorf("get snapshot: %w", err)
		default:
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("copy snapshot: %w", err)
			}
			if err := txn.Set([]byte(rejectedKey), raw); err != nil {
				return fmt.Errorf("set rejected snapshot: %w", err)
			}
			if err := txn.Delete([]byte(snapshotKey)); err != nil {
				return fmt.Errorf("delete snapshot: %w", err)
			}
		}
		if err := txn.Delete([]byte(versionKey)); err != nil {
			return fmt.Errorf("delete version: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("set snapshot aside: %w", err)
	}
	return nil
}

// Close implements SnapshotStore.
func (s *BadgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// badgerLogger routes badger's printf-style logs to the structured logger.
// Info is demoted to debug; badger is chatty on open and compaction.
type badgerLogger struct {
	l logger.Logger
}

func (b badgerLogger) Errorf(format string, args ...interface{}) {
	b.l.Error(context.Background(), trim(format, args))
}

func (b badgerLogger) Warningf(format string, args ...interface{}) {
	b.l.Warn(context.Background(), trim(format, args))
}

func (b badgerLogger) Infof(format string, args ...interface{}) {
	b.l.Debug(context.Background(), trim(format, args))
}

func (b badgerLogger) Debugf(format string, args ...interface{}) {
	b.l.Debug(context.Background(), trim(format, args))
}

func trim(format string, args []interface{}) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}
