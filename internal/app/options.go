package service

import (
	"time"

	"github.com/chris-altman/chef-ai-learning-lab/internal/config"
	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/learning"
	"github.com/chris-altman/chef-ai-learning-lab/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of persistence workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the persistence queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the feedback id cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStateStore selects the snapshot backend and its path.
func WithStateStore(backend, path string) Option {
	return func(s *Service) {
		s.stateBackend = backend
		s.statePath = path
	}
}

// WithArchive enables the relational archive. driver "none" or "" disables it.
func WithArchive(driver, dsn string) Option {
	return func(s *Service) {
		s.archiveDriver = driver
		s.archiveDSN = dsn
	}
}

// WithBreaker configures the archive circuit breaker.
func WithBreaker(failures int, timeout time.Duration) Option {
	return func(s *Service) {
		if failures > 0 {
			s.breakerFailures = failures
		}
		if timeout > 0 {
			s.breakerTimeout = timeout
		}
	}
}

// WithEngineOptions passes options through to the learning engine.
func WithEngineOptions(opts ...learning.Option) Option {
	return func(s *Service) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

// FromConfig maps a loaded Config onto service options.
func FromConfig(cfg *config.Config) []Option {
	return []Option{
		WithWorkerCount(cfg.PersistWorkers),
		WithQueueSize(cfg.PersistQueueSize),
		WithDedupeSize(cfg.DedupeSize),
		WithStateStore(cfg.StateBackend, cfg.StatePath),
		WithArchive(cfg.ArchiveDriver, cfg.ArchiveDSN),
		WithBreaker(cfg.BreakerFailureThreshold, cfg.BreakerTimeout()),
		WithEngineOptions(learning.WithRecentProgression(cfg.RecentProgression)),
	}
}
