// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load(ctx) layers defaults, an optional YAML file and CHEF_ env vars.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"context"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn warning error"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr" validate:"required"`

	// StateBackend selects the snapshot store: file, badger or none.
	StateBackend string `koanf:"state_backend" validate:"oneof=file badger none"`

	// StatePath is the snapshot file (file backend) or directory (badger backend).
	StatePath string `koanf:"state_path" validate:"required_unless=StateBackend none"`

	// ArchiveDriver selects the relational archive: sqlite, postgres or none.
	ArchiveDriver string `koanf:"archive_driver" validate:"oneof=sqlite postgres none"`

	// ArchiveDSN is the database/sql data source name for the archive.
	ArchiveDSN string `koanf:"archive_dsn" validate:"required_unless=ArchiveDriver none"`

	// PersistQueueSize bounds the queue of pending persistence jobs.
	PersistQueueSize int `koanf:"persist_queue_size" validate:"gte=1"`

	// PersistWorkers sets the number of persistence workers.
	PersistWorkers int `koanf:"persist_workers" validate:"gte=1,lte=64"`

	// DedupeSize sets the size of the feedback event id cache.
	DedupeSize int `koanf:"dedupe_size" validate:"gte=1"`

	// LearnRateLimit caps POST /api/learn per client IP, requests per minute. 0 disables.
	LearnRateLimit int `koanf:"learn_rate_limit" validate:"gte=0"`

	// CORSOrigins lists allowed origins; "*" allows any.
	CORSOrigins []string `koanf:"cors_origins"`

	// BreakerFailureThreshold trips the archive breaker after this many consecutive failures.
	BreakerFailureThreshold int `koanf:"breaker_failure_threshold" validate:"gte=1"`

	// BreakerTimeoutMS is how long the archive breaker stays open.
	BreakerTimeoutMS int `koanf:"breaker_timeout_ms" validate:"gte=1"`

	// RecentProgression is the number of log entries returned by skill_level.
	RecentProgression int `koanf:"recent_progression" validate:"gte=1"`
}

// New creates a Config with defaults. Context is accepted first to follow the
// project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:                "info",
		LogFormat:               "text",
		Addr:                    ":5000",
		StateBackend:            "file",
		StatePath:               "learning_state.json",
		ArchiveDriver:           "none",
		ArchiveDSN:              "",
		PersistQueueSize:        256,
		PersistWorkers:          1,
		DedupeSize:              50_000,
		LearnRateLimit:          120,
		CORSOrigins:             []string{"*"},
		BreakerFailureThreshold: 5,
		BreakerTimeoutMS:        30_000,
		RecentProgression:       10,
	}
}

// BreakerTimeout returns BreakerTimeoutMS as a duration.
func (c *Config) BreakerTimeout() time.Duration {
	return time.Duration(c.BreakerTimeoutMS) * time.Millisecond
}
