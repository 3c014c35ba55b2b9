package repository

import (
	"os"

	"github.com/chris-altman/chef-ai-learning-lab/pkg/logger"
)

type options struct {
	fileMode os.FileMode
	inMemory bool
	logger   logger.Logger
}

func defaultOptions() options {
	return options{fileMode: 0o644, logger: logger.Nop()}
}

// Option applies a configuration option to a snapshot store.
type Option func(*options)

// WithFileMode sets the permissions of the snapshot file.
func WithFileMode(mode os.FileMode) Option {
	return func(o *options) {
		if mode != 0 {
			o.fileMode = mode
		}
	}
}

// WithInMemory keeps the badger database in memory. The path is ignored.
func WithInMemory(inMemory bool) Option {
	return func(o *options) {
		o.inMemory = inMemory
	}
}

// WithLogger sets the logger used for store diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
