package archive

import (
	"time"

	"github.com/chris-altman/chef-ai-learning-lab/pkg/logger"
)

const (
	defaultFailureThreshold = 5
	defaultBreakerTimeout   = 30 * time.Second
)

// Option applies a configuration option to an Archive.
type Option func(*Archive)

// WithBreaker sets how many consecutive write failures open the breaker and
// how long it stays open before a trial write is allowed.
func WithBreaker(failures int, timeout time.Duration) Option {
	return func(a *Archive) {
		if failures > 0 {
			a.failureThreshold = uint32(failures)
		}
		if timeout > 0 {
			a.breakerTimeout = timeout
		}
	}
}

// WithLogger sets the logger used for breaker transitions.
func WithLogger(l logger.Logger) Option {
	return func(a *Archive) {
		if l != nil {
			a.logger = l
		}
	}
}
