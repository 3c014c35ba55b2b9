package learning

import (
	"time"

	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/scoring"
)

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source used for events without a timestamp.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithScorer replaces the recipe complexity scorer.
func WithScorer(s scoring.Scorer) Option {
	return func(e *Engine) {
		if s != nil {
			e.scorer = s
		}
	}
}

// WithRecentProgression sets how many log entries SkillLevel returns by default.
func WithRecentProgression(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.recent = n
		}
	}
}
