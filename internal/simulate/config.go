// Package simulate drives a running learning server with synthetic feedback
// events and reports what the engine learned.
package simulate

import (
	"time"

	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/types"
	"github.com/chris-altman/chef-ai-learning-lab/pkg/logger"
)

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL    string        // Base URL of the service
	NumEvents  int           // Number of distinct events to submit
	Workers    int           // Number of concurrent submitters
	Timeout    time.Duration // HTTP request timeout
	Replays    float64       // Fraction of events submitted a second time
	Seed       uint64        // Generator seed; equal seeds give equal events
	OutputFile string        // Optional JSON file for the generated events
	Logger     logger.Logger
}

// Stats counts submission outcomes.
type Stats struct {
	Generated int           `yaml:"generated"`
	Submitted int           `yaml:"submitted"`
	Accepted  int           `yaml:"accepted"`
	Duplicate int           `yaml:"duplicate"`
	Rejected  int           `yaml:"rejected"`
	Failed    int           `yaml:"failed"`
	Duration  time.Duration `yaml:"duration"`
}

// Report is the outcome of a run.
type Report struct {
	Stats      Stats               `yaml:"submission"`
	Learning   types.LearningStats `yaml:"learning"`
	SkillLevel types.SkillLevel    `yaml:"skill_level"`
}
