package learning

import (
	"fmt"
	"time"

	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/compat"
	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/complexity"
	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/flavor"
	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/technique"
)

// SchemaVersion is written into every snapshot.
const SchemaVersion = 1

// State is the full persisted engine document. Version increases by one per
// accepted feedback event, so a store can drop snapshots older than the one
// it already holds.
type State struct {
	SchemaVersion  int                `json:"schema_version" yaml:"schema_version"`
	Version        uint64             `json:"version" yaml:"version"`
	SavedAt        time.Time          `json:"saved_at" yaml:"saved_at"`
	Mastery        map[string]float64 `json:"mastery" yaml:"mastery"`
	TechniqueGraph technique.State    `json:"technique_graph" yaml:"technique_graph"`
	Compatibility  compat.Matrix      `json:"compatibility" yaml:"compatibility"`
	Flavor         flavor.State       `json:"flavor" yaml:"flavor"`
	Complexity     complexity.State   `json:"complexity" yaml:"complexity"`
}

func (s State) check() error {
	if s.SchemaVersion > SchemaVersion {
		return fmt.Errorf("%w: snapshot schema %d is newer than %d", ErrPersistence, s.SchemaVersion, SchemaVersion)
	}
	if s.Complexity.Level < complexity.MinLevel || s.Complexity.Level > complexity.MaxLevel {
		return fmt.Errorf("%w: complexity level %d out of range", ErrPersistence, s.Complexity.Level)
	}
	return nil
}
