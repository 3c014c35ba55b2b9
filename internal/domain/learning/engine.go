// Package learning composes the individual learners into one engine that
// applies a feedback event as a single atomic update.
//
// Update order per event is fixed: complexity level, ingredient
// compatibility, technique graph, flavor pairs with novelty, then mastery.
// Queries share a read lock; Learn, Snapshot and Restore take the write lock.
package learning

import (
	"fmt"
	"sync"
	"time"

	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/compat"
	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/complexity"
	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/flavor"
	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/mastery"
	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/model"
	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/scoring"
	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/technique"
	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/types"
)

const (
	techniqueDelta  = 0.05
	noveltyDelta    = 0.1
	perfectRating   = 1.0
	defaultProgress = 10
)

// Engine owns all learned state.
type Engine struct {
	mu sync.RWMutex

	mastery    *mastery.Tracker
	compat     *compat.Learner
	techniques *technique.Graph
	flavor     *flavor.Learner
	complexity *complexity.Manager

	scorer  scoring.Scorer
	now     func() time.Time
	recent  int
	version uint64
}

// New creates an engine in the all-default initial state.
func New(opts ...Option) *Engine {
	e := &Engine{
		mastery:    mastery.NewTracker(),
		compat:     compat.NewLearner(),
		techniques: technique.NewGraph(),
		flavor:     flavor.NewLearner(),
		complexity: complexity.NewManager(),
		scorer:     scoring.NewComplexityScorer(),
		now:        time.Now,
		recent:     defaultProgress,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Learn validates one feedback event and applies it. Nothing is mutated when
// validation fails.
func (e *Engine) Learn(ev model.FeedbackEvent) (types.LearnResult, error) {
	ev = ev.Normalized()
	if err := Validate(ev); err != nil {
		return types.LearnResult{}, err
	}
	rating := *ev.Rating

	score := e.scorer.Score(scoring.Input{
		Ingredients:  len(ev.Ingredients),
		Techniques:   len(ev.Techniques),
		Steps:        len(ev.Steps),
		TotalMinutes: ev.TotalMinutes(),
	}).Score

	e.mu.Lock()
	defer e.mu.Unlock()

	at := ev.Timestamp
	if at.IsZero() {
		at = e.now()
	}
	at = at.UTC()

	change := e.complexity.Update(len(ev.Techniques), rating, at)
	e.compat.Update(ev.Ingredients, rating)
	e.techniques.Update(ev.Techniques, rating)
	e.techniques.Practice(ev.Techniques, score, rating)
	e.flavor.Update(ev.Ingredients, rating)
	novel, attempts := e.flavor.Registry().Observe(ev.Ingredients, ev.Techniques, rating, at)

	deltas := categoryDeltas(len(ev.Techniques), rating, novel)
	e.mastery.Apply(deltas, score, rating)
	e.version++

	changes := make(map[string]float64, len(mastery.Categories()))
	for _, c := range mastery.Categories() {
		changes[c.String()] = deltas[c]
	}

	pairs := e.compat.Scores(ev.Ingredients)
	facts := types.EventFacts{
		Pairs:             make([]types.PairScore, 0, len(pairs)),
		OverallMastery:    e.mastery.Overall(),
		KnownIngredients:  e.compat.Len(),
		KnownTechniques:   len(e.techniques.Proficiency()),
		KnownCombinations: e.flavor.Registry().Len(),
	}
	for _, p := range pairs {
		facts.Pairs = append(facts.Pairs, pairScore(p))
	}

	return types.LearnResult{
		EventID:        ev.EventID,
		MasteryChanges: changes,
		Mastery:        e.mastery.Values(),
		Complexity:     score,
		Novel:          novel,
		Attempts:       attempts,
		Level:          e.complexity.Level(),
		LevelChange:    change,
		Label:          e.complexity.Label(),
		Version:        e.version,
		Facts:          facts,
	}, nil
}

// categoryDeltas builds the raw per-category deltas for one event. Every
// category is present; most are 0.
func categoryDeltas(techniques int, rating float64, novel bool) mastery.Deltas {
	d := make(mastery.Deltas, len(mastery.Categories()))
	for _, c := range mastery.Categories() {
		d[c] = 0
	}
	if rating == perfectRating {
		d[mastery.TechniqueMastery] = techniqueDelta * float64(techniques)
	}
	if novel {
		d[mastery.RecipeComplexity] = noveltyDelta
	}
	return d
}

// GenerateInputs returns what a recipe generator consults for the given
// ingredients. Flavor suggestions are limited to pairs touching one of
// them; with no ingredients every suggestion is returned.
func (e *Engine) GenerateInputs(available []string) types.GenerationInputs {
	avail := model.NormalizeNames(available)

	e.mu.RLock()
	defer e.mu.RUnlock()

	pairs := e.compat.Scores(avail)
	scores := make([]types.PairScore, 0, len(pairs))
	for _, p := range pairs {
		scores = append(scores, pairScore(p))
	}

	return types.GenerationInputs{
		CompatibilityScores: scores,
		SuggestedTechniques: e.techniques.Suggest(e.complexity.Level()),
		FlavorSuggestions:   filterExperiments(e.flavor.SuggestExperiments(), avail),
	}
}

// Experiments returns every flavor experiment, best first.
func (e *Engine) Experiments() []types.Experiment {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return filterExperiments(e.flavor.SuggestExperiments(), nil)
}

func filterExperiments(all []flavor.Experiment, avail []string) []types.Experiment {
	want := make(map[string]struct{}, len(avail))
	for _, a := range avail {
		want[a] = struct{}{}
	}
	out := make([]types.Experiment, 0, len(all))
	for _, x := range all {
		if len(want) > 0 {
			_, a := want[x.Ingredients[0]]
			_, b := want[x.Ingredients[1]]
			if !a && !b {
				continue
			}
		}
		out = append(out, types.Experiment{
			Ingredients: []string{x.Ingredients[0], x.Ingredients[1]},
			Reasoning:   x.Reasoning,
			Confidence:  x.Confidence,
		})
	}
	return out
}

// Stats summarizes the learned state.
func (e *Engine) Stats() types.LearningStats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return types.LearningStats{
		OverallMastery:        e.mastery.Overall(),
		CategoryMastery:       e.mastery.Values(),
		TechniqueProficiency:  e.techniques.Proficiency(),
		KnownCombinations:     e.flavor.Registry().Len(),
		SuccessfulInnovations: e.flavor.Registry().InnovationCount(),
		FlavorExpertise:       e.flavor.Expertise(),
		KnownIngredients:      e.compat.Len(),
		TechniqueTransitions:  e.techniques.EdgeCount(),
		Version:               e.version,
	}
}

// SkillLevel returns the label, level and up to n recent progression
// entries. n <= 0 uses the configured default.
func (e *Engine) SkillLevel(n int) types.SkillLevel {
	if n <= 0 {
		n = e.recent
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	recent := e.complexity.Recent(n)
	entries := make([]types.ProgressionEntry, 0, len(recent))
	for _, r := range recent {
		entries = append(entries, types.ProgressionEntry{Level: r.Level, SuccessRate: r.SuccessRate, Timestamp: r.Timestamp})
	}
	return types.SkillLevel{
		Label:             e.complexity.Label(),
		Level:             e.complexity.Level(),
		RecentProgression: entries,
	}
}

// Compatibility returns the learned a -> b edge. It wraps ErrNotFound when
// neither ingredient was ever seen.
func (e *Engine) Compatibility(a, b string) (types.PairScore, error) {
	a, b = model.NormalizeName(a), model.NormalizeName(b)

	e.mu.RLock()
	defer e.mu.RUnlock()

	edge, err := e.compat.Compatibility(a, b)
	if err != nil {
		return types.PairScore{}, fmt.Errorf("%w: %s, %s", ErrNotFound, a, b)
	}
	return types.PairScore{A: a, B: b, Score: edge.Score, Confidence: edge.Confidence}, nil
}

// IngredientRow lists the known partners of an ingredient, best first.
func (e *Engine) IngredientRow(name string) ([]types.PairScore, error) {
	name = model.NormalizeName(name)

	e.mu.RLock()
	defer e.mu.RUnlock()

	row, err := e.compat.Row(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	out := make([]types.PairScore, 0, len(row))
	for _, p := range row {
		out = append(out, pairScore(p))
	}
	return out, nil
}

// Version returns the number of events applied since the initial state.
func (e *Engine) Version() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.version
}

// Snapshot captures the full state. It holds the write lock so no update
// can interleave with the copy.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	return State{
		SchemaVersion:  SchemaVersion,
		Version:        e.version,
		SavedAt:        e.now().UTC(),
		Mastery:        e.mastery.Values(),
		TechniqueGraph: e.techniques.Snapshot(),
		Compatibility:  e.compat.Snapshot(),
		Flavor:         e.flavor.Snapshot(),
		Complexity:     e.complexity.Snapshot(),
	}
}

// Restore replaces the full state. A rejected snapshot leaves the engine
// untouched.
func (e *Engine) Restore(s State) error {
	if err := s.check(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.mastery.Restore(s.Mastery)
	e.techniques.Restore(s.TechniqueGraph)
	e.compat.Restore(s.Compatibility)
	e.flavor.Restore(s.Flavor)
	e.complexity.Restore(s.Complexity)
	e.version = s.Version
	return nil
}

func pairScore(p compat.Pair) types.PairScore {
	return types.PairScore{A: p.A, B: p.B, Score: p.Score, Confidence: p.Confidence}
}
