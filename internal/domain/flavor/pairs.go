// Package flavor learns pairwise flavor affinity and remembers which
// ingredient/technique combinations have already been tried.
package flavor

import (
	"fmt"
	"math"
	"sort"
)

const (
	positiveStep = 1.0
	negativeStep = -0.5
	// SuccessThreshold is the rating above which an ingredient set is logged
	// as a successful combination.
	SuccessThreshold = 0.8
	confidenceScale  = 10.0
)

// Pairs maps ingredient -> partner -> accumulated affinity.
type Pairs map[string]map[string]float64

// Experiment proposes pairing two ingredients that share a well-liked partner.
type Experiment struct {
	Ingredients [2]string `json:"ingredients" yaml:"ingredients"`
	Via         string    `json:"via" yaml:"via"`
	Reasoning   string    `json:"reasoning" yaml:"reasoning"`
	Confidence  float64   `json:"confidence" yaml:"confidence"`
}

// Learner owns the affinity accumulators, the successful-combination log and
// the novelty registry. It is not safe for concurrent use.
type Learner struct {
	pairs      Pairs
	successful [][]string
	registry   *Registry
}

// NewLearner creates an empty learner.
func NewLearner() *Learner {
	return &Learner{
		pairs:      make(Pairs),
		successful: [][]string{},
		registry:   NewRegistry(),
	}
}

// Registry exposes the novelty registry.
func (l *Learner) Registry() *Registry {
	return l.registry
}

// Update adds +1 to every unordered pair when rating > 0 and -0.5 when it is
// 0, in both directions. Ratings above SuccessThreshold append the set to
// the successful-combination log.
func (l *Learner) Update(ingredients []string, rating float64) {
	step := negativeStep
	if rating > 0 {
		step = positiveStep
	}
	for i := 0; i < len(ingredients); i++ {
		for j := i + 1; j < len(ingredients); j++ {
			a, b := ingredients[i], ingredients[j]
			if a == b {
				continue
			}
			l.add(a, b, step)
			l.add(b, a, step)
		}
	}
	if rating > SuccessThreshold {
		l.successful = append(l.successful, append([]string(nil), ingredients...))
	}
}

func (l *Learner) add(a, b string, step float64) {
	row, ok := l.pairs[a]
	if !ok {
		row = make(map[string]float64)
		l.pairs[a] = row
	}
	row[b] += step
}

// Score returns the affinity of a with b.
func (l *Learner) Score(a, b string) (float64, bool) {
	v, ok := l.pairs[a][b]
	return v, ok
}

// SuccessfulCombinations returns a copy of the log, oldest first.
func (l *Learner) SuccessfulCombinations() [][]string {
	out := make([][]string, len(l.successful))
	for i, s := range l.successful {
		out[i] = append([]string(nil), s...)
	}
	return out
}

// Expertise counts, per ingredient, the partners with positive affinity.
func (l *Learner) Expertise() map[string]int {
	out := make(map[string]int, len(l.pairs))
	for a, row := range l.pairs {
		n := 0
		for _, v := range row {
			if v > 0 {
				n++
			}
		}
		out[a] = n
	}
	return out
}

// SuggestExperiments proposes (A, C) whenever A likes B, B likes C, C is not
// A and A has no recorded affinity with C at all. Confidence is
// min(score(A,B), score(B,C)) / 10. The same pair may be proposed through
// different intermediates. Results are sorted by confidence, highest first;
// equal confidences keep a stable name order.
func (l *Learner) SuggestExperiments() []Experiment {
	out := []Experiment{}
	for _, a := range sortedKeys(l.pairs) {
		rowA := l.pairs[a]
		for _, b := range sortedKeys(rowA) {
			ab := rowA[b]
			if ab <= 0 {
				continue
			}
			rowB := l.pairs[b]
			for _, c := range sortedKeys(rowB) {
				bc := rowB[c]
				if bc <= 0 || c == a {
					continue
				}
				if _, linked := rowA[c]; linked {
					continue
				}
				out = append(out, Experiment{
					Ingredients: [2]string{a, c},
					Via:         b,
					Reasoning:   fmt.Sprintf("Based on mutual success with %s", b),
					Confidence:  math.Min(ab, bc) / confidenceScale,
				})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out
}

// State is the persisted form of a Learner.
type State struct {
	Pairs                  Pairs         `json:"pairs" yaml:"pairs"`
	SuccessfulCombinations [][]string    `json:"successful_combinations" yaml:"successful_combinations"`
	KnownCombinations      []Combination `json:"known_combinations" yaml:"known_combinations"`
	SuccessfulInnovations  [][]string    `json:"successful_innovations" yaml:"successful_innovations"`
}

// Snapshot returns a deep copy of the learner state.
func (l *Learner) Snapshot() State {
	pairs := make(Pairs, len(l.pairs))
	for a, row := range l.pairs {
		cp := make(map[string]float64, len(row))
		for b, v := range row {
			cp[b] = v
		}
		pairs[a] = cp
	}
	return State{
		Pairs:                  pairs,
		SuccessfulCombinations: l.SuccessfulCombinations(),
		KnownCombinations:      l.registry.Combinations(),
		SuccessfulInnovations:  l.registry.Innovations(),
	}
}

// Restore replaces the learner state with a deep copy of s.
func (l *Learner) Restore(s State) {
	l.pairs = make(Pairs, len(s.Pairs))
	for a, row := range s.Pairs {
		for b, v := range row {
			l.add(a, b, v)
		}
		if _, ok := l.pairs[a]; !ok {
			l.pairs[a] = make(map[string]float64)
		}
	}
	l.successful = make([][]string, 0, len(s.SuccessfulCombinations))
	for _, set := range s.SuccessfulCombinations {
		l.successful = append(l.successful, append([]string(nil), set...))
	}
	l.registry.Restore(s.KnownCombinations, s.SuccessfulInnovations)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
