// Package compat learns pairwise ingredient compatibility with confidence weights.
package compat

import (
	"sort"
)

// Defaults for an edge that has never been updated.
const (
	DefaultScore      = 0.0
	DefaultConfidence = 1
)

// Edge is the learned compatibility from one ingredient to another.
type Edge struct {
	Score      float64 `json:"score" yaml:"score"`
	Confidence int     `json:"confidence" yaml:"confidence"`
}

// DefaultEdge is the value of an absent edge.
func DefaultEdge() Edge {
	return Edge{Score: DefaultScore, Confidence: DefaultConfidence}
}

// blend folds one rating into an edge, weighting the old score by its confidence.
func (e Edge) blend(rating float64) Edge {
	c := float64(e.Confidence)
	return Edge{
		Score:      (e.Score*c + rating) / (c + 1),
		Confidence: e.Confidence + 1,
	}
}

// Matrix maps ingredient -> partner -> edge. Every known ingredient has a
// row, possibly empty.
type Matrix map[string]map[string]Edge

// Pair is a compatibility reading for two ingredients.
type Pair struct {
	A          string  `json:"a" yaml:"a"`
	B          string  `json:"b" yaml:"b"`
	Score      float64 `json:"score" yaml:"score"`
	Confidence int     `json:"confidence" yaml:"confidence"`
}

// Learner owns the compatibility matrix. It is not safe for concurrent use;
// the engine serializes access.
type Learner struct {
	rows Matrix
}

// NewLearner creates an empty learner.
func NewLearner() *Learner {
	return &Learner{rows: make(Matrix)}
}

// row returns the row for name, creating it on first reference.
func (l *Learner) row(name string) map[string]Edge {
	r, ok := l.rows[name]
	if !ok {
		r = make(map[string]Edge)
		l.rows[name] = r
	}
	return r
}

// edge returns the stored edge or the default.
func (l *Learner) edge(a, b string) Edge {
	if e, ok := l.rows[a][b]; ok {
		return e
	}
	return DefaultEdge()
}

// Update registers every ingredient and blends rating into every unordered
// pair of distinct ingredients. Both directions receive the same edge.
func (l *Learner) Update(ingredients []string, rating float64) {
	for _, name := range ingredients {
		l.row(name)
	}
	for i := 0; i < len(ingredients); i++ {
		for j := i + 1; j < len(ingredients); j++ {
			a, b := ingredients[i], ingredients[j]
			if a == b {
				continue
			}
			next := l.edge(a, b).blend(rating)
			l.rows[a][b] = next
			l.rows[b][a] = next
		}
	}
}

// Known reports whether the ingredient has a row.
func (l *Learner) Known(name string) bool {
	_, ok := l.rows[name]
	return ok
}

// Compatibility returns the edge a -> b. It fails with ErrNotFound only when
// neither ingredient has ever been seen; otherwise a missing edge reads as
// the default.
func (l *Learner) Compatibility(a, b string) (Edge, error) {
	if !l.Known(a) && !l.Known(b) {
		return Edge{}, ErrNotFound
	}
	return l.edge(a, b), nil
}

// Row returns the partners of an ingredient sorted by score, best first.
func (l *Learner) Row(name string) ([]Pair, error) {
	r, ok := l.rows[name]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]Pair, 0, len(r))
	for partner, e := range r {
		out = append(out, Pair{A: name, B: partner, Score: e.Score, Confidence: e.Confidence})
	}
	sortPairs(out)
	return out, nil
}

// Scores reads every unordered pair of the available ingredients, best first.
// Unknown pairs carry the default edge.
func (l *Learner) Scores(available []string) []Pair {
	out := make([]Pair, 0, len(available)*(len(available)-1)/2+1)
	for i := 0; i < len(available); i++ {
		for j := i + 1; j < len(available); j++ {
			a, b := available[i], available[j]
			if a == b {
				continue
			}
			if b < a {
				a, b = b, a
			}
			e := l.edge(a, b)
			out = append(out, Pair{A: a, B: b, Score: e.Score, Confidence: e.Confidence})
		}
	}
	sortPairs(out)
	return out
}

// Len returns the number of known ingredients.
func (l *Learner) Len() int {
	return len(l.rows)
}

// Snapshot returns a deep copy of the matrix.
func (l *Learner) Snapshot() Matrix {
	out := make(Matrix, len(l.rows))
	for a, r := range l.rows {
		cp := make(map[string]Edge, len(r))
		for b, e := range r {
			cp[b] = e
		}
		out[a] = cp
	}
	return out
}

// Restore replaces the matrix with a deep copy of m.
func (l *Learner) Restore(m Matrix) {
	l.rows = make(Matrix, len(m))
	for a, r := range m {
		row := l.row(a)
		for b, e := range r {
			row[b] = e
		}
	}
}

func sortPairs(p []Pair) {
	sort.Slice(p, func(i, j int) bool {
		if p[i].Score != p[j].Score {
			return p[i].Score > p[j].Score
		}
		if p[i].A != p[j].A {
			return p[i].A < p[j].A
		}
		return p[i].B < p[j].B
	})
}
