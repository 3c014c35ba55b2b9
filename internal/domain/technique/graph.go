// Package technique learns which technique transitions work and how well
// each technique has been practised.
package technique

import (
	"math"
	"sort"
)

const (
	// LearnThreshold gates every graph update: only ratings strictly above
	// it reinforce transitions.
	LearnThreshold = 0.7
	// NeutralDifficulty is the prior for a transition seen for the first time.
	NeutralDifficulty = 0.5

	basePathLength   = 2
	levelsPerStep    = 20
	maxLevel         = 100
	perfectRating    = 1.0
	initialSkill     = 0.1
	skillPerPractice = 0.1
)

// Edge is a learned transition between two techniques.
type Edge struct {
	Weight     int     `json:"weight" yaml:"weight"`
	Difficulty float64 `json:"difficulty" yaml:"difficulty"`
}

// Edges maps technique -> next technique -> edge.
type Edges map[string]map[string]Edge

// State is the persisted form of a Graph.
type State struct {
	Edges       Edges              `json:"edges" yaml:"edges"`
	Proficiency map[string]float64 `json:"proficiency" yaml:"proficiency"`
}

// Graph owns the transition graph and per-technique proficiency.
// It is not safe for concurrent use.
type Graph struct {
	edges       Edges
	proficiency map[string]float64
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		edges:       make(Edges),
		proficiency: make(map[string]float64),
	}
}

// Update reinforces every consecutive transition in seq when rating clears
// LearnThreshold. Lower ratings leave the graph untouched. It reports
// whether the graph changed.
func (g *Graph) Update(seq []string, rating float64) bool {
	if rating <= LearnThreshold || len(seq) < 2 {
		return false
	}
	for i := 0; i+1 < len(seq); i++ {
		from, to := seq[i], seq[i+1]
		row, ok := g.edges[from]
		if !ok {
			row = make(map[string]Edge)
			g.edges[from] = row
		}
		e, ok := row[to]
		if !ok {
			e = Edge{Weight: 0, Difficulty: NeutralDifficulty}
		}
		e.Weight++
		e.Difficulty = (e.Difficulty + rating) / 2
		row[to] = e
	}
	return true
}

// Practice raises proficiency of each technique after a perfect rating:
// an unseen technique starts at 0.1, then gains 0.1 * complexity, capped at 1.
func (g *Graph) Practice(techniques []string, complexity, rating float64) {
	if rating != perfectRating {
		return
	}
	for _, t := range techniques {
		p, ok := g.proficiency[t]
		if !ok {
			p = initialSkill
		}
		g.proficiency[t] = math.Min(1, p+skillPerPractice*complexity)
	}
}

// Edge returns the transition from -> to.
func (g *Graph) Edge(from, to string) (Edge, bool) {
	e, ok := g.edges[from][to]
	return e, ok
}

// EdgeCount returns the number of learned transitions.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, row := range g.edges {
		n += len(row)
	}
	return n
}

// Proficiency returns a copy of the per-technique proficiency map.
func (g *Graph) Proficiency() map[string]float64 {
	out := make(map[string]float64, len(g.proficiency))
	for k, v := range g.proficiency {
		out[k] = v
	}
	return out
}

// Suggest walks the graph to produce a technique sequence for a level.
//
// The path holds up to 2 + level/20 techniques. It starts at the technique
// with the largest total outgoing weight and repeatedly follows the edge to
// an unvisited technique maximizing weight * (1 - |difficulty - level/100|),
// so beginners are steered to easier transitions. Ties go to the higher
// weight, then the lexically smaller name. The result is never nil.
func (g *Graph) Suggest(level int) []string {
	level = max(0, min(maxLevel, level))
	limit := basePathLength + level/levelsPerStep
	target := float64(level) / maxLevel

	start, ok := g.busiest()
	if !ok {
		return []string{}
	}

	path := []string{start}
	visited := map[string]bool{start: true}
	for cur := start; len(path) < limit; {
		next, found := "", false
		bestScore, bestWeight := -1.0, -1
		for _, to := range sortedKeys(g.edges[cur]) {
			if visited[to] {
				continue
			}
			e := g.edges[cur][to]
			score := float64(e.Weight) * (1 - math.Abs(e.Difficulty-target))
			if score > bestScore || (score == bestScore && e.Weight > bestWeight) {
				next, found = to, true
				bestScore, bestWeight = score, e.Weight
			}
		}
		if !found {
			break
		}
		path = append(path, next)
		visited[next] = true
		cur = next
	}
	return path
}

// busiest returns the technique with the largest total outgoing weight.
func (g *Graph) busiest() (string, bool) {
	best, bestWeight := "", 0
	for _, from := range sortedKeys(g.edges) {
		total := 0
		for _, e := range g.edges[from] {
			total += e.Weight
		}
		if total > bestWeight {
			best, bestWeight = from, total
		}
	}
	return best, bestWeight > 0
}

// Snapshot returns a deep copy of the graph state.
func (g *Graph) Snapshot() State {
	edges := make(Edges, len(g.edges))
	for from, row := range g.edges {
		cp := make(map[string]Edge, len(row))
		for to, e := range row {
			cp[to] = e
		}
		edges[from] = cp
	}
	return State{Edges: edges, Proficiency: g.Proficiency()}
}

// Restore replaces the graph state with a deep copy of s.
func (g *Graph) Restore(s State) {
	g.edges = make(Edges, len(s.Edges))
	for from, row := range s.Edges {
		cp := make(map[string]Edge, len(row))
		for to, e := range row {
			cp[to] = e
		}
		g.edges[from] = cp
	}
	g.proficiency = make(map[string]float64, len(s.Proficiency))
	for k, v := range s.Proficiency {
		g.proficiency[k] = math.Max(0, math.Min(1, v))
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
