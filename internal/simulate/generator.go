package simulate

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/model"
)

var (
	pantry = []string{
		"eggs", "onions", "beef", "bread", "cheese", "tomato", "garlic",
		"lemon", "basil", "butter", "mushrooms", "spinach", "chicken", "rice",
	}
	techniques = []string{
		"dicing", "sauteing", "whisking", "scrambling", "searing", "seasoning",
		"toasting", "roasting", "braising", "folding",
	}
	stepTimes = []string{"2 minutes", "2-3 minutes", "5-10 minutes", "3-5 minutes per side", "10-15 minutes"}
)

// Rating buckets, weighted toward middling results the way real feedback is.
var ratingBuckets = []struct {
	min, span float64
	weight    int
}{
	{0.5, 0.3, 4},
	{0.8, 0.15, 2},
	{0.95, 0.05, 1},
	{1, 0, 1},
	{0.2, 0.3, 1},
	{0, 0.2, 1},
}

// Generator builds synthetic feedback events.
type Generator struct {
	rng   *rand.Rand
	runID string
	total int
}

// NewGenerator returns a generator seeded with seed.
func NewGenerator(seed uint64) *Generator {
	return &Generator{
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		runID: fmt.Sprintf("sim-%d", seed),
	}
}

// Events returns n events with unique ids.
func (g *Generator) Events(n int) []model.FeedbackEvent {
	out := make([]model.FeedbackEvent, n)
	for i := range out {
		out[i] = g.next()
	}
	return out
}

func (g *Generator) next() model.FeedbackEvent {
	g.total++
	ings := g.pick(pantry, 1+g.rng.IntN(4))
	techs := g.pick(techniques, g.rng.IntN(4))
	steps := make([]model.Step, 1+g.rng.IntN(5))
	for i := range steps {
		steps[i] = model.Step{
			Number:      i + 1,
			Instruction: fmt.Sprintf("Step %d with %s", i+1, ings[i%len(ings)]),
			Time:        stepTimes[g.rng.IntN(len(stepTimes))],
		}
	}
	return model.FeedbackEvent{
		EventID:     fmt.Sprintf("%s-%d", g.runID, g.total),
		RecipeID:    fmt.Sprint(g.total),
		Ingredients: ings,
		Techniques:  techs,
		Steps:       steps,
		Rating:      model.Float(g.rating()),
		Timestamp:   time.Now().UTC(),
	}
}

// pick returns k distinct items from pool in random order.
func (g *Generator) pick(pool []string, k int) []string {
	idx := g.rng.Perm(len(pool))[:min(k, len(pool))]
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = pool[j]
	}
	return out
}

func (g *Generator) rating() float64 {
	total := 0
	for _, b := range ratingBuckets {
		total += b.weight
	}
	n := g.rng.IntN(total)
	for _, b := range ratingBuckets {
		if n < b.weight {
			return b.min + g.rng.Float64()*b.span
		}
		n -= b.weight
	}
	return 1
}
