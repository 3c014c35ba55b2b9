// Package scoring computes the normalized complexity score of a recipe.
package scoring

import (
	"math"
)

// Default saturation points: a factor reaches 1.0 at these counts.
const (
	defaultIngredientCap = 10
	defaultTechniqueCap  = 5
	defaultStepCap       = 15
	defaultMinuteCap     = 60
)

// Option applies a configuration option to the ComplexityScorer.
type Option func(*ComplexityScorer)

// WithSaturation overrides the count at which each factor saturates.
// Non-positive values keep the default.
func WithSaturation(ingredients, techniques, steps, minutes float64) Option {
	return func(s *ComplexityScorer) {
		if ingredients > 0 {
			s.ingredientCap = ingredients
		}
		if techniques > 0 {
			s.techniqueCap = techniques
		}
		if steps > 0 {
			s.stepCap = steps
		}
		if minutes > 0 {
			s.minuteCap = minutes
		}
	}
}

// Input abstracts the recipe fields needed for scoring.
type Input struct {
	Ingredients  int
	Techniques   int
	Steps        int
	TotalMinutes int
}

// Factors are the four normalized ratios, each in [0,1].
type Factors struct {
	Ingredients float64 `json:"ingredients"`
	Techniques  float64 `json:"techniques"`
	Steps       float64 `json:"steps"`
	Time        float64 `json:"time"`
}

// Result contains the computed complexity.
type Result struct {
	Score   float64 `json:"score"`
	Factors Factors `json:"factors"`
}

// Scorer computes a complexity score in [0,1].
type Scorer interface {
	Score(in Input) Result
}

// ComplexityScorer averages four saturating ratios.
type ComplexityScorer struct {
	ingredientCap float64
	techniqueCap  float64
	stepCap       float64
	minuteCap     float64
}

// NewComplexityScorer creates a scorer with configuration options.
func NewComplexityScorer(opts ...Option) *ComplexityScorer {
	s := &ComplexityScorer{
		ingredientCap: defaultIngredientCap,
		techniqueCap:  defaultTechniqueCap,
		stepCap:       defaultStepCap,
		minuteCap:     defaultMinuteCap,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Score computes the complexity for the given input.
func (s *ComplexityScorer) Score(in Input) Result {
	f := Factors{
		Ingredients: ratio(in.Ingredients, s.ingredientCap),
		Techniques:  ratio(in.Techniques, s.techniqueCap),
		Steps:       ratio(in.Steps, s.stepCap),
		Time:        ratio(in.TotalMinutes, s.minuteCap),
	}
	return Result{
		Score:   (f.Ingredients + f.Techniques + f.Steps + f.Time) / 4,
		Factors: f,
	}
}

func ratio(n int, limit float64) float64 {
	if n <= 0 {
		return 0
	}
	return math.Min(1, float64(n)/limit)
}
