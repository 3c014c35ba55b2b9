// Package mastery tracks eight bounded skill categories.
package mastery

import (
	"math"
)

// Category is one of the fixed skill dimensions.
type Category int

// The category set is closed; numCategories sizes the value array.
const (
	TechniqueMastery Category = iota
	FlavorPairing
	TimingControl
	IngredientKnowledge
	RecipeComplexity
	SeasoningExpertise
	TemperatureControl
	Presentation
	numCategories
)

var categoryNames = [numCategories]string{
	TechniqueMastery:    "technique_mastery",
	FlavorPairing:       "flavor_pairing",
	TimingControl:       "timing_control",
	IngredientKnowledge: "ingredient_knowledge",
	RecipeComplexity:    "recipe_complexity",
	SeasoningExpertise:  "seasoning_expertise",
	TemperatureControl:  "temperature_control",
	Presentation:        "presentation",
}

func (c Category) String() string {
	if c < 0 || c >= numCategories {
		return "unknown"
	}
	return categoryNames[c]
}

// Categories returns every category in declaration order.
func Categories() []Category {
	out := make([]Category, numCategories)
	for i := range out {
		out[i] = Category(i)
	}
	return out
}

// ParseCategory maps a wire name back to its Category.
func ParseCategory(name string) (Category, bool) {
	for i, n := range categoryNames {
		if n == name {
			return Category(i), true
		}
	}
	return 0, false
}

const (
	baseLearningRate   = 0.1
	positiveMultiplier = 1.0
	negativeMultiplier = -0.5
	perfectRating      = 1.0
)

// Deltas are unscaled per-category changes. Missing categories count as 0.
type Deltas map[Category]float64

// Tracker holds one value in [0,1] per category.
type Tracker struct {
	values [numCategories]float64
}

// NewTracker starts every category at 0.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Apply runs the damped update over every category, including those with a
// zero delta:
//
//	rate  = 0.1 * (1 - current)
//	delta = raw * complexity * multiplier * rate
//
// where multiplier is 1 for a perfect rating and -0.5 otherwise.
func (t *Tracker) Apply(deltas Deltas, complexity, rating float64) {
	multiplier := negativeMultiplier
	if rating == perfectRating {
		multiplier = positiveMultiplier
	}
	for i := range t.values {
		current := t.values[i]
		rate := baseLearningRate * (1 - current)
		change := deltas[Category(i)] * complexity * multiplier * rate
		t.values[i] = clamp(current + change)
	}
}

// Value returns one category's mastery.
func (t *Tracker) Value(c Category) float64 {
	if c < 0 || c >= numCategories {
		return 0
	}
	return t.values[c]
}

// Overall is the arithmetic mean of all categories.
func (t *Tracker) Overall() float64 {
	sum := 0.0
	for _, v := range t.values {
		sum += v
	}
	return sum / float64(numCategories)
}

// Values returns the category map keyed by wire name.
func (t *Tracker) Values() map[string]float64 {
	out := make(map[string]float64, numCategories)
	for i, v := range t.values {
		out[categoryNames[i]] = v
	}
	return out
}

// Restore loads values by wire name. Unknown names are ignored and values
// are clamped into [0,1]; categories absent from m reset to 0.
func (t *Tracker) Restore(m map[string]float64) {
	t.values = [numCategories]float64{}
	for name, v := range m {
		if c, ok := ParseCategory(name); ok {
			t.values[c] = clamp(v)
		}
	}
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
