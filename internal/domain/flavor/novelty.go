package flavor

import (
	"sort"
	"strings"
	"time"
)

const perfectRating = 1.0

// Combination is one (ingredient set, technique set) that has been attempted.
type Combination struct {
	Ingredients    []string  `json:"ingredients" yaml:"ingredients"`
	Techniques     []string  `json:"techniques" yaml:"techniques"`
	FirstAttempted time.Time `json:"first_attempted" yaml:"first_attempted"`
	TimesAttempted int       `json:"times_attempted" yaml:"times_attempted"`
}

// Registry detects novel combinations and records successful innovations,
// i.e. ingredient sets whose first attempt earned a perfect rating.
type Registry struct {
	known       map[string]*Combination
	innovations map[string][]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		known:       make(map[string]*Combination),
		innovations: make(map[string][]string),
	}
}

// Observe records an attempt. The first attempt of a combination is novel;
// repeats only increment its counter. A novel combination with a perfect
// rating adds its ingredient set to the innovations.
func (r *Registry) Observe(ingredients, techniques []string, rating float64, at time.Time) (novel bool, attempts int) {
	ings, techs := canonical(ingredients), canonical(techniques)
	key := comboKey(ings, techs)
	if c, ok := r.known[key]; ok {
		c.TimesAttempted++
		return false, c.TimesAttempted
	}
	r.known[key] = &Combination{
		Ingredients:    ings,
		Techniques:     techs,
		FirstAttempted: at,
		TimesAttempted: 1,
	}
	if rating == perfectRating {
		r.innovations[setKey(ings)] = ings
	}
	return true, 1
}

// Attempts returns how often a combination has been attempted.
func (r *Registry) Attempts(ingredients, techniques []string) int {
	if c, ok := r.known[comboKey(canonical(ingredients), canonical(techniques))]; ok {
		return c.TimesAttempted
	}
	return 0
}

// Len returns the number of known combinations.
func (r *Registry) Len() int { return len(r.known) }

// InnovationCount returns the number of successful innovations.
func (r *Registry) InnovationCount() int { return len(r.innovations) }

// Combinations returns copies of all known combinations in key order.
func (r *Registry) Combinations() []Combination {
	keys := sortedKeys(r.known)
	out := make([]Combination, 0, len(keys))
	for _, k := range keys {
		c := *r.known[k]
		c.Ingredients = append([]string(nil), c.Ingredients...)
		c.Techniques = append([]string(nil), c.Techniques...)
		out = append(out, c)
	}
	return out
}

// Innovations returns the innovative ingredient sets in key order.
func (r *Registry) Innovations() [][]string {
	keys := sortedKeys(r.innovations)
	out := make([][]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, append([]string(nil), r.innovations[k]...))
	}
	return out
}

// Restore replaces the registry contents.
func (r *Registry) Restore(combos []Combination, innovations [][]string) {
	r.known = make(map[string]*Combination, len(combos))
	for _, c := range combos {
		ings, techs := canonical(c.Ingredients), canonical(c.Techniques)
		r.known[comboKey(ings, techs)] = &Combination{
			Ingredients:    ings,
			Techniques:     techs,
			FirstAttempted: c.FirstAttempted,
			TimesAttempted: max(1, c.TimesAttempted),
		}
	}
	r.innovations = make(map[string][]string, len(innovations))
	for _, set := range innovations {
		ings := canonical(set)
		r.innovations[setKey(ings)] = ings
	}
}

// canonical returns a sorted copy without duplicates.
func canonical(names []string) []string {
	out := append([]string{}, names...)
	sort.Strings(out)
	n := 0
	for i, s := range out {
		if i > 0 && s == out[n-1] {
			continue
		}
		out[n] = s
		n++
	}
	return out[:n]
}

const sep = "\x1f"

func setKey(names []string) string { return strings.Join(names, sep) }

func comboKey(ings, techs []string) string {
	return setKey(ings) + "\x1e" + setKey(techs)
}
