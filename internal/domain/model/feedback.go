// Package model contains domain models passed between layers.
package model

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Step is one recipe instruction. Time is free text such as "5-10 minutes".
type Step struct {
	Number      int      `json:"step_number,omitempty"`
	Instruction string   `json:"instruction" validate:"required"`
	Time        string   `json:"time,omitempty"`
	Tips        []string `json:"tips,omitempty"`
}

// Minutes returns the leading integer of Time ("5-10 minutes" -> 5).
// A missing or unparseable time counts as zero.
func (s Step) Minutes() int {
	n, _ := leadingInt(s.Time)
	return n
}

// MaxMinutes returns the upper bound of a range ("3-5 minutes per side" -> 5),
// or Minutes when Time is a single value.
func (s Step) MaxMinutes() int {
	_, rest, ok := strings.Cut(s.Time, "-")
	if !ok {
		return s.Minutes()
	}
	n, _ := leadingInt(rest)
	return n
}

func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
	if end == -1 {
		end = len(s)
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// FeedbackEvent is one outcome report for a cooked recipe.
// Rating is a pointer so a missing rating can be told apart from 0.
type FeedbackEvent struct {
	EventID     string    `json:"event_id,omitempty" validate:"max=128"`
	RecipeID    string    `json:"recipe_id,omitempty" validate:"max=128"`
	Ingredients []string  `json:"ingredients" validate:"required,min=1,dive,required,max=64"`
	Techniques  []string  `json:"techniques" validate:"dive,required,max=64"`
	Steps       []Step    `json:"steps,omitempty" validate:"dive"`
	Rating      *float64  `json:"rating" validate:"required,gte=0,lte=1"`
	Feedback    string    `json:"feedback,omitempty" validate:"max=4096"`
	Timestamp   time.Time `json:"timestamp"`
}

// Normalized returns a copy with lowercased, trimmed names. Ingredients are
// also deduplicated; techniques keep their order and repeats since the
// sequence itself is learned.
func (e FeedbackEvent) Normalized() FeedbackEvent {
	out := e
	out.Ingredients = NormalizeNames(e.Ingredients)
	out.Techniques = make([]string, 0, len(e.Techniques))
	for _, t := range e.Techniques {
		if t = NormalizeName(t); t != "" {
			out.Techniques = append(out.Techniques, t)
		}
	}
	if len(e.Steps) > 0 {
		out.Steps = append([]Step(nil), e.Steps...)
	}
	if e.Rating != nil {
		r := *e.Rating
		out.Rating = &r
	}
	return out
}

// TotalMinutes sums the leading minutes of every step.
func (e FeedbackEvent) TotalMinutes() int {
	total := 0
	for _, s := range e.Steps {
		total += s.Minutes()
	}
	return total
}

// NormalizeName lowercases and trims an ingredient or technique name.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NormalizeNames normalizes names, dropping empties and duplicates while
// keeping first-seen order.
func NormalizeNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = NormalizeName(n)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// Float returns a pointer to v, for building events in code.
func Float(v float64) *float64 { return &v }
