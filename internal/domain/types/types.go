// Package types contains the result shapes returned by the learning engine
// and served over HTTP.
package types

import "time"

// LearnResult reports what one feedback event changed.
type LearnResult struct {
	EventID        string             `json:"event_id" yaml:"event_id"`
	MasteryChanges map[string]float64 `json:"mastery_changes" yaml:"mastery_changes"`
	Mastery        map[string]float64 `json:"mastery" yaml:"mastery"`
	Complexity     float64            `json:"complexity" yaml:"complexity"`
	Novel          bool               `json:"novel" yaml:"novel"`
	Attempts       int                `json:"times_attempted" yaml:"times_attempted"`
	Level          int                `json:"level" yaml:"level"`
	LevelChange    int                `json:"level_change" yaml:"level_change"`
	Label          string             `json:"label" yaml:"label"`
	Version        uint64             `json:"version" yaml:"version"`

	// Facts is read under the same lock that applied the event.
	Facts EventFacts `json:"-" yaml:"-"`
}

// EventFacts is the engine state right after one event was applied.
type EventFacts struct {
	Pairs             []PairScore
	OverallMastery    float64
	KnownIngredients  int
	KnownTechniques   int
	KnownCombinations int
}

// PairScore is the learned compatibility of two ingredients.
type PairScore struct {
	A          string  `json:"a" yaml:"a"`
	B          string  `json:"b" yaml:"b"`
	Score      float64 `json:"score" yaml:"score"`
	Confidence int     `json:"confidence" yaml:"confidence"`
}

// Experiment is a suggested untested ingredient pairing.
type Experiment struct {
	Ingredients []string `json:"ingredients" yaml:"ingredients"`
	Reasoning   string   `json:"reasoning" yaml:"reasoning"`
	Confidence  float64  `json:"confidence" yaml:"confidence"`
}

// GenerationInputs is what a recipe generator consults.
type GenerationInputs struct {
	CompatibilityScores []PairScore  `json:"compatibility_scores" yaml:"compatibility_scores"`
	SuggestedTechniques []string     `json:"suggested_techniques" yaml:"suggested_techniques"`
	FlavorSuggestions   []Experiment `json:"flavor_suggestions" yaml:"flavor_suggestions"`
}

// LearningStats summarizes the engine.
type LearningStats struct {
	OverallMastery        float64            `json:"overall_mastery" yaml:"overall_mastery"`
	CategoryMastery       map[string]float64 `json:"category_mastery" yaml:"category_mastery"`
	TechniqueProficiency  map[string]float64 `json:"technique_proficiency" yaml:"technique_proficiency"`
	KnownCombinations     int                `json:"known_combinations" yaml:"known_combinations"`
	SuccessfulInnovations int                `json:"successful_innovations" yaml:"successful_innovations"`
	FlavorExpertise       map[string]int     `json:"flavor_expertise" yaml:"flavor_expertise"`
	KnownIngredients      int                `json:"known_ingredients" yaml:"known_ingredients"`
	TechniqueTransitions  int                `json:"technique_transitions" yaml:"technique_transitions"`
	Version               uint64             `json:"version" yaml:"version"`
}

// ProgressionEntry is one complexity log record.
type ProgressionEntry struct {
	Level       int       `json:"level" yaml:"level"`
	SuccessRate float64   `json:"success_rate" yaml:"success_rate"`
	Timestamp   time.Time `json:"timestamp" yaml:"timestamp"`
}

// SkillLevel describes the current complexity level.
type SkillLevel struct {
	Label             string             `json:"label" yaml:"label"`
	Level             int                `json:"level" yaml:"level"`
	RecentProgression []ProgressionEntry `json:"recent_progression" yaml:"recent_progression"`
}
