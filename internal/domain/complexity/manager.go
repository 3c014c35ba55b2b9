// Package complexity tracks the chef's proficiency level and its label ladder.
package complexity

import (
	"time"
)

const (
	MinLevel = 0
	MaxLevel = 100

	promoteStep   = 5
	demoteStep    = 2
	promoteRating = 0.8
	demoteRating  = 0.3
)

// Threshold maps the lowest level of a band to its label.
type Threshold struct {
	Level int
	Label string
}

// Ladder is ordered by ascending level.
var Ladder = []Threshold{
	{Level: 0, Label: "Beginner"},
	{Level: 20, Label: "Intermediate"},
	{Level: 40, Label: "Advanced"},
	{Level: 60, Label: "Expert"},
	{Level: 80, Label: "Master"},
}

// Entry is one immutable progression log record.
type Entry struct {
	Level       int       `json:"level" yaml:"level"`
	SuccessRate float64   `json:"success_rate" yaml:"success_rate"`
	Timestamp   time.Time `json:"timestamp" yaml:"timestamp"`
}

// State is the persisted form of a Manager.
type State struct {
	Level int     `json:"level" yaml:"level"`
	Log   []Entry `json:"log" yaml:"log"`
}

// Manager owns the level and the append-only progression log.
// It is not safe for concurrent use.
type Manager struct {
	level int
	log   []Entry
}

// NewManager starts at level 0 with an empty log.
func NewManager() *Manager {
	return &Manager{log: []Entry{}}
}

// Update applies one outcome. A rating above 0.8 with at least level/10
// techniques promotes by 5 (capped at 100); a rating below 0.3 demotes by 2
// (floored at 0); anything in between leaves the level alone. Every call
// appends a log entry. It returns the level change.
func (m *Manager) Update(techniqueCount int, rating float64, at time.Time) int {
	before := m.level
	switch {
	case rating > promoteRating && float64(techniqueCount) >= float64(m.level)/10:
		m.level = min(MaxLevel, m.level+promoteStep)
	case rating < demoteRating:
		m.level = max(MinLevel, m.level-demoteStep)
	}
	m.log = append(m.log, Entry{Level: m.level, SuccessRate: rating, Timestamp: at})
	return m.level - before
}

// Level returns the current level.
func (m *Manager) Level() int {
	return m.level
}

// Label returns the label of the highest threshold not above the level.
func (m *Manager) Label() string {
	return LabelFor(m.level)
}

// LabelFor resolves a level against the ladder, falling back to the lowest
// label when the level is below every threshold.
func LabelFor(level int) string {
	for i := len(Ladder) - 1; i >= 0; i-- {
		if level >= Ladder[i].Level {
			return Ladder[i].Label
		}
	}
	return Ladder[0].Label
}

// Recent returns up to n of the latest log entries, oldest first.
func (m *Manager) Recent(n int) []Entry {
	if n <= 0 {
		return []Entry{}
	}
	start := max(0, len(m.log)-n)
	return append([]Entry{}, m.log[start:]...)
}

// Len returns the number of log entries.
func (m *Manager) Len() int {
	return len(m.log)
}

// Snapshot returns a copy of the manager state.
func (m *Manager) Snapshot() State {
	return State{Level: m.level, Log: append([]Entry{}, m.log...)}
}

// Restore replaces the manager state; the level is clamped into range.
func (m *Manager) Restore(s State) {
	m.level = max(MinLevel, min(MaxLevel, s.Level))
	m.log = append([]Entry{}, s.Log...)
}
