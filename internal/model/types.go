// Package model defines shared data structures.
package model

import "time"

// Config defines quiz settings.
type Config struct {
	BankPath   string
	Topics     []string
	Seed       int64
	HasSeed    bool
	History    bool
	FocusWeak  bool
	WeakTop    int
	WeakWindow int
}

// HistoryConfig defines filters and options for history output.
type HistoryConfig struct {
	Topic  string
	Since  *time.Time
	Last   int
	Window int
}

// RunStats captures a finished quiz run.
type RunStats struct {
	RunID     string
	StartedAt time.Time
	EndedAt   time.Time
	Topics    []string
	BankPath  string
	Score     int
	Total     int
	Answered  int
}

// TopicStats stores per-topic results for a run.
type TopicStats struct {
	Topic   string
	Correct int
	Total   int
}

// TopicAggregate aggregates topic results across runs.
type TopicAggregate struct {
	Topic   string
	Correct int
	Total   int
	Runs    int
}

// RunAggregate summarizes a run for reporting.
type RunAggregate struct {
	ID      int64
	RunID   string
	EndedAt time.Time
	Score   int
	Total   int
}
