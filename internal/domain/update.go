package domain

import "time"

type SourceFailure struct {
	Source string
	Err    error
}

// UpdateOutcome summarizes one update cycle.
type UpdateOutcome struct {
	ExecID      string
	TotalRates  int
	LastRefresh *time.Time
	Errors      []SourceFailure
	// Skipped is set when another writer held the cycle lock.
	Skipped bool
}
