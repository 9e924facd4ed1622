package core

import "time"

// Status is the three-way outcome of a command run.
type Status int

const (
	// StatusSucceeded means the command completed and any transaction committed.
	StatusSucceeded Status = iota
	// StatusCancelled means input validation failed (no selection, wrong
	// element kind). Nothing was mutated; the user gets a message, not an error.
	StatusCancelled
	// StatusFailed means an unexpected error occurred. Any open
	// transaction was rolled back.
	StatusFailed
)

// String returns the human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusCancelled:
		return "cancelled"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ExitCode maps the status onto a process exit code.
func (s Status) ExitCode() int {
	switch s {
	case StatusSucceeded:
		return 0
	case StatusCancelled:
		return 2
	default:
		return 1
	}
}

// RunReport summarizes one command run. It is what the history store
// persists and what commands print on completion.
type RunReport struct {
	Command   string
	Status    Status
	Elements  int // elements inspected
	Created   int // elements written
	Skipped   int // per-item degeneracies silently dropped
	Message   string
	StartedAt time.Time
	Duration  time.Duration
}
