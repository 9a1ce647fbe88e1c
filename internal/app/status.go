package app

import (
	"fmt"
	"time"
)

// State of a loading job.
type State int

// Job states.
const (
	InProgress State = iota
	Completed
	Canceled
)

func (s State) String() string {
	switch s {
	case InProgress:
		return "in progress"
	case Completed:
		return "completed"
	case Canceled:
		return "canceled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Status describes job state at some point of time.
type Status struct {
	State   State
	Elapsed time.Duration
}

// Terminal tells if job has finished.
func (s Status) Terminal() bool {
	return s.State != InProgress
}

// String returns text like "completed in 1.2 sec". Tenths of a second are
// truncated, not rounded.
func (s Status) String() string {
	switch s.State {
	case Completed:
		return "completed in " + formatSeconds(s.Elapsed)
	case InProgress:
		return "in progress " + formatSeconds(s.Elapsed)
	default:
		return s.State.String()
	}
}

func formatSeconds(d time.Duration) string {
	ms := d.Milliseconds()
	return fmt.Sprintf("%d.%d sec", ms/1000, ms%1000/100)
}
