package loader

import (
	"github.com/google/uuid"
)

// State is the lifecycle state of a load request.
type State uint8

const (
	Idle State = iota
	Running
	Completed
	Failed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal returns true for Completed and Failed.
func (s State) Terminal() bool {
	return s == Completed || s == Failed
}

// Status describes one load request.
type Status struct {
	Seq   uint64
	ID    uuid.UUID
	State State

	Total  int // files requested
	Loaded int // files ingested so far
	Failed int // files skipped so far

	Err error // set when State is Failed
}

// Done returns the number of files processed so far.
func (s Status) Done() int {
	return s.Loaded + s.Failed
}
