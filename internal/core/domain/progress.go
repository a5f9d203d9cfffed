package domain

import "time"

// State is a step of the digest pipeline state machine.
type State string

// Pipeline states, in transition order. Failed is reachable from any
// non-terminal state.
const (
	StateInitialized  State = "initialized"
	StateStructuring  State = "structuring"
	StateExtracting   State = "extracting"
	StateSynthesizing State = "synthesizing"
	StateValidating   State = "validating"
	StatePersisting   State = "persisting"
	StateCompleted    State = "completed"
	StateFailed       State = "failed"
)

// String returns the string representation.
func (s State) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition can happen.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Order returns the position of s in the forward sequence.
// Failed sorts after every other state.
func (s State) Order() int {
	switch s {
	case StateInitialized:
		return 0
	case StateStructuring:
		return 1
	case StateExtracting:
		return 2
	case StateSynthesizing:
		return 3
	case StateValidating:
		return 4
	case StatePersisting:
		return 5
	case StateCompleted:
		return 6
	default:
		return 7
	}
}

// EventStatus is the status carried by a progress event.
type EventStatus string

// Event statuses.
const (
	EventInProgress EventStatus = "in_progress"
	EventCompleted  EventStatus = "completed"
	EventError      EventStatus = "error"
)

// IsTerminal reports whether the event closes the job's log.
func (s EventStatus) IsTerminal() bool {
	return s == EventCompleted || s == EventError
}

// Event is one entry in a job's append-only progress log.
type Event struct {
	// Index is the zero-based position in the log. Readers resume from Index+1.
	Index int `json:"index"`

	JobID   string      `json:"job_id"`
	Phase   State       `json:"phase"`
	Message string      `json:"message"`
	Status  EventStatus `json:"status"`
	Time    time.Time   `json:"time"`
}
