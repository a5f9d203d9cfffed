// Package messages defines Bubbletea message types for the TUI.
package messages

import (
	"github.com/custodia-labs/digest-cli/internal/core/domain"
)

// EventReceived carries one progress event of the followed job.
type EventReceived struct {
	Event domain.Event
}

// FollowEnded signals that the event stream closed. Err is nil after a
// terminal event.
type FollowEnded struct {
	Err error
}

// CancelRequested reports the result of asking the job to stop.
type CancelRequested struct {
	Err error
}
