// Package tui renders live digest progress in the terminal.
package tui

import (
	"github.com/custodia-labs/digest-cli/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the TUI.
type Ports struct {
	// Jobs follows and cancels digest runs.
	Jobs driving.JobService

	// Chapters, when set, supplies the summary shown after completion.
	Chapters driving.ChapterService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Jobs == nil {
		return ErrMissingJobService
	}
	return nil
}
