package mcp

import (
	"github.com/custodia-labs/digest-cli/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the MCP server.
type Ports struct {
	// Chapters reads stored analyses. Required.
	Chapters driving.ChapterService

	// Jobs submits and tracks digest runs. Optional: without it the
	// digest_text and job_status tools report ErrJobsUnavailable.
	Jobs driving.JobService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Chapters == nil {
		return ErrMissingChapterService
	}
	return nil
}
