package httpapi

import (
	"errors"

	"github.com/custodia-labs/digest-cli/internal/core/ports/driving"
)

// ErrMissingChapterService is returned when the chapter service is not provided.
var ErrMissingChapterService = errors.New("httpapi: chapter service is required")

// Ports aggregates the driving ports served over HTTP.
type Ports struct {
	// Chapters reads stored analyses. Required.
	Chapters driving.ChapterService

	// Jobs runs digests. Without it the job routes answer 503.
	Jobs driving.JobService

	// Ingest decodes uploads. Without it the digest route answers 503.
	Ingest driving.IngestService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Chapters == nil {
		return ErrMissingChapterService
	}
	return nil
}
