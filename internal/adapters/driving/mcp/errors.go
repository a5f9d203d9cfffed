// Package mcp exposes digest runs and stored chapters to AI assistants over
// the Model Context Protocol.
package mcp

import "errors"

var (
	// ErrMissingChapterService is returned when the chapter service is not provided.
	ErrMissingChapterService = errors.New("mcp: chapter service is required")

	// ErrJobsUnavailable is returned by job tools when no job service is wired,
	// usually because the generator is not configured.
	ErrJobsUnavailable = errors.New("mcp: digest jobs are not available")
)
