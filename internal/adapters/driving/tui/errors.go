package tui

import "errors"

// ErrMissingJobService is returned when the job service is not provided.
var ErrMissingJobService = errors.New("tui: job service is required")

// ErrMissingJobID is returned when no job is given to follow.
var ErrMissingJobID = errors.New("tui: job id is required")
