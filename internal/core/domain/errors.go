package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates no text extractor handles the given file type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrGeneratorUnavailable indicates the generation engine is not configured.
	ErrGeneratorUnavailable = errors.New("generator unavailable")

	// ErrSchemaViolation indicates a generation response did not match its schema.
	ErrSchemaViolation = errors.New("response violates schema")

	// Job Errors.

	// ErrJobNotFound indicates the job id is unknown or has expired.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobExists indicates a job with the same id is already registered.
	ErrJobExists = errors.New("job already exists")

	// ErrWaitTimeout indicates a progress reader gave up waiting.
	// The job itself keeps running.
	ErrWaitTimeout = errors.New("timed out waiting for job")

	// ErrCancelled indicates a digest run was cancelled by its caller.
	ErrCancelled = errors.New("cancelled")
)

// ExtractionInputError rejects input before any pipeline stage starts.
type ExtractionInputError struct {
	Reason string
}

// Error implements error.
func (e *ExtractionInputError) Error() string {
	return "invalid input text: " + e.Reason
}

// Unwrap lets callers match ErrInvalidInput.
func (e *ExtractionInputError) Unwrap() error {
	return ErrInvalidInput
}

// AnalysisError reports a failed generation phase.
type AnalysisError struct {
	Phase State
	Cause error
}

// Error implements error.
func (e *AnalysisError) Error() string {
	return fmt.Sprintf("%s phase failed: %v", e.Phase, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *AnalysisError) Unwrap() error {
	return e.Cause
}

// Violation is a single broken invariant found in a chapter graph.
type Violation struct {
	// Rule names the invariant, e.g. "proposition.unit_id".
	Rule string

	// EntityID is the offending proposition, takeaway or section id.
	EntityID string

	// Detail describes the problem.
	Detail string
}

// String formats the violation for logs and messages.
func (v Violation) String() string {
	return fmt.Sprintf("%s %s: %s", v.Rule, v.EntityID, v.Detail)
}

// ValidationError lists every violation found, not just the first.
type ValidationError struct {
	ChapterID  string
	Violations []Violation
}

// Error implements error.
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return fmt.Sprintf("chapter %s failed validation (%d violations): %s",
		e.ChapterID, len(e.Violations), strings.Join(parts, "; "))
}

// StorageError reports a failed persistence operation.
// No partial write is left behind when it is returned from Save.
type StorageError struct {
	Op        string
	ChapterID string
	Cause     error
}

// Error implements error.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.ChapterID, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *StorageError) Unwrap() error {
	return e.Cause
}
