package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		detail string
	}{
		{
			name:   "input",
			err:    &domain.ExtractionInputError{Reason: "text is empty"},
			status: http.StatusBadRequest,
			detail: "invalid input text: text is empty",
		},
		{
			name:   "too large",
			err:    &http.MaxBytesError{Limit: 10},
			status: http.StatusRequestEntityTooLarge,
			detail: "upload exceeds the size limit",
		},
		{
			name:   "not found",
			err:    fmt.Errorf("chapter x: %w", domain.ErrNotFound),
			status: http.StatusNotFound,
			detail: "chapter x: not found",
		},
		{
			name: "validation",
			err: &domain.ValidationError{ChapterID: "ch", Violations: []domain.Violation{
				{Rule: "takeaway.proposition_ids", EntityID: "ch_t001", Detail: "unknown ch_1_p009"},
			}},
			status: http.StatusUnprocessableEntity,
			detail: "validation failed",
		},
		{
			name:   "storage",
			err:    &domain.StorageError{Op: "save", ChapterID: "ch", Cause: errors.New("disk full")},
			status: http.StatusInternalServerError,
			detail: "failed to store analysis results",
		},
		{
			name:   "analysis",
			err:    &domain.AnalysisError{Phase: domain.StateExtracting, Cause: errors.New("timeout")},
			status: http.StatusInternalServerError,
			detail: "analysis pipeline failed: extracting",
		},
		{
			name:   "wait timeout",
			err:    domain.ErrWaitTimeout,
			status: http.StatusGatewayTimeout,
		},
		{
			name:   "unexpected",
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
			detail: "an unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := classify(tt.err)
			assert.Equal(t, tt.status, status)
			if tt.detail != "" {
				assert.Equal(t, tt.detail, body.Detail)
			}
		})
	}
}

func TestClassify_ListsViolations(t *testing.T) {
	_, body := classify(&domain.ValidationError{Violations: []domain.Violation{
		{Rule: "a", EntityID: "1", Detail: "x"},
		{Rule: "b", EntityID: "2", Detail: "y"},
	}})
	assert.Equal(t, []string{"a 1: x", "b 2: y"}, body.Violations)
}
