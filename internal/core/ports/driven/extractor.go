package driven

import (
	"context"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
)

// TextExtractor decodes an uploaded document into plain text.
// Each extractor handles specific file extensions and MIME types.
type TextExtractor interface {
	// Name identifies the extractor, e.g. "pdf".
	Name() string

	// SupportedExtensions returns lower-case file extensions including the dot.
	SupportedExtensions() []string

	// SupportedMIMETypes returns the MIME types this extractor handles.
	SupportedMIMETypes() []string

	// Extract decodes the upload. It returns domain.ErrInvalidInput for
	// content that cannot be decoded.
	Extract(ctx context.Context, upload domain.Upload) (*domain.ExtractedText, error)
}
