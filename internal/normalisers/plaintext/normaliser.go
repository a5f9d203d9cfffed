// Package plaintext extracts chapter text from plain text uploads.
package plaintext

import (
	"context"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
	"github.com/custodia-labs/digest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/digest-cli/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.TextExtractor = (*Normaliser)(nil)

// Normaliser handles plain text documents in UTF-8, UTF-16 or Windows-1252.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Name identifies the extractor.
func (n *Normaliser) Name() string {
	return "text"
}

// SupportedExtensions returns the file extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".txt", ".text"}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/plain"}
}

// Extract decodes the upload and tidies its whitespace.
func (n *Normaliser) Extract(_ context.Context, upload domain.Upload) (*domain.ExtractedText, error) {
	text, err := normalisers.DecodeText(upload.Content)
	if err != nil {
		return nil, err
	}
	return &domain.ExtractedText{
		Text:   normalisers.CleanText(text),
		Format: n.Name(),
	}, nil
}
