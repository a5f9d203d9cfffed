// Package pdf extracts chapter text from PDF uploads using a pure Go
// PDF reader. Pages are separated by a blank line.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
	"github.com/custodia-labs/digest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/digest-cli/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.TextExtractor = (*Normaliser)(nil)

// Normaliser handles PDF documents.
type Normaliser struct{}

// New creates a new PDF normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Name identifies the extractor.
func (n *Normaliser) Name() string {
	return "pdf"
}

// SupportedExtensions returns the file extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".pdf"}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// Extract reads the text layer of every page. Scanned PDFs without a
// text layer produce empty text, which the ingest service rejects.
func (n *Normaliser) Extract(ctx context.Context, upload domain.Upload) (out *domain.ExtractedText, err error) {
	// The reader panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%w: malformed pdf: %v", domain.ErrInvalidInput, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(upload.Content), int64(len(upload.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: opening pdf: %v", domain.ErrInvalidInput, err)
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: reading page %d: %v", domain.ErrInvalidInput, i, err)
		}
		pages = append(pages, text)
	}

	return &domain.ExtractedText{
		Text:   joinPages(pages),
		Title:  strings.TrimSpace(reader.Trailer().Key("Info").Key("Title").Text()),
		Format: n.Name(),
	}, nil
}

// joinPages cleans each page and separates non-empty pages by a blank line.
func joinPages(pages []string) string {
	kept := make([]string, 0, len(pages))
	for _, p := range pages {
		if p = normalisers.CleanText(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}
