package services

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
	"github.com/custodia-labs/digest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/digest-cli/internal/core/ports/driving"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService picks a text extractor for an upload and checks the result.
type IngestService struct {
	byExt   map[string]driven.TextExtractor
	byMIME  map[string]driven.TextExtractor
	maxSize int64
}

// NewIngestService registers extractors by extension and MIME type.
// Later extractors win on conflicts. A maxSize of zero disables the size check.
func NewIngestService(maxSize int64, extractors ...driven.TextExtractor) *IngestService {
	s := &IngestService{
		byExt:   make(map[string]driven.TextExtractor),
		byMIME:  make(map[string]driven.TextExtractor),
		maxSize: maxSize,
	}
	for _, e := range extractors {
		for _, ext := range e.SupportedExtensions() {
			s.byExt[strings.ToLower(ext)] = e
		}
		for _, mt := range e.SupportedMIMETypes() {
			s.byMIME[strings.ToLower(mt)] = e
		}
	}
	return s
}

// SupportedExtensions lists registered extensions, sorted.
func (s *IngestService) SupportedExtensions() []string {
	exts := make([]string, 0, len(s.byExt))
	for ext := range s.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Supports reports whether a file name has a registered extension.
func (s *IngestService) Supports(filename string) bool {
	_, ok := s.byExt[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// Extract decodes an upload into trimmed text of at least
// domain.MinTextLength characters.
func (s *IngestService) Extract(ctx context.Context, upload domain.Upload) (*domain.ExtractedText, error) {
	if len(upload.Content) == 0 {
		return nil, &domain.ExtractionInputError{Reason: "upload is empty"}
	}
	if s.maxSize > 0 && int64(len(upload.Content)) > s.maxSize {
		return nil, &domain.ExtractionInputError{
			Reason: fmt.Sprintf("upload is %d bytes, limit is %d", len(upload.Content), s.maxSize),
		}
	}

	extractor := s.lookup(upload)
	if extractor == nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnsupportedType, &domain.ExtractionInputError{
			Reason: fmt.Sprintf("unsupported file type %q", upload.Filename),
		})
	}

	out, err := extractor.Extract(ctx, upload)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return nil, &domain.ExtractionInputError{Reason: fmt.Sprintf("%s: %v", extractor.Name(), err)}
		}
		return nil, fmt.Errorf("extract %s: %w", extractor.Name(), err)
	}

	out.Text = strings.TrimSpace(out.Text)
	if err := (domain.DigestRequest{Text: out.Text}).Validate(); err != nil {
		return nil, err
	}
	if out.Format == "" {
		out.Format = extractor.Name()
	}
	if strings.TrimSpace(out.Title) == "" {
		out.Title = titleFromFilename(upload.Filename)
	}
	return out, nil
}

func (s *IngestService) lookup(upload domain.Upload) driven.TextExtractor {
	if ext := strings.ToLower(filepath.Ext(upload.Filename)); ext != "" {
		if e, ok := s.byExt[ext]; ok {
			return e
		}
	}
	if upload.MIMEType != "" {
		mt, _, err := mime.ParseMediaType(upload.MIMEType)
		if err == nil {
			if e, ok := s.byMIME[strings.ToLower(mt)]; ok {
				return e
			}
		}
	}
	if filepath.Ext(upload.Filename) == "" && upload.MIMEType == "" {
		return s.byMIME["text/plain"]
	}
	return nil
}

// titleFromFilename turns "03_the-studio_system.pdf" into "03 the studio system".
func titleFromFilename(name string) string {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	stem = strings.NewReplacer("_", " ", "-", " ").Replace(stem)
	return strings.Join(strings.Fields(stem), " ")
}
