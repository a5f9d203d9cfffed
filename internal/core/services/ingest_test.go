package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
)

var longText = strings.Repeat("The studios owned the theatres. ", 10)

func TestIngestService_SupportedExtensions(t *testing.T) {
	svc := NewIngestService(0,
		&fakeExtractor{name: "text", exts: []string{".txt", ".MD"}},
		&fakeExtractor{name: "pdf", exts: []string{".pdf"}},
	)
	assert.Equal(t, []string{".md", ".pdf", ".txt"}, svc.SupportedExtensions())
	assert.True(t, svc.Supports("notes.PDF"))
	assert.False(t, svc.Supports("image.png"))
}

func TestIngestService_Extract(t *testing.T) {
	text := &fakeExtractor{name: "text", exts: []string{".txt"}, mimes: []string{"text/plain"}, text: "  " + longText + "\n"}
	pdf := &fakeExtractor{name: "pdf", exts: []string{".pdf"}, mimes: []string{"application/pdf"}, text: longText, title: "From Metadata"}
	svc := NewIngestService(1024, text, pdf)
	ctx := context.Background()

	tests := []struct {
		name   string
		upload domain.Upload
		format string
		title  string
	}{
		{
			name:   "by extension",
			upload: domain.Upload{Filename: "03_the-studio_system.txt", Content: []byte("x")},
			format: "text",
			title:  "03 the studio system",
		},
		{
			name:   "by mime type",
			upload: domain.Upload{Filename: "upload.bin", MIMEType: "application/pdf; charset=binary", Content: []byte("x")},
			format: "pdf",
			title:  "From Metadata",
		},
		{
			name:   "no hints falls back to plain text",
			upload: domain.Upload{Filename: "chapter", Content: []byte("x")},
			format: "text",
			title:  "chapter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := svc.Extract(ctx, tt.upload)
			require.NoError(t, err)
			assert.Equal(t, strings.TrimSpace(longText), out.Text)
			assert.Equal(t, tt.format, out.Format)
			assert.Equal(t, tt.title, out.Title)
		})
	}
}

func TestIngestService_ExtractRejects(t *testing.T) {
	ctx := context.Background()
	short := &fakeExtractor{name: "text", exts: []string{".txt"}, text: "too short"}
	broken := &fakeExtractor{name: "pdf", exts: []string{".pdf"}, err: fmt.Errorf("%w: no text layer", domain.ErrInvalidInput)}
	failing := &fakeExtractor{name: "docx", exts: []string{".docx"}, err: errors.New("boom")}
	svc := NewIngestService(16, short, broken, failing)

	tests := []struct {
		name        string
		upload      domain.Upload
		inputError  bool
		unsupported bool
	}{
		{name: "empty", upload: domain.Upload{Filename: "a.txt"}, inputError: true},
		{name: "too large", upload: domain.Upload{Filename: "a.txt", Content: make([]byte, 17)}, inputError: true},
		{name: "unsupported", upload: domain.Upload{Filename: "a.png", Content: []byte("x")}, inputError: true, unsupported: true},
		{name: "too short", upload: domain.Upload{Filename: "a.txt", Content: []byte("x")}, inputError: true},
		{name: "undecodable", upload: domain.Upload{Filename: "a.pdf", Content: []byte("x")}, inputError: true},
		{name: "extractor failure", upload: domain.Upload{Filename: "a.docx", Content: []byte("x")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Extract(ctx, tt.upload)
			require.Error(t, err)

			var inputErr *domain.ExtractionInputError
			assert.Equal(t, tt.inputError, errors.As(err, &inputErr), "error: %v", err)
			assert.Equal(t, tt.unsupported, errors.Is(err, domain.ErrUnsupportedType))
		})
	}
}
