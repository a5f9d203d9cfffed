// Package markdown extracts chapter text from Markdown uploads.
// Headings are kept as plain lines so section titles can still be found
// in the text.
package markdown

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
	"github.com/custodia-labs/digest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/digest-cli/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.TextExtractor = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Name identifies the extractor.
func (n *Normaliser) Name() string {
	return "markdown"
}

// SupportedExtensions returns the file extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".md", ".markdown"}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Extract strips Markdown formatting. The first level one heading, if
// any, becomes the title.
func (n *Normaliser) Extract(_ context.Context, upload domain.Upload) (*domain.ExtractedText, error) {
	raw, err := normalisers.DecodeText(upload.Content)
	if err != nil {
		return nil, err
	}
	raw = normalisers.CleanText(raw)
	return &domain.ExtractedText{
		Text:   stripMarkdown(raw),
		Title:  extractTitle(raw),
		Format: n.Name(),
	}, nil
}

// Pre-compiled regular expressions for Markdown stripping.
var (
	frontMatter = regexp.MustCompile(`(?s)\A---\n.*?\n---\n`)
	codeFence   = regexp.MustCompile("(?m)^(```|~~~).*$\n?")
	inlineCode  = regexp.MustCompile("`([^`]+)`")
	images      = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`)
	links       = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings    = regexp.MustCompile(`(?m)^#{1,6}[ \t]+(.*?)[ \t]*#*[ \t]*$`)
	emphasis    = regexp.MustCompile(`(\*\*|__|\*)(\S(?:.*?\S)?)(\*\*|__|\*)`)
	blockquote  = regexp.MustCompile(`(?m)^>[ \t]?`)
	hr          = regexp.MustCompile(`(?m)^[ \t]*([-*_][ \t]*){3,}$`)
	listMarkers = regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+`)
	htmlTags    = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)
)

// extractTitle returns the first "# Title" heading.
func extractTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.Trim(line, "# "))
		}
	}
	return ""
}

// stripMarkdown removes common Markdown syntax. Code block contents are kept.
func stripMarkdown(content string) string {
	content = frontMatter.ReplaceAllString(content, "")
	content = codeFence.ReplaceAllString(content, "")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = images.ReplaceAllString(content, "$1")
	content = links.ReplaceAllString(content, "$1")
	content = headings.ReplaceAllString(content, "$1")
	content = emphasis.ReplaceAllString(content, "$2")
	content = blockquote.ReplaceAllString(content, "")
	content = hr.ReplaceAllString(content, "")
	content = listMarkers.ReplaceAllString(content, "")
	content = htmlTags.ReplaceAllString(content, "")
	return normalisers.CleanText(content)
}
