// Package html extracts chapter text from HTML uploads. Scripts, styles
// and other non-content elements are dropped and block elements become
// line breaks.
package html

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
	"github.com/custodia-labs/digest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/digest-cli/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.TextExtractor = (*Normaliser)(nil)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Name identifies the extractor.
func (n *Normaliser) Name() string {
	return "html"
}

// SupportedExtensions returns the file extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".html", ".htm", ".xhtml"}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// skipped elements contribute no text.
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Svg:      true,
	atom.Template: true,
	atom.Head:     true,
}

// block elements start a new line.
var block = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Hr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Li: true, atom.Tr: true, atom.Blockquote: true, atom.Pre: true, atom.Table: true,
	atom.Section: true, atom.Article: true, atom.Header: true, atom.Footer: true,
}

// Extract tokenises the document and collects its visible text.
// The <title> element, if present, becomes the title.
func (n *Normaliser) Extract(_ context.Context, upload domain.Upload) (*domain.ExtractedText, error) {
	decoded, err := normalisers.DecodeText(upload.Content)
	if err != nil {
		return nil, err
	}

	var (
		out     strings.Builder
		title   strings.Builder
		depth   int // nesting inside skipped elements
		inTitle bool
	)

	z := html.NewTokenizer(strings.NewReader(decoded))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return &domain.ExtractedText{
					Text:   tidy(out.String()),
					Title:  strings.Join(strings.Fields(title.String()), " "),
					Format: n.Name(),
				}, nil
			}
			return nil, fmt.Errorf("%w: parsing html: %v", domain.ErrInvalidInput, z.Err())

		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if a == atom.Title {
				inTitle = tt == html.StartTagToken
				continue
			}
			if skipped[a] && tt == html.StartTagToken {
				depth++
			}
			if block[a] {
				out.WriteByte('\n')
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if a == atom.Title {
				inTitle = false
				continue
			}
			if skipped[a] && depth > 0 {
				depth--
			}
			if block[a] {
				out.WriteByte('\n')
			}

		case html.TextToken:
			if inTitle {
				title.Write(z.Text())
				continue
			}
			if depth == 0 {
				out.Write(z.Text())
			}
		}
	}
}

// tidy collapses whitespace within lines and drops empty lines.
func tidy(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			kept = append(kept, line)
		}
	}
	return normalisers.CleanText(strings.Join(kept, "\n"))
}
