package services

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
	"github.com/custodia-labs/digest-cli/internal/logger"
	"github.com/custodia-labs/digest-cli/internal/postprocessors/chunker"
)

// SectionSpan is the text attributed to one section.
type SectionSpan struct {
	Section domain.Section

	// Text runs from the section title to the next section's title.
	Text string

	// Degraded is set when the title was not found and Text is the whole
	// document.
	Degraded bool
}

// Segmenter locates section text by title search and splits long sections
// into word chunks. It never fails.
type Segmenter struct {
	chunker *chunker.Processor
}

// NewSegmenter creates a segmenter that chunks sections above chunkWords.
// A non-positive value uses the chunker default.
func NewSegmenter(chunkWords int) *Segmenter {
	return &Segmenter{chunker: chunker.New(chunker.WithChunkWords(chunkWords))}
}

// ChunkWords returns the chunking threshold.
func (s *Segmenter) ChunkWords() int {
	return s.chunker.ChunkWords()
}

// Segment returns exactly one span per section, in section order.
//
// A section starts where its title is found (case-sensitive first, then
// case-insensitive) and ends where the following section's title is found
// after it, or at the end of the document. A section whose title cannot be
// found gets the entire document and is marked Degraded.
func (s *Segmenter) Segment(fullText string, sections []domain.Section) []SectionSpan {
	spans := make([]SectionSpan, 0, len(sections))

	for i, section := range sections {
		start, titleLen := findTitle(fullText, section.Title, 0)
		if start < 0 {
			logger.Get().Warn().
				Str("unit_id", section.UnitID).
				Str("title", section.Title).
				Msg("section title not found, using full text")
			spans = append(spans, SectionSpan{Section: section, Text: fullText, Degraded: true})
			continue
		}

		end := len(fullText)
		if i+1 < len(sections) {
			if next, _ := findTitle(fullText, sections[i+1].Title, start+titleLen); next >= 0 {
				end = next
			}
		}

		spans = append(spans, SectionSpan{Section: section, Text: fullText[start:end]})
	}

	return spans
}

// Chunk splits a section's text into positional word chunks.
func (s *Segmenter) Chunk(text string) []chunker.Chunk {
	return s.chunker.Split(text)
}

// findTitle returns the byte offset and matched byte length of title in text
// at or after from, or -1.
func findTitle(text, title string, from int) (int, int) {
	if title == "" || from > len(text) {
		return -1, 0
	}

	if idx := strings.Index(text[from:], title); idx >= 0 {
		return from + idx, len(title)
	}

	for i := from; i < len(text); {
		if n, ok := foldPrefix(text[i:], title); ok {
			return i, n
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}

	return -1, 0
}

// foldPrefix reports whether s starts with prefix under simple case folding
// and returns how many bytes of s matched.
func foldPrefix(s, prefix string) (int, bool) {
	n := 0
	for _, pr := range prefix {
		if n >= len(s) {
			return 0, false
		}
		sr, size := utf8.DecodeRuneInString(s[n:])
		if !equalFoldRune(sr, pr) {
			return 0, false
		}
		n += size
	}
	return n, true
}

func equalFoldRune(a, b rune) bool {
	if a == b {
		return true
	}
	for r := unicode.SimpleFold(a); r != a; r = unicode.SimpleFold(r) {
		if r == b {
			return true
		}
	}
	return false
}
