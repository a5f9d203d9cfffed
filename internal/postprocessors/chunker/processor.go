// Package chunker splits section text into fixed-size word chunks and
// numbers paragraphs so generated evidence can cite them.
package chunker

import (
	"fmt"
	"strings"
)

// DefaultChunkWords is the section size, in words, above which text is split.
const DefaultChunkWords = 3000

// Chunk is one positional slice of a section's text.
type Chunk struct {
	// Index is zero-based within the section.
	Index int

	// Total is the number of chunks the section was split into.
	Total int

	// Text is the chunk content.
	Text string

	// Words is the word count of Text.
	Words int
}

// Processor splits text into word-count chunks.
type Processor struct {
	chunkWords int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkWords sets the chunk size in words.
func WithChunkWords(words int) Option {
	return func(p *Processor) {
		if words > 0 {
			p.chunkWords = words
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkWords: DefaultChunkWords,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkWords returns the configured chunk size.
func (p *Processor) ChunkWords() int {
	return p.chunkWords
}

// Split returns the chunks for text.
// Text at or under the threshold comes back as a single chunk with its
// original layout intact. Larger text is cut every chunkWords words and
// each chunk is rejoined with single spaces.
func (p *Processor) Split(text string) []Chunk {
	words := strings.Fields(text)
	if len(words) <= p.chunkWords {
		return []Chunk{{Index: 0, Total: 1, Text: text, Words: len(words)}}
	}

	total := (len(words) + p.chunkWords - 1) / p.chunkWords
	chunks := make([]Chunk, 0, total)

	for i := 0; i < total; i++ {
		start := i * p.chunkWords
		end := start + p.chunkWords
		if end > len(words) {
			end = len(words)
		}

		chunks = append(chunks, Chunk{
			Index: i,
			Total: total,
			Text:  strings.Join(words[start:end], " "),
			Words: end - start,
		})
	}

	return chunks
}

// WordCount returns the number of whitespace-separated words in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// EnumerateParagraphs prefixes each paragraph with a [¶NNN] marker.
// Paragraphs are separated by blank lines; empty ones are dropped and
// numbering starts at 1.
func EnumerateParagraphs(text string) string {
	parts := strings.Split(text, "\n\n")

	numbered := make([]string, 0, len(parts))
	n := 0
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n++
		numbered = append(numbered, fmt.Sprintf("[¶%03d] %s", n, part))
	}

	return strings.Join(numbered, "\n\n")
}
