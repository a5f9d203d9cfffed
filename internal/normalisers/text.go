package normalisers

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
)

var (
	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}
	utf16LEBOM = []byte{0xFF, 0xFE}
	utf16BEBOM = []byte{0xFE, 0xFF}

	trailingSpace = regexp.MustCompile(`[ \t]+\n`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// DecodeText converts raw bytes to a UTF-8 string.
// UTF-8 (with or without BOM) and BOM-marked UTF-16 are decoded as such.
// Anything else is read as Windows-1252, which never fails.
func DecodeText(raw []byte) (string, error) {
	switch {
	case bytes.HasPrefix(raw, utf8BOM):
		raw = raw[len(utf8BOM):]
	case bytes.HasPrefix(raw, utf16LEBOM), bytes.HasPrefix(raw, utf16BEBOM):
		out, err := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder().Bytes(raw)
		if err != nil {
			return "", fmt.Errorf("%w: decoding UTF-16: %v", domain.ErrInvalidInput, err)
		}
		return string(out), nil
	}

	if utf8.Valid(raw) {
		return string(raw), nil
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("%w: decoding Windows-1252: %v", domain.ErrInvalidInput, err)
	}
	return string(out), nil
}

// CleanText normalises line endings, drops NUL bytes and trailing spaces,
// and collapses runs of blank lines to one.
func CleanText(s string) string {
	s = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\x00", "").Replace(s)
	s = trailingSpace.ReplaceAllString(s, "\n")
	s = multiNewlines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
