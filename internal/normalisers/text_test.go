package normalisers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeText(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want string
	}{
		{"utf8", []byte("café"), "café"},
		{"utf8 with bom", append([]byte{0xEF, 0xBB, 0xBF}, []byte("hello")...), "hello"},
		{"utf16 le", []byte{0xFF, 0xFE, 'h', 0, 'i', 0}, "hi"},
		{"utf16 be", []byte{0xFE, 0xFF, 0, 'h', 0, 'i'}, "hi"},
		{"windows-1252 fallback", []byte{'c', 'a', 'f', 0xE9, ' ', 0x93, 'q', 0x94}, "café “q”"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeText(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCleanText(t *testing.T) {
	in := "  Title\r\n\r\n\r\n\r\nBody line   \r\nnext\x00 line\n\n\n"
	assert.Equal(t, "Title\n\nBody line\nnext line", CleanText(in))
}
