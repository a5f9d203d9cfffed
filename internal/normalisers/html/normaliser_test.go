package html

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
)

func TestSupported(t *testing.T) {
	normaliser := New()
	assert.Equal(t, "html", normaliser.Name())
	assert.Contains(t, normaliser.SupportedExtensions(), ".html")
	assert.Contains(t, normaliser.SupportedMIMETypes(), "text/html")
}

func TestExtract(t *testing.T) {
	src := `<!DOCTYPE html>
<html>
<head>
  <title>The  Studio &amp; System</title>
  <style>body { color: red; }</style>
</head>
<body>
  <script>var x = "<p>hidden</p>";</script>
  <h1>1 Vertical Integration</h1>
  <p>Studios   owned <b>theatres</b> &amp; controlled distribution.</p>
  <!-- a comment -->
  <ul><li>first</li><li>second</li></ul>
  <svg><text>drawing</text></svg>
  <p>Line one<br/>Line two</p>
</body>
</html>`

	got, err := New().Extract(context.Background(), domain.Upload{Filename: "ch.html", Content: []byte(src)})
	require.NoError(t, err)

	assert.Equal(t, "The Studio & System", got.Title)
	assert.Equal(t, "html", got.Format)
	assert.Equal(t,
		"1 Vertical Integration\n"+
			"Studios owned theatres & controlled distribution.\n"+
			"first\nsecond\n"+
			"Line one\nLine two",
		got.Text)
}

func TestExtract_NoTitle(t *testing.T) {
	got, err := New().Extract(context.Background(), domain.Upload{Content: []byte("<p>plain</p>")})
	require.NoError(t, err)
	assert.Empty(t, got.Title)
	assert.Equal(t, "plain", got.Text)
}
