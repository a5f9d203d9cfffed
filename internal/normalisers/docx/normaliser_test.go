package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
)

// createTestDOCX creates a minimal valid DOCX file in memory.
func createTestDOCX(t *testing.T, documentXML, coreXML string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	contentTypes, err := w.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = contentTypes.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="xml" ContentType="application/xml"/>
</Types>`))
	require.NoError(t, err)

	if documentXML != "" {
		doc, err := w.Create("word/document.xml")
		require.NoError(t, err)
		_, err = doc.Write([]byte(documentXML))
		require.NoError(t, err)
	}

	if coreXML != "" {
		core, err := w.Create("docProps/core.xml")
		require.NoError(t, err)
		_, err = core.Write([]byte(coreXML))
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())
	return buf.Bytes()
}

const testDocumentXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>1 Vertical Integration</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">Studios owned </w:t></w:r><w:r><w:t>theatres.</w:t></w:r></w:p>
<w:tbl><w:tr><w:tc><w:p><w:r><w:t>Cell</w:t><w:tab/><w:t>value</w:t></w:r></w:p></w:tc></w:tr></w:tbl>
<w:p><w:r><w:t>Before</w:t><w:br/><w:t>after</w:t></w:r></w:p>
</w:body>
</w:document>`

const testCoreXML = `<?xml version="1.0" encoding="UTF-8"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
  xmlns:dc="http://purl.org/dc/elements/1.1/">
<dc:title> The Studio System </dc:title>
</cp:coreProperties>`

func TestSupported(t *testing.T) {
	normaliser := New()
	assert.Equal(t, "docx", normaliser.Name())
	assert.Equal(t, []string{".docx"}, normaliser.SupportedExtensions())
	assert.Len(t, normaliser.SupportedMIMETypes(), 1)
}

func TestExtract(t *testing.T) {
	content := createTestDOCX(t, testDocumentXML, testCoreXML)

	got, err := New().Extract(context.Background(), domain.Upload{Filename: "ch.docx", Content: content})
	require.NoError(t, err)

	assert.Equal(t, "The Studio System", got.Title)
	assert.Equal(t, "docx", got.Format)
	assert.Equal(t, "1 Vertical Integration\nStudios owned theatres.\nCell\tvalue\nBefore\nafter", got.Text)
}

func TestExtract_NoCoreProperties(t *testing.T) {
	content := createTestDOCX(t, testDocumentXML, "")

	got, err := New().Extract(context.Background(), domain.Upload{Content: content})
	require.NoError(t, err)
	assert.Empty(t, got.Title)
}

func TestExtract_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
	}{
		{"not a zip", []byte("plain text, not a zip archive")},
		{"missing document part", createTestDOCX(t, "", testCoreXML)},
		{"malformed xml", createTestDOCX(t, "<w:document><w:body>", "")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Extract(context.Background(), domain.Upload{Content: tt.content})
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}
