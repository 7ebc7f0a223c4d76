package extract

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assistant/internal/domain"
)

func TestSupported(t *testing.T) {
	assert.True(t, Supported("report.pdf"))
	assert.True(t, Supported("notes.TXT"))
	assert.True(t, Supported("letter.docx"))
	assert.False(t, Supported("image.png"))
	assert.False(t, Supported("archive.zip"))
	assert.False(t, Supported("noextension"))
}

func TestExtractUnsupportedExtension(t *testing.T) {
	_, err := New().Extract("image.png", "/tmp/image.png")

	assert.ErrorIs(t, err, domain.ErrUnsupportedFile)
}

func TestExtractTXT(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("line one\nline two"), 0o644))

	docs, err := New().Extract("notes.txt", path)

	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "line one\nline two", docs[0].Content)
	assert.Equal(t, path, docs[0].Metadata[domain.MetadataKeySource])
}

func TestExtractTXTMissingFile(t *testing.T) {
	_, err := New().Extract("ghost.txt", filepath.Join(t.TempDir(), "ghost.txt"))

	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrUnsupportedFile)
}

func TestExtractDOCX(t *testing.T) {
	path := writeDOCX(t, `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph, </w:t></w:r><w:r><w:t>split across runs.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`)

	docs, err := New().Extract("letter.docx", path)

	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "First paragraph, split across runs.\nSecond paragraph.", docs[0].Content)
	assert.Equal(t, path, docs[0].Metadata[domain.MetadataKeySource])
}

func TestExtractDOCXIncludesTableText(t *testing.T) {
	path := writeDOCX(t, `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Intro paragraph.</w:t></w:r></w:p>
    <w:tbl>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Name</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>Value</w:t></w:r></w:p></w:tc>
      </w:tr>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Total</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>42</w:t></w:r></w:p></w:tc>
      </w:tr>
    </w:tbl>
  </w:body>
</w:document>`)

	docs, err := New().Extract("table.docx", path)

	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Contains(t, docs[0].Content, "Intro paragraph.")
	assert.Contains(t, docs[0].Content, "Name Value")
	assert.Contains(t, docs[0].Content, "Total 42")
}

func TestExtractDOCXMissingDocumentXML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	_, err = zw.Create("word/other.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	_, err = New().Extract("empty.docx", path)

	assert.Error(t, err)
}

func TestExtractDOCXCorruptArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.docx")
	require.NoError(t, os.WriteFile(path, []byte("not a zip file"), 0o644))

	_, err := New().Extract("broken.docx", path)

	assert.Error(t, err)
}

func writeDOCX(t *testing.T, documentXML string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "letter.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}
