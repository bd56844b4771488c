package docword

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()

	buf := &bytes.Buffer{}
	writer := zip.NewWriter(buf)
	entry, err := writer.Create("word/document.xml")
	require.NoError(t, err)
	_, err = entry.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return buf.Bytes()
}

func TestExtractParagraphsAndRuns(t *testing.T) {
	document := buildDocx(t, `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second</w:t></w:r><w:r><w:t xml:space="preserve"> half.</w:t></w:r></w:p>
  </w:body>
</w:document>`)

	text, err := Extract(document)
	require.NoError(t, err)
	require.Equal(t, "First paragraph.\nSecond half.", text)
}

func TestExtractTabsAndBreaks(t *testing.T) {
	document := buildDocx(t, `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body><w:p><w:r><w:t>a</w:t><w:tab/><w:t>b</w:t><w:br/><w:t>c</w:t></w:r></w:p></w:body>
</w:document>`)

	text, err := Extract(document)
	require.NoError(t, err)
	require.Equal(t, "a\tb\nc", text)
}

func TestExtractRejectsNonZipPayload(t *testing.T) {
	_, err := Extract([]byte("this is a legacy .doc payload"))
	require.ErrorIs(t, err, ErrUnsupportedDocument)
}

func TestExtractRejectsZipWithoutDocumentPart(t *testing.T) {
	buf := &bytes.Buffer{}
	writer := zip.NewWriter(buf)
	entry, err := writer.Create("word/styles.xml")
	require.NoError(t, err)
	_, err = entry.Write([]byte("<styles/>"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	_, err = Extract(buf.Bytes())
	require.ErrorIs(t, err, ErrUnsupportedDocument)
}
