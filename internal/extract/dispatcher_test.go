package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/amirasyraf/edugrade-api/internal/models"
)

type fakeRecognizer struct {
	text  string
	err   error
	calls int
}

func (f *fakeRecognizer) Recognize(_ context.Context, _ []byte, _ string) (string, error) {
	f.calls++
	return f.text, f.err
}

func testDocx(t *testing.T, body string) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	writer := zip.NewWriter(buf)
	entry, err := writer.Create("word/document.xml")
	require.NoError(t, err)
	_, err = entry.Write([]byte(`<w:document xmlns:w="x"><w:body><w:p><w:r><w:t>` + body + `</w:t></w:r></w:p></w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return buf.Bytes()
}

func TestExtractFileRoutesImagesToRecognizer(t *testing.T) {
	recognizer := &fakeRecognizer{text: "handwritten answer"}
	dispatcher := NewDispatcher(recognizer, zerolog.New(io.Discard))

	result := dispatcher.ExtractFile(context.Background(), File{Name: "page1.PNG", Data: []byte{0x89}})
	require.False(t, result.Unsupported)
	require.Equal(t, "handwritten answer", result.Text)
	require.Equal(t, 1, recognizer.calls)
}

func TestExtractFileRecognizerErrorDegradesToEmpty(t *testing.T) {
	recognizer := &fakeRecognizer{err: errors.New("provider unavailable")}
	dispatcher := NewDispatcher(recognizer, zerolog.New(io.Discard))

	result := dispatcher.ExtractFile(context.Background(), File{Name: "scan.jpg", Data: []byte{0xff}})
	require.False(t, result.Unsupported)
	require.Empty(t, result.Text)
}

func TestExtractFileDocumentAndText(t *testing.T) {
	dispatcher := NewDispatcher(nil, zerolog.New(io.Discard))

	result := dispatcher.ExtractFile(context.Background(), File{Name: "essay.docx", Data: testDocx(t, "document body")})
	require.Equal(t, "document body", result.Text)

	result = dispatcher.ExtractFile(context.Background(), File{Name: "notes.txt", Data: []byte("plain notes")})
	require.Equal(t, "plain notes", result.Text)
}

func TestExtractFileUnsupportedExtensionIsMarkedNotFatal(t *testing.T) {
	dispatcher := NewDispatcher(nil, zerolog.New(io.Discard))

	result := dispatcher.ExtractFile(context.Background(), File{Name: "archive.tar.gz", Data: []byte{1}})
	require.True(t, result.Unsupported)

	result = dispatcher.ExtractFile(context.Background(), File{Name: "noextension", Data: []byte{1}})
	require.True(t, result.Unsupported)
}

func TestExtractAllPreservesUploadOrder(t *testing.T) {
	recognizer := &fakeRecognizer{text: "ocr text"}
	dispatcher := NewDispatcher(recognizer, zerolog.New(io.Discard))

	combined := dispatcher.ExtractAll(context.Background(), []File{
		{Name: "first.txt", Data: []byte("one")},
		{Name: "second.png", Data: []byte{0x89}},
		{Name: "skipped.bin", Data: []byte{0x00}},
		{Name: "third.txt", Data: []byte("three")},
	})
	require.Equal(t, "one\nocr text\nthree\n", combined)
}

func TestKindForName(t *testing.T) {
	kind, ok := KindForName("photo.HEIC")
	require.True(t, ok)
	require.Equal(t, models.FileKindImage, kind)

	kind, ok = KindForName("paper.docx")
	require.True(t, ok)
	require.Equal(t, models.FileKindDocument, kind)

	kind, ok = KindForName("readme.txt")
	require.True(t, ok)
	require.Equal(t, models.FileKindText, kind)

	_, ok = KindForName("movie.mp4")
	require.False(t, ok)
}
