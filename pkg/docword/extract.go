// Package docword decodes word-processor documents to plain text. Modern
// .docx containers (zip + WordprocessingML) are supported; the legacy binary
// .doc format is not and yields ErrUnsupportedDocument.
package docword

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrUnsupportedDocument indicates the payload is not a readable docx container.
var ErrUnsupportedDocument = errors.New("unsupported document format")

const documentEntry = "word/document.xml"

// Extract returns the plain text of a .docx document. Paragraphs become
// lines; tabs and explicit breaks inside a paragraph are preserved as
// whitespace.
func Extract(document []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(document), int64(len(document)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedDocument, err)
	}

	var entry *zip.File
	for _, f := range reader.File {
		if f.Name == documentEntry {
			entry = f
			break
		}
	}
	if entry == nil {
		return "", fmt.Errorf("%w: missing %s", ErrUnsupportedDocument, documentEntry)
	}

	handle, err := entry.Open()
	if err != nil {
		return "", fmt.Errorf("open document part: %w", err)
	}
	defer handle.Close()

	text, err := decodeDocumentXML(handle)
	if err != nil {
		return "", err
	}

	return text, nil
}

// decodeDocumentXML walks WordprocessingML and collects the text runs. Only
// local element names are inspected so namespace prefixes do not matter.
func decodeDocumentXML(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	builder := strings.Builder{}

	var inText bool
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decode document xml: %w", err)
		}

		switch element := token.(type) {
		case xml.StartElement:
			switch element.Name.Local {
			case "t":
				inText = true
			case "tab":
				builder.WriteByte('\t')
			case "br", "cr":
				builder.WriteByte('\n')
			}
		case xml.EndElement:
			switch element.Name.Local {
			case "t":
				inText = false
			case "p":
				builder.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				builder.Write(element)
			}
		}
	}

	return strings.TrimRight(builder.String(), "\n"), nil
}
