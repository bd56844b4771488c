// Package extract turns uploaded submission files into plain text. Extractors
// are selected by file extension from a registry resolved at construction
// time; a failed extraction degrades that file's contribution to empty text
// instead of aborting the pipeline.
package extract

import (
	"context"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/amirasyraf/edugrade-api/internal/models"
	"github.com/amirasyraf/edugrade-api/pkg/docword"
)

// Recognizer is the external text-recognition service used for images.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte, mime string) (string, error)
}

// File is one uploaded artefact to extract from.
type File struct {
	Name string
	Data []byte
}

// Result is the outcome of extracting a single file. Unsupported marks files
// whose extension no extractor claims; such files contribute no text but do
// not fail the batch.
type Result struct {
	Text        string
	Unsupported bool
}

type extractFunc func(ctx context.Context, file File) (string, error)

// Dispatcher routes files to extractors by extension.
type Dispatcher struct {
	registry map[string]extractFunc
	logger   zerolog.Logger
}

// NewDispatcher builds the extension registry. recognizer may be nil, in
// which case image files degrade to empty text.
func NewDispatcher(recognizer Recognizer, logger zerolog.Logger) *Dispatcher {
	d := &Dispatcher{
		registry: make(map[string]extractFunc),
		logger:   logger.With().Str("component", "extract_dispatcher").Logger(),
	}

	image := func(ctx context.Context, file File) (string, error) {
		if recognizer == nil {
			return "", nil
		}
		return recognizer.Recognize(ctx, file.Data, mimetype.Detect(file.Data).String())
	}
	for _, ext := range []string{".png", ".jpg", ".jpeg", ".webp", ".heic"} {
		d.registry[ext] = image
	}

	document := func(_ context.Context, file File) (string, error) {
		return docword.Extract(file.Data)
	}
	d.registry[".doc"] = document
	d.registry[".docx"] = document

	d.registry[".txt"] = func(_ context.Context, file File) (string, error) {
		return string(file.Data), nil
	}

	return d
}

// ExtractFile extracts text from a single file. Extractor errors are logged
// and absorbed into an empty result; an extension outside the registry yields
// an unsupported marker, never a panic.
func (d *Dispatcher) ExtractFile(ctx context.Context, file File) Result {
	ext := extension(file.Name)
	extractor, ok := d.registry[ext]
	if !ok {
		d.logger.Warn().Str("file", file.Name).Str("ext", ext).Msg("no extractor registered for extension")
		return Result{Unsupported: true}
	}

	text, err := extractor(ctx, file)
	if err != nil {
		d.logger.Warn().Err(err).Str("file", file.Name).Msg("extraction degraded to empty text")
		return Result{}
	}

	return Result{Text: text}
}

// ExtractAll extracts every file in order and concatenates the results with
// newline separators, matching the order the student uploaded them in.
func (d *Dispatcher) ExtractAll(ctx context.Context, files []File) string {
	builder := strings.Builder{}
	for _, file := range files {
		result := d.ExtractFile(ctx, file)
		if result.Unsupported {
			continue
		}
		builder.WriteString(result.Text)
		builder.WriteByte('\n')
	}

	return builder.String()
}

// KindForName classifies an upload by extension for persistence and for the
// problem-category image routing.
func KindForName(name string) (string, bool) {
	switch extension(name) {
	case ".png", ".jpg", ".jpeg", ".webp", ".heic":
		return models.FileKindImage, true
	case ".doc", ".docx":
		return models.FileKindDocument, true
	case ".txt":
		return models.FileKindText, true
	default:
		return "", false
	}
}

func extension(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 {
		return ""
	}
	return strings.ToLower(name[idx:])
}
