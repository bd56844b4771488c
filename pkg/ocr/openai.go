// Package ocr recognizes handwritten or printed text in submitted images via
// an OpenAI vision chat call.
package ocr

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ocrDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "edugrade",
		Subsystem: "ocr",
		Name:      "recognition_duration_seconds",
		Help:      "Duration of OCR recognition requests",
	}, []string{"model"})

	ocrFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edugrade",
		Subsystem: "ocr",
		Name:      "recognition_failures_total",
		Help:      "Number of OCR recognition failures",
	}, []string{"model"})
)

// Config defines configuration options for the OCR client.
type Config struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	Logger  zerolog.Logger
}

// Client extracts plain text from image bytes.
type Client struct {
	client *openai.Client
	cfg    Config
	tracer trace.Tracer
	logger zerolog.Logger
}

// New builds an OCR client using the provided configuration.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("ocr api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &Client{
		client: openai.NewClientWithConfig(openai.DefaultConfig(cfg.APIKey)),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/amirasyraf/edugrade-api/pkg/ocr"),
		logger: logger,
	}, nil
}

// Recognize returns the text detected in the image, reading order preserved.
func (c *Client) Recognize(parent context.Context, image []byte, mime string) (string, error) {
	ctx, span := c.tracer.Start(parent, "ocr.recognize", trace.WithAttributes(
		attribute.String("model", c.cfg.Model),
		attribute.Int("image_bytes", len(image)),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	if mime == "" {
		mime = "image/png"
	}

	request := openai.ChatCompletionRequest{
		Model:     c.cfg.Model,
		MaxTokens: 2048,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "You transcribe text from images. Return the detected text exactly as written, in reading order, " +
					"with no commentary. Return an empty response when the image contains no text.",
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(image)),
						},
					},
				},
			},
		},
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, request)
	ocrDuration.WithLabelValues(c.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		ocrFailures.WithLabelValues(c.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("ocr recognize: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from ocr provider")
		ocrFailures.WithLabelValues(c.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
