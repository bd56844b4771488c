package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
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
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "edugrade",
		Subsystem: "ai",
		Name:      "evaluation_duration_seconds",
		Help:      "Duration of AI evaluation requests",
	}, []string{"model", "mode"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edugrade",
		Subsystem: "ai",
		Name:      "evaluation_failures_total",
		Help:      "Number of AI evaluation failures",
	}, []string{"model", "mode"})
)

// OpenAIConfig defines configuration options for the OpenAI evaluator.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
	Logger      zerolog.Logger
}

// OpenAIEvaluator implements TextEvaluator and ImageEvaluator against the
// OpenAI chat completion API.
type OpenAIEvaluator struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIEvaluator builds a new evaluator using the provided configuration.
func NewOpenAIEvaluator(cfg OpenAIConfig) (*OpenAIEvaluator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 768
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	tracer := otel.Tracer("github.com/amirasyraf/edugrade-api/pkg/ai/openai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	client := openai.NewClientWithConfig(config)

	return &OpenAIEvaluator{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger,
	}, nil
}

// ScoreText grades essay text against the rubric.
func (e *OpenAIEvaluator) ScoreText(parent context.Context, text, rubric string) (EvaluationResult, error) {
	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: essaySystemPrompt(),
		},
		{
			Role:    openai.ChatMessageRoleUser,
			Content: buildEssayPrompt(text, rubric),
		},
	}

	return e.complete(parent, "essay", messages)
}

// ScoreImages grades problem-solution images against the rubric. Each image
// is attached inline as a data URL.
func (e *OpenAIEvaluator) ScoreImages(parent context.Context, images []Image, rubric string) (EvaluationResult, error) {
	if len(images) == 0 {
		return EvaluationResult{}, fmt.Errorf("no images to evaluate")
	}

	parts := []openai.ChatMessagePart{
		{
			Type: openai.ChatMessagePartTypeText,
			Text: buildProblemPrompt(len(images), rubric),
		},
	}
	for _, image := range images {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL: dataURL(image),
			},
		})
	}

	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: problemSystemPrompt(),
		},
		{
			Role:         openai.ChatMessageRoleUser,
			MultiContent: parts,
		},
	}

	return e.complete(parent, "problem", messages)
}

func (e *OpenAIEvaluator) complete(parent context.Context, mode string, messages []openai.ChatCompletionMessage) (EvaluationResult, error) {
	ctx, span := e.tracer.Start(parent, "openai.evaluate", trace.WithAttributes(
		attribute.String("model", e.cfg.Model),
		attribute.String("mode", mode),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	request := openai.ChatCompletionRequest{
		Model:       e.cfg.Model,
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
		Messages:    messages,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	start := time.Now()
	resp, err := e.client.CreateChatCompletion(ctx, request)
	aiDuration.WithLabelValues(e.cfg.Model, mode).Observe(time.Since(start).Seconds())
	if err != nil {
		aiFailures.WithLabelValues(e.cfg.Model, mode).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return EvaluationResult{}, fmt.Errorf("openai evaluate: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		aiFailures.WithLabelValues(e.cfg.Model, mode).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return EvaluationResult{}, err
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	result, err := parseEvaluationResponse(content)
	if err != nil {
		aiFailures.WithLabelValues(e.cfg.Model, mode).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return EvaluationResult{}, err
	}

	result.Raw = map[string]interface{}{
		"usage": resp.Usage,
	}

	return result, nil
}

func essaySystemPrompt() string {
	return "You are an experienced essay grader. Respond with a JSON object containing score (0-100) and feedback. Score stri" +
		"ctly against the supplied evaluation criteria and explain every deduction."
}

func problemSystemPrompt() string {
	return "You are an expert STEM evaluator. Analyze the problem solutions shown in the attached images against the supplied" +
		" criteria. Respond with a JSON object containing score (0-100) and feedback covering each solution step."
}

func buildEssayPrompt(text, rubric string) string {
	builder := strings.Builder{}
	builder.WriteString("# Evaluation Criteria\n")
	builder.WriteString(rubric)
	builder.WriteString("\n\n# Essay Text\n")
	builder.WriteString(text)
	builder.WriteString("\n\nReturn JSON.")
	return builder.String()
}

func buildProblemPrompt(imageCount int, rubric string) string {
	builder := strings.Builder{}
	builder.WriteString("# Evaluation Criteria\n")
	builder.WriteString(rubric)
	builder.WriteString(fmt.Sprintf("\n\nThe solution is provided in %d image(s). ", imageCount))
	builder.WriteString("Evaluate every step and return JSON.")
	return builder.String()
}

func dataURL(image Image) string {
	mime := image.MIME
	if mime == "" {
		mime = "image/png"
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(image.Data))
}

func parseEvaluationResponse(content string) (EvaluationResult, error) {
	type payload struct {
		Score    *float64 `json:"score"`
		Feedback string   `json:"feedback"`
	}

	var data payload
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return EvaluationResult{}, fmt.Errorf("parse evaluation json: %w", err)
	}

	if data.Score != nil {
		if *data.Score < 0 {
			*data.Score = 0
		}
		if *data.Score > 100 {
			*data.Score = 100
		}
	}

	return EvaluationResult{
		Score:    data.Score,
		Feedback: data.Feedback,
	}, nil
}
