package ai

import "context"

// Image is one image artefact submitted for evaluation.
type Image struct {
	Data []byte
	MIME string
}

// EvaluationResult is the structured outcome of an AI grading call. A nil
// Score with explanatory Feedback is a valid degraded outcome, not an error.
type EvaluationResult struct {
	Score    *float64               `json:"score"`
	Feedback string                 `json:"feedback"`
	Raw      map[string]interface{} `json:"raw,omitempty"`
}

// TextEvaluator grades extracted essay text against a rubric.
type TextEvaluator interface {
	ScoreText(ctx context.Context, text, rubric string) (EvaluationResult, error)
}

// ImageEvaluator grades problem-solution images against a rubric.
type ImageEvaluator interface {
	ScoreImages(ctx context.Context, images []Image, rubric string) (EvaluationResult, error)
}

// Unavailable builds the result recorded when no evaluator is configured for
// an assignment category. It still consumes an attempt.
func Unavailable() EvaluationResult {
	return EvaluationResult{Feedback: "AI scoring is not available for this assignment."}
}
