package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEvaluationResponseClampsScore(t *testing.T) {
	result, err := parseEvaluationResponse(`{"score": 120, "feedback": "solid"}`)
	require.NoError(t, err)
	require.NotNil(t, result.Score)
	require.Equal(t, 100.0, *result.Score)
	require.Equal(t, "solid", result.Feedback)

	result, err = parseEvaluationResponse(`{"score": -3, "feedback": "weak"}`)
	require.NoError(t, err)
	require.Equal(t, 0.0, *result.Score)
}

func TestParseEvaluationResponseNullScore(t *testing.T) {
	result, err := parseEvaluationResponse(`{"score": null, "feedback": "could not grade"}`)
	require.NoError(t, err)
	require.Nil(t, result.Score)
	require.Equal(t, "could not grade", result.Feedback)
}

func TestParseEvaluationResponseRejectsGarbage(t *testing.T) {
	_, err := parseEvaluationResponse("not json")
	require.Error(t, err)
}

func TestDataURL(t *testing.T) {
	url := dataURL(Image{Data: []byte{1, 2, 3}, MIME: "image/jpeg"})
	require.True(t, strings.HasPrefix(url, "data:image/jpeg;base64,"))

	url = dataURL(Image{Data: []byte("x")})
	require.True(t, strings.HasPrefix(url, "data:image/png;base64,"), "missing mime falls back to png")
}

func TestBuildEssayPromptIncludesRubricVerbatim(t *testing.T) {
	prompt := buildEssayPrompt("essay body", "grade harshly\nno partial credit")
	require.Contains(t, prompt, "grade harshly\nno partial credit")
	require.Contains(t, prompt, "essay body")
}

func TestUnavailableResultCountsAsDegradedOutcome(t *testing.T) {
	result := Unavailable()
	require.Nil(t, result.Score)
	require.NotEmpty(t, result.Feedback)
}
