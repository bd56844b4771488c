package grading

import "math"

// DefaultDisagreementThreshold is the score gap at which the human score
// fully overrides the AI score. Configurable via EDUGRADE_GRADING_DISAGREEMENT.
const DefaultDisagreementThreshold = 10

// Reconcile merges an AI score and a human score into the final grade. A nil
// AI score (no provider, degraded evaluation) defers entirely to the human.
// When the two disagree by at least the threshold, the human score wins;
// otherwise the final grade is their average. The function is deterministic
// so an instructor can re-enter a score and the grade recomputes cleanly.
func Reconcile(aiScore *float64, humanScore float64, threshold float64) float64 {
	if threshold <= 0 {
		threshold = DefaultDisagreementThreshold
	}

	if aiScore == nil {
		return humanScore
	}

	if math.Abs(humanScore-*aiScore) >= threshold {
		return humanScore
	}

	return (*aiScore + humanScore) / 2
}
