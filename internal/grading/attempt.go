// Package grading holds the pure decision logic of the pipeline: the attempt
// gate and the score reconciliation rule. Nothing here touches storage or the
// clock, so callers can evaluate decisions repeatedly without side effects.
package grading

import (
	"time"

	"github.com/amirasyraf/edugrade-api/internal/models"
)

// Denial reasons surfaced verbatim to the student.
const (
	ReasonDeadlinePassed = "deadline passed"
	ReasonQuotaExhausted = "quota exhausted"
)

// Decision is the outcome of the attempt gate.
type Decision struct {
	Allowed      bool
	Reason       string
	AttemptsLeft int
}

// CanStartAttempt reports whether a new submission attempt is permitted at
// the given time. The deadline is checked first and applies to every
// category; the attempt quota is skipped for project assignments. submission
// may be nil when the student has not submitted before.
func CanStartAttempt(assignment models.Assignment, submission *models.Submission, now time.Time) Decision {
	attemptsUsed := 0
	if submission != nil {
		attemptsUsed = submission.AttemptsUsed
	}

	attemptsLeft := assignment.AllowedAttempts - attemptsUsed
	if attemptsLeft < 0 {
		attemptsLeft = 0
	}

	if assignment.IsPastDeadline(now) {
		return Decision{Allowed: false, Reason: ReasonDeadlinePassed, AttemptsLeft: attemptsLeft}
	}

	if assignment.HasAttemptQuota() && attemptsLeft < 1 {
		return Decision{Allowed: false, Reason: ReasonQuotaExhausted, AttemptsLeft: 0}
	}

	return Decision{Allowed: true, AttemptsLeft: attemptsLeft}
}
