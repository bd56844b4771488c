package dto

import "time"

// Pipeline event types published to brokers and streamed to clients.
const (
	EventSubmissionUploaded  = "submission.uploaded"
	EventSubmissionEvaluated = "submission.evaluated"
	EventSubmissionScored    = "submission.scored"
	EventSubmissionAbandoned = "submission.abandoned"
	EventAssignmentDeleted   = "assignment.deleted"
)

// PipelineEvent describes one state change in the grading pipeline.
type PipelineEvent struct {
	Type         string    `json:"type"`
	SubmissionID uint      `json:"submission_id,omitempty"`
	AssignmentID uint      `json:"assignment_id"`
	StudentID    uint      `json:"student_id,omitempty"`
	Stage        string    `json:"stage,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}
