package dto

import "time"

// AssignmentProgress pairs an open assignment with the student's submission
// state and attempt budget for it.
type AssignmentProgress struct {
	AssignmentID    uint       `json:"assignment_id"`
	Title           string     `json:"title"`
	Category        string     `json:"category"`
	Deadline        *time.Time `json:"deadline"`
	Stage           string     `json:"stage"`
	AttemptsUsed    int        `json:"attempts_used"`
	AttemptsLeft    int        `json:"attempts_left"`
	CanStartAttempt bool       `json:"can_start_attempt"`
	BlockedReason   string     `json:"blocked_reason,omitempty"`
	FinalScore      *float64   `json:"final_score"`
}

type StudentProgressResponse struct {
	StudentID   uint                 `json:"student_id"`
	Assignments []AssignmentProgress `json:"assignments"`
	Scored      int                  `json:"scored"`
	InProgress  int                  `json:"in_progress"`
	GeneratedAt time.Time            `json:"generated_at"`
}
