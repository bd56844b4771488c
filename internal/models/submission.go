package models

import (
	"time"

	"gorm.io/datatypes"
)

// Submission lifecycle stages. A submission row only exists once files have
// been attached, so the "empty" state is represented by the absence of a row.
// Upload and extraction commit as one unit, so rows surface at reviewing (or
// evaluated for project work); uploaded marks a row whose extraction has not
// completed and is accepted wherever reviewing is.
const (
	StageUploaded  = "uploaded"
	StageReviewing = "reviewing"
	StageEvaluated = "evaluated"
	StageScored    = "scored"
)

// Submission holds the current attempt state for one (assignment, student)
// pair. Re-uploads reset this row in place; a duplicate row for the same pair
// is a bug, enforced by the composite unique index.
type Submission struct {
	ID               uint              `gorm:"primaryKey" json:"id"`
	AssignmentID     uint              `gorm:"not null;uniqueIndex:idx_submission_attempt" json:"assignment_id"`
	StudentID        uint              `gorm:"not null;uniqueIndex:idx_submission_attempt" json:"student_id"`
	Stage            string            `gorm:"size:16;not null" json:"stage"`
	AttemptsUsed     int               `gorm:"not null;default:0" json:"attempts_used"`
	UploadBatchID    string            `gorm:"size:36" json:"upload_batch_id"`
	EvaluatedBatchID string            `gorm:"size:36" json:"evaluated_batch_id"`
	ExtractedText    string            `gorm:"type:text" json:"extracted_text"`
	EditedText       string            `gorm:"type:text" json:"edited_text"`
	AIScore          *float64          `json:"ai_score"`
	AIFeedback       string            `gorm:"type:text" json:"ai_feedback"`
	AIRaw            datatypes.JSONMap `json:"ai_raw"`
	HumanScore       *float64          `json:"human_score"`
	HumanFeedback    string            `gorm:"type:text" json:"human_feedback"`
	FinalScore       *float64          `json:"final_score"`
	ScoredBy         *uint             `json:"scored_by"`
	ScoredAt         *time.Time        `json:"scored_at"`
	LockVersion      int64             `gorm:"not null;default:0" json:"-"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
	Assignment       Assignment        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assignment"`
	Student          Student           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
	Files            []SubmissionFile  `gorm:"constraint:OnDelete:CASCADE" json:"files"`
	History          []GradeHistory    `gorm:"constraint:OnDelete:CASCADE" json:"history"`
}

// AIScoreVisible reports whether the AI score may be shown to the student.
// The rule is derived on read so the flag can never drift from the data.
func (s Submission) AIScoreVisible() bool {
	return s.HumanScore != nil
}

// Evaluated reports whether the current attempt has been counted. Abandoning
// is only permitted before this point.
func (s Submission) Evaluated() bool {
	return s.Stage == StageEvaluated || s.Stage == StageScored
}

// GradeHistory records one human scoring action on a submission.
type GradeHistory struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubmissionID uint      `gorm:"not null;index" json:"submission_id"`
	Score        float64   `gorm:"not null" json:"score"`
	FinalScore   float64   `gorm:"not null" json:"final_score"`
	Feedback     string    `gorm:"type:text" json:"feedback"`
	ScoredBy     uint      `gorm:"not null" json:"scored_by"`
	ScoredAt     time.Time `gorm:"not null" json:"scored_at"`
}
