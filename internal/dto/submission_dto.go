package dto

import (
	"time"

	"github.com/amirasyraf/edugrade-api/internal/models"
)

// UploadFile is one file received from the client, fully buffered so it can
// be stored and extracted from in a single pass.
type UploadFile struct {
	Name string
	Data []byte
}

// ReviewRequest carries the possibly-edited text confirmed by the student.
type ReviewRequest struct {
	EditedText string `json:"edited_text" validate:"max=200000"`
}

// HumanScoreRequest is the instructor's grading payload.
type HumanScoreRequest struct {
	Score    float64 `json:"score" validate:"gte=0,lte=100"`
	Feedback string  `json:"feedback" validate:"omitempty,min=3"`
}

// SubmissionFileView describes one attached file.
type SubmissionFileView struct {
	ID           uint   `json:"id"`
	OriginalName string `json:"original_name"`
	BlobRef      string `json:"blob_ref"`
	Kind         string `json:"kind"`
	Position     int    `json:"position"`
}

// SubmissionSnapshot is the submission state returned by every pipeline
// operation. The AI score is withheld from students until a human score
// exists; ai_score_visible carries that decision so the display layer never
// derives it from raw fields.
type SubmissionSnapshot struct {
	ID             uint                 `json:"id"`
	AssignmentID   uint                 `json:"assignment_id"`
	StudentID      uint                 `json:"student_id"`
	Stage          string               `json:"stage"`
	AttemptsUsed   int                  `json:"attempts_used"`
	ExtractedText  string               `json:"extracted_text"`
	EditedText     string               `json:"edited_text"`
	AIScore        *float64             `json:"ai_score"`
	AIFeedback     string               `json:"ai_feedback"`
	AIScoreVisible bool                 `json:"ai_score_visible"`
	HumanScore     *float64             `json:"human_score"`
	HumanFeedback  string               `json:"human_feedback"`
	FinalScore     *float64             `json:"final_score"`
	Files          []SubmissionFileView `json:"files"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// NewSubmissionSnapshot converts a Submission into its API representation.
// forStudent redacts the AI fields until the human score is recorded.
func NewSubmissionSnapshot(model models.Submission, forStudent bool) SubmissionSnapshot {
	snapshot := SubmissionSnapshot{
		ID:             model.ID,
		AssignmentID:   model.AssignmentID,
		StudentID:      model.StudentID,
		Stage:          model.Stage,
		AttemptsUsed:   model.AttemptsUsed,
		ExtractedText:  model.ExtractedText,
		EditedText:     model.EditedText,
		AIScore:        model.AIScore,
		AIFeedback:     model.AIFeedback,
		AIScoreVisible: model.AIScoreVisible(),
		HumanScore:     model.HumanScore,
		HumanFeedback:  model.HumanFeedback,
		FinalScore:     model.FinalScore,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}

	if forStudent && !snapshot.AIScoreVisible {
		snapshot.AIScore = nil
		snapshot.AIFeedback = ""
	}

	files := make([]SubmissionFileView, 0, len(model.Files))
	for _, file := range model.Files {
		files = append(files, SubmissionFileView{
			ID:           file.ID,
			OriginalName: file.OriginalName,
			BlobRef:      file.BlobRef,
			Kind:         file.Kind,
			Position:     file.Position,
		})
	}
	snapshot.Files = files

	return snapshot
}

// AttemptsRemainingResponse reports the attempt budget for one assignment.
type AttemptsRemainingResponse struct {
	AssignmentID uint   `json:"assignment_id"`
	AttemptsLeft int    `json:"attempts_left"`
	Allowed      bool   `json:"allowed"`
	Reason       string `json:"reason,omitempty"`
}
