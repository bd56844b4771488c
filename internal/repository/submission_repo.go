package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/amirasyraf/edugrade-api/internal/models"
)

// ErrVersionConflict indicates a concurrent writer modified the submission
// between read and write. Callers should re-fetch and retry.
var ErrVersionConflict = errors.New("submission was modified concurrently")

// SubmissionRepository defines data operations for submissions. The
// multi-step mutations run inside one transaction each and guard against
// concurrent writers with a compare-and-swap on the lock version.
type SubmissionRepository interface {
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID uint) (models.Submission, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.Submission, error)
	ListByAssignment(ctx context.Context, assignmentID uint) ([]models.Submission, error)
	Create(ctx context.Context, submission *models.Submission) error
	ResetForUpload(ctx context.Context, submission *models.Submission, files []models.SubmissionFile) error
	CompleteEvaluation(ctx context.Context, submission *models.Submission) error
	RecordScore(ctx context.Context, submission *models.Submission, history *models.GradeHistory) error
	Delete(ctx context.Context, submission *models.Submission) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Preload("Assignment").
		Preload("Files", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("History")
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).
		Where("assignment_id = ?", assignmentID).
		Where("student_id = ?", studentID).
		First(&submission).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.baseQuery(ctx).
		Where("student_id = ?", studentID).
		Order("updated_at DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) ListByAssignment(ctx context.Context, assignmentID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.baseQuery(ctx).
		Where("assignment_id = ?", assignmentID).
		Order("updated_at DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

// ResetForUpload replaces the submission's file set and transitional fields
// in one transaction. The caller supplies the fully prepared post-upload
// state (stage, batch IDs, extracted text); prior grading fields are cleared
// here so a re-submission can never merge with stale scores. A reset that
// lands straight in the evaluated stage (project work has no review step)
// consumes the attempt inside the same guarded update.
func (r *submissionRepository) ResetForUpload(ctx context.Context, submission *models.Submission, files []models.SubmissionFile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("submission_id = ?", submission.ID).Delete(&models.SubmissionFile{}).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"stage":              submission.Stage,
			"upload_batch_id":    submission.UploadBatchID,
			"evaluated_batch_id": submission.EvaluatedBatchID,
			"extracted_text":     submission.ExtractedText,
			"edited_text":        submission.EditedText,
			"ai_score":           submission.AIScore,
			"ai_feedback":        submission.AIFeedback,
			"ai_raw":             nil,
			"human_score":        nil,
			"human_feedback":     "",
			"final_score":        nil,
			"scored_by":          nil,
			"scored_at":          nil,
		}
		if submission.Stage == models.StageEvaluated {
			updates["attempts_used"] = gorm.Expr("attempts_used + 1")
		}
		if err := casUpdate(tx, submission, updates); err != nil {
			return err
		}

		for i := range files {
			files[i].ID = 0
			files[i].SubmissionID = submission.ID
		}
		if len(files) > 0 {
			if err := tx.Create(&files).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// CompleteEvaluation writes the evaluation outcome and increments the attempt
// counter in a single guarded update, so a crash can never separate the two.
func (r *submissionRepository) CompleteEvaluation(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return casUpdate(tx, submission, map[string]interface{}{
			"stage":              models.StageEvaluated,
			"edited_text":        submission.EditedText,
			"ai_score":           submission.AIScore,
			"ai_feedback":        submission.AIFeedback,
			"ai_raw":             submission.AIRaw,
			"evaluated_batch_id": submission.UploadBatchID,
			"attempts_used":      gorm.Expr("attempts_used + 1"),
		})
	})
}

// RecordScore persists the human score, the reconciled final grade and the
// grade-history entry atomically.
func (r *submissionRepository) RecordScore(ctx context.Context, submission *models.Submission, history *models.GradeHistory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"stage":          models.StageScored,
			"human_score":    submission.HumanScore,
			"human_feedback": submission.HumanFeedback,
			"final_score":    submission.FinalScore,
			"scored_by":      submission.ScoredBy,
			"scored_at":      submission.ScoredAt,
		}
		if err := casUpdate(tx, submission, updates); err != nil {
			return err
		}

		history.SubmissionID = submission.ID
		return tx.Create(history).Error
	})
}

// Delete removes the submission row and its dependent rows, guarded by the
// same compare-and-swap as every other mutation: the row is only deleted
// while it still carries the lock version the caller read, so an evaluation
// that lands concurrently never has its counted attempt erased. Blob cleanup
// is the caller's responsibility and is intentionally decoupled from this
// transaction.
func (r *submissionRepository) Delete(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("submission_id = ?", submission.ID).Delete(&models.SubmissionFile{}).Error; err != nil {
			return err
		}
		if err := tx.Where("submission_id = ?", submission.ID).Delete(&models.GradeHistory{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ? AND lock_version = ?", submission.ID, submission.LockVersion).
			Delete(&models.Submission{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Submission{}).Where("id = ?", submission.ID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return gorm.ErrRecordNotFound
			}
			return ErrVersionConflict
		}

		return nil
	})
}

// casUpdate applies the field updates only when the row still carries the
// lock version the caller read. Zero affected rows means another writer got
// there first.
func casUpdate(tx *gorm.DB, submission *models.Submission, updates map[string]interface{}) error {
	expected := submission.LockVersion
	updates["lock_version"] = expected + 1

	result := tx.Model(&models.Submission{}).
		Where("id = ? AND lock_version = ?", submission.ID, expected).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}

	submission.LockVersion = expected + 1
	return nil
}
