package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/amirasyraf/edugrade-api/internal/dto"
	"github.com/amirasyraf/edugrade-api/internal/extract"
	"github.com/amirasyraf/edugrade-api/internal/grading"
	"github.com/amirasyraf/edugrade-api/internal/models"
	"github.com/amirasyraf/edugrade-api/internal/observability"
	"github.com/amirasyraf/edugrade-api/internal/repository"
	"github.com/amirasyraf/edugrade-api/pkg/ai"
)

const uploadGuardTTL = 30 * time.Second

// SubmissionService drives a submission through its lifecycle: upload files,
// review the extracted text, trigger evaluation, or abandon the attempt.
type SubmissionService interface {
	StartUpload(ctx context.Context, assignmentID, studentID uint, files []dto.UploadFile) (dto.SubmissionSnapshot, error)
	ConfirmReview(ctx context.Context, submissionID, studentID uint, payload dto.ReviewRequest) (dto.SubmissionSnapshot, error)
	Abandon(ctx context.Context, submissionID, studentID uint) error
	GetState(ctx context.Context, assignmentID, studentID uint, forStudent bool) (dto.SubmissionSnapshot, error)
	AttemptsRemaining(ctx context.Context, assignmentID, studentID uint) (dto.AttemptsRemainingResponse, error)
}

type submissionService struct {
	submissions    repository.SubmissionRepository
	assignments    repository.AssignmentRepository
	blobs          BlobStore
	extractor      *extract.Dispatcher
	textEvaluator  ai.TextEvaluator
	imageEvaluator ai.ImageEvaluator
	events         EventPublisher
	progress       ProgressInvalidator
	redis          *redis.Client
	validator      *validator.Validate
	sanitizer      *bluemonday.Policy
	logger         zerolog.Logger
	tracer         trace.Tracer
	now            func() time.Time
}

// NewSubmissionService wires the submission pipeline. The evaluators, event
// publisher, progress invalidator and redis client may be nil; the pipeline
// degrades rather than failing when they are absent.
func NewSubmissionService(
	subRepo repository.SubmissionRepository,
	assignmentRepo repository.AssignmentRepository,
	blobs BlobStore,
	extractor *extract.Dispatcher,
	textEvaluator ai.TextEvaluator,
	imageEvaluator ai.ImageEvaluator,
	events EventPublisher,
	progress ProgressInvalidator,
	redisClient *redis.Client,
	validate *validator.Validate,
	logger zerolog.Logger,
) SubmissionService {
	return &submissionService{
		submissions:    subRepo,
		assignments:    assignmentRepo,
		blobs:          blobs,
		extractor:      extractor,
		textEvaluator:  textEvaluator,
		imageEvaluator: imageEvaluator,
		events:         events,
		progress:       progress,
		redis:          redisClient,
		validator:      validate,
		sanitizer:      bluemonday.StrictPolicy(),
		logger:         logger.With().Str("component", "submission_service").Logger(),
		tracer:         otel.Tracer("github.com/amirasyraf/edugrade-api/internal/service/submission"),
		now:            time.Now,
	}
}

func (s *submissionService) StartUpload(ctx context.Context, assignmentID, studentID uint, files []dto.UploadFile) (dto.SubmissionSnapshot, error) {
	spanCtx, span := s.tracer.Start(ctx, "submissions.start_upload", trace.WithAttributes(
		attribute.Int64("assignment.id", int64(assignmentID)),
		attribute.Int64("student.id", int64(studentID)),
		attribute.Int("files.count", len(files)),
	))
	defer span.End()

	assignment, err := s.openAssignment(spanCtx, assignmentID)
	if err != nil {
		return dto.SubmissionSnapshot{}, err
	}

	if err := validateUploadFiles(files); err != nil {
		return dto.SubmissionSnapshot{}, err
	}

	existing, err := s.findSubmission(spanCtx, assignmentID, studentID)
	if err != nil {
		return dto.SubmissionSnapshot{}, err
	}

	if err := s.checkAttemptGate(assignment, existing); err != nil {
		observability.Uploads().WithLabelValues(assignment.Category, "denied").Inc()
		return dto.SubmissionSnapshot{}, err
	}

	release, err := s.acquireUploadGuard(spanCtx, assignmentID, studentID)
	if err != nil {
		return dto.SubmissionSnapshot{}, err
	}
	defer release()

	batchID := uuid.NewString()

	newRefs, fileModels, err := s.storeBlobs(spanCtx, files)
	if err != nil {
		span.RecordError(err)
		observability.Uploads().WithLabelValues(assignment.Category, "storage_error").Inc()
		return dto.SubmissionSnapshot{}, err
	}

	// Project work is graded by instructors only: the text files are stored
	// verbatim and the submission lands straight in the evaluated stage with
	// no AI score, so extraction and review are skipped entirely.
	var extracted string
	if assignment.Category == models.CategoryProject {
		extracted = rawText(files)
	} else {
		extracted = s.extractor.ExtractAll(spanCtx, extractInput(files))
	}

	var oldRefs []string
	if existing != nil {
		oldRefs = blobRefs(existing.Files)
	}

	submissionID, err := s.persistUpload(spanCtx, assignment, existing, studentID, batchID, extracted, fileModels)
	if err != nil {
		s.discardBlobs(spanCtx, newRefs)
		if errors.Is(err, repository.ErrVersionConflict) {
			observability.VersionConflicts().Inc()
			return dto.SubmissionSnapshot{}, ErrConflict
		}
		return dto.SubmissionSnapshot{}, err
	}

	// Old blobs are removed only after the database state points at the new
	// ones. Failures here leave orphans in the blob store, never dangling
	// references in the database.
	s.discardBlobs(spanCtx, oldRefs)

	observability.Uploads().WithLabelValues(assignment.Category, "ok").Inc()
	s.invalidateProgress(spanCtx, studentID)

	saved, err := s.submissions.GetByID(spanCtx, submissionID)
	if err != nil {
		return dto.SubmissionSnapshot{}, err
	}

	eventType := dto.EventSubmissionUploaded
	if saved.Stage == models.StageEvaluated {
		eventType = dto.EventSubmissionEvaluated
	}
	s.publishEvent(spanCtx, dto.PipelineEvent{
		Type:         eventType,
		SubmissionID: saved.ID,
		AssignmentID: assignmentID,
		StudentID:    studentID,
		Stage:        saved.Stage,
	})

	s.logger.Info().
		Uint("submission_id", saved.ID).
		Uint("assignment_id", assignmentID).
		Int("files", len(files)).
		Msg("submission uploaded")

	return dto.NewSubmissionSnapshot(saved, true), nil
}

func (s *submissionService) ConfirmReview(ctx context.Context, submissionID, studentID uint, payload dto.ReviewRequest) (dto.SubmissionSnapshot, error) {
	spanCtx, span := s.tracer.Start(ctx, "submissions.confirm_review", trace.WithAttributes(
		attribute.Int64("submission.id", int64(submissionID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionSnapshot{}, err
	}

	submission, err := s.ownedSubmission(spanCtx, submissionID, studentID)
	if err != nil {
		return dto.SubmissionSnapshot{}, err
	}

	// Re-confirming an already evaluated batch is a no-op: the attempt was
	// counted when the batch was first evaluated.
	if submission.EvaluatedBatchID != "" && submission.EvaluatedBatchID == submission.UploadBatchID {
		return dto.NewSubmissionSnapshot(submission, true), nil
	}
	if submission.Stage != models.StageUploaded && submission.Stage != models.StageReviewing {
		return dto.SubmissionSnapshot{}, ErrInvalidStage
	}

	editedText := strings.TrimSpace(s.sanitizer.Sanitize(payload.EditedText))
	if editedText == "" {
		editedText = submission.ExtractedText
	}

	result := s.evaluate(spanCtx, submission, editedText)

	submission.EditedText = editedText
	submission.AIScore = result.Score
	submission.AIFeedback = result.Feedback
	submission.AIRaw = result.Raw

	if err := s.submissions.CompleteEvaluation(spanCtx, &submission); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			observability.VersionConflicts().Inc()
			return s.retryConfirm(spanCtx, submissionID, studentID, payload)
		}
		span.RecordError(err)
		return dto.SubmissionSnapshot{}, err
	}

	s.invalidateProgress(spanCtx, studentID)

	saved, err := s.submissions.GetByID(spanCtx, submission.ID)
	if err != nil {
		return dto.SubmissionSnapshot{}, err
	}

	s.publishEvent(spanCtx, dto.PipelineEvent{
		Type:         dto.EventSubmissionEvaluated,
		SubmissionID: saved.ID,
		AssignmentID: saved.AssignmentID,
		StudentID:    studentID,
		Stage:        saved.Stage,
	})

	s.logger.Info().
		Uint("submission_id", saved.ID).
		Int("attempts_used", saved.AttemptsUsed).
		Bool("ai_scored", saved.AIScore != nil).
		Msg("submission evaluated")

	return dto.NewSubmissionSnapshot(saved, true), nil
}

// retryConfirm re-reads the submission and replays the confirmation once. A
// concurrent re-upload changes the batch ID, in which case the confirmation
// applies to the new batch's text.
func (s *submissionService) retryConfirm(ctx context.Context, submissionID, studentID uint, payload dto.ReviewRequest) (dto.SubmissionSnapshot, error) {
	submission, err := s.ownedSubmission(ctx, submissionID, studentID)
	if err != nil {
		return dto.SubmissionSnapshot{}, err
	}

	if submission.EvaluatedBatchID != "" && submission.EvaluatedBatchID == submission.UploadBatchID {
		return dto.NewSubmissionSnapshot(submission, true), nil
	}
	if submission.Stage != models.StageUploaded && submission.Stage != models.StageReviewing {
		return dto.SubmissionSnapshot{}, ErrInvalidStage
	}

	editedText := strings.TrimSpace(s.sanitizer.Sanitize(payload.EditedText))
	if editedText == "" {
		editedText = submission.ExtractedText
	}

	result := s.evaluate(ctx, submission, editedText)

	submission.EditedText = editedText
	submission.AIScore = result.Score
	submission.AIFeedback = result.Feedback
	submission.AIRaw = result.Raw

	if err := s.submissions.CompleteEvaluation(ctx, &submission); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			observability.VersionConflicts().Inc()
			return dto.SubmissionSnapshot{}, ErrConflict
		}
		return dto.SubmissionSnapshot{}, err
	}

	saved, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionSnapshot{}, err
	}

	return dto.NewSubmissionSnapshot(saved, true), nil
}

func (s *submissionService) Abandon(ctx context.Context, submissionID, studentID uint) error {
	spanCtx, span := s.tracer.Start(ctx, "submissions.abandon", trace.WithAttributes(
		attribute.Int64("submission.id", int64(submissionID)),
	))
	defer span.End()

	submission, err := s.ownedSubmission(spanCtx, submissionID, studentID)
	if err != nil {
		return err
	}

	// Once evaluated, the attempt has been counted and the record must stay.
	if submission.Evaluated() {
		return ErrInvalidStage
	}

	refs := blobRefs(submission.Files)

	if err := s.submissions.Delete(spanCtx, &submission); err != nil {
		if !errors.Is(err, repository.ErrVersionConflict) {
			span.RecordError(err)
			return err
		}

		// A concurrent writer touched the row between the read and the
		// delete. If it was the evaluation, the attempt is counted and the
		// record must stay; otherwise replay once against the fresh version.
		observability.VersionConflicts().Inc()
		fresh, ferr := s.ownedSubmission(spanCtx, submissionID, studentID)
		if ferr != nil {
			return ferr
		}
		if fresh.Evaluated() {
			return ErrInvalidStage
		}

		refs = blobRefs(fresh.Files)
		if derr := s.submissions.Delete(spanCtx, &fresh); derr != nil {
			if errors.Is(derr, repository.ErrVersionConflict) {
				observability.VersionConflicts().Inc()
				return ErrConflict
			}
			span.RecordError(derr)
			return derr
		}
	}

	s.discardBlobs(spanCtx, refs)
	s.invalidateProgress(spanCtx, studentID)

	s.publishEvent(spanCtx, dto.PipelineEvent{
		Type:         dto.EventSubmissionAbandoned,
		SubmissionID: submission.ID,
		AssignmentID: submission.AssignmentID,
		StudentID:    studentID,
	})

	s.logger.Info().Uint("submission_id", submission.ID).Msg("submission abandoned")

	return nil
}

func (s *submissionService) GetState(ctx context.Context, assignmentID, studentID uint, forStudent bool) (dto.SubmissionSnapshot, error) {
	submission, err := s.submissions.GetByAssignmentAndStudent(ctx, assignmentID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionSnapshot{}, ErrSubmissionNotFound
		}
		return dto.SubmissionSnapshot{}, err
	}

	return dto.NewSubmissionSnapshot(submission, forStudent), nil
}

func (s *submissionService) AttemptsRemaining(ctx context.Context, assignmentID, studentID uint) (dto.AttemptsRemainingResponse, error) {
	assignment, err := s.openAssignment(ctx, assignmentID)
	if err != nil {
		return dto.AttemptsRemainingResponse{}, err
	}

	existing, err := s.findSubmission(ctx, assignmentID, studentID)
	if err != nil {
		return dto.AttemptsRemainingResponse{}, err
	}

	decision := grading.CanStartAttempt(assignment, existing, s.now())

	return dto.AttemptsRemainingResponse{
		AssignmentID: assignmentID,
		AttemptsLeft: decision.AttemptsLeft,
		Allowed:      decision.Allowed,
		Reason:       decision.Reason,
	}, nil
}

// evaluate routes the submission to the evaluator for its category. Project
// work is graded by instructors only; a missing or failing evaluator records
// a nil score with explanatory feedback, and the attempt is still consumed.
func (s *submissionService) evaluate(ctx context.Context, submission models.Submission, editedText string) ai.EvaluationResult {
	category := submission.Assignment.Category
	rubric := submission.Assignment.RubricText

	started := s.now()
	var (
		result ai.EvaluationResult
		err    error
	)

	switch category {
	case models.CategoryEssay:
		if s.textEvaluator == nil {
			return ai.Unavailable()
		}
		result, err = s.textEvaluator.ScoreText(ctx, editedText, rubric)
	case models.CategoryProblem:
		if s.imageEvaluator == nil {
			return ai.Unavailable()
		}
		var images []ai.Image
		images, err = s.fetchImages(ctx, submission.Files)
		if err == nil {
			result, err = s.imageEvaluator.ScoreImages(ctx, images, rubric)
		}
	default:
		return ai.Unavailable()
	}

	observability.EvaluationLatency().WithLabelValues(category).Observe(s.now().Sub(started).Seconds())

	if err != nil {
		s.logger.Warn().Err(err).
			Uint("submission_id", submission.ID).
			Str("category", category).
			Msg("evaluation degraded")
		observability.Evaluations().WithLabelValues(category, "error").Inc()
		return ai.EvaluationResult{Feedback: "AI scoring was unavailable for this attempt. Your work will be graded by an instructor."}
	}

	observability.Evaluations().WithLabelValues(category, "ok").Inc()

	return result
}

func (s *submissionService) fetchImages(ctx context.Context, files []models.SubmissionFile) ([]ai.Image, error) {
	images := make([]ai.Image, 0, len(files))
	for _, file := range files {
		if file.Kind != models.FileKindImage {
			continue
		}

		data, err := s.blobs.Fetch(ctx, file.BlobRef)
		if err != nil {
			observability.BlobOperations().WithLabelValues("fetch", "error").Inc()
			return nil, fmt.Errorf("fetch %s: %w", file.OriginalName, err)
		}
		observability.BlobOperations().WithLabelValues("fetch", "ok").Inc()

		images = append(images, ai.Image{Data: data, MIME: mimetype.Detect(data).String()})
	}

	return images, nil
}

// persistUpload writes the upload inside one transaction: a fresh row for a
// first attempt, an in-place reset for a re-upload. Extraction has already
// run by the time the row is written, so essay and problem work lands in the
// reviewing stage; project work lands in evaluated directly.
func (s *submissionService) persistUpload(ctx context.Context, assignment models.Assignment, existing *models.Submission, studentID uint, batchID, extracted string, files []models.SubmissionFile) (uint, error) {
	stage := models.StageReviewing
	evaluatedBatch := ""
	attempts := 0
	if assignment.Category == models.CategoryProject {
		stage = models.StageEvaluated
		evaluatedBatch = batchID
		attempts = 1
	}

	if existing == nil {
		submission := models.Submission{
			AssignmentID:     assignment.ID,
			StudentID:        studentID,
			Stage:            stage,
			AttemptsUsed:     attempts,
			UploadBatchID:    batchID,
			EvaluatedBatchID: evaluatedBatch,
			ExtractedText:    extracted,
			EditedText:       extracted,
			Files:            files,
		}
		if err := s.submissions.Create(ctx, &submission); err != nil {
			return 0, err
		}
		return submission.ID, nil
	}

	updated := *existing
	updated.Stage = stage
	updated.UploadBatchID = batchID
	updated.EvaluatedBatchID = evaluatedBatch
	updated.ExtractedText = extracted
	updated.EditedText = extracted

	if err := s.submissions.ResetForUpload(ctx, &updated, files); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			// One retry: re-read, re-check the gate, reset again.
			fresh, ferr := s.findSubmission(ctx, assignment.ID, studentID)
			if ferr != nil {
				return 0, ferr
			}
			if fresh == nil {
				return 0, err
			}
			if gerr := s.checkAttemptGate(assignment, fresh); gerr != nil {
				return 0, gerr
			}

			retried := *fresh
			retried.Stage = stage
			retried.UploadBatchID = batchID
			retried.EvaluatedBatchID = evaluatedBatch
			retried.ExtractedText = extracted
			retried.EditedText = extracted
			if rerr := s.submissions.ResetForUpload(ctx, &retried, files); rerr != nil {
				return 0, rerr
			}
			return retried.ID, nil
		}
		return 0, err
	}

	return updated.ID, nil
}

func (s *submissionService) storeBlobs(ctx context.Context, files []dto.UploadFile) ([]string, []models.SubmissionFile, error) {
	refs := make([]string, 0, len(files))
	fileModels := make([]models.SubmissionFile, 0, len(files))

	for position, file := range files {
		ref, err := s.blobs.Put(ctx, file.Name, bytes.NewReader(file.Data))
		if err != nil {
			observability.BlobOperations().WithLabelValues("put", "error").Inc()
			s.discardBlobs(ctx, refs)
			return nil, nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		observability.BlobOperations().WithLabelValues("put", "ok").Inc()

		kind, _ := extract.KindForName(file.Name)
		refs = append(refs, ref)
		fileModels = append(fileModels, models.SubmissionFile{
			BlobRef:      ref,
			OriginalName: file.Name,
			Kind:         kind,
			Position:     position,
		})
	}

	return refs, fileModels, nil
}

// discardBlobs deletes blobs best-effort. Leaking a blob costs storage;
// failing the request over it would cost consistency.
func (s *submissionService) discardBlobs(ctx context.Context, refs []string) {
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if err := s.blobs.Delete(ctx, ref); err != nil {
			observability.BlobOperations().WithLabelValues("delete", "error").Inc()
			s.logger.Warn().Err(err).Str("blob_ref", ref).Msg("failed to delete blob")
			continue
		}
		observability.BlobOperations().WithLabelValues("delete", "ok").Inc()
	}
}

func (s *submissionService) acquireUploadGuard(ctx context.Context, assignmentID, studentID uint) (func(), error) {
	if s.redis == nil {
		return func() {}, nil
	}

	key := fmt.Sprintf("edugrade:upload:%d:%d", assignmentID, studentID)
	acquired, err := s.redis.SetNX(ctx, key, "1", uploadGuardTTL).Result()
	if err != nil {
		// Redis being down must not block uploads; the lock version still
		// protects against the race.
		s.logger.Warn().Err(err).Msg("upload guard unavailable")
		return func() {}, nil
	}
	if !acquired {
		return nil, ErrDuplicateRequest
	}

	return func() {
		if err := s.redis.Del(context.WithoutCancel(ctx), key).Err(); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to release upload guard")
		}
	}, nil
}

func (s *submissionService) checkAttemptGate(assignment models.Assignment, existing *models.Submission) error {
	decision := grading.CanStartAttempt(assignment, existing, s.now())
	if decision.Allowed {
		return nil
	}

	switch decision.Reason {
	case grading.ReasonDeadlinePassed:
		return ErrDeadlinePassed
	case grading.ReasonQuotaExhausted:
		return ErrQuotaExhausted
	default:
		return fmt.Errorf("attempt not permitted: %s", decision.Reason)
	}
}

func (s *submissionService) openAssignment(ctx context.Context, assignmentID uint) (models.Assignment, error) {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, ErrAssignmentNotFound
		}
		return models.Assignment{}, err
	}

	if assignment.Status != models.AssignmentStatusOpen {
		return models.Assignment{}, ErrAssignmentNotFound
	}

	return assignment, nil
}

func (s *submissionService) findSubmission(ctx context.Context, assignmentID, studentID uint) (*models.Submission, error) {
	submission, err := s.submissions.GetByAssignmentAndStudent(ctx, assignmentID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &submission, nil
}

func (s *submissionService) ownedSubmission(ctx context.Context, submissionID, studentID uint) (models.Submission, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Submission{}, ErrSubmissionNotFound
		}
		return models.Submission{}, err
	}

	if submission.StudentID != studentID {
		return models.Submission{}, ErrSubmissionNotFound
	}

	return submission, nil
}

func (s *submissionService) publishEvent(ctx context.Context, event dto.PipelineEvent) {
	if s.events == nil {
		return
	}
	event.OccurredAt = s.now().UTC()
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("type", event.Type).Msg("failed to publish pipeline event")
	}
}

func (s *submissionService) invalidateProgress(ctx context.Context, studentID uint) {
	if s.progress == nil {
		return
	}
	s.progress.Invalidate(ctx, studentID)
}

func validateUploadFiles(files []dto.UploadFile) error {
	if len(files) == 0 {
		return ErrNoFiles
	}

	for _, file := range files {
		if len(file.Data) == 0 {
			return fmt.Errorf("%w: %s is empty", ErrNoFiles, file.Name)
		}
		if _, ok := extract.KindForName(file.Name); !ok {
			return fmt.Errorf("%w: %s", ErrUnsupportedFile, file.Name)
		}
	}

	return nil
}

// rawText joins the plain-text uploads verbatim, newline separated. Used for
// project submissions, which skip the extraction dispatcher.
func rawText(files []dto.UploadFile) string {
	var builder strings.Builder
	for _, file := range files {
		if kind, _ := extract.KindForName(file.Name); kind != models.FileKindText {
			continue
		}
		builder.Write(file.Data)
		builder.WriteByte('\n')
	}
	return builder.String()
}

func extractInput(files []dto.UploadFile) []extract.File {
	out := make([]extract.File, 0, len(files))
	for _, file := range files {
		out = append(out, extract.File{Name: file.Name, Data: file.Data})
	}
	return out
}

func blobRefs(files []models.SubmissionFile) []string {
	refs := make([]string, 0, len(files))
	for _, file := range files {
		refs = append(refs, file.BlobRef)
	}
	return refs
}
