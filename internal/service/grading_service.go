package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/amirasyraf/edugrade-api/internal/dto"
	"github.com/amirasyraf/edugrade-api/internal/grading"
	"github.com/amirasyraf/edugrade-api/internal/models"
	"github.com/amirasyraf/edugrade-api/internal/observability"
	"github.com/amirasyraf/edugrade-api/internal/repository"
)

// GradingService records instructor scores and reconciles them with the AI
// score into the final grade.
type GradingService interface {
	RecordHumanScore(ctx context.Context, submissionID, graderID uint, payload dto.HumanScoreRequest) (dto.SubmissionSnapshot, error)
	ListByAssignment(ctx context.Context, assignmentID uint) ([]dto.SubmissionSnapshot, error)
	GetSubmission(ctx context.Context, submissionID uint) (dto.SubmissionSnapshot, error)
}

type gradingService struct {
	submissions repository.SubmissionRepository
	activity    ActivityRecorder
	events      EventPublisher
	progress    ProgressInvalidator
	validator   *validator.Validate
	threshold   float64
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewGradingService constructs the instructor grading service. threshold is
// the AI/human disagreement gap at which the human score fully overrides;
// zero selects the default.
func NewGradingService(subRepo repository.SubmissionRepository, activity ActivityRecorder, events EventPublisher, progress ProgressInvalidator, validate *validator.Validate, threshold float64, logger zerolog.Logger) GradingService {
	if threshold <= 0 {
		threshold = grading.DefaultDisagreementThreshold
	}

	return &gradingService{
		submissions: subRepo,
		activity:    activity,
		events:      events,
		progress:    progress,
		validator:   validate,
		threshold:   threshold,
		logger:      logger.With().Str("component", "grading_service").Logger(),
		tracer:      otel.Tracer("github.com/amirasyraf/edugrade-api/internal/service/grading"),
		now:         time.Now,
	}
}

func (s *gradingService) RecordHumanScore(ctx context.Context, submissionID, graderID uint, payload dto.HumanScoreRequest) (dto.SubmissionSnapshot, error) {
	spanCtx, span := s.tracer.Start(ctx, "grading.record_score", trace.WithAttributes(
		attribute.Int64("submission.id", int64(submissionID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionSnapshot{}, err
	}

	snapshot, err := s.recordOnce(spanCtx, submissionID, graderID, payload)
	if errors.Is(err, repository.ErrVersionConflict) {
		observability.VersionConflicts().Inc()
		snapshot, err = s.recordOnce(spanCtx, submissionID, graderID, payload)
		if errors.Is(err, repository.ErrVersionConflict) {
			return dto.SubmissionSnapshot{}, ErrConflict
		}
	}
	if err != nil {
		span.RecordError(err)
		return dto.SubmissionSnapshot{}, err
	}

	s.invalidateProgress(spanCtx, snapshot.StudentID)

	s.publishEvent(spanCtx, dto.PipelineEvent{
		Type:         dto.EventSubmissionScored,
		SubmissionID: snapshot.ID,
		AssignmentID: snapshot.AssignmentID,
		StudentID:    snapshot.StudentID,
		Stage:        snapshot.Stage,
	})

	return snapshot, nil
}

func (s *gradingService) recordOnce(ctx context.Context, submissionID, graderID uint, payload dto.HumanScoreRequest) (dto.SubmissionSnapshot, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionSnapshot{}, ErrSubmissionNotFound
		}
		return dto.SubmissionSnapshot{}, err
	}

	// Scoring requires an evaluated attempt. Re-scoring an already scored
	// submission replaces the grade and appends to the history.
	if !submission.Evaluated() {
		return dto.SubmissionSnapshot{}, ErrInvalidStage
	}

	maxScore := submission.Assignment.MaxScore
	if maxScore <= 0 {
		maxScore = 100
	}
	if payload.Score < 0 || payload.Score > maxScore {
		return dto.SubmissionSnapshot{}, ErrInvalidScore
	}

	final := grading.Reconcile(submission.AIScore, payload.Score, s.threshold)
	observability.Reconciliations().WithLabelValues(reconcileRule(submission.AIScore, payload.Score, s.threshold)).Inc()

	scoredAt := s.now()
	score := payload.Score

	submission.Stage = models.StageScored
	submission.HumanScore = &score
	submission.HumanFeedback = payload.Feedback
	submission.FinalScore = &final
	submission.ScoredBy = &graderID
	submission.ScoredAt = &scoredAt

	history := models.GradeHistory{
		SubmissionID: submission.ID,
		Score:        payload.Score,
		FinalScore:   final,
		Feedback:     payload.Feedback,
		ScoredBy:     graderID,
		ScoredAt:     scoredAt,
	}

	if err := s.submissions.RecordScore(ctx, &submission, &history); err != nil {
		return dto.SubmissionSnapshot{}, err
	}

	entityID := submission.ID
	s.recordActivity(ctx, graderID, "submission.scored", &entityID, map[string]interface{}{
		"human_score": payload.Score,
		"final_score": final,
		"ai_score":    submission.AIScore,
	})

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("grader_id", graderID).
		Float64("human_score", payload.Score).
		Float64("final_score", final).
		Msg("submission scored")

	saved, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionSnapshot{}, err
	}

	return dto.NewSubmissionSnapshot(saved, false), nil
}

func (s *gradingService) ListByAssignment(ctx context.Context, assignmentID uint) ([]dto.SubmissionSnapshot, error) {
	submissions, err := s.submissions.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	snapshots := make([]dto.SubmissionSnapshot, 0, len(submissions))
	for _, submission := range submissions {
		snapshots = append(snapshots, dto.NewSubmissionSnapshot(submission, false))
	}

	return snapshots, nil
}

func (s *gradingService) GetSubmission(ctx context.Context, submissionID uint) (dto.SubmissionSnapshot, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionSnapshot{}, ErrSubmissionNotFound
		}
		return dto.SubmissionSnapshot{}, err
	}

	return dto.NewSubmissionSnapshot(submission, false), nil
}

func (s *gradingService) recordActivity(ctx context.Context, actorID uint, action string, entityID *uint, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}
	s.activity.Record(ctx, actorID, "instructor", action, "submission", entityID, metadata)
}

func (s *gradingService) publishEvent(ctx context.Context, event dto.PipelineEvent) {
	if s.events == nil {
		return
	}
	event.OccurredAt = s.now().UTC()
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("type", event.Type).Msg("failed to publish pipeline event")
	}
}

func (s *gradingService) invalidateProgress(ctx context.Context, studentID uint) {
	if s.progress == nil {
		return
	}
	s.progress.Invalidate(ctx, studentID)
}

func reconcileRule(aiScore *float64, humanScore, threshold float64) string {
	switch {
	case aiScore == nil:
		return "human_only"
	case math.Abs(humanScore-*aiScore) >= threshold:
		return "human_override"
	default:
		return "average"
	}
}
