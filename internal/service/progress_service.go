package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/amirasyraf/edugrade-api/internal/dto"
	"github.com/amirasyraf/edugrade-api/internal/grading"
	"github.com/amirasyraf/edugrade-api/internal/models"
	"github.com/amirasyraf/edugrade-api/internal/repository"
)

const progressCacheTTL = 60 * time.Second

// ProgressService assembles a student's per-assignment progress overview.
// Results are cached in redis and invalidated whenever a pipeline mutation
// touches the student's submissions.
type ProgressService interface {
	ProgressInvalidator
	Overview(ctx context.Context, studentID uint) (dto.StudentProgressResponse, error)
}

type progressService struct {
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	redis       *redis.Client
	logger      zerolog.Logger
	now         func() time.Time
}

// NewProgressService constructs the progress service. A nil redis client
// disables caching.
func NewProgressService(assignmentRepo repository.AssignmentRepository, subRepo repository.SubmissionRepository, redisClient *redis.Client, logger zerolog.Logger) ProgressService {
	return &progressService{
		assignments: assignmentRepo,
		submissions: subRepo,
		redis:       redisClient,
		logger:      logger.With().Str("component", "progress_service").Logger(),
		now:         time.Now,
	}
}

func (s *progressService) Overview(ctx context.Context, studentID uint) (dto.StudentProgressResponse, error) {
	if cached, ok := s.fromCache(ctx, studentID); ok {
		return cached, nil
	}

	assignments, err := s.assignments.List(ctx)
	if err != nil {
		return dto.StudentProgressResponse{}, err
	}

	submissions, err := s.submissions.ListByStudent(ctx, studentID)
	if err != nil {
		return dto.StudentProgressResponse{}, err
	}

	byAssignment := make(map[uint]models.Submission, len(submissions))
	for _, submission := range submissions {
		byAssignment[submission.AssignmentID] = submission
	}

	response := dto.StudentProgressResponse{
		StudentID:   studentID,
		Assignments: make([]dto.AssignmentProgress, 0, len(assignments)),
		GeneratedAt: s.now().UTC(),
	}

	reference := s.now()
	for _, assignment := range assignments {
		if assignment.Status != models.AssignmentStatusOpen {
			continue
		}

		progress := dto.AssignmentProgress{
			AssignmentID: assignment.ID,
			Title:        assignment.Title,
			Category:     assignment.Category,
			Deadline:     assignment.Deadline,
		}

		var existing *models.Submission
		if submission, ok := byAssignment[assignment.ID]; ok {
			existing = &submission
			progress.Stage = submission.Stage
			progress.AttemptsUsed = submission.AttemptsUsed
			progress.FinalScore = submission.FinalScore

			switch submission.Stage {
			case models.StageScored:
				response.Scored++
			default:
				response.InProgress++
			}
		}

		decision := grading.CanStartAttempt(assignment, existing, reference)
		progress.AttemptsLeft = decision.AttemptsLeft
		progress.CanStartAttempt = decision.Allowed
		progress.BlockedReason = decision.Reason

		response.Assignments = append(response.Assignments, progress)
	}

	s.toCache(ctx, studentID, response)

	return response, nil
}

func (s *progressService) Invalidate(ctx context.Context, studentID uint) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, progressCacheKey(studentID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("student_id", studentID).Msg("failed to invalidate progress cache")
	}
}

func (s *progressService) fromCache(ctx context.Context, studentID uint) (dto.StudentProgressResponse, bool) {
	if s.redis == nil {
		return dto.StudentProgressResponse{}, false
	}

	payload, err := s.redis.Get(ctx, progressCacheKey(studentID)).Bytes()
	if err != nil {
		return dto.StudentProgressResponse{}, false
	}

	var response dto.StudentProgressResponse
	if err := json.Unmarshal(payload, &response); err != nil {
		s.logger.Warn().Err(err).Msg("discarding corrupt progress cache entry")
		return dto.StudentProgressResponse{}, false
	}

	return response, true
}

func (s *progressService) toCache(ctx context.Context, studentID uint, response dto.StudentProgressResponse) {
	if s.redis == nil {
		return
	}

	payload, err := json.Marshal(response)
	if err != nil {
		return
	}

	if err := s.redis.Set(ctx, progressCacheKey(studentID), payload, progressCacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to cache progress overview")
	}
}

func progressCacheKey(studentID uint) string {
	return fmt.Sprintf("edugrade:progress:%d", studentID)
}
