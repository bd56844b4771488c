package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/amirasyraf/edugrade-api/internal/dto"
	"github.com/amirasyraf/edugrade-api/internal/models"
	"github.com/amirasyraf/edugrade-api/internal/observability"
	"github.com/amirasyraf/edugrade-api/internal/repository"
)

// Assignment attachment slots.
const (
	AttachmentSlotRubric = "rubric"
	AttachmentSlotExtra  = "extra"
)

// AssignmentService manages the instructor-facing assignment lifecycle,
// including the cascading delete that removes all dependent submissions and
// their stored blobs.
type AssignmentService interface {
	List(ctx context.Context, includeHidden bool) ([]dto.AssignmentResponse, error)
	Get(ctx context.Context, id uint) (dto.AssignmentResponse, error)
	Create(ctx context.Context, payload dto.CreateAssignmentRequest) (dto.AssignmentResponse, error)
	Update(ctx context.Context, id uint, payload dto.UpdateAssignmentRequest) (dto.AssignmentResponse, error)
	AttachFile(ctx context.Context, id uint, slot string, file dto.UploadFile) (dto.AssignmentResponse, error)
	Delete(ctx context.Context, id, actorID uint) error
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	blobs       BlobStore
	activity    ActivityRecorder
	events      EventPublisher
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAssignmentService constructs the assignment service.
func NewAssignmentService(assignmentRepo repository.AssignmentRepository, subRepo repository.SubmissionRepository, blobs BlobStore, activity ActivityRecorder, events EventPublisher, validate *validator.Validate, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		assignments: assignmentRepo,
		submissions: subRepo,
		blobs:       blobs,
		activity:    activity,
		events:      events,
		validator:   validate,
		logger:      logger.With().Str("component", "assignment_service").Logger(),
		now:         time.Now,
	}
}

func (s *assignmentService) List(ctx context.Context, includeHidden bool) ([]dto.AssignmentResponse, error) {
	assignments, err := s.assignments.List(ctx)
	if err != nil {
		return nil, err
	}

	if includeHidden {
		return dto.NewAssignmentResponseSlice(assignments), nil
	}

	visible := make([]models.Assignment, 0, len(assignments))
	for _, assignment := range assignments {
		if assignment.Status == models.AssignmentStatusOpen {
			visible = append(visible, assignment)
		}
	}

	return dto.NewAssignmentResponseSlice(visible), nil
}

func (s *assignmentService) Get(ctx context.Context, id uint) (dto.AssignmentResponse, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Create(ctx context.Context, payload dto.CreateAssignmentRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment := models.Assignment{
		Title:           payload.Title,
		Description:     payload.Description,
		Category:        payload.Category,
		Status:          payload.Status,
		RubricText:      payload.RubricText,
		Deadline:        payload.Deadline,
		AllowedAttempts: payload.AllowedAttempts,
		MaxScore:        payload.MaxScore,
	}
	if assignment.Status == "" {
		assignment.Status = models.AssignmentStatusHidden
	}
	if assignment.AllowedAttempts == 0 {
		assignment.AllowedAttempts = 1
	}
	if assignment.MaxScore == 0 {
		assignment.MaxScore = 100
	}

	if err := s.assignments.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Str("category", assignment.Category).Msg("assignment created")

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Update(ctx context.Context, id uint, payload dto.UpdateAssignmentRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	if payload.Title != nil {
		assignment.Title = *payload.Title
	}
	if payload.Description != nil {
		assignment.Description = *payload.Description
	}
	if payload.Status != nil {
		assignment.Status = *payload.Status
	}
	if payload.RubricText != nil {
		assignment.RubricText = *payload.RubricText
	}
	if payload.Deadline != nil {
		assignment.Deadline = payload.Deadline
	}
	if payload.AllowedAttempts != nil {
		assignment.AllowedAttempts = *payload.AllowedAttempts
	}
	if payload.MaxScore != nil {
		assignment.MaxScore = *payload.MaxScore
	}

	if err := s.assignments.Update(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Msg("assignment updated")

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) AttachFile(ctx context.Context, id uint, slot string, file dto.UploadFile) (dto.AssignmentResponse, error) {
	if slot != AttachmentSlotRubric && slot != AttachmentSlotExtra {
		return dto.AssignmentResponse{}, fmt.Errorf("unknown attachment slot: %s", slot)
	}
	if len(file.Data) == 0 {
		return dto.AssignmentResponse{}, ErrNoFiles
	}

	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	ref, err := s.blobs.Put(ctx, file.Name, bytes.NewReader(file.Data))
	if err != nil {
		observability.BlobOperations().WithLabelValues("put", "error").Inc()
		return dto.AssignmentResponse{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	observability.BlobOperations().WithLabelValues("put", "ok").Inc()

	var oldRef string
	switch slot {
	case AttachmentSlotRubric:
		oldRef = assignment.RubricFileRef
		assignment.RubricFileRef = ref
	case AttachmentSlotExtra:
		oldRef = assignment.ExtraFileRef
		assignment.ExtraFileRef = ref
	}

	if err := s.assignments.Update(ctx, &assignment); err != nil {
		s.deleteBlob(ctx, ref)
		return dto.AssignmentResponse{}, err
	}

	s.deleteBlob(ctx, oldRef)

	return dto.NewAssignmentResponse(assignment), nil
}

// Delete removes the assignment, every dependent submission row and every
// blob those rows referenced. The database cascade commits first; blob
// deletion afterwards is best-effort.
func (s *assignmentService) Delete(ctx context.Context, id, actorID uint) error {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}

	submissions, err := s.submissions.ListByAssignment(ctx, id)
	if err != nil {
		return err
	}

	refs := make([]string, 0, len(submissions)+2)
	for _, submission := range submissions {
		refs = append(refs, blobRefs(submission.Files)...)
	}
	refs = append(refs, assignment.RubricFileRef, assignment.ExtraFileRef)

	if err := s.assignments.DeleteCascade(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}

	for _, ref := range refs {
		s.deleteBlob(ctx, ref)
	}

	if s.activity != nil {
		entityID := id
		s.activity.Record(ctx, actorID, "admin", "assignment.deleted", "assignment", &entityID, map[string]interface{}{
			"title":       assignment.Title,
			"submissions": len(submissions),
		})
	}

	if s.events != nil {
		event := dto.PipelineEvent{
			Type:         dto.EventAssignmentDeleted,
			AssignmentID: id,
			OccurredAt:   s.now().UTC(),
		}
		if err := s.events.Publish(ctx, event); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish assignment deletion event")
		}
	}

	s.logger.Info().
		Uint("assignment_id", id).
		Int("submissions_removed", len(submissions)).
		Msg("assignment deleted")

	return nil
}

func (s *assignmentService) deleteBlob(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := s.blobs.Delete(ctx, ref); err != nil {
		observability.BlobOperations().WithLabelValues("delete", "error").Inc()
		s.logger.Warn().Err(err).Str("blob_ref", ref).Msg("failed to delete blob")
		return
	}
	observability.BlobOperations().WithLabelValues("delete", "ok").Inc()
}
