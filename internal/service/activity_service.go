package service

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/amirasyraf/edugrade-api/internal/dto"
	"github.com/amirasyraf/edugrade-api/internal/models"
	"github.com/amirasyraf/edugrade-api/internal/repository"
)

// ActivityRecorder appends entries to the audit trail. Recording must never
// fail the operation being audited.
type ActivityRecorder interface {
	Record(ctx context.Context, actorID uint, actorRole, action, entityType string, entityID *uint, metadata map[string]interface{})
}

// ActivityService is the full audit trail surface: recording plus the admin
// listing endpoint.
type ActivityService interface {
	ActivityRecorder
	ListForEntity(ctx context.Context, entityType string, entityID uint) ([]dto.ActivityLogResponse, error)
}

type activityService struct {
	repo   repository.ActivityLogRepository
	logger zerolog.Logger
}

// NewActivityService constructs the audit trail service.
func NewActivityService(repo repository.ActivityLogRepository, logger zerolog.Logger) ActivityService {
	return &activityService{
		repo:   repo,
		logger: logger.With().Str("component", "activity_service").Logger(),
	}
}

func (s *activityService) Record(ctx context.Context, actorID uint, actorRole, action, entityType string, entityID *uint, metadata map[string]interface{}) {
	entry := models.ActivityLog{
		ActorID:    actorID,
		ActorRole:  actorRole,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Metadata:   datatypes.JSONMap(metadata),
	}

	if err := s.repo.Create(ctx, &entry); err != nil {
		s.logger.Error().Err(err).Str("action", action).Msg("failed to record activity")
	}
}

func (s *activityService) ListForEntity(ctx context.Context, entityType string, entityID uint) ([]dto.ActivityLogResponse, error) {
	entries, err := s.repo.ListByEntity(ctx, entityType, entityID)
	if err != nil {
		return nil, err
	}

	return dto.NewActivityLogResponseSlice(entries), nil
}
