package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/amirasyraf/edugrade-api/internal/service"
	"github.com/amirasyraf/edugrade-api/internal/utils"
)

// ProgressHandler exposes the student progress overview.
type ProgressHandler struct {
	service service.ProgressService
	logger  zerolog.Logger
}

// NewProgressHandler builds a progress handler instance.
func NewProgressHandler(service service.ProgressService, logger zerolog.Logger) *ProgressHandler {
	return &ProgressHandler{
		service: service,
		logger:  logger.With().Str("component", "progress_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ProgressHandler) Register(router fiber.Router) {
	router.Get("/progress/me", h.overview)
}

func (h *ProgressHandler) overview(c *fiber.Ctx) error {
	overview, err := h.service.Overview(c.UserContext(), userIDFromContext(c))
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to build progress overview")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "progress retrieved", overview)
}
