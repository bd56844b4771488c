package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/amirasyraf/edugrade-api/internal/dto"
	"github.com/amirasyraf/edugrade-api/internal/service"
	"github.com/amirasyraf/edugrade-api/internal/utils"
)

// EventsHandler streams pipeline events to the authenticated student via SSE.
type EventsHandler struct {
	service   service.EventService
	logger    zerolog.Logger
	keepAlive time.Duration
}

// NewEventsHandler constructs a handler instance.
func NewEventsHandler(service service.EventService, logger zerolog.Logger, keepAlive time.Duration) *EventsHandler {
	return &EventsHandler{
		service:   service,
		logger:    logger.With().Str("component", "events_handler").Logger(),
		keepAlive: keepAlive,
	}
}

// Register binds the event stream route.
func (h *EventsHandler) Register(router fiber.Router) {
	router.Get("/events/stream", h.stream)
}

func (h *EventsHandler) stream(c *fiber.Ctx) error {
	studentID := userIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)

	stream, cleanup := h.service.Subscribe(studentID)

	keepAliveInterval := h.keepAlive
	if keepAliveInterval <= 0 {
		keepAliveInterval = 30 * time.Second
	}

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer func() {
			cleanup()
			cancel()
		}()

		ticker := time.NewTicker(keepAliveInterval / 2)
		defer ticker.Stop()

		for {
			select {
			case event, ok := <-stream:
				if !ok {
					return
				}
				if err := writePipelineEvent(w, event); err != nil {
					h.logger.Debug().Err(err).Msg("failed to write pipeline event")
					return
				}
			case <-ticker.C:
				if err := writeKeepAlive(w); err != nil {
					h.logger.Debug().Err(err).Msg("failed to write keepalive")
					return
				}
			case <-ctx.Done():
				return
			}
		}
	})

	return nil
}

func writePipelineEvent(w *bufio.Writer, event dto.PipelineEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "event: %s\n", event.Type); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	return w.Flush()
}

func writeKeepAlive(w *bufio.Writer) error {
	if _, err := fmt.Fprintf(w, ": keep-alive %s\n\n", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return w.Flush()
}
