package contract_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/amirasyraf/edugrade-api/internal/dto"
	"github.com/amirasyraf/edugrade-api/internal/handler"
)

type stubProgressService struct {
	overview dto.StudentProgressResponse
}

func (s stubProgressService) Overview(context.Context, uint) (dto.StudentProgressResponse, error) {
	return s.overview, nil
}

func (s stubProgressService) Invalidate(context.Context, uint) {}

func TestStudentProgressContract(t *testing.T) {
	schema := compileSchema(t, "student_progress.schema.json")

	now := time.Now().UTC()
	deadline := now.Add(48 * time.Hour)
	finalScore := 72.5
	overview := dto.StudentProgressResponse{
		StudentID: 11,
		Assignments: []dto.AssignmentProgress{
			{
				AssignmentID:    3,
				Title:           "Persuasive Essay",
				Category:        "essay",
				Deadline:        &deadline,
				Stage:           "scored",
				AttemptsUsed:    1,
				AttemptsLeft:    2,
				CanStartAttempt: true,
				FinalScore:      &finalScore,
			},
			{
				AssignmentID:  4,
				Title:         "Robotics Project",
				Category:      "project",
				Stage:         "",
				AttemptsLeft:  1,
				BlockedReason: "deadline_passed",
			},
		},
		Scored:      1,
		InProgress:  0,
		GeneratedAt: now,
	}

	progressHandler := handler.NewProgressHandler(stubProgressService{overview: overview}, zerolog.Nop())

	app := fiber.New()
	group := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(11))
		c.Locals("user_role", "student")
		return c.Next()
	})
	progressHandler.Register(group)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/progress/me", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload))
}
