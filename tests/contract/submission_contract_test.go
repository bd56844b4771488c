package contract_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/amirasyraf/edugrade-api/internal/dto"
	"github.com/amirasyraf/edugrade-api/internal/handler"
)

type stubSubmissionService struct {
	snapshot dto.SubmissionSnapshot
}

func (s stubSubmissionService) StartUpload(context.Context, uint, uint, []dto.UploadFile) (dto.SubmissionSnapshot, error) {
	return s.snapshot, nil
}

func (s stubSubmissionService) ConfirmReview(context.Context, uint, uint, dto.ReviewRequest) (dto.SubmissionSnapshot, error) {
	return s.snapshot, nil
}

func (s stubSubmissionService) Abandon(context.Context, uint, uint) error {
	return nil
}

func (s stubSubmissionService) GetState(_ context.Context, _, _ uint, forStudent bool) (dto.SubmissionSnapshot, error) {
	snapshot := s.snapshot
	if forStudent && !snapshot.AIScoreVisible {
		snapshot.AIScore = nil
		snapshot.AIFeedback = ""
	}
	return snapshot, nil
}

func (s stubSubmissionService) AttemptsRemaining(context.Context, uint, uint) (dto.AttemptsRemainingResponse, error) {
	return dto.AttemptsRemainingResponse{AssignmentID: s.snapshot.AssignmentID, AttemptsLeft: 1, Allowed: true}, nil
}

func compileSchema(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()

	schemaPath, err := filepath.Abs(filepath.Join("..", "contracts", name))
	require.NoError(t, err)

	schema, err := jsonschema.NewCompiler().Compile("file://" + schemaPath)
	require.NoError(t, err)
	return schema
}

func TestSubmissionSnapshotContract(t *testing.T) {
	schema := compileSchema(t, "submission_snapshot.schema.json")

	now := time.Now().UTC()
	aiScore := 84.0
	snapshot := dto.SubmissionSnapshot{
		ID:            7,
		AssignmentID:  3,
		StudentID:     11,
		Stage:         "evaluated",
		AttemptsUsed:  1,
		ExtractedText: "the extracted essay body",
		EditedText:    "the confirmed essay body",
		AIScore:       &aiScore,
		AIFeedback:    "solid argumentation, weak conclusion",
		Files: []dto.SubmissionFileView{
			{ID: 1, OriginalName: "essay.docx", BlobRef: "blob://essay/1", Kind: "document", Position: 0},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	svc := stubSubmissionService{snapshot: snapshot}
	submissionHandler := handler.NewSubmissionHandler(svc, zerolog.Nop())

	app := fiber.New()
	group := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(11))
		c.Locals("user_role", "student")
		return c.Next()
	})
	submissionHandler.Register(group)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/assignments/3/submissions/me", nil)
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

// The snapshot served to a student before any instructor score exists must
// come back with the AI fields blanked, and the redacted shape still has to
// satisfy the published schema.
func TestSubmissionSnapshotContractRedactsAIForStudents(t *testing.T) {
	schema := compileSchema(t, "submission_snapshot.schema.json")

	now := time.Now().UTC()
	aiScore := 91.5
	svc := stubSubmissionService{snapshot: dto.SubmissionSnapshot{
		ID:           8,
		AssignmentID: 3,
		StudentID:    11,
		Stage:        "evaluated",
		AttemptsUsed: 2,
		AIScore:      &aiScore,
		AIFeedback:   "should stay hidden",
		Files:        []dto.SubmissionFileView{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}}
	submissionHandler := handler.NewSubmissionHandler(svc, zerolog.Nop())

	app := fiber.New()
	group := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(11))
		c.Locals("user_role", "student")
		return c.Next()
	})
	submissionHandler.Register(group)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/assignments/3/submissions/me", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload))

	data := payload.(map[string]interface{})["data"].(map[string]interface{})
	require.Nil(t, data["ai_score"])
	require.Equal(t, "", data["ai_feedback"])
	require.Equal(t, false, data["ai_score_visible"])
}
