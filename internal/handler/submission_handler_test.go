package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/amirasyraf/edugrade-api/internal/dto"
	"github.com/amirasyraf/edugrade-api/internal/handler"
	"github.com/amirasyraf/edugrade-api/internal/service"
)

type submissionServiceStub struct {
	snapshot dto.SubmissionSnapshot
	attempts dto.AttemptsRemainingResponse
	err      error
}

func (s *submissionServiceStub) StartUpload(context.Context, uint, uint, []dto.UploadFile) (dto.SubmissionSnapshot, error) {
	return s.snapshot, s.err
}

func (s *submissionServiceStub) ConfirmReview(context.Context, uint, uint, dto.ReviewRequest) (dto.SubmissionSnapshot, error) {
	return s.snapshot, s.err
}

func (s *submissionServiceStub) Abandon(context.Context, uint, uint) error {
	return s.err
}

func (s *submissionServiceStub) GetState(context.Context, uint, uint, bool) (dto.SubmissionSnapshot, error) {
	return s.snapshot, s.err
}

func (s *submissionServiceStub) AttemptsRemaining(context.Context, uint, uint) (dto.AttemptsRemainingResponse, error) {
	return s.attempts, s.err
}

func submissionApp(stub *submissionServiceStub) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(1))
		c.Locals("user_role", "student")
		return c.Next()
	})
	handler.NewSubmissionHandler(stub, zerolog.Nop()).Register(group)
	return app
}

func multipartUpload(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, target))
}

func TestSubmissionUploadReturnsSnapshot(t *testing.T) {
	stub := &submissionServiceStub{snapshot: dto.SubmissionSnapshot{ID: 5, AssignmentID: 3, StudentID: 1, Stage: "reviewing"}}
	app := submissionApp(stub)

	body, contentType := multipartUpload(t, "essay.txt", "draft text")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/assignments/3/submissions", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var payload struct {
		Success bool                   `json:"success"`
		Data    dto.SubmissionSnapshot `json:"data"`
		Message string                 `json:"message"`
	}
	decodeResponse(t, resp, &payload)
	require.True(t, payload.Success)
	require.Equal(t, "submission uploaded", payload.Message)
	require.Equal(t, uint(5), payload.Data.ID)
}

func TestSubmissionUploadRequiresMultipart(t *testing.T) {
	app := submissionApp(&submissionServiceStub{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/assignments/3/submissions", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSubmissionUploadRejectsBadAssignmentID(t *testing.T) {
	app := submissionApp(&submissionServiceStub{})

	body, contentType := multipartUpload(t, "essay.txt", "draft")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/assignments/not-a-number/submissions", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSubmissionErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"assignment missing", service.ErrAssignmentNotFound, fiber.StatusNotFound},
		{"submission missing", service.ErrSubmissionNotFound, fiber.StatusNotFound},
		{"deadline passed", service.ErrDeadlinePassed, fiber.StatusForbidden},
		{"quota exhausted", service.ErrQuotaExhausted, fiber.StatusForbidden},
		{"invalid stage", service.ErrInvalidStage, fiber.StatusConflict},
		{"version conflict", service.ErrConflict, fiber.StatusConflict},
		{"duplicate upload", service.ErrDuplicateRequest, fiber.StatusConflict},
		{"no files", service.ErrNoFiles, fiber.StatusBadRequest},
		{"unsupported file", service.ErrUnsupportedFile, fiber.StatusBadRequest},
		{"storage down", service.ErrStorageUnavailable, fiber.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := submissionApp(&submissionServiceStub{err: tc.err})

			body, contentType := multipartUpload(t, "essay.txt", "draft")
			req := httptest.NewRequest(http.MethodPost, "/api/v1/assignments/3/submissions", body)
			req.Header.Set("Content-Type", contentType)

			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestConfirmReviewPassesEditedText(t *testing.T) {
	stub := &submissionServiceStub{snapshot: dto.SubmissionSnapshot{ID: 5, Stage: "evaluated"}}
	app := submissionApp(stub)

	payload, err := json.Marshal(dto.ReviewRequest{EditedText: "final version"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/submissions/5/review", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var envelope struct {
		Message string                 `json:"message"`
		Data    dto.SubmissionSnapshot `json:"data"`
	}
	decodeResponse(t, resp, &envelope)
	require.Equal(t, "submission evaluated", envelope.Message)
	require.Equal(t, "evaluated", envelope.Data.Stage)
}

func TestAbandonReturnsSuccess(t *testing.T) {
	app := submissionApp(&submissionServiceStub{})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/submissions/5", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAttemptsEndpoint(t *testing.T) {
	stub := &submissionServiceStub{attempts: dto.AttemptsRemainingResponse{AssignmentID: 3, AttemptsLeft: 2, Allowed: true}}
	app := submissionApp(stub)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/assignments/3/attempts", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var envelope struct {
		Data dto.AttemptsRemainingResponse `json:"data"`
	}
	decodeResponse(t, resp, &envelope)
	require.Equal(t, 2, envelope.Data.AttemptsLeft)
	require.True(t, envelope.Data.Allowed)
}
