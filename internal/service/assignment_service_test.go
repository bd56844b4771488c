package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/amirasyraf/edugrade-api/internal/dto"
	"github.com/amirasyraf/edugrade-api/internal/models"
	"github.com/amirasyraf/edugrade-api/internal/repository"
)

type assignmentFixture struct {
	service AssignmentService
	db      *gorm.DB
	blobs   *fakeBlobStore
}

func newAssignmentFixture(t *testing.T) *assignmentFixture {
	t.Helper()

	db := newTestDB(t)
	blobs := newFakeBlobStore()

	svc := NewAssignmentService(
		repository.NewAssignmentRepository(db),
		repository.NewSubmissionRepository(db),
		blobs,
		NewActivityService(repository.NewActivityLogRepository(db), zerolog.Nop()),
		&fakeEventSink{},
		validator.New(),
		zerolog.Nop(),
	)

	return &assignmentFixture{service: svc, db: db, blobs: blobs}
}

func TestCreateAssignmentAppliesDefaults(t *testing.T) {
	fx := newAssignmentFixture(t)

	created, err := fx.service.Create(context.Background(), dto.CreateAssignmentRequest{
		Title:    "Final Essay",
		Category: models.CategoryEssay,
	})
	require.NoError(t, err)

	require.Equal(t, models.AssignmentStatusHidden, created.Status)
	require.Equal(t, 1, created.AllowedAttempts)
	require.Equal(t, 100.0, created.MaxScore)
}

func TestCreateAssignmentRejectsUnknownCategory(t *testing.T) {
	fx := newAssignmentFixture(t)

	_, err := fx.service.Create(context.Background(), dto.CreateAssignmentRequest{
		Title:    "Mystery",
		Category: "quiz",
	})
	require.Error(t, err)
}

func TestUpdateAssignmentPartialFields(t *testing.T) {
	fx := newAssignmentFixture(t)

	created, err := fx.service.Create(context.Background(), dto.CreateAssignmentRequest{
		Title:    "Final Essay",
		Category: models.CategoryEssay,
	})
	require.NoError(t, err)

	status := models.AssignmentStatusOpen
	deadline := time.Now().Add(48 * time.Hour)
	updated, err := fx.service.Update(context.Background(), created.ID, dto.UpdateAssignmentRequest{
		Status:   &status,
		Deadline: &deadline,
	})
	require.NoError(t, err)

	require.Equal(t, models.AssignmentStatusOpen, updated.Status)
	require.NotNil(t, updated.Deadline)
	require.Equal(t, "Final Essay", updated.Title)
}

func TestListFiltersHiddenForStudents(t *testing.T) {
	fx := newAssignmentFixture(t)

	_, err := fx.service.Create(context.Background(), dto.CreateAssignmentRequest{
		Title: "Hidden One", Category: models.CategoryEssay,
	})
	require.NoError(t, err)
	open := models.AssignmentStatusOpen
	created, err := fx.service.Create(context.Background(), dto.CreateAssignmentRequest{
		Title: "Open One", Category: models.CategoryEssay, Status: open,
	})
	require.NoError(t, err)

	visible, err := fx.service.List(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	require.Equal(t, created.ID, visible[0].ID)

	all, err := fx.service.List(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestAttachFileReplacesOldBlob(t *testing.T) {
	fx := newAssignmentFixture(t)

	created, err := fx.service.Create(context.Background(), dto.CreateAssignmentRequest{
		Title: "Essay", Category: models.CategoryEssay,
	})
	require.NoError(t, err)

	first, err := fx.service.AttachFile(context.Background(), created.ID, AttachmentSlotRubric, dto.UploadFile{
		Name: "rubric-v1.pdf", Data: []byte("v1"),
	})
	require.NoError(t, err)
	require.NotEmpty(t, first.RubricFileRef)

	second, err := fx.service.AttachFile(context.Background(), created.ID, AttachmentSlotRubric, dto.UploadFile{
		Name: "rubric-v2.pdf", Data: []byte("v2"),
	})
	require.NoError(t, err)
	require.NotEqual(t, first.RubricFileRef, second.RubricFileRef)
	require.Contains(t, fx.blobs.deleted, first.RubricFileRef)
}

func TestDeleteCascadesSubmissionsAndBlobs(t *testing.T) {
	fx := newAssignmentFixture(t)

	open := models.AssignmentStatusOpen
	created, err := fx.service.Create(context.Background(), dto.CreateAssignmentRequest{
		Title: "Essay", Category: models.CategoryEssay, Status: open,
	})
	require.NoError(t, err)

	student := models.Student{Name: "Mei", Email: "mei@example.com"}
	require.NoError(t, fx.db.Create(&student).Error)

	ref, err := fx.blobs.Put(context.Background(), "essay.txt", strings.NewReader("essay body"))
	require.NoError(t, err)

	submission := models.Submission{
		AssignmentID: created.ID,
		StudentID:    student.ID,
		Stage:        models.StageEvaluated,
		AttemptsUsed: 1,
		Files: []models.SubmissionFile{
			{BlobRef: ref, OriginalName: "essay.txt", Kind: models.FileKindText},
		},
	}
	require.NoError(t, fx.db.Create(&submission).Error)

	require.NoError(t, fx.service.Delete(context.Background(), created.ID, 7))

	var submissions, files int64
	require.NoError(t, fx.db.Model(&models.Submission{}).Count(&submissions).Error)
	require.NoError(t, fx.db.Model(&models.SubmissionFile{}).Count(&files).Error)
	require.Zero(t, submissions)
	require.Zero(t, files)

	// The stored blob is gone too.
	_, err = fx.blobs.Fetch(context.Background(), ref)
	require.Error(t, err)

	_, err = fx.service.Get(context.Background(), created.ID)
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestDeleteUnknownAssignment(t *testing.T) {
	fx := newAssignmentFixture(t)

	err := fx.service.Delete(context.Background(), 404, 7)
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}
