package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/amirasyraf/edugrade-api/internal/grading"
	"github.com/amirasyraf/edugrade-api/internal/models"
	"github.com/amirasyraf/edugrade-api/internal/repository"
)

func newProgressFixture(t *testing.T) (ProgressService, *gorm.DB, *miniredis.Miniredis) {
	t.Helper()

	db := newTestDB(t)
	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := NewProgressService(
		repository.NewAssignmentRepository(db),
		repository.NewSubmissionRepository(db),
		client,
		zerolog.Nop(),
	)

	return svc, db, mini
}

func seedProgressData(t *testing.T, db *gorm.DB) (models.Student, models.Assignment, models.Assignment) {
	t.Helper()

	student := models.Student{Name: "Lina", Email: "lina@example.com"}
	require.NoError(t, db.Create(&student).Error)

	past := time.Now().Add(-time.Hour)
	essay := models.Assignment{
		Title: "Essay", Category: models.CategoryEssay,
		Status: models.AssignmentStatusOpen, AllowedAttempts: 2, MaxScore: 100,
	}
	expired := models.Assignment{
		Title: "Late Project", Category: models.CategoryProject,
		Status: models.AssignmentStatusOpen, AllowedAttempts: 1, MaxScore: 100,
		Deadline: &past,
	}
	hidden := models.Assignment{
		Title: "Draft", Category: models.CategoryEssay,
		Status: models.AssignmentStatusHidden, AllowedAttempts: 1, MaxScore: 100,
	}
	require.NoError(t, db.Create(&essay).Error)
	require.NoError(t, db.Create(&expired).Error)
	require.NoError(t, db.Create(&hidden).Error)

	return student, essay, expired
}

func TestOverviewReportsAttemptGates(t *testing.T) {
	svc, db, _ := newProgressFixture(t)
	student, essay, expired := seedProgressData(t, db)

	final := 88.0
	require.NoError(t, db.Create(&models.Submission{
		AssignmentID: essay.ID,
		StudentID:    student.ID,
		Stage:        models.StageScored,
		AttemptsUsed: 1,
		FinalScore:   &final,
	}).Error)

	overview, err := svc.Overview(context.Background(), student.ID)
	require.NoError(t, err)

	// Hidden assignments are excluded.
	require.Len(t, overview.Assignments, 2)
	require.Equal(t, 1, overview.Scored)
	require.Equal(t, 0, overview.InProgress)

	byID := map[uint]int{}
	for i, entry := range overview.Assignments {
		byID[entry.AssignmentID] = i
	}

	essayEntry := overview.Assignments[byID[essay.ID]]
	require.Equal(t, models.StageScored, essayEntry.Stage)
	require.Equal(t, 1, essayEntry.AttemptsLeft)
	require.True(t, essayEntry.CanStartAttempt)
	require.NotNil(t, essayEntry.FinalScore)

	expiredEntry := overview.Assignments[byID[expired.ID]]
	require.False(t, expiredEntry.CanStartAttempt)
	require.Equal(t, grading.ReasonDeadlinePassed, expiredEntry.BlockedReason)
}

func TestOverviewUsesCacheUntilInvalidated(t *testing.T) {
	svc, db, mini := newProgressFixture(t)
	student, essay, _ := seedProgressData(t, db)

	first, err := svc.Overview(context.Background(), student.ID)
	require.NoError(t, err)
	require.True(t, mini.Exists(progressCacheKey(student.ID)))

	// A direct database write is invisible while the cache entry lives.
	require.NoError(t, db.Create(&models.Submission{
		AssignmentID: essay.ID,
		StudentID:    student.ID,
		Stage:        models.StageReviewing,
	}).Error)

	cached, err := svc.Overview(context.Background(), student.ID)
	require.NoError(t, err)
	require.Equal(t, first.GeneratedAt.Unix(), cached.GeneratedAt.Unix())
	require.Equal(t, 0, cached.InProgress)

	svc.Invalidate(context.Background(), student.ID)

	fresh, err := svc.Overview(context.Background(), student.ID)
	require.NoError(t, err)
	require.Equal(t, 1, fresh.InProgress)
}

func TestOverviewSurvivesRedisOutage(t *testing.T) {
	svc, db, mini := newProgressFixture(t)
	student, _, _ := seedProgressData(t, db)

	mini.Close()

	overview, err := svc.Overview(context.Background(), student.ID)
	require.NoError(t, err)
	require.Len(t, overview.Assignments, 2)
}
