package services

import (
	"context"
	"testing"
	"time"

	"github.com/sahilchouksey/learnhub-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uintPtr(v uint) *uint { return &v }

func TestRecordActivityValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressService(db, nil)
	ctx := context.Background()
	course := createCourse(t, db, 2)

	_, err := svc.RecordActivity(ctx, ActivityInput{
		CourseID:     course.ID,
		StudentID:    1,
		ActivityType: "page_viewed",
	})
	assert.ErrorIs(t, err, ErrValidation)

	// lesson_completed without a lesson id is malformed, not defaulted
	_, err = svc.RecordActivity(ctx, ActivityInput{
		CourseID:     course.ID,
		StudentID:    1,
		ActivityType: model.ActivityTypeLessonCompleted,
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.RecordActivity(ctx, ActivityInput{
		CourseID:     course.ID,
		StudentID:    1,
		ActivityType: model.ActivityTypeLogin,
		Duration:     -5,
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.RecordActivity(ctx, ActivityInput{
		CourseID:     999,
		StudentID:    1,
		ActivityType: model.ActivityTypeLogin,
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordActivityProgress(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressService(db, nil)
	ctx := context.Background()

	course := createCourse(t, db, 2)
	lessons := courseLessons(t, db, course.ID)
	enrollment := approvedEnrollment(t, db, course.ID, 1)

	// first of two lessons puts progress at 50
	_, err := svc.RecordActivity(ctx, ActivityInput{
		CourseID:     course.ID,
		StudentID:    1,
		ActivityType: model.ActivityTypeLessonCompleted,
		LessonID:     uintPtr(lessons[0].ID),
	})
	require.NoError(t, err)

	require.NoError(t, db.First(enrollment, enrollment.ID).Error)
	assert.Equal(t, 50, enrollment.Progress)
	assert.False(t, enrollment.Completed)
	assert.NotNil(t, enrollment.LastAccessed)

	// re-completing the same lesson moves nothing
	_, err = svc.RecordActivity(ctx, ActivityInput{
		CourseID:     course.ID,
		StudentID:    1,
		ActivityType: model.ActivityTypeLessonCompleted,
		LessonID:     uintPtr(lessons[0].ID),
	})
	require.NoError(t, err)
	require.NoError(t, db.First(enrollment, enrollment.ID).Error)
	assert.Equal(t, 50, enrollment.Progress)
	assert.Equal(t, int64(0), reloadCourse(t, db, course.ID).CompletionCount)

	// second lesson completes the course and latches completed
	_, err = svc.RecordActivity(ctx, ActivityInput{
		CourseID:     course.ID,
		StudentID:    1,
		ActivityType: model.ActivityTypeLessonCompleted,
		LessonID:     uintPtr(lessons[1].ID),
	})
	require.NoError(t, err)

	require.NoError(t, db.First(enrollment, enrollment.ID).Error)
	assert.Equal(t, 100, enrollment.Progress)
	assert.True(t, enrollment.Completed)
	require.NotNil(t, enrollment.CompletedAt)
	assert.Equal(t, int64(1), reloadCourse(t, db, course.ID).CompletionCount)

	// completion_count increments exactly once per enrollment
	_, err = svc.RecordActivity(ctx, ActivityInput{
		CourseID:     course.ID,
		StudentID:    1,
		ActivityType: model.ActivityTypeLessonCompleted,
		LessonID:     uintPtr(lessons[1].ID),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), reloadCourse(t, db, course.ID).CompletionCount)
}

func TestCompletionLatchStaleWriter(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressService(db, nil)
	ctx := context.Background()

	course := createCourse(t, db, 1)
	lessons := courseLessons(t, db, course.ID)
	enrollment := approvedEnrollment(t, db, course.ID, 1)

	// snapshot the enrollment the way a concurrent writer would have loaded it
	stale := *enrollment
	require.False(t, stale.Completed)

	_, err := svc.RecordActivity(ctx, ActivityInput{
		CourseID:     course.ID,
		StudentID:    1,
		ActivityType: model.ActivityTypeLessonCompleted,
		LessonID:     uintPtr(lessons[0].ID),
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), reloadCourse(t, db, course.ID).CompletionCount)

	require.NoError(t, db.First(enrollment, enrollment.ID).Error)
	firstCompletedAt := enrollment.CompletedAt
	require.NotNil(t, firstCompletedAt)

	// the latch guards against the stored row, so a writer holding the
	// pre-completion snapshot cannot bump the counter a second time
	require.NoError(t, svc.completeLessons(ctx, &stale, []uint{lessons[0].ID}, nil))

	assert.Equal(t, int64(1), reloadCourse(t, db, course.ID).CompletionCount)
	require.NoError(t, db.First(enrollment, enrollment.ID).Error)
	assert.True(t, enrollment.Completed)
	assert.Equal(t, firstCompletedAt.Unix(), enrollment.CompletedAt.Unix())
}

func TestRecordActivityModuleCompleted(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressService(db, nil)
	ctx := context.Background()

	course := createCourse(t, db, 3)
	lessons := courseLessons(t, db, course.ID)
	enrollment := approvedEnrollment(t, db, course.ID, 1)

	_, err := svc.RecordActivity(ctx, ActivityInput{
		CourseID:     course.ID,
		StudentID:    1,
		ActivityType: model.ActivityTypeModuleCompleted,
		ModuleID:     uintPtr(lessons[0].ModuleID),
	})
	require.NoError(t, err)

	require.NoError(t, db.First(enrollment, enrollment.ID).Error)
	assert.Equal(t, 100, enrollment.Progress)
	assert.True(t, enrollment.Completed)
}

func TestRecordActivityPendingEnrollment(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressService(db, nil)
	ctx := context.Background()

	course := createCourse(t, db, 2)
	lessons := courseLessons(t, db, course.ID)
	enrollment := model.Enrollment{CourseID: course.ID, StudentID: 1}
	require.NoError(t, db.Create(&enrollment).Error)

	// the event lands in the log but progress never moves for pending
	event, err := svc.RecordActivity(ctx, ActivityInput{
		CourseID:     course.ID,
		StudentID:    1,
		ActivityType: model.ActivityTypeLessonCompleted,
		LessonID:     uintPtr(lessons[0].ID),
	})
	require.NoError(t, err)
	assert.NotZero(t, event.ID)

	require.NoError(t, db.First(&enrollment, enrollment.ID).Error)
	assert.Equal(t, 0, enrollment.Progress)

	var events int64
	require.NoError(t, db.Model(&model.StudentActivity{}).
		Where("course_id = ?", course.ID).Count(&events).Error)
	assert.Equal(t, int64(1), events)
}

func TestGetStudentProgressZeroLessons(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressService(db, nil)
	ctx := context.Background()

	course := createCourse(t, db, 0)
	approvedEnrollment(t, db, course.ID, 1)

	progress, err := svc.GetStudentProgress(ctx, course.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), progress.TotalLessons)
	assert.Equal(t, 0, progress.Enrollment.Progress)

	_, err = svc.GetStudentProgress(ctx, course.ID, 2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestComputeCourseStats(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressService(db, nil)
	ctx := context.Background()
	course := createCourse(t, db, 0)

	// pending and approved count, rejected is excluded, garbage is skipped
	seed := []model.Enrollment{
		{CourseID: course.ID, StudentID: 1, Status: model.EnrollmentStatusPending},
		{CourseID: course.ID, StudentID: 2, Status: model.EnrollmentStatusApproved},
		{CourseID: course.ID, StudentID: 3, Status: model.EnrollmentStatusApproved, Completed: true},
		{CourseID: course.ID, StudentID: 4, Status: model.EnrollmentStatusRejected},
		{CourseID: course.ID, StudentID: 5, Status: "archived"},
	}
	for i := range seed {
		require.NoError(t, db.Create(&seed[i]).Error)
	}

	recent := model.StudentActivity{CourseID: course.ID, StudentID: 2, ActivityType: model.ActivityTypeLogin}
	require.NoError(t, db.Create(&recent).Error)
	stale := model.StudentActivity{CourseID: course.ID, StudentID: 3, ActivityType: model.ActivityTypeLogin}
	require.NoError(t, db.Create(&stale).Error)
	require.NoError(t, db.Model(&stale).
		UpdateColumn("created_at", time.Now().Add(-48*time.Hour)).Error)

	stats, err := svc.ComputeCourseStats(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.EnrollmentCount)
	assert.Equal(t, int64(1), stats.CompletionCount)
	assert.Equal(t, int64(1), stats.ActiveStudentsCount)
	assert.Equal(t, int64(1), stats.SkippedRecords)

	_, err = svc.ComputeCourseStats(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReconcileCourseCounters(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressService(db, nil)
	ctx := context.Background()
	course := createCourse(t, db, 0)

	e := approvedEnrollment(t, db, course.ID, 1)
	require.NoError(t, db.Model(e).UpdateColumn("completed", true).Error)

	// drift the cached counters away from the store
	require.NoError(t, db.Model(course).UpdateColumns(map[string]interface{}{
		"enrollment_count": 42,
		"completion_count": 17,
	}).Error)

	stats, err := svc.ReconcileCourseCounters(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.EnrollmentCount)
	assert.Equal(t, int64(1), stats.CompletionCount)

	fresh := reloadCourse(t, db, course.ID)
	assert.Equal(t, int64(1), fresh.EnrollmentCount)
	assert.Equal(t, int64(1), fresh.CompletionCount)
}

func TestActiveWindowOverride(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressService(db, nil)
	ctx := context.Background()
	course := createCourse(t, db, 0)

	activity := model.StudentActivity{CourseID: course.ID, StudentID: 1, ActivityType: model.ActivityTypeLogin}
	require.NoError(t, db.Create(&activity).Error)
	require.NoError(t, db.Model(&activity).
		UpdateColumn("created_at", time.Now().Add(-3*time.Hour)).Error)

	svc.SetActiveWindow(1 * time.Hour)
	stats, err := svc.ComputeCourseStats(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.ActiveStudentsCount)

	svc.SetActiveWindow(6 * time.Hour)
	stats, err = svc.ComputeCourseStats(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.ActiveStudentsCount)
}
