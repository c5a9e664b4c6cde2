package services

import (
	"context"
	"testing"

	"github.com/sahilchouksey/learnhub-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitReviewValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewReviewService(db, NewEnrollmentService(db))
	ctx := context.Background()
	course := createCourse(t, db, 0)
	approvedEnrollment(t, db, course.ID, 1)

	_, err := svc.SubmitReview(ctx, course.ID, 1, 0, "too low")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.SubmitReview(ctx, course.ID, 1, 6, "too high")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.SubmitReview(ctx, course.ID, 1, 4, "   ")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSubmitReviewRequiresApprovedEnrollment(t *testing.T) {
	db := newTestDB(t)
	svc := NewReviewService(db, NewEnrollmentService(db))
	ctx := context.Background()
	course := createCourse(t, db, 0)

	_, err := svc.SubmitReview(ctx, course.ID, 1, 4, "great course")
	assert.ErrorIs(t, err, ErrNotEnrolled)

	pending := model.Enrollment{CourseID: course.ID, StudentID: 1}
	require.NoError(t, db.Create(&pending).Error)

	_, err = svc.SubmitReview(ctx, course.ID, 1, 4, "great course")
	assert.ErrorIs(t, err, ErrNotEnrolled)
}

func TestSubmitReviewVerifiedFlag(t *testing.T) {
	db := newTestDB(t)
	svc := NewReviewService(db, NewEnrollmentService(db))
	ctx := context.Background()
	course := createCourse(t, db, 0)

	low := approvedEnrollment(t, db, course.ID, 1)
	require.NoError(t, db.Model(low).UpdateColumn("progress", 50).Error)
	high := approvedEnrollment(t, db, course.ID, 2)
	require.NoError(t, db.Model(high).UpdateColumn("progress", 51).Error)

	// verified requires progress strictly above the threshold
	review, err := svc.SubmitReview(ctx, course.ID, 1, 4, "decent")
	require.NoError(t, err)
	assert.False(t, review.IsVerified)
	assert.Equal(t, 50, review.StudentProgress)

	review, err = svc.SubmitReview(ctx, course.ID, 2, 5, "finished most of it")
	require.NoError(t, err)
	assert.True(t, review.IsVerified)
}

func TestSubmitReviewUpsert(t *testing.T) {
	db := newTestDB(t)
	svc := NewReviewService(db, NewEnrollmentService(db))
	ctx := context.Background()
	course := createCourse(t, db, 0)
	approvedEnrollment(t, db, course.ID, 1)

	first, err := svc.SubmitReview(ctx, course.ID, 1, 2, "rough start")
	require.NoError(t, err)

	// second submission replaces the first instead of adding a row
	second, err := svc.SubmitReview(ctx, course.ID, 1, 5, "much better now")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&model.Review{}).
		Where("course_id = ?", course.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	fresh := reloadCourse(t, db, course.ID)
	assert.Equal(t, 5.0, fresh.AverageRating)
	assert.Equal(t, int64(1), fresh.RatingCount)
}

func TestRecomputeRatingStatsRounding(t *testing.T) {
	db := newTestDB(t)
	svc := NewReviewService(db, NewEnrollmentService(db))
	ctx := context.Background()
	course := createCourse(t, db, 0)

	ratings := []int{3, 4, 4}
	for i, rating := range ratings {
		studentID := uint(i + 1)
		approvedEnrollment(t, db, course.ID, studentID)
		_, err := svc.SubmitReview(ctx, course.ID, studentID, rating, "ok")
		require.NoError(t, err)
	}

	stats, err := svc.RecomputeRatingStats(ctx, course.ID)
	require.NoError(t, err)

	// 11/3 = 3.666... rounds to one decimal
	assert.Equal(t, 3.7, stats.AverageRating)
	assert.Equal(t, int64(3), stats.RatingCount)
	assert.Equal(t, [5]int64{0, 0, 1, 2, 0}, stats.Distribution)

	fresh := reloadCourse(t, db, course.ID)
	assert.Equal(t, 3.7, fresh.AverageRating)
	assert.Equal(t, int64(3), fresh.RatingCount)
}

func TestRecomputeRatingStatsSkipsMalformed(t *testing.T) {
	db := newTestDB(t)
	svc := NewReviewService(db, NewEnrollmentService(db))
	ctx := context.Background()
	course := createCourse(t, db, 0)

	good := model.Review{CourseID: course.ID, StudentID: 1, Rating: 4, Comment: "fine"}
	require.NoError(t, db.Create(&good).Error)
	bad := model.Review{CourseID: course.ID, StudentID: 2, Rating: 9, Comment: "corrupt"}
	require.NoError(t, db.Create(&bad).Error)

	stats, err := svc.RecomputeRatingStats(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, stats.AverageRating)
	assert.Equal(t, int64(1), stats.RatingCount)
	assert.Equal(t, int64(1), stats.SkippedRecords)
}

func TestDeleteReview(t *testing.T) {
	db := newTestDB(t)
	svc := NewReviewService(db, NewEnrollmentService(db))
	ctx := context.Background()
	course := createCourse(t, db, 0)
	approvedEnrollment(t, db, course.ID, 1)

	_, err := svc.SubmitReview(ctx, course.ID, 1, 5, "loved it")
	require.NoError(t, err)
	require.Equal(t, 5.0, reloadCourse(t, db, course.ID).AverageRating)

	require.NoError(t, svc.DeleteReview(ctx, course.ID, 1))

	// deleting the last review resets the aggregate
	fresh := reloadCourse(t, db, course.ID)
	assert.Equal(t, 0.0, fresh.AverageRating)
	assert.Equal(t, int64(0), fresh.RatingCount)

	err = svc.DeleteReview(ctx, course.ID, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteReviewThenResubmit(t *testing.T) {
	db := newTestDB(t)
	svc := NewReviewService(db, NewEnrollmentService(db))
	ctx := context.Background()
	course := createCourse(t, db, 0)
	approvedEnrollment(t, db, course.ID, 1)

	_, err := svc.SubmitReview(ctx, course.ID, 1, 5, "loved it")
	require.NoError(t, err)
	require.NoError(t, svc.DeleteReview(ctx, course.ID, 1))

	// the delete frees the (course, student) slot for a fresh review
	review, err := svc.SubmitReview(ctx, course.ID, 1, 3, "second thoughts")
	require.NoError(t, err)
	assert.Equal(t, 3, review.Rating)

	var count int64
	require.NoError(t, db.Model(&model.Review{}).
		Where("course_id = ?", course.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	fresh := reloadCourse(t, db, course.ID)
	assert.Equal(t, 3.0, fresh.AverageRating)
	assert.Equal(t, int64(1), fresh.RatingCount)
}
