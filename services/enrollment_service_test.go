package services

import (
	"context"
	"testing"

	"github.com/sahilchouksey/learnhub-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestEnrollment(t *testing.T) {
	db := newTestDB(t)
	svc := NewEnrollmentService(db)
	ctx := context.Background()
	course := createCourse(t, db, 2)

	enrollment, err := svc.RequestEnrollment(ctx, course.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentStatusPending, enrollment.Status)
	assert.Nil(t, enrollment.ApprovedAt)

	// counter increments with the request
	assert.Equal(t, int64(1), reloadCourse(t, db, course.ID).EnrollmentCount)

	// one enrollment per (course, student), in any state
	_, err = svc.RequestEnrollment(ctx, course.ID, 1)
	assert.ErrorIs(t, err, ErrDuplicateEnrollment)
	assert.Equal(t, int64(1), reloadCourse(t, db, course.ID).EnrollmentCount)

	_, err = svc.RequestEnrollment(ctx, 999, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRequestEnrollmentPaidCourse(t *testing.T) {
	db := newTestDB(t)
	svc := NewEnrollmentService(db)
	ctx := context.Background()

	course := createCourse(t, db, 0)
	require.NoError(t, db.Model(course).UpdateColumn("price", 49.99).Error)

	_, err := svc.RequestEnrollment(ctx, course.ID, 1)
	assert.ErrorIs(t, err, ErrValidation)

	payment := model.CoursePayment{
		UserID:    1,
		CourseID:  course.ID,
		Reference: "ref-1",
		Amount:    49.99,
		Currency:  "USD",
		Status:    model.PaymentStatusCompleted,
	}
	require.NoError(t, db.Create(&payment).Error)

	enrollment, err := svc.RequestEnrollment(ctx, course.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentStatusPending, enrollment.Status)
}

func TestApprove(t *testing.T) {
	db := newTestDB(t)
	svc := NewEnrollmentService(db)
	ctx := context.Background()
	course := createCourse(t, db, 0)

	pending, err := svc.RequestEnrollment(ctx, course.ID, 1)
	require.NoError(t, err)

	approved, err := svc.Approve(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentStatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedAt)

	// re-approving is a no-op, approved_at does not move
	again, err := svc.Approve(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentStatusApproved, again.Status)
	assert.Equal(t, approved.ApprovedAt.Unix(), again.ApprovedAt.Unix())
	assert.Equal(t, approved.Version, again.Version)

	_, err = svc.Approve(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApproveRejectedFails(t *testing.T) {
	db := newTestDB(t)
	svc := NewEnrollmentService(db)
	ctx := context.Background()
	course := createCourse(t, db, 0)

	pending, err := svc.RequestEnrollment(ctx, course.ID, 1)
	require.NoError(t, err)

	_, err = svc.Reject(ctx, pending.ID, "not qualified")
	require.NoError(t, err)

	_, err = svc.Approve(ctx, pending.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReject(t *testing.T) {
	db := newTestDB(t)
	svc := NewEnrollmentService(db)
	ctx := context.Background()
	course := createCourse(t, db, 0)

	pending, err := svc.RequestEnrollment(ctx, course.ID, 1)
	require.NoError(t, err)
	require.Equal(t, int64(1), reloadCourse(t, db, course.ID).EnrollmentCount)

	rejected, err := svc.Reject(ctx, pending.ID, "incomplete application")
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentStatusRejected, rejected.Status)
	assert.Equal(t, "incomplete application", rejected.RejectedReason)
	require.NotNil(t, rejected.RejectedAt)

	// rejected rows no longer count
	assert.Equal(t, int64(0), reloadCourse(t, db, course.ID).EnrollmentCount)

	// rejected is terminal
	_, err = svc.Reject(ctx, pending.ID, "again")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRequestEnrollmentAfterRejection(t *testing.T) {
	db := newTestDB(t)
	svc := NewEnrollmentService(db)
	ctx := context.Background()
	course := createCourse(t, db, 0)

	pending, err := svc.RequestEnrollment(ctx, course.ID, 1)
	require.NoError(t, err)
	_, err = svc.Reject(ctx, pending.ID, "missing prerequisites")
	require.NoError(t, err)
	require.Equal(t, int64(0), reloadCourse(t, db, course.ID).EnrollmentCount)

	// a rejected student can submit a brand-new request; the rejected row is
	// revived instead of colliding with the unique (course, student) slot
	retry, err := svc.RequestEnrollment(ctx, course.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, pending.ID, retry.ID)
	assert.Equal(t, model.EnrollmentStatusPending, retry.Status)
	assert.Nil(t, retry.RejectedAt)
	assert.Empty(t, retry.RejectedReason)
	assert.Equal(t, int64(1), reloadCourse(t, db, course.ID).EnrollmentCount)

	// the revived request goes through the normal workflow
	approved, err := svc.Approve(ctx, retry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentStatusApproved, approved.Status)

	var rows int64
	require.NoError(t, db.Model(&model.Enrollment{}).
		Where("course_id = ? AND student_id = ?", course.ID, 1).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)

	// approved still blocks further requests
	_, err = svc.RequestEnrollment(ctx, course.ID, 1)
	assert.ErrorIs(t, err, ErrDuplicateEnrollment)
}

func TestRejectApprovedFails(t *testing.T) {
	db := newTestDB(t)
	svc := NewEnrollmentService(db)
	ctx := context.Background()
	course := createCourse(t, db, 0)

	pending, err := svc.RequestEnrollment(ctx, course.ID, 1)
	require.NoError(t, err)
	_, err = svc.Approve(ctx, pending.ID)
	require.NoError(t, err)

	_, err = svc.Reject(ctx, pending.ID, "too late")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestBulkApprovePartialFailure(t *testing.T) {
	db := newTestDB(t)
	svc := NewEnrollmentService(db)
	ctx := context.Background()
	course := createCourse(t, db, 0)

	first, err := svc.RequestEnrollment(ctx, course.ID, 1)
	require.NoError(t, err)
	second, err := svc.RequestEnrollment(ctx, course.ID, 2)
	require.NoError(t, err)
	third, err := svc.RequestEnrollment(ctx, course.ID, 3)
	require.NoError(t, err)
	_, err = svc.Reject(ctx, third.ID, "no")
	require.NoError(t, err)

	// missing id and rejected id fail individually, the rest still go through
	report := svc.BulkApprove(ctx, []uint{first.ID, 999, third.ID, second.ID})

	assert.Equal(t, []uint{first.ID, second.ID}, report.Approved)
	require.Len(t, report.Failures, 2)
	assert.Equal(t, uint(999), report.Failures[0].EnrollmentID)
	assert.Equal(t, "NOT_FOUND", report.Failures[0].Code)
	assert.Equal(t, third.ID, report.Failures[1].EnrollmentID)
	assert.Equal(t, "INVALID_TRANSITION", report.Failures[1].Code)
}

func TestApprovedForStudent(t *testing.T) {
	db := newTestDB(t)
	svc := NewEnrollmentService(db)
	ctx := context.Background()
	course := createCourse(t, db, 0)

	_, err := svc.ApprovedForStudent(ctx, course.ID, 1)
	assert.ErrorIs(t, err, ErrNotEnrolled)

	pending, err := svc.RequestEnrollment(ctx, course.ID, 1)
	require.NoError(t, err)

	// pending is not enrolled for gated operations
	_, err = svc.ApprovedForStudent(ctx, course.ID, 1)
	assert.ErrorIs(t, err, ErrNotEnrolled)

	_, err = svc.Approve(ctx, pending.ID)
	require.NoError(t, err)

	enrollment, err := svc.ApprovedForStudent(ctx, course.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, pending.ID, enrollment.ID)
}

func TestRecordQuizScore(t *testing.T) {
	db := newTestDB(t)
	svc := NewEnrollmentService(db)
	ctx := context.Background()
	course := createCourse(t, db, 0)

	quiz := model.Quiz{CourseID: course.ID, Title: "Quiz 1", Kind: model.QuizKindQuiz}
	require.NoError(t, db.Create(&quiz).Error)

	_, err := svc.RecordQuizScore(ctx, course.ID, 1, quiz.ID, 80)
	assert.ErrorIs(t, err, ErrNotEnrolled)

	pending, err := svc.RequestEnrollment(ctx, course.ID, 1)
	require.NoError(t, err)
	_, err = svc.Approve(ctx, pending.ID)
	require.NoError(t, err)

	enrollment, err := svc.RecordQuizScore(ctx, course.ID, 1, quiz.ID, 80)
	require.NoError(t, err)
	score, ok := enrollment.ScoreFor(quiz.ID)
	require.True(t, ok)
	assert.Equal(t, float64(80), score.Percentage)

	// a lower re-attempt never overwrites the best score
	enrollment, err = svc.RecordQuizScore(ctx, course.ID, 1, quiz.ID, 60)
	require.NoError(t, err)
	score, _ = enrollment.ScoreFor(quiz.ID)
	assert.Equal(t, float64(80), score.Percentage)

	enrollment, err = svc.RecordQuizScore(ctx, course.ID, 1, quiz.ID, 95)
	require.NoError(t, err)
	score, _ = enrollment.ScoreFor(quiz.ID)
	assert.Equal(t, float64(95), score.Percentage)

	_, err = svc.RecordQuizScore(ctx, course.ID, 1, quiz.ID, 101)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.RecordQuizScore(ctx, course.ID, 1, 999, 50)
	assert.ErrorIs(t, err, ErrNotFound)
}
