package services

import (
	"context"
	"testing"

	"github.com/sahilchouksey/learnhub-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestEvaluateEligibilityCompletionFloor(t *testing.T) {
	course := &model.Course{
		Requirements: model.CertificateRequirements{MinimumGrade: 70},
	}

	// not completed is never eligible, even with every flag off
	result := EvaluateEligibility(&model.Enrollment{Completed: false, Progress: 100}, course)
	assert.False(t, result.Eligible)
	assert.Equal(t, []string{CheckCourseCompleted}, result.FailedChecks)

	result = EvaluateEligibility(&model.Enrollment{Completed: true, Progress: 100}, course)
	assert.True(t, result.Eligible)
	assert.Empty(t, result.FailedChecks)
}

func TestEvaluateEligibilityCompleteAllLessons(t *testing.T) {
	course := &model.Course{
		Requirements: model.CertificateRequirements{CompleteAllLessons: true, MinimumGrade: 70},
	}

	result := EvaluateEligibility(&model.Enrollment{Completed: true, Progress: 99}, course)
	assert.False(t, result.Eligible)
	assert.Contains(t, result.FailedChecks, CheckCompleteAllLessons)

	result = EvaluateEligibility(&model.Enrollment{Completed: true, Progress: 100}, course)
	assert.True(t, result.Eligible)
}

func TestEvaluateEligibilityFinalExam(t *testing.T) {
	course := &model.Course{
		Requirements: model.CertificateRequirements{PassFinalExam: true, MinimumGrade: 70},
		Quizzes: []model.Quiz{
			{ID: 1, Kind: model.QuizKindFinalExam},
			{ID: 2, Kind: model.QuizKindQuiz},
		},
	}

	// no score for the final exam fails, never passes by default
	result := EvaluateEligibility(&model.Enrollment{Completed: true, Progress: 100}, course)
	assert.False(t, result.Eligible)
	assert.Contains(t, result.FailedChecks, CheckPassFinalExam)

	below := &model.Enrollment{
		Completed: true, Progress: 100,
		QuizScores: datatypes.NewJSONSlice([]model.QuizScore{{QuizID: 1, Percentage: 69.9}}),
	}
	result = EvaluateEligibility(below, course)
	assert.False(t, result.Eligible)

	atGrade := &model.Enrollment{
		Completed: true, Progress: 100,
		QuizScores: datatypes.NewJSONSlice([]model.QuizScore{{QuizID: 1, Percentage: 70}}),
	}
	result = EvaluateEligibility(atGrade, course)
	assert.True(t, result.Eligible)
}

func TestEvaluateEligibilityAllQuizzes(t *testing.T) {
	course := &model.Course{
		Requirements: model.CertificateRequirements{PassAllQuizzes: true, MinimumGrade: 60},
		Quizzes: []model.Quiz{
			{ID: 1, Kind: model.QuizKindQuiz},
			{ID: 2, Kind: model.QuizKindQuiz},
			{ID: 3, Kind: model.QuizKindFinalExam}, // not part of this check
		},
	}

	oneMissing := &model.Enrollment{
		Completed: true, Progress: 100,
		QuizScores: datatypes.NewJSONSlice([]model.QuizScore{{QuizID: 1, Percentage: 90}}),
	}
	result := EvaluateEligibility(oneMissing, course)
	assert.False(t, result.Eligible)
	assert.Contains(t, result.FailedChecks, CheckPassAllQuizzes)

	allPassed := &model.Enrollment{
		Completed: true, Progress: 100,
		QuizScores: datatypes.NewJSONSlice([]model.QuizScore{
			{QuizID: 1, Percentage: 90},
			{QuizID: 2, Percentage: 60},
		}),
	}
	result = EvaluateEligibility(allPassed, course)
	assert.True(t, result.Eligible)
}

func TestEvaluateEligibilityAssignments(t *testing.T) {
	course := &model.Course{
		Requirements: model.CertificateRequirements{CompleteAssignments: true, MinimumGrade: 70},
		Quizzes: []model.Quiz{
			{ID: 1, Kind: model.QuizKindAssignment},
		},
	}

	result := EvaluateEligibility(&model.Enrollment{Completed: true, Progress: 100}, course)
	assert.False(t, result.Eligible)
	assert.Contains(t, result.FailedChecks, CheckCompleteAssignments)

	// an assignment counts as complete once any score entry exists
	submitted := &model.Enrollment{
		Completed: true, Progress: 100,
		QuizScores: datatypes.NewJSONSlice([]model.QuizScore{{QuizID: 1, Percentage: 0}}),
	}
	result = EvaluateEligibility(submitted, course)
	assert.True(t, result.Eligible)
}

func TestEvaluateEligibilityCollectsAllFailures(t *testing.T) {
	course := &model.Course{
		Requirements: model.CertificateRequirements{
			CompleteAllLessons: true,
			PassFinalExam:      true,
			MinimumGrade:       70,
		},
		Quizzes: []model.Quiz{{ID: 1, Kind: model.QuizKindFinalExam}},
	}

	result := EvaluateEligibility(&model.Enrollment{Completed: false, Progress: 40}, course)
	assert.False(t, result.Eligible)
	assert.Equal(t, []string{
		CheckCourseCompleted,
		CheckCompleteAllLessons,
		CheckPassFinalExam,
	}, result.FailedChecks)
}

func TestCertificateServiceCheck(t *testing.T) {
	db := newTestDB(t)
	svc := NewCertificateService(db)
	ctx := context.Background()

	course := createCourse(t, db, 0)
	require.NoError(t, db.Model(course).UpdateColumns(map[string]interface{}{
		"cert_req_complete_all_lessons": true,
		"cert_req_minimum_grade":        70,
	}).Error)

	_, err := svc.Check(ctx, 999, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Check(ctx, course.ID, 1)
	assert.ErrorIs(t, err, ErrNotEnrolled)

	enrollment := approvedEnrollment(t, db, course.ID, 1)
	result, err := svc.Check(ctx, course.ID, 1)
	require.NoError(t, err)
	assert.False(t, result.Eligible)

	require.NoError(t, db.Model(enrollment).UpdateColumns(map[string]interface{}{
		"completed": true,
		"progress":  100,
	}).Error)

	result, err = svc.Check(ctx, course.ID, 1)
	require.NoError(t, err)
	assert.True(t, result.Eligible)
}
