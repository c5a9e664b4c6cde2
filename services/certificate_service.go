package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sahilchouksey/learnhub-api/model"
	"gorm.io/gorm"
)

// Eligibility check identifiers reported in EligibilityResult.FailedChecks
const (
	CheckCourseCompleted     = "course_completed"
	CheckCompleteAllLessons  = "complete_all_lessons"
	CheckPassFinalExam       = "pass_final_exam"
	CheckPassAllQuizzes      = "pass_all_quizzes"
	CheckCompleteAssignments = "complete_assignments"
)

// EligibilityResult is the derived certificate verdict for one enrollment.
// Never persisted; requirements and quiz scores can change after the fact,
// so it is re-evaluated on every request.
type EligibilityResult struct {
	Eligible     bool     `json:"eligible"`
	FailedChecks []string `json:"failed_checks,omitempty"`
}

// EvaluateEligibility is the pure certificate evaluator. It checks only the
// requirements enabled on the course, against the enrollment and the course's
// quizzes. An enrollment that is not completed is never eligible, regardless
// of sub-checks. A missing score for a required quiz counts as failing, never
// as passing by default.
func EvaluateEligibility(enrollment *model.Enrollment, course *model.Course) EligibilityResult {
	result := EligibilityResult{Eligible: true}
	fail := func(check string) {
		result.Eligible = false
		result.FailedChecks = append(result.FailedChecks, check)
	}

	// completion is a floor requirement
	if !enrollment.Completed {
		fail(CheckCourseCompleted)
	}

	req := course.Requirements

	if req.CompleteAllLessons && enrollment.Progress < 100 {
		fail(CheckCompleteAllLessons)
	}

	if req.PassFinalExam {
		passed := false
		for _, quiz := range course.Quizzes {
			if quiz.Kind != model.QuizKindFinalExam {
				continue
			}
			if score, ok := enrollment.ScoreFor(quiz.ID); ok && score.Percentage >= req.MinimumGrade {
				passed = true
			}
			break
		}
		if !passed {
			fail(CheckPassFinalExam)
		}
	}

	if req.PassAllQuizzes {
		for _, quiz := range course.Quizzes {
			if quiz.Kind != model.QuizKindQuiz {
				continue
			}
			score, ok := enrollment.ScoreFor(quiz.ID)
			if !ok || score.Percentage < req.MinimumGrade {
				fail(CheckPassAllQuizzes)
				break
			}
		}
	}

	if req.CompleteAssignments {
		for _, quiz := range course.Quizzes {
			if quiz.Kind != model.QuizKindAssignment {
				continue
			}
			// assignments count as complete when a score entry exists at all
			if _, ok := enrollment.ScoreFor(quiz.ID); !ok {
				fail(CheckCompleteAssignments)
				break
			}
		}
	}

	return result
}

// CertificateService loads the inputs and applies the pure evaluator
type CertificateService struct {
	db *gorm.DB
}

// NewCertificateService creates a new certificate service
func NewCertificateService(db *gorm.DB) *CertificateService {
	return &CertificateService{db: db}
}

// Check evaluates certificate eligibility for (courseID, studentID)
func (s *CertificateService) Check(ctx context.Context, courseID, studentID uint) (*EligibilityResult, error) {
	var course model.Course
	err := s.db.WithContext(ctx).
		Preload("Quizzes").
		First(&course, courseID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("course %d: %w", courseID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load course: %w", err)
	}

	var enrollment model.Enrollment
	err = s.db.WithContext(ctx).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		First(&enrollment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotEnrolled
		}
		return nil, fmt.Errorf("failed to load enrollment: %w", err)
	}

	result := EvaluateEligibility(&enrollment, &course)
	return &result, nil
}
