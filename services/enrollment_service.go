package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sahilchouksey/learnhub-api/model"
	"gorm.io/gorm"
)

// EnrollmentService owns the enrollment store and the approval workflow:
// pending -> approved | rejected. Approved is terminal; a rejected student
// retries by submitting a brand-new enrollment request, which revives the
// rejected row as a fresh pending one.
type EnrollmentService struct {
	db *gorm.DB
}

// NewEnrollmentService creates a new enrollment service
func NewEnrollmentService(db *gorm.DB) *EnrollmentService {
	return &EnrollmentService{db: db}
}

// RequestEnrollment creates a pending enrollment for (courseID, studentID).
// Paid courses require a completed payment record first. The course's
// enrollment_count is incremented atomically in the same transaction.
func (s *EnrollmentService) RequestEnrollment(ctx context.Context, courseID, studentID uint) (*model.Enrollment, error) {
	var course model.Course
	if err := s.db.WithContext(ctx).First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("course %d: %w", courseID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load course: %w", err)
	}

	// One active enrollment per (course, student). A rejected row does not
	// block a retry: it is revived into a fresh pending request below, reusing
	// the unique (course_id, student_id) slot.
	var rejected *model.Enrollment
	var existing model.Enrollment
	err := s.db.WithContext(ctx).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		First(&existing).Error
	switch {
	case err == nil && existing.Status != model.EnrollmentStatusRejected:
		return nil, ErrDuplicateEnrollment
	case err == nil:
		rejected = &existing
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("failed to check existing enrollment: %w", err)
	}

	// Payment collaborator precondition for paid courses
	if course.Price > 0 {
		var paid int64
		if err := s.db.WithContext(ctx).Model(&model.CoursePayment{}).
			Where("course_id = ? AND user_id = ? AND status = ?",
				courseID, studentID, model.PaymentStatusCompleted).
			Count(&paid).Error; err != nil {
			return nil, fmt.Errorf("failed to check payment: %w", err)
		}
		if paid == 0 {
			return nil, ValidationError("paid course requires a completed payment")
		}
	}

	if rejected != nil {
		return s.reviveRejected(ctx, rejected)
	}

	enrollment := model.Enrollment{
		CourseID:  courseID,
		StudentID: studentID,
		Status:    model.EnrollmentStatusPending,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&enrollment).Error; err != nil {
			return err
		}
		// enrollment_count tracks non-rejected enrollments; atomic increment,
		// never read-modify-write
		return tx.Model(&model.Course{}).Where("id = ?", courseID).
			UpdateColumn("enrollment_count", gorm.Expr("enrollment_count + ?", 1)).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create enrollment: %w", err)
	}

	return &enrollment, nil
}

// reviveRejected turns a rejected enrollment back into a brand-new pending
// request. A rejected row never carried progress (reject only leaves pending),
// so resetting the approval fields is enough. Version-guarded like every other
// state transition.
func (s *EnrollmentService) reviveRejected(ctx context.Context, enrollment *model.Enrollment) (*model.Enrollment, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Enrollment{}).
			Where("id = ? AND status = ? AND version = ?",
				enrollment.ID, model.EnrollmentStatusRejected, enrollment.Version).
			Updates(map[string]interface{}{
				"status":          model.EnrollmentStatusPending,
				"approved_at":     nil,
				"rejected_at":     nil,
				"rejected_reason": "",
				"version":         enrollment.Version + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("enrollment %d changed concurrently: %w", enrollment.ID, ErrInvalidTransition)
		}
		// the retry counts toward enrollment_count again
		return tx.Model(&model.Course{}).Where("id = ?", enrollment.CourseID).
			UpdateColumn("enrollment_count", gorm.Expr("enrollment_count + ?", 1)).Error
	})
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to revive enrollment: %w", err)
	}

	if err := s.db.WithContext(ctx).First(enrollment, enrollment.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload enrollment: %w", err)
	}
	return enrollment, nil
}

// Approve transitions pending -> approved. Re-approving an already-approved
// enrollment is a no-op, not an error. Approving a rejected enrollment fails
// with ErrInvalidTransition. The transition is guarded by the row version so
// a stale approve racing a reject fails cleanly instead of overwriting it.
func (s *EnrollmentService) Approve(ctx context.Context, enrollmentID uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	if err := s.db.WithContext(ctx).First(&enrollment, enrollmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("enrollment %d: %w", enrollmentID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load enrollment: %w", err)
	}

	switch enrollment.Status {
	case model.EnrollmentStatusApproved:
		// idempotent no-op: state and approved_at stay as they are
		return &enrollment, nil
	case model.EnrollmentStatusRejected:
		return nil, fmt.Errorf("enrollment %d is rejected: %w", enrollmentID, ErrInvalidTransition)
	}

	now := time.Now()
	res := s.db.WithContext(ctx).Model(&model.Enrollment{}).
		Where("id = ? AND status = ? AND version = ?",
			enrollmentID, model.EnrollmentStatusPending, enrollment.Version).
		Updates(map[string]interface{}{
			"status":      model.EnrollmentStatusApproved,
			"approved_at": now,
			"version":     enrollment.Version + 1,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to approve enrollment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Lost the race. Re-read to decide between the idempotent case and a
		// genuine conflict with a concurrent reject.
		if err := s.db.WithContext(ctx).First(&enrollment, enrollmentID).Error; err != nil {
			return nil, fmt.Errorf("failed to reload enrollment: %w", err)
		}
		if enrollment.Status == model.EnrollmentStatusApproved {
			return &enrollment, nil
		}
		return nil, fmt.Errorf("enrollment %d changed concurrently: %w", enrollmentID, ErrInvalidTransition)
	}

	if err := s.db.WithContext(ctx).First(&enrollment, enrollmentID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload enrollment: %w", err)
	}
	return &enrollment, nil
}

// Reject transitions pending -> rejected and stores the reason. Rejecting a
// non-pending enrollment fails with ErrInvalidTransition. Rejected rows no
// longer count toward enrollment_count.
func (s *EnrollmentService) Reject(ctx context.Context, enrollmentID uint, reason string) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	if err := s.db.WithContext(ctx).First(&enrollment, enrollmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("enrollment %d: %w", enrollmentID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load enrollment: %w", err)
	}

	if enrollment.Status != model.EnrollmentStatusPending {
		return nil, fmt.Errorf("enrollment %d is %s: %w", enrollmentID, enrollment.Status, ErrInvalidTransition)
	}

	now := time.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Enrollment{}).
			Where("id = ? AND status = ? AND version = ?",
				enrollmentID, model.EnrollmentStatusPending, enrollment.Version).
			Updates(map[string]interface{}{
				"status":          model.EnrollmentStatusRejected,
				"rejected_at":     now,
				"rejected_reason": reason,
				"version":         enrollment.Version + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("enrollment %d changed concurrently: %w", enrollmentID, ErrInvalidTransition)
		}
		return tx.Model(&model.Course{}).Where("id = ?", enrollment.CourseID).
			UpdateColumn("enrollment_count", gorm.Expr("enrollment_count - ?", 1)).Error
	})
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to reject enrollment: %w", err)
	}

	if err := s.db.WithContext(ctx).First(&enrollment, enrollmentID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload enrollment: %w", err)
	}
	return &enrollment, nil
}

// BulkApproveFailure describes one failed item of a bulk approval
type BulkApproveFailure struct {
	EnrollmentID uint   `json:"enrollment_id"`
	Code         string `json:"code"`
	Message      string `json:"message"`
}

// BulkApproveReport is the partial-failure report of a bulk approval
type BulkApproveReport struct {
	Approved []uint               `json:"approved"`
	Failures []BulkApproveFailure `json:"failures"`
}

// BulkApprove applies Approve to each id independently. Individual failures
// are collected into the report and never abort the remaining items; no lock
// is held across the batch.
func (s *EnrollmentService) BulkApprove(ctx context.Context, enrollmentIDs []uint) *BulkApproveReport {
	report := &BulkApproveReport{
		Approved: make([]uint, 0, len(enrollmentIDs)),
		Failures: make([]BulkApproveFailure, 0),
	}

	for _, id := range enrollmentIDs {
		if _, err := s.Approve(ctx, id); err != nil {
			report.Failures = append(report.Failures, BulkApproveFailure{
				EnrollmentID: id,
				Code:         ErrorCode(err),
				Message:      err.Error(),
			})
			continue
		}
		report.Approved = append(report.Approved, id)
	}

	return report
}

// Get returns one enrollment by id
func (s *EnrollmentService) Get(ctx context.Context, enrollmentID uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	if err := s.db.WithContext(ctx).First(&enrollment, enrollmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("enrollment %d: %w", enrollmentID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load enrollment: %w", err)
	}
	return &enrollment, nil
}

// GetForStudent returns the enrollment for (courseID, studentID)
func (s *EnrollmentService) GetForStudent(ctx context.Context, courseID, studentID uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := s.db.WithContext(ctx).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		First(&enrollment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load enrollment: %w", err)
	}
	return &enrollment, nil
}

// ApprovedForStudent returns the approved enrollment for (courseID, studentID),
// or ErrNotEnrolled when none exists in the approved state.
func (s *EnrollmentService) ApprovedForStudent(ctx context.Context, courseID, studentID uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := s.db.WithContext(ctx).
		Where("course_id = ? AND student_id = ? AND status = ?",
			courseID, studentID, model.EnrollmentStatusApproved).
		First(&enrollment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotEnrolled
		}
		return nil, fmt.Errorf("failed to load enrollment: %w", err)
	}
	return &enrollment, nil
}

// ListByCourse returns a course's enrollments, optionally filtered by status
func (s *EnrollmentService) ListByCourse(ctx context.Context, courseID uint, status model.EnrollmentStatus) ([]model.Enrollment, error) {
	query := s.db.WithContext(ctx).Where("course_id = ?", courseID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var enrollments []model.Enrollment
	if err := query.Order("created_at ASC").Find(&enrollments).Error; err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	return enrollments, nil
}

// ListByStudent returns all enrollments of one student across courses
func (s *EnrollmentService) ListByStudent(ctx context.Context, studentID uint) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := s.db.WithContext(ctx).
		Preload("Course").
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&enrollments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	return enrollments, nil
}

// RecordQuizScore stores the best score for a quiz on an approved enrollment.
// A lower re-attempt never overwrites a higher recorded score.
func (s *EnrollmentService) RecordQuizScore(ctx context.Context, courseID, studentID, quizID uint, percentage float64) (*model.Enrollment, error) {
	if percentage < 0 || percentage > 100 {
		return nil, ValidationError("quiz percentage must be between 0 and 100")
	}

	var quiz model.Quiz
	if err := s.db.WithContext(ctx).
		Where("id = ? AND course_id = ?", quizID, courseID).
		First(&quiz).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("quiz %d: %w", quizID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load quiz: %w", err)
	}

	enrollment, err := s.ApprovedForStudent(ctx, courseID, studentID)
	if err != nil {
		return nil, err
	}

	updated := false
	for i, score := range enrollment.QuizScores {
		if score.QuizID == quizID {
			if percentage > score.Percentage {
				enrollment.QuizScores[i].Percentage = percentage
			}
			updated = true
			break
		}
	}
	if !updated {
		enrollment.QuizScores = append(enrollment.QuizScores, model.QuizScore{
			QuizID:     quizID,
			Percentage: percentage,
		})
	}

	now := time.Now()
	res := s.db.WithContext(ctx).Model(&model.Enrollment{}).
		Where("id = ? AND version = ?", enrollment.ID, enrollment.Version).
		Updates(map[string]interface{}{
			"quiz_scores":   enrollment.QuizScores,
			"last_accessed": now,
			"version":       enrollment.Version + 1,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to record quiz score: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("enrollment %d changed concurrently: %w", enrollment.ID, ErrInvalidTransition)
	}

	if err := s.db.WithContext(ctx).First(enrollment, enrollment.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload enrollment: %w", err)
	}
	return enrollment, nil
}
