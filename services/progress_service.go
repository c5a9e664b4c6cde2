package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sahilchouksey/learnhub-api/model"
	"github.com/sahilchouksey/learnhub-api/utils/cache"
	"gorm.io/gorm"
)

const (
	// DefaultActiveWindow is the trailing window for the active-student count
	DefaultActiveWindow = 24 * time.Hour

	// statsCacheTTL bounds how stale a cached stats read can be
	statsCacheTTL = time.Minute

	statsCacheKey = "course:stats:%d"
)

// ProgressService is the progress aggregator: it appends to the activity log,
// derives enrollment progress from lesson completions, and computes the
// course-level counters. The incremental counters on Course are a cache; the
// scans here are the source of truth.
type ProgressService struct {
	db           *gorm.DB
	cache        *cache.RedisCache
	activeWindow time.Duration
}

// NewProgressService creates a new progress service. The cache may be nil;
// stats reads then always scan.
func NewProgressService(db *gorm.DB, redisCache *cache.RedisCache) *ProgressService {
	return &ProgressService{
		db:           db,
		cache:        redisCache,
		activeWindow: DefaultActiveWindow,
	}
}

// SetActiveWindow overrides the trailing window for active-student counts
func (s *ProgressService) SetActiveWindow(window time.Duration) {
	if window > 0 {
		s.activeWindow = window
	}
}

// ActivityInput is the validated input for recording one activity event.
// Each activity type requires its own resource id; missing ids are rejected
// instead of silently defaulted.
type ActivityInput struct {
	CourseID     uint               `json:"course_id" validate:"required,min=1"`
	StudentID    uint               `json:"student_id" validate:"required,min=1"`
	ActivityType model.ActivityType `json:"activity_type" validate:"required"`
	ModuleID     *uint              `json:"module_id,omitempty"`
	LessonID     *uint              `json:"lesson_id,omitempty"`
	VideoID      *uint              `json:"video_id,omitempty"`
	QuizID       *uint              `json:"quiz_id,omitempty"`
	Duration     int                `json:"duration_seconds"`
}

func (in *ActivityInput) validate() error {
	if !in.ActivityType.Valid() {
		return ValidationError("unknown activity type %q", in.ActivityType)
	}
	if in.Duration < 0 {
		return ValidationError("duration must not be negative")
	}
	switch in.ActivityType {
	case model.ActivityTypeLessonCompleted:
		if in.LessonID == nil {
			return ValidationError("lesson_completed requires lesson_id")
		}
	case model.ActivityTypeModuleCompleted:
		if in.ModuleID == nil {
			return ValidationError("module_completed requires module_id")
		}
	case model.ActivityTypeVideoWatched:
		if in.VideoID == nil {
			return ValidationError("video_watched requires video_id")
		}
	case model.ActivityTypeQuizAttempted:
		if in.QuizID == nil {
			return ValidationError("quiz_attempted requires quiz_id")
		}
	}
	return nil
}

// RecordActivity appends the event to the activity log and, for completion
// events on an approved enrollment, recomputes that enrollment's progress.
// Events for pending or rejected enrollments are kept in the log but never
// move progress.
func (s *ProgressService) RecordActivity(ctx context.Context, input ActivityInput) (*model.StudentActivity, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	var course model.Course
	if err := s.db.WithContext(ctx).First(&course, input.CourseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("course %d: %w", input.CourseID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load course: %w", err)
	}

	event := model.StudentActivity{
		CourseID:     input.CourseID,
		StudentID:    input.StudentID,
		ActivityType: input.ActivityType,
		ModuleID:     input.ModuleID,
		LessonID:     input.LessonID,
		VideoID:      input.VideoID,
		QuizID:       input.QuizID,
		Duration:     input.Duration,
	}
	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
		return nil, fmt.Errorf("failed to append activity event: %w", err)
	}

	// Progress only moves for approved enrollments; the event itself is
	// already in the log either way.
	var enrollment model.Enrollment
	err := s.db.WithContext(ctx).
		Where("course_id = ? AND student_id = ? AND status = ?",
			input.CourseID, input.StudentID, model.EnrollmentStatusApproved).
		First(&enrollment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &event, nil
		}
		return nil, fmt.Errorf("failed to load enrollment: %w", err)
	}

	switch input.ActivityType {
	case model.ActivityTypeLessonCompleted:
		if err := s.completeLessons(ctx, &enrollment, []uint{*input.LessonID}, input.ModuleID); err != nil {
			return nil, err
		}
	case model.ActivityTypeModuleCompleted:
		var lessons []model.Lesson
		if err := s.db.WithContext(ctx).
			Where("module_id = ?", *input.ModuleID).
			Find(&lessons).Error; err != nil {
			return nil, fmt.Errorf("failed to load module lessons: %w", err)
		}
		lessonIDs := make([]uint, 0, len(lessons))
		for _, l := range lessons {
			lessonIDs = append(lessonIDs, l.ID)
		}
		if err := s.completeLessons(ctx, &enrollment, lessonIDs, input.ModuleID); err != nil {
			return nil, err
		}
	default:
		// non-completion activity only refreshes last_accessed
		now := time.Now()
		if err := s.db.WithContext(ctx).Model(&model.Enrollment{}).
			Where("id = ?", enrollment.ID).
			UpdateColumn("last_accessed", now).Error; err != nil {
			return nil, fmt.Errorf("failed to touch enrollment: %w", err)
		}
	}

	s.invalidateStatsCache(ctx, input.CourseID)
	return &event, nil
}

// completeLessons records lesson completion rows and recomputes the
// enrollment's progress percentage from the scan.
func (s *ProgressService) completeLessons(ctx context.Context, enrollment *model.Enrollment, lessonIDs []uint, moduleID *uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, lessonID := range lessonIDs {
			completion := model.LessonCompletion{
				EnrollmentID: enrollment.ID,
				LessonID:     lessonID,
			}
			// re-completing a lesson is a no-op
			if err := tx.Where("enrollment_id = ? AND lesson_id = ?", enrollment.ID, lessonID).
				FirstOrCreate(&completion).Error; err != nil {
				return fmt.Errorf("failed to record lesson completion: %w", err)
			}
		}

		progress, err := s.computeProgress(tx, enrollment.CourseID, enrollment.ID)
		if err != nil {
			return err
		}

		now := time.Now()
		updates := map[string]interface{}{
			"progress":      progress,
			"last_accessed": now,
		}
		if moduleID != nil {
			var module model.CourseModule
			if err := tx.First(&module, *moduleID).Error; err == nil {
				updates["current_module"] = module.Position
			}
		}

		if err := tx.Model(&model.Enrollment{}).
			Where("id = ?", enrollment.ID).
			Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update progress: %w", err)
		}

		// completed latches on the first crossing of 100 and never reverts.
		// The latch is a conditional write against the stored row, not the
		// value loaded before the transaction, so two concurrent completion
		// events bump completion_count exactly once between them.
		if progress >= 100 {
			res := tx.Model(&model.Enrollment{}).
				Where("id = ? AND completed = ?", enrollment.ID, false).
				Updates(map[string]interface{}{
					"completed":    true,
					"completed_at": now,
				})
			if res.Error != nil {
				return fmt.Errorf("failed to latch completion: %w", res.Error)
			}
			if res.RowsAffected == 1 {
				if err := tx.Model(&model.Course{}).
					Where("id = ?", enrollment.CourseID).
					UpdateColumn("completion_count", gorm.Expr("completion_count + ?", 1)).Error; err != nil {
					return fmt.Errorf("failed to increment completion count: %w", err)
				}
			}
		}
		return nil
	})
}

// computeProgress derives completedLessons / totalLessons * 100, rounded to
// the nearest integer. A course with zero lessons reports 0.
func (s *ProgressService) computeProgress(tx *gorm.DB, courseID, enrollmentID uint) (int, error) {
	var totalLessons int64
	err := tx.Model(&model.Lesson{}).
		Joins("JOIN course_modules ON course_modules.id = lessons.module_id").
		Where("course_modules.course_id = ? AND course_modules.deleted_at IS NULL", courseID).
		Count(&totalLessons).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count course lessons: %w", err)
	}
	if totalLessons == 0 {
		return 0, nil
	}

	var completedLessons int64
	err = tx.Model(&model.LessonCompletion{}).
		Joins("JOIN lessons ON lessons.id = lesson_completions.lesson_id").
		Joins("JOIN course_modules ON course_modules.id = lessons.module_id").
		Where("lesson_completions.enrollment_id = ? AND course_modules.course_id = ?", enrollmentID, courseID).
		Where("lessons.deleted_at IS NULL AND course_modules.deleted_at IS NULL").
		Count(&completedLessons).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count completed lessons: %w", err)
	}

	progress := int(math.Round(float64(completedLessons) / float64(totalLessons) * 100))
	if progress > 100 {
		progress = 100
	}
	return progress, nil
}

// StudentProgress is the per-student dashboard view of one enrollment
type StudentProgress struct {
	Enrollment       model.Enrollment `json:"enrollment"`
	CompletedLessons int64            `json:"completed_lessons"`
	TotalLessons     int64            `json:"total_lessons"`
}

// GetStudentProgress returns the student's progress detail for one course
func (s *ProgressService) GetStudentProgress(ctx context.Context, courseID, studentID uint) (*StudentProgress, error) {
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

	result := &StudentProgress{Enrollment: enrollment}

	err = s.db.WithContext(ctx).Model(&model.Lesson{}).
		Joins("JOIN course_modules ON course_modules.id = lessons.module_id").
		Where("course_modules.course_id = ? AND course_modules.deleted_at IS NULL", courseID).
		Count(&result.TotalLessons).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count lessons: %w", err)
	}

	err = s.db.WithContext(ctx).Model(&model.LessonCompletion{}).
		Where("enrollment_id = ?", enrollment.ID).
		Count(&result.CompletedLessons).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count completions: %w", err)
	}

	return result, nil
}

// CourseStats is the scan-derived view of a course's counters
type CourseStats struct {
	CourseID            uint  `json:"course_id"`
	EnrollmentCount     int64 `json:"enrollment_count"`      // non-rejected enrollments
	CompletionCount     int64 `json:"completion_count"`      // completed enrollments
	ActiveStudentsCount int64 `json:"active_students_count"` // distinct students active in the window
	SkippedRecords      int64 `json:"skipped_records"`       // malformed rows excluded from the scan
}

// ComputeCourseStats derives the course counters from a fresh scan of the
// enrollment store and activity log. Malformed rows are skipped and counted,
// never aborting the aggregate.
func (s *ProgressService) ComputeCourseStats(ctx context.Context, courseID uint) (*CourseStats, error) {
	var course model.Course
	if err := s.db.WithContext(ctx).First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("course %d: %w", courseID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load course: %w", err)
	}

	stats := &CourseStats{CourseID: courseID}

	var enrollments []model.Enrollment
	if err := s.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Find(&enrollments).Error; err != nil {
		return nil, fmt.Errorf("failed to scan enrollments: %w", err)
	}

	for _, e := range enrollments {
		switch e.Status {
		case model.EnrollmentStatusPending, model.EnrollmentStatusApproved:
			stats.EnrollmentCount++
		case model.EnrollmentStatusRejected:
			// rejected rows are excluded, not malformed
		default:
			stats.SkippedRecords++
			continue
		}
		if e.Completed {
			stats.CompletionCount++
		}
	}

	since := time.Now().Add(-s.activeWindow)
	err := s.db.WithContext(ctx).Model(&model.StudentActivity{}).
		Where("course_id = ? AND created_at >= ?", courseID, since).
		Distinct("student_id").
		Count(&stats.ActiveStudentsCount).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count active students: %w", err)
	}

	return stats, nil
}

// GetCourseStats returns course stats, served from the short-TTL cache when
// available. Cached reads may be slightly stale but are internally consistent.
func (s *ProgressService) GetCourseStats(ctx context.Context, courseID uint) (*CourseStats, error) {
	key := fmt.Sprintf(statsCacheKey, courseID)
	if s.cache != nil {
		var cached CourseStats
		if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	stats, err := s.ComputeCourseStats(ctx, courseID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, key, stats, statsCacheTTL)
	}
	return stats, nil
}

// ReconcileCourseCounters recomputes the course's denormalized counters from
// scans and overwrites the cached values. Returns the authoritative stats.
func (s *ProgressService) ReconcileCourseCounters(ctx context.Context, courseID uint) (*CourseStats, error) {
	stats, err := s.ComputeCourseStats(ctx, courseID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Model(&model.Course{}).
		Where("id = ?", courseID).
		UpdateColumns(map[string]interface{}{
			"enrollment_count":      stats.EnrollmentCount,
			"completion_count":      stats.CompletionCount,
			"active_students_count": stats.ActiveStudentsCount,
		}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile counters: %w", err)
	}

	s.invalidateStatsCache(ctx, courseID)
	return stats, nil
}

// CourseIDs returns all course ids, used by the reconciliation job
func (s *ProgressService) CourseIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	if err := s.db.WithContext(ctx).Model(&model.Course{}).Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list course ids: %w", err)
	}
	return ids, nil
}

func (s *ProgressService) invalidateStatsCache(ctx context.Context, courseID uint) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Delete(ctx, fmt.Sprintf(statsCacheKey, courseID))
}
