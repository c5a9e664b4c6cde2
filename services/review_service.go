package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/sahilchouksey/learnhub-api/model"
	"gorm.io/gorm"
)

// VerifiedProgressThreshold marks a review as verified when the student's
// progress exceeded it at submission time.
const VerifiedProgressThreshold = 50

// ReviewService owns course reviews and the course rating aggregates.
// Averages are always recomputed from a full rescan; no incremental
// running-average drift is tolerated because edits and deletes are allowed.
type ReviewService struct {
	db          *gorm.DB
	enrollments *EnrollmentService
}

// NewReviewService creates a new review service
func NewReviewService(db *gorm.DB, enrollments *EnrollmentService) *ReviewService {
	return &ReviewService{
		db:          db,
		enrollments: enrollments,
	}
}

// SubmitReview upserts the student's review for a course. Requires an
// approved enrollment; a second submission replaces the first. The verified
// flag snapshots the enrollment's progress at call time and is not
// re-evaluated later.
func (s *ReviewService) SubmitReview(ctx context.Context, courseID, studentID uint, rating int, comment string) (*model.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ValidationError("rating must be between 1 and 5")
	}
	if strings.TrimSpace(comment) == "" {
		return nil, ValidationError("comment must not be empty")
	}

	enrollment, err := s.enrollments.ApprovedForStudent(ctx, courseID, studentID)
	if err != nil {
		return nil, err
	}

	var review model.Review
	err = s.db.WithContext(ctx).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		First(&review).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		review = model.Review{
			CourseID:        courseID,
			StudentID:       studentID,
			Rating:          rating,
			Comment:         comment,
			StudentProgress: enrollment.Progress,
			IsVerified:      enrollment.Progress > VerifiedProgressThreshold,
		}
		if err := s.db.WithContext(ctx).Create(&review).Error; err != nil {
			return nil, fmt.Errorf("failed to create review: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to load review: %w", err)
	default:
		review.Rating = rating
		review.Comment = comment
		review.StudentProgress = enrollment.Progress
		review.IsVerified = enrollment.Progress > VerifiedProgressThreshold
		if err := s.db.WithContext(ctx).Save(&review).Error; err != nil {
			return nil, fmt.Errorf("failed to update review: %w", err)
		}
	}

	if _, err := s.RecomputeRatingStats(ctx, courseID); err != nil {
		return nil, err
	}
	return &review, nil
}

// DeleteReview removes the student's review and recomputes the course's
// rating stats. Deleting the last review resets the average to 0.
func (s *ReviewService) DeleteReview(ctx context.Context, courseID, studentID uint) error {
	var review model.Review
	err := s.db.WithContext(ctx).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		First(&review).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("review for course %d: %w", courseID, ErrNotFound)
		}
		return fmt.Errorf("failed to load review: %w", err)
	}

	if err := s.db.WithContext(ctx).Delete(&review).Error; err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	_, err = s.RecomputeRatingStats(ctx, courseID)
	return err
}

// RatingStats is the scan-derived rating aggregate for one course
type RatingStats struct {
	CourseID       uint     `json:"course_id"`
	AverageRating  float64  `json:"average_rating"` // mean of ratings, 1 decimal; 0 with no reviews
	RatingCount    int64    `json:"rating_count"`
	Distribution   [5]int64 `json:"distribution"` // counts for ratings 1..5
	SkippedRecords int64    `json:"skipped_records"`
}

// RecomputeRatingStats rescans the course's reviews and overwrites the
// denormalized average_rating and rating_count. Malformed ratings are skipped
// and counted instead of aborting the aggregate.
func (s *ReviewService) RecomputeRatingStats(ctx context.Context, courseID uint) (*RatingStats, error) {
	var reviews []model.Review
	if err := s.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to scan reviews: %w", err)
	}

	stats := &RatingStats{CourseID: courseID}
	sum := 0
	for _, r := range reviews {
		if r.Rating < 1 || r.Rating > 5 {
			stats.SkippedRecords++
			continue
		}
		stats.Distribution[r.Rating-1]++
		stats.RatingCount++
		sum += r.Rating
	}

	if stats.RatingCount > 0 {
		mean := float64(sum) / float64(stats.RatingCount)
		stats.AverageRating = math.Round(mean*10) / 10
	}

	err := s.db.WithContext(ctx).Model(&model.Course{}).
		Where("id = ?", courseID).
		UpdateColumns(map[string]interface{}{
			"average_rating": stats.AverageRating,
			"rating_count":   stats.RatingCount,
		}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to store rating stats: %w", err)
	}

	return stats, nil
}

// GetReview returns the student's review for a course
func (s *ReviewService) GetReview(ctx context.Context, courseID, studentID uint) (*model.Review, error) {
	var review model.Review
	err := s.db.WithContext(ctx).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		First(&review).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load review: %w", err)
	}
	return &review, nil
}

// ListByCourse returns a course's reviews, newest first
func (s *ReviewService) ListByCourse(ctx context.Context, courseID uint) ([]model.Review, error) {
	var reviews []model.Review
	err := s.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}
