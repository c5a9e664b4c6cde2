package cron

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sahilchouksey/learnhub-api/model"
)

// ReconcileCourseCounters recomputes every course's enrollment, completion
// and active-student counters from scans and overwrites the cached columns.
// Runs every 30 minutes.
func (m *CronManager) ReconcileCourseCounters() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	jobName := "reconcile_course_counters"

	courseIDs, err := m.progress.CourseIDs(ctx)
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to list courses: %w", err))
		return
	}

	reconciled := 0
	failed := 0
	for _, courseID := range courseIDs {
		if _, err := m.progress.ReconcileCourseCounters(ctx, courseID); err != nil {
			log.Printf("[CRON] Failed to reconcile counters for course %d: %v", courseID, err)
			failed++
			continue
		}
		reconciled++
	}

	m.logJobComplete(jobName, fmt.Sprintf("Reconciled %d courses, %d failed", reconciled, failed))
}

// RecomputeRatingStats rescans every course's reviews and overwrites the
// denormalized rating columns. Runs hourly as a safety net behind the
// per-write recompute.
func (m *CronManager) RecomputeRatingStats() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	jobName := "recompute_rating_stats"

	courseIDs, err := m.progress.CourseIDs(ctx)
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to list courses: %w", err))
		return
	}

	recomputed := 0
	skipped := int64(0)
	for _, courseID := range courseIDs {
		stats, err := m.reviews.RecomputeRatingStats(ctx, courseID)
		if err != nil {
			log.Printf("[CRON] Failed to recompute ratings for course %d: %v", courseID, err)
			continue
		}
		recomputed++
		skipped += stats.SkippedRecords
	}

	m.logJobComplete(jobName, fmt.Sprintf("Recomputed %d courses, skipped %d malformed reviews", recomputed, skipped))
}

// ReportStalePendingEnrollments counts enrollment requests that have been
// waiting for admin action for more than 7 days. Runs daily.
func (m *CronManager) ReportStalePendingEnrollments() {
	jobName := "report_stale_pending_enrollments"

	cutoff := time.Now().Add(-7 * 24 * time.Hour)

	var stale int64
	err := m.db.Model(&model.Enrollment{}).
		Where("status = ? AND created_at < ?", model.EnrollmentStatusPending, cutoff).
		Count(&stale).Error
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to count pending enrollments: %w", err))
		return
	}

	if stale > 0 {
		log.Printf("[CRON] %d enrollments pending for more than 7 days", stale)
	}
	m.logJobComplete(jobName, fmt.Sprintf("%d stale pending enrollments", stale))
}

// CleanupOldData removes expired blacklist tokens and old cron logs.
// The student activity log is append-only and is never cleaned up here.
func (m *CronManager) CleanupOldData() {
	jobName := "cleanup_old_data"

	totalCleaned := 0

	// 1. Expired JWT tokens older than 30 days
	cutoffTokens := time.Now().Add(-30 * 24 * time.Hour)
	result := m.db.Where("expires_at < ?", cutoffTokens).Delete(&model.JWTTokenBlacklist{})
	if result.Error != nil {
		log.Printf("[CRON] Failed to clean token blacklist: %v", result.Error)
	} else {
		log.Printf("[CRON] Cleaned %d expired tokens", result.RowsAffected)
		totalCleaned += int(result.RowsAffected)
	}

	// 2. Cron job logs older than 90 days
	cutoffLogs := time.Now().Add(-90 * 24 * time.Hour)
	result = m.db.Where("created_at < ?", cutoffLogs).Delete(&model.CronJobLog{})
	if result.Error != nil {
		log.Printf("[CRON] Failed to clean cron logs: %v", result.Error)
	} else {
		log.Printf("[CRON] Cleaned %d old cron logs", result.RowsAffected)
		totalCleaned += int(result.RowsAffected)
	}

	m.logJobComplete(jobName, fmt.Sprintf("Cleaned %d records", totalCleaned))
}
