package model

import (
	"time"
)

// ActivityType represents the type of student activity
type ActivityType string

const (
	ActivityTypeLogin           ActivityType = "login"
	ActivityTypeVideoWatched    ActivityType = "video_watched"
	ActivityTypeQuizAttempted   ActivityType = "quiz_attempted"
	ActivityTypeLessonCompleted ActivityType = "lesson_completed"
	ActivityTypeModuleCompleted ActivityType = "module_completed"
)

// Valid reports whether t is a known activity type
func (t ActivityType) Valid() bool {
	switch t {
	case ActivityTypeLogin, ActivityTypeVideoWatched, ActivityTypeQuizAttempted,
		ActivityTypeLessonCompleted, ActivityTypeModuleCompleted:
		return true
	}
	return false
}

// StudentActivity is the append-only event log of per-student activity.
// Rows are never updated or deleted after creation; the active-student
// window and audit reads depend on that.
type StudentActivity struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	CourseID     uint         `gorm:"not null;index:idx_activity_course" json:"course_id"`
	StudentID    uint         `gorm:"not null;index:idx_activity_student" json:"student_id"`
	ActivityType ActivityType `gorm:"type:varchar(50);not null;index:idx_activity_type" json:"activity_type"`
	ModuleID     *uint        `json:"module_id,omitempty"`
	LessonID     *uint        `json:"lesson_id,omitempty"`
	VideoID      *uint        `json:"video_id,omitempty"`
	QuizID       *uint        `json:"quiz_id,omitempty"`
	Duration     int          `gorm:"default:0" json:"duration_seconds"`
	CreatedAt    time.Time    `gorm:"index:idx_activity_created" json:"created_at"`

	// Relationships
	Course  Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
	Student User   `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for StudentActivity
func (StudentActivity) TableName() string {
	return "student_activities"
}
